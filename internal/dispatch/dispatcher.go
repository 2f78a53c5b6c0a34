package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/cheshire-bot/internal/domain"
	"github.com/tbourn/cheshire-bot/internal/services"
)

// Env is the part of services.Environment the commands use.
type Env interface {
	ChatTriggers(chatID int64, displayName string) string
	SetTrigger(chatID int64, name string, c domain.Content) error
	DeleteTrigger(chatID int64, name string) error
	MatchTrigger(chatID int64, text string) (domain.Trigger, bool)
	BroadcastChats() []int64

	AddUser(userID int64, nickname string, status domain.Status) error
	UserExists(userID int64) bool
	UserStatus(userID int64) (domain.Status, bool)
	SetUserStatus(userID int64, status domain.Status) bool
	UserInfo(userID int64) string
	AllUserInfo() string
	UserOrders(userID int64) (*domain.User, bool)

	Dump(ctx context.Context) error
}

// handlerFunc returns the replies to send. A non-nil error marks the
// command as failed; its replies are still sent.
type handlerFunc func(ctx context.Context, ev Event) ([]Reply, error)

type command struct {
	handle      handlerFunc
	admin       bool
	privateOnly bool
}

// Dispatcher routes events to command handlers.
type Dispatcher struct {
	env        Env
	masterUser int64
	commands   map[string]command

	// pick returns a random index in [0, n); replaced in tests.
	pick func(n int) int
}

// New returns a Dispatcher over env. masterUser always has admin rights,
// whether or not it is a cached user.
func New(env Env, masterUser int64) *Dispatcher {
	d := &Dispatcher{env: env, masterUser: masterUser, pick: rand.IntN}
	d.commands = map[string]command{
		"help":          {handle: d.help, privateOnly: true},
		"ping":          {handle: d.ping},
		"orders":        {handle: d.orders, privateOnly: true},
		"broadcast":     {handle: d.broadcast, admin: true},
		"add_trigger":   {handle: d.addTrigger, admin: true},
		"del_trigger":   {handle: d.delTrigger, admin: true},
		"trigger_list":  {handle: d.triggerList, admin: true},
		"add_user":      {handle: d.addUser, admin: true},
		"set_status":    {handle: d.setStatus, admin: true},
		"get_status":    {handle: d.getStatus, admin: true},
		"get_user_list": {handle: d.getUserList, admin: true},
		"dump":          {handle: d.dump, admin: true},
	}
	return d
}

// Handle processes one event and returns the replies to send. Unknown
// commands, commands the sender may not run, and plain text that matches no
// trigger produce no replies.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) []Reply {
	name := ev.Command
	if name == "" {
		name = "trigger"
	}

	tr := otel.Tracer("dispatch/Dispatcher")
	ctx, span := tr.Start(ctx, "command."+name,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.Int64("chat.id", ev.Chat.ID),
			attribute.Int64("user.id", ev.From.ID),
		),
	)
	defer span.End()

	replies, outcome := d.route(ctx, ev)
	if outcome == outcomeFailed {
		span.SetStatus(codes.Error, "command failed")
	}
	span.SetAttributes(attribute.String("command.outcome", outcome))

	label := name
	if _, ok := d.commands[name]; !ok && name != "trigger" {
		label = "unknown"
	}
	commandsTotal.WithLabelValues(label, outcome).Inc()

	log.Debug().
		Str("command", name).
		Int64("chat_id", ev.Chat.ID).
		Int64("user_id", ev.From.ID).
		Str("outcome", outcome).
		Int("replies", len(replies)).
		Msg("event handled")
	return replies
}

func (d *Dispatcher) route(ctx context.Context, ev Event) ([]Reply, string) {
	if ev.Command == "" {
		t, ok := d.env.MatchTrigger(ev.Chat.ID, ev.Text)
		if !ok {
			return nil, outcomeIgnored
		}
		return []Reply{{ChatID: ev.Chat.ID, Content: t.Content()}}, outcomeOK
	}

	cmd, ok := d.commands[ev.Command]
	if !ok {
		return nil, outcomeIgnored
	}
	if cmd.privateOnly && ev.Chat.Type != ChatPrivate {
		return nil, outcomeIgnored
	}
	if cmd.admin && !d.isAdmin(ev.From.ID) {
		return nil, outcomeDenied
	}

	replies, err := cmd.handle(ctx, ev)
	if err != nil {
		return replies, outcomeFailed
	}
	return replies, outcomeOK
}

// isAdmin reports whether userID may run admin commands.
func (d *Dispatcher) isAdmin(userID int64) bool {
	if userID == d.masterUser {
		return true
	}
	st, ok := d.env.UserStatus(userID)
	return ok && st.Allows(domain.StatusAdmin)
}

func (d *Dispatcher) help(_ context.Context, ev Event) ([]Reply, error) {
	return []Reply{textReply(ev.Chat.ID, "Cheshire help:\n"+
		"/orders - fetch list of your active orders.\n"+
		"/get_status - get status of target user")}, nil
}

func (d *Dispatcher) ping(_ context.Context, ev Event) ([]Reply, error) {
	r := textReply(ev.Chat.ID, quotes[d.pick(len(quotes))])
	r.Markdown = true
	return []Reply{r}, nil
}

func (d *Dispatcher) orders(_ context.Context, ev Event) ([]Reply, error) {
	u, ok := d.env.UserOrders(ev.From.ID)
	if !ok || len(u.Orders) == 0 {
		return []Reply{textReply(ev.Chat.ID, "You have no active orders for the moment.")}, nil
	}

	var b strings.Builder
	b.WriteString("Your orders:")
	for _, o := range u.Orders {
		id := "pending"
		if !o.Pending() {
			id = fmt.Sprintf("#%d", o.ID)
		}
		fmt.Fprintf(&b, "\n%s resource %d: bought %d of %d at %d", id, o.ResCode, o.BoughtAmount, o.WantedAmount, o.Price)
	}
	return []Reply{textReply(ev.Chat.ID, b.String())}, nil
}

func (d *Dispatcher) broadcast(_ context.Context, ev Event) ([]Reply, error) {
	if ev.ReplyTo == nil {
		return []Reply{textReply(ev.Chat.ID, "Can't broadcast msg. Reply this command to target msg.")}, nil
	}
	if !ev.ReplyTo.Content.Kind.Valid() {
		return []Reply{textReply(ev.Chat.ID, "Can't broadcast msg. Only text, photo and sticker messages are supported.")}, nil
	}

	chats := d.env.BroadcastChats()
	out := make([]Reply, 0, len(chats))
	for _, id := range chats {
		out = append(out, Reply{ChatID: id, Content: ev.ReplyTo.Content})
	}
	return out, nil
}

func (d *Dispatcher) addTrigger(_ context.Context, ev Event) ([]Reply, error) {
	if ev.ReplyTo == nil {
		return []Reply{textReply(ev.Chat.ID, "Can't add trigger msg. Reply this command to target trigger msg.")}, nil
	}
	name := strings.TrimSpace(ev.Args)
	if name == "" {
		return []Reply{textReply(ev.Chat.ID, fmt.Sprintf(
			"Improper add trigger format: '%s', trigger name should be delimited by space.", ev.Text))}, nil
	}

	switch err := d.env.SetTrigger(ev.Chat.ID, name, ev.ReplyTo.Content); {
	case errors.Is(err, services.ErrUnsupportedContent):
		return []Reply{textReply(ev.Chat.ID, "Can't add trigger msg. Only text, photo and sticker messages are supported.")}, nil
	case err != nil:
		log.Error().Err(err).Int64("chat_id", ev.Chat.ID).Msg("add trigger failed")
		return nil, err
	}
	return []Reply{textReply(ev.Chat.ID, fmt.Sprintf(
		"Trigger '%s' was successfully saved for chat: '%s'", name, ev.Chat.DisplayName()))}, nil
}

func (d *Dispatcher) delTrigger(_ context.Context, ev Event) ([]Reply, error) {
	name := strings.TrimSpace(ev.Args)
	if name == "" {
		return []Reply{textReply(ev.Chat.ID, fmt.Sprintf(
			"Improper del trigger format: '%s', trigger name should be delimited by space.", ev.Text))}, nil
	}

	if err := d.env.DeleteTrigger(ev.Chat.ID, name); err != nil {
		return []Reply{textReply(ev.Chat.ID, fmt.Sprintf(
			"There is no trigger '%s' for chat '%s'.", name, ev.Chat.DisplayName()))}, nil
	}
	return []Reply{textReply(ev.Chat.ID, fmt.Sprintf("Trigger '%s' was successfully deleted.", name))}, nil
}

func (d *Dispatcher) triggerList(_ context.Context, ev Event) ([]Reply, error) {
	return []Reply{textReply(ev.Chat.ID, d.env.ChatTriggers(ev.Chat.ID, ev.Chat.DisplayName()))}, nil
}

// statusArg parses a single status name argument.
func statusArg(args string) (domain.Status, bool) {
	fields := strings.Fields(args)
	if len(fields) != 1 {
		return 0, false
	}
	return domain.ParseStatus(fields[0])
}

func (d *Dispatcher) addUser(_ context.Context, ev Event) ([]Reply, error) {
	if ev.ReplyTo == nil {
		return []Reply{textReply(ev.Chat.ID, "Can't identify user. Reply this command to target user msg.")}, nil
	}
	target := ev.ReplyTo.From

	status := domain.ParseStatusOr(strings.TrimSpace(ev.Args), domain.StatusRead)
	if err := d.env.AddUser(target.ID, target.Username, status); err != nil {
		return []Reply{textReply(ev.Chat.ID, fmt.Sprintf("User: @%s is already exist.", target.Username))}, nil
	}
	return []Reply{textReply(ev.Chat.ID, fmt.Sprintf(
		"User: @%s was successfully added with [%s] rights.", target.Username, status))}, nil
}

// setStatus answers in the sender's private chat.
func (d *Dispatcher) setStatus(_ context.Context, ev Event) ([]Reply, error) {
	if ev.ReplyTo == nil {
		return []Reply{textReply(ev.From.ID, "Can't identify user. Send this command as reply to target user msg.")}, nil
	}
	target := ev.ReplyTo.From
	if !d.env.UserExists(target.ID) {
		return []Reply{textReply(ev.From.ID, fmt.Sprintf(
			"Unknown user: @%s or invalid set_status message format", target.Username))}, nil
	}

	status, ok := statusArg(ev.Args)
	if !ok || !d.env.SetUserStatus(target.ID, status) {
		return []Reply{textReply(ev.From.ID, "Wrong set_status format. Use:\n/set_status read")}, nil
	}
	return []Reply{textReply(ev.From.ID, fmt.Sprintf("@%s status was successfully updated.", target.Username))}, nil
}

// getStatus reports on the replied-to user, or on the sender.
func (d *Dispatcher) getStatus(_ context.Context, ev Event) ([]Reply, error) {
	target := ev.From
	if ev.ReplyTo != nil {
		target = ev.ReplyTo.From
	}
	if !d.env.UserExists(target.ID) {
		return []Reply{textReply(ev.From.ID, fmt.Sprintf("User: @%s is not found in db.", target.Username))}, nil
	}
	return []Reply{textReply(ev.From.ID, d.env.UserInfo(target.ID))}, nil
}

func (d *Dispatcher) getUserList(_ context.Context, ev Event) ([]Reply, error) {
	return []Reply{textReply(ev.From.ID, d.env.AllUserInfo())}, nil
}

func (d *Dispatcher) dump(ctx context.Context, ev Event) ([]Reply, error) {
	if err := d.env.Dump(ctx); err != nil {
		log.Error().Err(err).Int64("user_id", ev.From.ID).Msg("manual dump failed")
		return []Reply{textReply(ev.Chat.ID, "Dump failed. Data stays cached and will be retried on the next flush.")}, err
	}
	return []Reply{textReply(ev.Chat.ID, "User data was successfully dumped into db.")}, nil
}

package dispatch

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tbourn/cheshire-bot/internal/domain"
	"github.com/tbourn/cheshire-bot/internal/repo"
	"github.com/tbourn/cheshire-bot/internal/services"
)

const (
	master  = int64(1000)
	groupID = int64(-500)
)

var bg = context.Background()

func newEnv(t *testing.T) *services.Environment {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "cwdb.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close(db) })
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	env, err := services.NewEnvironment(bg, repo.NewGateway(db))
	if err != nil {
		t.Fatalf("NewEnvironment: %v", err)
	}
	return env
}

func newDispatcher(t *testing.T) (*Dispatcher, *services.Environment) {
	t.Helper()
	env := newEnv(t)
	return New(env, master), env
}

func group() Chat { return Chat{ID: groupID, Type: "supergroup", Title: "Wonderland"} }

func private(userID int64) Chat { return Chat{ID: userID, Type: ChatPrivate, Username: "someone"} }

func cmd(name, args string, chat Chat, from int64) Event {
	text := "/" + name
	if args != "" {
		text += " " + args
	}
	return Event{Command: name, Args: args, Text: text, Chat: chat, From: Sender{ID: from, Username: "sender"}}
}

func text(c domain.Content) string { return c.Payload }

func onlyText(t *testing.T, replies []Reply) (int64, string) {
	t.Helper()
	if len(replies) != 1 {
		t.Fatalf("expected one reply, got %d: %+v", len(replies), replies)
	}
	if replies[0].Content.Kind != domain.KindText {
		t.Fatalf("expected text reply, got %+v", replies[0])
	}
	return replies[0].ChatID, replies[0].Content.Payload
}

func TestHelp_PrivateOnly(t *testing.T) {
	d, _ := newDispatcher(t)

	if got := d.Handle(bg, cmd("help", "", group(), 1)); len(got) != 0 {
		t.Fatalf("help in a group must be ignored, got %+v", got)
	}
	chat, msg := onlyText(t, d.Handle(bg, cmd("help", "", private(1), 1)))
	if chat != 1 || !strings.HasPrefix(msg, "Cheshire help:") {
		t.Fatalf("help reply = %d %q", chat, msg)
	}
}

func TestPing_RandomQuoteAsMarkdown(t *testing.T) {
	d, _ := newDispatcher(t)
	d.pick = func(n int) int { return n - 1 }

	got := d.Handle(bg, cmd("ping", "", group(), 1))
	if len(got) != 1 || !got[0].Markdown || text(got[0].Content) != quotes[len(quotes)-1] {
		t.Fatalf("ping reply = %+v", got)
	}
}

func TestAdminGate(t *testing.T) {
	d, env := newDispatcher(t)
	_ = env.AddUser(2, "reader", domain.StatusRead)
	_ = env.AddUser(3, "boss", domain.StatusAdmin)
	_ = env.AddUser(4, "trader", domain.StatusTrade)

	tests := []struct {
		name    string
		from    int64
		allowed bool
	}{
		{"unknown user", 99, false},
		{"read user", 2, false},
		{"trade user", 4, false},
		{"admin user", 3, true},
		{"master user not cached", master, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(commandsTotal.WithLabelValues("trigger_list", outcomeDenied))
			got := d.Handle(bg, cmd("trigger_list", "", group(), tt.from))
			if tt.allowed != (len(got) == 1) {
				t.Fatalf("allowed=%v but got %+v", tt.allowed, got)
			}
			after := testutil.ToFloat64(commandsTotal.WithLabelValues("trigger_list", outcomeDenied))
			if !tt.allowed && after != before+1 {
				t.Fatalf("denied counter = %v; want %v", after, before+1)
			}
		})
	}
}

func TestUnknownCommandIgnored(t *testing.T) {
	d, _ := newDispatcher(t)
	before := testutil.ToFloat64(commandsTotal.WithLabelValues("unknown", outcomeIgnored))
	if got := d.Handle(bg, cmd("teleport", "", group(), master)); len(got) != 0 {
		t.Fatalf("unknown command must be ignored, got %+v", got)
	}
	if after := testutil.ToFloat64(commandsTotal.WithLabelValues("unknown", outcomeIgnored)); after != before+1 {
		t.Fatalf("unknown counter = %v; want %v", after, before+1)
	}
}

func TestTriggerLifecycle(t *testing.T) {
	d, env := newDispatcher(t)

	// no reply target
	_, msg := onlyText(t, d.Handle(bg, cmd("add_trigger", "smile", group(), master)))
	if msg != "Can't add trigger msg. Reply this command to target trigger msg." {
		t.Fatalf("unexpected: %q", msg)
	}

	sticker := domain.Content{Kind: domain.KindSticker, Payload: "CAAD-grin"}
	ev := cmd("add_trigger", "smile", group(), master)
	ev.ReplyTo = &Message{From: Sender{ID: 5}, Content: sticker}
	_, msg = onlyText(t, d.Handle(bg, ev))
	if msg != "Trigger 'smile' was successfully saved for chat: 'Wonderland'" {
		t.Fatalf("unexpected: %q", msg)
	}

	// plain text matching the trigger replays its content
	got := d.Handle(bg, Event{Text: "smile", Chat: group(), From: Sender{ID: 77}})
	if len(got) != 1 || got[0].ChatID != groupID || got[0].Content != sticker {
		t.Fatalf("trigger replay = %+v", got)
	}
	if got := d.Handle(bg, Event{Text: "Smile", Chat: group(), From: Sender{ID: 77}}); len(got) != 0 {
		t.Fatalf("matching is exact, got %+v", got)
	}

	_, msg = onlyText(t, d.Handle(bg, cmd("trigger_list", "", group(), master)))
	if msg != "Trigger list of chat 'Wonderland':\nsmile" {
		t.Fatalf("trigger_list = %q", msg)
	}

	_, msg = onlyText(t, d.Handle(bg, cmd("del_trigger", "smile", group(), master)))
	if msg != "Trigger 'smile' was successfully deleted." {
		t.Fatalf("unexpected: %q", msg)
	}
	_, msg = onlyText(t, d.Handle(bg, cmd("del_trigger", "smile", group(), master)))
	if msg != "There is no trigger 'smile' for chat 'Wonderland'." {
		t.Fatalf("unexpected: %q", msg)
	}
	if _, ok := env.MatchTrigger(groupID, "smile"); ok {
		t.Fatalf("deleted trigger must not match")
	}
}

func TestTriggerCommands_BadFormat(t *testing.T) {
	d, _ := newDispatcher(t)

	ev := cmd("add_trigger", "", group(), master)
	ev.ReplyTo = &Message{Content: domain.Content{Kind: domain.KindText, Payload: "x"}}
	_, msg := onlyText(t, d.Handle(bg, ev))
	if msg != "Improper add trigger format: '/add_trigger', trigger name should be delimited by space." {
		t.Fatalf("unexpected: %q", msg)
	}

	_, msg = onlyText(t, d.Handle(bg, cmd("del_trigger", "  ", group(), master)))
	if !strings.HasPrefix(msg, "Improper del trigger format:") {
		t.Fatalf("unexpected: %q", msg)
	}

	ev = cmd("add_trigger", "voice", group(), master)
	ev.ReplyTo = &Message{}
	_, msg = onlyText(t, d.Handle(bg, ev))
	if !strings.Contains(msg, "Only text, photo and sticker") {
		t.Fatalf("unexpected: %q", msg)
	}
}

func TestBroadcast(t *testing.T) {
	d, env := newDispatcher(t)
	_ = env.SetTrigger(20, "a", domain.Content{Kind: domain.KindText, Payload: "a"})
	_ = env.SetTrigger(10, "b", domain.Content{Kind: domain.KindText, Payload: "b"})

	_, msg := onlyText(t, d.Handle(bg, cmd("broadcast", "", group(), master)))
	if msg != "Can't broadcast msg. Reply this command to target msg." {
		t.Fatalf("unexpected: %q", msg)
	}

	photo := domain.Content{Kind: domain.KindPhoto, Payload: "file-9"}
	ev := cmd("broadcast", "", group(), master)
	ev.ReplyTo = &Message{Content: photo}
	got := d.Handle(bg, ev)
	if len(got) != 2 || got[0].ChatID != 10 || got[1].ChatID != 20 {
		t.Fatalf("broadcast targets = %+v", got)
	}
	for _, r := range got {
		if r.Content != photo {
			t.Fatalf("broadcast content = %+v", r.Content)
		}
	}
}

func TestAddUser(t *testing.T) {
	d, env := newDispatcher(t)

	_, msg := onlyText(t, d.Handle(bg, cmd("add_user", "", group(), master)))
	if msg != "Can't identify user. Reply this command to target user msg." {
		t.Fatalf("unexpected: %q", msg)
	}

	tests := []struct {
		id   int64
		args string
		want domain.Status
	}{
		{11, "trade", domain.StatusTrade},
		{12, "", domain.StatusRead},
		{13, "emperor", domain.StatusRead},
		{14, "admin", domain.StatusAdmin},
		{15, "  trade ", domain.StatusTrade},
		{16, "trade extra", domain.StatusRead},
	}
	for _, tt := range tests {
		ev := cmd("add_user", tt.args, group(), master)
		ev.ReplyTo = &Message{From: Sender{ID: tt.id, Username: "alice"}}
		_, msg := onlyText(t, d.Handle(bg, ev))
		wantMsg := "User: @alice was successfully added with [" + tt.want.String() + "] rights."
		if msg != wantMsg {
			t.Fatalf("add_user %q: got %q want %q", tt.args, msg, wantMsg)
		}
		if st, _ := env.UserStatus(tt.id); st != tt.want {
			t.Fatalf("status of %d = %v; want %v", tt.id, st, tt.want)
		}
	}

	ev := cmd("add_user", "admin", group(), master)
	ev.ReplyTo = &Message{From: Sender{ID: 11, Username: "alice"}}
	_, msg = onlyText(t, d.Handle(bg, ev))
	if msg != "User: @alice is already exist." {
		t.Fatalf("unexpected: %q", msg)
	}
	if st, _ := env.UserStatus(11); st != domain.StatusTrade {
		t.Fatalf("existing user must keep status, got %v", st)
	}
}

func TestSetStatus_RepliesInPrivate(t *testing.T) {
	d, env := newDispatcher(t)
	_ = env.AddUser(21, "hatter", domain.StatusRead)

	ev := cmd("set_status", "trade", group(), master)
	chat, msg := onlyText(t, d.Handle(bg, ev))
	if chat != master || msg != "Can't identify user. Send this command as reply to target user msg." {
		t.Fatalf("unexpected: %d %q", chat, msg)
	}

	ev.ReplyTo = &Message{From: Sender{ID: 404, Username: "ghost"}}
	_, msg = onlyText(t, d.Handle(bg, ev))
	if msg != "Unknown user: @ghost or invalid set_status message format" {
		t.Fatalf("unexpected: %q", msg)
	}

	ev = cmd("set_status", "royal", group(), master)
	ev.ReplyTo = &Message{From: Sender{ID: 21, Username: "hatter"}}
	_, msg = onlyText(t, d.Handle(bg, ev))
	if msg != "Wrong set_status format. Use:\n/set_status read" {
		t.Fatalf("unexpected: %q", msg)
	}

	ev = cmd("set_status", "admin", group(), master)
	ev.ReplyTo = &Message{From: Sender{ID: 21, Username: "hatter"}}
	chat, msg = onlyText(t, d.Handle(bg, ev))
	if chat != master || msg != "@hatter status was successfully updated." {
		t.Fatalf("unexpected: %d %q", chat, msg)
	}
	if st, _ := env.UserStatus(21); st != domain.StatusAdmin {
		t.Fatalf("status = %v; want admin", st)
	}

	// newly promoted admin can now run admin commands
	if got := d.Handle(bg, cmd("trigger_list", "", group(), 21)); len(got) != 1 {
		t.Fatalf("promoted admin denied: %+v", got)
	}
}

func TestGetStatusAndUserList(t *testing.T) {
	d, env := newDispatcher(t)
	_ = env.AddUser(42, "cheshire", domain.StatusAdmin)

	// self
	chat, msg := onlyText(t, d.Handle(bg, cmd("get_status", "", group(), 42)))
	if chat != 42 || !strings.Contains(msg, "42") || !strings.Contains(msg, "admin") {
		t.Fatalf("get_status self = %d %q", chat, msg)
	}

	// reply target not cached; master is not cached either
	ev := cmd("get_status", "", group(), master)
	ev.ReplyTo = &Message{From: Sender{ID: 9, Username: "dodo"}}
	chat, msg = onlyText(t, d.Handle(bg, ev))
	if chat != master || msg != "User: @dodo is not found in db." {
		t.Fatalf("get_status other = %d %q", chat, msg)
	}

	chat, msg = onlyText(t, d.Handle(bg, cmd("get_user_list", "", group(), master)))
	if chat != master || msg != env.AllUserInfo() {
		t.Fatalf("get_user_list = %d %q", chat, msg)
	}
}

func TestOrders(t *testing.T) {
	d, env := newDispatcher(t)

	if got := d.Handle(bg, cmd("orders", "", group(), 31)); len(got) != 0 {
		t.Fatalf("orders outside private chat must be ignored")
	}
	_, msg := onlyText(t, d.Handle(bg, cmd("orders", "", private(31), 31)))
	if msg != "You have no active orders for the moment." {
		t.Fatalf("unexpected: %q", msg)
	}

	_ = env.AddUser(31, "trader", domain.StatusTrade)
	_ = env.AddOrder(31, domain.Order{ResCode: 4, BoughtAmount: 1, WantedAmount: 3, Price: 50})
	_, msg = onlyText(t, d.Handle(bg, cmd("orders", "", private(31), 31)))
	if msg != "Your orders:\npending resource 4: bought 1 of 3 at 50" {
		t.Fatalf("unexpected: %q", msg)
	}

	if err := env.Dump(bg); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	_, msg = onlyText(t, d.Handle(bg, cmd("orders", "", private(31), 31)))
	if !strings.HasPrefix(msg, "Your orders:\n#") {
		t.Fatalf("flushed order must show its id: %q", msg)
	}
}

type failingDumpEnv struct{ *services.Environment }

func (failingDumpEnv) Dump(context.Context) error { return errors.New("disk on fire") }

func TestDump(t *testing.T) {
	d, env := newDispatcher(t)
	_ = env.AddUser(1, "a", domain.StatusRead)

	_, msg := onlyText(t, d.Handle(bg, cmd("dump", "", group(), master)))
	if msg != "User data was successfully dumped into db." {
		t.Fatalf("unexpected: %q", msg)
	}

	bad := New(failingDumpEnv{env}, master)
	before := testutil.ToFloat64(commandsTotal.WithLabelValues("dump", outcomeFailed))
	_, msg = onlyText(t, bad.Handle(bg, cmd("dump", "", group(), master)))
	if !strings.HasPrefix(msg, "Dump failed.") {
		t.Fatalf("unexpected: %q", msg)
	}
	if after := testutil.ToFloat64(commandsTotal.WithLabelValues("dump", outcomeFailed)); after != before+1 {
		t.Fatalf("failed counter = %v; want %v", after, before+1)
	}
}

func TestChatDisplayName(t *testing.T) {
	if got := (Chat{Title: "T", Username: "u"}).DisplayName(); got != "T" {
		t.Fatalf("DisplayName = %q", got)
	}
	if got := (Chat{Username: "u"}).DisplayName(); got != "u" {
		t.Fatalf("DisplayName = %q", got)
	}
}

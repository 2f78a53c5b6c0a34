// Package telegram connects the command dispatcher to the Telegram Bot API
// over long polling.
package telegram

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/cheshire-bot/internal/dispatch"
	"github.com/tbourn/cheshire-bot/internal/throttle"
)

// pollTimeout is the long-polling timeout in seconds.
const pollTimeout = 60

// Client is the subset of *tgbotapi.BotAPI the bot uses.
type Client interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Handler turns an event into replies.
type Handler interface {
	Handle(ctx context.Context, ev dispatch.Event) []dispatch.Reply
}

// Bot polls for updates and answers them one at a time.
type Bot struct {
	client  Client
	handler Handler
	limiter *throttle.Limiter
}

// Dial authorizes token against the Bot API.
func Dial(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: authorize: %w", err)
	}
	api.Debug = false
	log.Info().Str("account", api.Self.UserName).Msg("telegram authorized")
	return api, nil
}

// New returns a Bot. A nil limiter disables per-user throttling.
func New(client Client, h Handler, limiter *throttle.Limiter) *Bot {
	return &Bot{client: client, handler: h, limiter: limiter}
}

// Run polls until ctx is done or the update channel closes.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := b.client.GetUpdatesChan(u)
	defer b.client.StopReceivingUpdates()

	log.Info().Msg("telegram polling started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("telegram polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate dispatches one update and sends the replies. Send failures
// are logged; the remaining replies are still attempted.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	m := update.Message
	if m == nil {
		return
	}

	ev := ToEvent(m)
	if !b.limiter.Allow("user:" + strconv.FormatInt(ev.From.ID, 10)) {
		log.Debug().Int64("user_id", ev.From.ID).Msg("telegram update throttled")
		return
	}

	for _, r := range b.handler.Handle(ctx, ev) {
		c, err := toChattable(r)
		if err != nil {
			log.Warn().Err(err).Int64("chat_id", r.ChatID).Msg("reply dropped")
			continue
		}
		if _, err := b.client.Send(c); err != nil {
			log.Error().Err(err).Int64("chat_id", r.ChatID).Msg("telegram send failed")
		}
	}
}

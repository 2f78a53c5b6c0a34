package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tbourn/cheshire-bot/internal/dispatch"
	"github.com/tbourn/cheshire-bot/internal/domain"
)

// contentOf extracts the replayable content of m. The zero Content is
// returned for anything other than text, photo, or sticker.
func contentOf(m *tgbotapi.Message) domain.Content {
	switch {
	case m.Sticker != nil:
		return domain.Content{Kind: domain.KindSticker, Payload: m.Sticker.FileID}
	case len(m.Photo) > 0:
		return domain.Content{Kind: domain.KindPhoto, Payload: m.Photo[0].FileID}
	case m.Text != "":
		return domain.Content{Kind: domain.KindText, Payload: m.Text}
	}
	return domain.Content{}
}

func senderOf(u *tgbotapi.User) dispatch.Sender {
	if u == nil {
		return dispatch.Sender{}
	}
	return dispatch.Sender{ID: u.ID, Username: u.UserName}
}

// ToEvent converts an incoming message to a dispatch event.
func ToEvent(m *tgbotapi.Message) dispatch.Event {
	ev := dispatch.Event{
		Text:    m.Text,
		From:    senderOf(m.From),
		Content: contentOf(m),
	}
	if m.Chat != nil {
		ev.Chat = dispatch.Chat{
			ID:       m.Chat.ID,
			Type:     m.Chat.Type,
			Title:    m.Chat.Title,
			Username: m.Chat.UserName,
		}
	}
	if m.IsCommand() {
		ev.Command = m.Command()
		ev.Args = m.CommandArguments()
	}
	if r := m.ReplyToMessage; r != nil {
		ev.ReplyTo = &dispatch.Message{From: senderOf(r.From), Content: contentOf(r)}
	}
	return ev
}

// toChattable builds the outgoing request for a reply.
func toChattable(r dispatch.Reply) (tgbotapi.Chattable, error) {
	switch r.Content.Kind {
	case domain.KindText:
		msg := tgbotapi.NewMessage(r.ChatID, r.Content.Payload)
		if r.Markdown {
			msg.ParseMode = tgbotapi.ModeMarkdown
		}
		return msg, nil
	case domain.KindPhoto:
		return tgbotapi.NewPhoto(r.ChatID, tgbotapi.FileID(r.Content.Payload)), nil
	case domain.KindSticker:
		return tgbotapi.NewSticker(r.ChatID, tgbotapi.FileID(r.Content.Payload)), nil
	}
	return nil, fmt.Errorf("telegram: unsupported reply kind %q", r.Content.Kind)
}

// Package dispatch turns chat events into replies. It knows nothing about the
// chat platform: adapters convert platform messages into Events and send the
// returned Replies.
package dispatch

import "github.com/tbourn/cheshire-bot/internal/domain"

// ChatPrivate is the chat type of one-to-one conversations with the bot.
const ChatPrivate = "private"

// Chat identifies where an event happened.
type Chat struct {
	ID       int64
	Type     string
	Title    string
	Username string
}

// DisplayName is the chat title, falling back to its username.
func (c Chat) DisplayName() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Username
}

// Sender is the author of a message.
type Sender struct {
	ID       int64
	Username string
}

// Message is a message an event replies to.
type Message struct {
	From    Sender
	Content domain.Content
}

// Event is one incoming message. Command is set (without the leading slash
// or bot mention) when the message is a command; Args holds the rest of the
// command line.
type Event struct {
	Command string
	Args    string
	Text    string
	Chat    Chat
	From    Sender
	Content domain.Content
	ReplyTo *Message
}

// Reply is one outgoing message.
type Reply struct {
	ChatID   int64
	Content  domain.Content
	Markdown bool
}

func textReply(chatID int64, text string) Reply {
	return Reply{ChatID: chatID, Content: domain.Content{Kind: domain.KindText, Payload: text}}
}

package models

import "time"

// MessageRole identifies who authored a chat message.
type MessageRole string

const (
	RoleClient    MessageRole = "client"
	RoleDeveloper MessageRole = "developer"
	RoleSystem    MessageRole = "system"
	RoleUnknown   MessageRole = "unknown"
)

// ChatMessage is a single message of an imported conversation.
// Messages are immutable once the session is built.
type ChatMessage struct {
	ID               int         `json:"id" validate:"required"`
	Text             string      `json:"text" validate:"required"`
	Role             MessageRole `json:"role" validate:"required,oneof=client developer system unknown"`
	Timestamp        time.Time   `json:"timestamp"`
	ReplyToMessageID int         `json:"replyToMessageId,omitempty"`
	// ReplyToMessage is resolved after the full session is loaded. It stays
	// nil when ReplyToMessageID points at a message that was never imported.
	ReplyToMessage *ChatMessage `json:"-"`
}

// ChatSession is one imported conversation with its messages in
// chronological order, oldest first.
type ChatSession struct {
	ChatID        string        `json:"chatId" validate:"required"`
	ChatTitle     string        `json:"chatTitle,omitempty"`
	Source        string        `json:"source" validate:"required"`
	Messages      []ChatMessage `json:"messages"`
	TotalMessages int           `json:"totalMessages"`
	ImportedAt    time.Time     `json:"importedAt"`
}

// MessageByID returns the message with the given id, or nil.
func (s *ChatSession) MessageByID(id int) *ChatMessage {
	for i := range s.Messages {
		if s.Messages[i].ID == id {
			return &s.Messages[i]
		}
	}
	return nil
}

// ClientMessages returns the client-authored messages in session order.
func (s *ChatSession) ClientMessages() []ChatMessage {
	var out []ChatMessage
	for _, m := range s.Messages {
		if m.Role == RoleClient {
			out = append(out, m)
		}
	}
	return out
}

// LinkReplies resolves every ReplyToMessageID against the session using an
// id lookup table. The first message carrying a given id wins; an id with
// no match leaves the reference unset.
func (s *ChatSession) LinkReplies() {
	index := make(map[int]*ChatMessage, len(s.Messages))
	for i := range s.Messages {
		if _, seen := index[s.Messages[i].ID]; !seen {
			index[s.Messages[i].ID] = &s.Messages[i]
		}
	}
	for i := range s.Messages {
		if id := s.Messages[i].ReplyToMessageID; id != 0 {
			s.Messages[i].ReplyToMessage = index[id]
		}
	}
}

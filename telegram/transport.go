// Package telegram imports conversations from a live Telegram account.
// The MTProto specifics live behind the Transport interface so the
// importer logic stays testable without a network.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mkravets/chatlens/models"
)

// RawMessage is one message as delivered by the transport, newest first.
type RawMessage struct {
	ID        int
	Text      string
	Outgoing  bool
	Date      time.Time
	ReplyToID int
	SenderID  int64
}

// Peer identifies a resolved conversation target.
type Peer struct {
	ID       int64
	Title    string
	Username string
}

// Dialog is one entry of the account's dialog list.
type Dialog struct {
	ID       int64
	Title    string
	Username string
	Kind     string // "user", "group" or "channel"
}

// Transport is the live-chat boundary. Implementations must return
// history in reverse-chronological order and expose peer resolution by
// exact username as well as the full dialog list.
type Transport interface {
	ResolvePeer(ctx context.Context, username string) (Peer, error)
	Dialogs(ctx context.Context) ([]Dialog, error)
	Peer(ctx context.Context, chatID int64) (Peer, error)
	History(ctx context.Context, chatID int64) ([]RawMessage, error)
}

// Importer builds chat sessions from a Transport.
type Importer struct {
	transport Transport
}

// NewImporter creates an Importer over the given transport.
func NewImporter(t Transport) *Importer {
	return &Importer{transport: t}
}

// FindChatByUsername resolves a username to a chat id via exact match.
func (im *Importer) FindChatByUsername(ctx context.Context, username string) (int64, error) {
	peer, err := im.transport.ResolvePeer(ctx, strings.TrimPrefix(username, "@"))
	if err != nil {
		return 0, err
	}
	return peer.ID, nil
}

// SearchChatsByUsername returns the dialogs whose username contains the
// given fragment, in dialog-list order. Callers running non-interactively
// pick the first candidate.
func (im *Importer) SearchChatsByUsername(ctx context.Context, username string) ([]Dialog, error) {
	needle := strings.ToLower(strings.TrimPrefix(username, "@"))
	dialogs, err := im.transport.Dialogs(ctx)
	if err != nil {
		return nil, err
	}

	var matches []Dialog
	for _, d := range dialogs {
		if d.Username != "" && strings.Contains(strings.ToLower(d.Username), needle) {
			matches = append(matches, d)
		}
	}
	return matches, nil
}

// ImportChat retrieves the full visible history of a chat and builds a
// session: outgoing messages get the developer role, everything else is
// treated as the client. The transport delivers newest-first, so the
// result is reversed to chronological order before reply linking.
func (im *Importer) ImportChat(ctx context.Context, chatID int64) (*models.ChatSession, error) {
	peer, err := im.transport.Peer(ctx, chatID)
	if err != nil {
		return nil, err
	}

	raw, err := im.transport.History(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for chat %d: %w", chatID, err)
	}

	messages := make([]models.ChatMessage, 0, len(raw))
	for _, rm := range raw {
		if rm.Text == "" {
			continue
		}
		role := models.RoleClient
		if rm.Outgoing {
			role = models.RoleDeveloper
		}
		messages = append(messages, models.ChatMessage{
			ID:               rm.ID,
			Text:             rm.Text,
			Role:             role,
			Timestamp:        rm.Date,
			ReplyToMessageID: rm.ReplyToID,
		})
	}

	// newest-first to oldest-first
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	session := &models.ChatSession{
		ChatID:        strconv.FormatInt(chatID, 10),
		ChatTitle:     peer.Title,
		Source:        "telegram_api",
		Messages:      messages,
		TotalMessages: len(messages),
		ImportedAt:    time.Now(),
	}
	session.LinkReplies()
	return session, nil
}

package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mkravets/chatlens/models"
)

// fakeTransport serves scripted dialogs and history.
type fakeTransport struct {
	peers    map[string]Peer
	dialogs  []Dialog
	history  map[int64][]RawMessage
	titleFor map[int64]string
}

func (f *fakeTransport) ResolvePeer(_ context.Context, username string) (Peer, error) {
	if p, ok := f.peers[username]; ok {
		return p, nil
	}
	return Peer{}, errors.New("username not occupied")
}

func (f *fakeTransport) Dialogs(_ context.Context) ([]Dialog, error) {
	return f.dialogs, nil
}

func (f *fakeTransport) Peer(_ context.Context, chatID int64) (Peer, error) {
	if title, ok := f.titleFor[chatID]; ok {
		return Peer{ID: chatID, Title: title}, nil
	}
	return Peer{}, errors.New("chat not found")
}

func (f *fakeTransport) History(_ context.Context, chatID int64) ([]RawMessage, error) {
	return f.history[chatID], nil
}

func ts(sec int) time.Time {
	return time.Date(2024, 3, 1, 12, 0, sec, 0, time.UTC)
}

func TestImportChat(t *testing.T) {
	tr := &fakeTransport{
		titleFor: map[int64]string{42: "Client Chat"},
		history: map[int64][]RawMessage{
			// newest first, as the transport delivers it
			42: {
				{ID: 3, Text: "fixed it", Outgoing: true, Date: ts(3), ReplyToID: 1},
				{ID: 2, Text: "", Outgoing: false, Date: ts(2)}, // media-only, skipped
				{ID: 1, Text: "please fix the crash", Outgoing: false, Date: ts(1)},
			},
		},
	}
	importer := NewImporter(tr)

	session, err := importer.ImportChat(context.Background(), 42)
	if err != nil {
		t.Fatalf("ImportChat failed: %v", err)
	}

	if session.ChatID != "42" || session.ChatTitle != "Client Chat" || session.Source != "telegram_api" {
		t.Errorf("session identity = %q/%q/%q", session.ChatID, session.ChatTitle, session.Source)
	}
	if session.TotalMessages != 2 || len(session.Messages) != 2 {
		t.Fatalf("TotalMessages = %d, want 2", session.TotalMessages)
	}

	// Reversed to chronological order.
	if session.Messages[0].ID != 1 || session.Messages[1].ID != 3 {
		t.Errorf("order = %d, %d; want 1, 3", session.Messages[0].ID, session.Messages[1].ID)
	}
	// Outgoing becomes developer, incoming becomes client.
	if session.Messages[0].Role != models.RoleClient {
		t.Errorf("incoming role = %s", session.Messages[0].Role)
	}
	if session.Messages[1].Role != models.RoleDeveloper {
		t.Errorf("outgoing role = %s", session.Messages[1].Role)
	}
	// Reply link resolved after the reversal.
	if session.Messages[1].ReplyToMessage == nil || session.Messages[1].ReplyToMessage.ID != 1 {
		t.Error("reply link to message 1 not resolved")
	}
}

func TestFindChatByUsername(t *testing.T) {
	tr := &fakeTransport{
		peers: map[string]Peer{"acme_support": {ID: 7, Title: "ACME Support", Username: "acme_support"}},
	}
	importer := NewImporter(tr)

	id, err := importer.FindChatByUsername(context.Background(), "@acme_support")
	if err != nil {
		t.Fatalf("FindChatByUsername failed: %v", err)
	}
	if id != 7 {
		t.Errorf("id = %d, want 7", id)
	}

	if _, err := importer.FindChatByUsername(context.Background(), "nobody"); err == nil {
		t.Error("unknown username should fail")
	}
}

func TestSearchChatsByUsername(t *testing.T) {
	tr := &fakeTransport{
		dialogs: []Dialog{
			{ID: 1, Title: "ACME Support", Username: "acme_support", Kind: "group"},
			{ID: 2, Title: "Family", Username: "", Kind: "group"},
			{ID: 3, Title: "ACME Billing", Username: "ACME_billing", Kind: "channel"},
			{ID: 4, Title: "News", Username: "daily_news", Kind: "channel"},
		},
	}
	importer := NewImporter(tr)

	matches, err := importer.SearchChatsByUsername(context.Background(), "acme")
	if err != nil {
		t.Fatalf("SearchChatsByUsername failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	// Dialog-list order is preserved; the caller takes the first one.
	if matches[0].ID != 1 || matches[1].ID != 3 {
		t.Errorf("match order = %d, %d", matches[0].ID, matches[1].ID)
	}
}

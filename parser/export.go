package parser

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/mkravets/chatlens/models"
)

// exportFile is the top-level shape of a Telegram JSON export.
type exportFile struct {
	Name     string          `json:"name"`
	Messages []exportMessage `json:"messages"`
}

// exportMessage is one element of the export's messages array. Text is
// either a plain string or a list of inline-styled spans.
type exportMessage struct {
	ID               int             `json:"id"`
	Type             string          `json:"type"`
	Date             string          `json:"date"`
	From             string          `json:"from"`
	Text             json.RawMessage `json:"text"`
	ReplyToMessageID int             `json:"reply_to_message_id"`
}

// textSpan is one inline-styled fragment of a rich-text message.
type textSpan struct {
	Text string `json:"text"`
}

// ParseTelegramExport reads a structured Telegram export. Service entries
// and empty messages are skipped; rich-text fields are flattened to plain
// text; the sender name decides the developer role.
func (p *ChatParser) ParseTelegramExport(path string) (*models.ChatSession, error) {
	data, err := afero.ReadFile(p.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export file %s: %w", path, err)
	}

	var export exportFile
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse export file %s: %w", path, err)
	}

	var messages []models.ChatMessage
	for _, raw := range export.Messages {
		if raw.Type != "message" {
			continue
		}
		text := flattenText(raw.Text)
		if text == "" {
			continue
		}

		role := models.RoleClient
		sender := strings.ToLower(raw.From)
		if strings.Contains(sender, "bot") || strings.Contains(sender, "developer") {
			role = models.RoleDeveloper
		}

		id := raw.ID
		if id == 0 {
			id = len(messages) + 1
		}

		messages = append(messages, models.ChatMessage{
			ID:               id,
			Text:             text,
			Role:             role,
			Timestamp:        parseExportDate(raw.Date),
			ReplyToMessageID: raw.ReplyToMessageID,
		})
	}

	session := &models.ChatSession{
		ChatID:        chatIDFromPath(path),
		ChatTitle:     export.Name,
		Source:        "telegram_export",
		Messages:      messages,
		TotalMessages: len(messages),
		ImportedAt:    time.Now(),
	}
	session.LinkReplies()
	return session, nil
}

// flattenText turns the export's text field into a plain string. Rich
// messages arrive as a list of spans whose text fields are joined with
// spaces; non-object list entries are ignored.
func flattenText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return ""
	}
	var parts []string
	for _, item := range items {
		var span textSpan
		if err := json.Unmarshal(item, &span); err == nil && span.Text != "" {
			parts = append(parts, span.Text)
		}
	}
	return strings.Join(parts, " ")
}

// parseExportDate accepts ISO-8601 dates, including a trailing Z. A
// malformed date falls back to the current time instead of failing the
// import.
func parseExportDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Now()
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Now()
}

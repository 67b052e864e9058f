package parser

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/mkravets/chatlens/models"
)

// speakerPrefixes maps a transcript label to the role it switches to.
// Both English and Russian labels are recognized.
var speakerPrefixes = []struct {
	label string
	role  models.MessageRole
}{
	{"Клиент:", models.RoleClient},
	{"Client:", models.RoleClient},
	{"Разработчик:", models.RoleDeveloper},
	{"Developer:", models.RoleDeveloper},
}

// ParseTxt reads a line-oriented transcript: one message per non-blank
// line, a recognized "Speaker:" prefix switches the active speaker, and
// unlabeled lines inherit the last one.
func (p *ChatParser) ParseTxt(path string) (*models.ChatSession, error) {
	file, err := p.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	var messages []models.ChatMessage
	currentRole := models.RoleUnknown
	lineNo := 0

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		text := line
		for _, prefix := range speakerPrefixes {
			if strings.HasPrefix(line, prefix.label) {
				currentRole = prefix.role
				text = strings.TrimSpace(line[len(prefix.label):])
				break
			}
		}
		if text == "" {
			continue
		}

		messages = append(messages, models.ChatMessage{
			ID:        lineNo,
			Text:      text,
			Role:      currentRole,
			Timestamp: time.Now(),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transcript %s: %w", path, err)
	}

	chatID := chatIDFromPath(path)
	return &models.ChatSession{
		ChatID:        chatID,
		ChatTitle:     chatID,
		Source:        "txt",
		Messages:      messages,
		TotalMessages: len(messages),
		ImportedAt:    time.Now(),
	}, nil
}

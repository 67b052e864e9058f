// Package parser imports chat transcripts from exported files. Two formats
// are supported: a structured Telegram JSON export and a line-oriented
// plain-text transcript.
package parser

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/mkravets/chatlens/models"
	"github.com/mkravets/chatlens/types"
)

// ChatParser reads transcript files from the given filesystem.
type ChatParser struct {
	fs afero.Fs
}

// NewChatParser creates a parser over the OS filesystem.
func NewChatParser() *ChatParser {
	return NewChatParserFS(afero.NewOsFs())
}

// NewChatParserFS creates a parser over an arbitrary filesystem.
func NewChatParserFS(fs afero.Fs) *ChatParser {
	return &ChatParser{fs: fs}
}

// ParseFile dispatches on the file extension. Unsupported extensions are
// rejected before any read happens.
func (p *ChatParser) ParseFile(path string) (*models.ChatSession, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return p.ParseTelegramExport(path)
	case ".txt":
		return p.ParseTxt(path)
	default:
		return nil, &types.UnsupportedFormatError{Extension: filepath.Ext(path)}
	}
}

// chatIDFromPath derives the session's chat id from the file name stem.
func chatIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

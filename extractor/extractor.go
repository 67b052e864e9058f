// Package extractor turns a chat session into a flat list of pending
// tasks by asking the language model about bounded chunks of client
// messages.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mkravets/chatlens/llm"
	"github.com/mkravets/chatlens/models"
)

const (
	defaultChunkSize = 30
	defaultPause     = 500 * time.Millisecond
)

// TaskExtractor drives chunked task extraction through an llm.Provider.
type TaskExtractor struct {
	provider  llm.Provider
	chunkSize int
	pause     time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

// Option configures a TaskExtractor.
type Option func(*TaskExtractor)

// WithChunkSize overrides the number of client messages per model call.
func WithChunkSize(n int) Option {
	return func(e *TaskExtractor) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// WithPause overrides the pacing delay between chunk calls.
func WithPause(d time.Duration) Option {
	return func(e *TaskExtractor) {
		if d >= 0 {
			e.pause = d
		}
	}
}

// withSleep replaces the pacing sleep. Used in tests.
func withSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(e *TaskExtractor) { e.sleep = fn }
}

// New creates a TaskExtractor over the given provider.
func New(provider llm.Provider, opts ...Option) *TaskExtractor {
	e := &TaskExtractor{
		provider:  provider,
		chunkSize: defaultChunkSize,
		pause:     defaultPause,
		sleep:     sleepCtx,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ExtractTasks filters the session to client messages, submits them to
// the model chunk by chunk and assembles the resulting pending tasks.
// A failing chunk is logged and skipped; the remaining chunks still run.
func (e *TaskExtractor) ExtractTasks(ctx context.Context, session *models.ChatSession) ([]models.Task, error) {
	clientMessages := session.ClientMessages()
	if len(clientMessages) == 0 {
		return []models.Task{}, nil
	}

	refs := make([]llm.MessageRef, len(clientMessages))
	for i, m := range clientMessages {
		refs[i] = llm.MessageRef{ID: m.ID, Role: string(m.Role), Text: m.Text}
	}
	chunks := chunkMessages(refs, e.chunkSize)
	slog.Info("extracting tasks", "chat", session.ChatID, "clientMessages", len(refs), "chunks", len(chunks))

	byID := make(map[int]*models.ChatMessage, len(session.Messages))
	for i := range session.Messages {
		if _, seen := byID[session.Messages[i].ID]; !seen {
			byID[session.Messages[i].ID] = &session.Messages[i]
		}
	}

	tasks := []models.Task{}
	for i, chunk := range chunks {
		drafts, err := e.provider.ExtractTasks(ctx, chunk)
		if err != nil {
			if ctx.Err() != nil {
				return tasks, ctx.Err()
			}
			slog.Warn("chunk extraction failed, skipping", "chunk", i+1, "of", len(chunks), "error", err)
			continue
		}
		slog.Info("chunk processed", "chunk", i+1, "of", len(chunks), "drafts", len(drafts))

		for _, draft := range drafts {
			source, ok := byID[draft.MessageID]
			if !ok {
				slog.Debug("draft references unknown message, skipping", "messageId", draft.MessageID)
				continue
			}
			tasks = append(tasks, models.Task{
				ID:                fmt.Sprintf("%s_%d_%d", session.ChatID, draft.MessageID, len(tasks)),
				Description:       draft.Description,
				Status:            models.StatusPending,
				Priority:          models.ParsePriority(draft.Priority),
				SourceMessageID:   draft.MessageID,
				SourceMessageText: source.Text,
				RequestedAt:       source.Timestamp,
				Context:           draft.Context,
			})
		}

		if i < len(chunks)-1 {
			if err := e.sleep(ctx, e.pause); err != nil {
				return tasks, err
			}
		}
	}
	return tasks, nil
}

// chunkMessages splits refs into contiguous chunks of at most size
// elements, preserving order.
func chunkMessages(refs []llm.MessageRef, size int) [][]llm.MessageRef {
	var chunks [][]llm.MessageRef
	for start := 0; start < len(refs); start += size {
		end := start + size
		if end > len(refs) {
			end = len(refs)
		}
		chunks = append(chunks, refs[start:end])
	}
	return chunks
}

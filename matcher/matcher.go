// Package matcher checks every extracted task against the developer
// replies that followed it and settles the task's terminal status.
package matcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/mkravets/chatlens/llm"
	"github.com/mkravets/chatlens/models"
)

const (
	defaultResponseWindow = 10
	defaultPause          = 300 * time.Millisecond
)

// TaskMatcher drives per-task completion checks through an llm.Provider.
type TaskMatcher struct {
	provider       llm.Provider
	responseWindow int
	pause          time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
}

// Option configures a TaskMatcher.
type Option func(*TaskMatcher)

// WithResponseWindow overrides how many developer replies after the
// originating message are considered.
func WithResponseWindow(n int) Option {
	return func(m *TaskMatcher) {
		if n > 0 {
			m.responseWindow = n
		}
	}
}

// WithPause overrides the pacing delay between task checks.
func WithPause(d time.Duration) Option {
	return func(m *TaskMatcher) {
		if d >= 0 {
			m.pause = d
		}
	}
}

// withSleep replaces the pacing sleep. Used in tests.
func withSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(m *TaskMatcher) { m.sleep = fn }
}

// New creates a TaskMatcher over the given provider.
func New(provider llm.Provider, opts ...Option) *TaskMatcher {
	m := &TaskMatcher{
		provider:       provider,
		responseWindow: defaultResponseWindow,
		pause:          defaultPause,
		sleep:          sleepCtx,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
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

// MatchTasks settles every task exactly once: pending moves to completed
// or missed and never back. A failure while checking one task marks that
// task missed and the batch continues.
func (m *TaskMatcher) MatchTasks(ctx context.Context, session *models.ChatSession, tasks []models.Task) []models.Task {
	slog.Info("matching tasks against responses", "chat", session.ChatID, "tasks", len(tasks))

	for i := range tasks {
		m.matchOne(ctx, session, &tasks[i])
		if ctx.Err() != nil {
			slog.Warn("matching interrupted", "settled", i+1, "of", len(tasks))
			break
		}
		if i < len(tasks)-1 {
			if err := m.sleep(ctx, m.pause); err != nil {
				break
			}
		}
	}
	return tasks
}

func (m *TaskMatcher) matchOne(ctx context.Context, session *models.ChatSession, task *models.Task) {
	source := session.MessageByID(task.SourceMessageID)
	if source == nil {
		task.Status = models.StatusMissed
		task.MissedReason = "originating message not found"
		return
	}

	responses := responsesAfter(session, source.ID, m.responseWindow)
	if len(responses) == 0 {
		task.Status = models.StatusMissed
		task.MissedReason = "no responses after request"
		return
	}

	refs := make([]llm.MessageRef, len(responses))
	for i, r := range responses {
		refs[i] = llm.MessageRef{ID: r.ID, Text: r.Text}
	}

	result, err := m.provider.CheckCompletion(ctx, llm.TaskInput{
		Description: task.Description,
		Context:     task.Context,
	}, refs)
	if err != nil {
		slog.Warn("completion check failed", "task", task.ID, "error", err)
		task.Status = models.StatusMissed
		task.MissedReason = err.Error()
		return
	}

	if !result.Completed {
		task.Status = models.StatusMissed
		task.MissedReason = result.Evidence
		if task.MissedReason == "" {
			task.MissedReason = "task was not completed"
		}
		return
	}

	task.Status = models.StatusCompleted
	task.CompletionEvidence = result.Evidence
	if result.ResponseMessageID != 0 {
		task.ResponseMessageID = result.ResponseMessageID
		// An uncited or unknown reply id keeps the task completed but
		// leaves the response fields unset.
		if response := session.MessageByID(result.ResponseMessageID); response != nil {
			task.ResponseMessageText = response.Text
			completedAt := response.Timestamp
			task.CompletedAt = &completedAt
		} else {
			task.ResponseMessageID = 0
		}
	}
}

// responsesAfter collects up to limit developer messages strictly after
// the source message in session order. Messages with other roles are
// skipped without consuming the limit.
func responsesAfter(session *models.ChatSession, sourceID, limit int) []models.ChatMessage {
	var out []models.ChatMessage
	found := false
	for _, msg := range session.Messages {
		if msg.ID == sourceID {
			found = true
			continue
		}
		if found && msg.Role == models.RoleDeveloper {
			out = append(out, msg)
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}

package matcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mkravets/chatlens/llm"
	"github.com/mkravets/chatlens/models"
)

// fakeProvider scripts CheckCompletion verdicts per call.
type fakeProvider struct {
	calls   [][]llm.MessageRef
	results []llm.CompletionResult
	errs    []error
}

func (f *fakeProvider) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeProvider) ExtractTasks(ctx context.Context, messages []llm.MessageRef) ([]llm.TaskDraft, error) {
	return nil, errors.New("not used")
}

func (f *fakeProvider) CheckCompletion(ctx context.Context, task llm.TaskInput, responses []llm.MessageRef) (llm.CompletionResult, error) {
	call := len(f.calls)
	f.calls = append(f.calls, responses)
	if call < len(f.errs) && f.errs[call] != nil {
		return llm.CompletionResult{}, f.errs[call]
	}
	if call < len(f.results) {
		return f.results[call], nil
	}
	return llm.CompletionResult{}, nil
}

func noSleep(_ context.Context, _ time.Duration) error { return nil }

func ts(sec int) time.Time {
	return time.Date(2024, 3, 1, 12, 0, sec, 0, time.UTC)
}

func sessionWithReply() *models.ChatSession {
	return &models.ChatSession{
		ChatID: "chat",
		Messages: []models.ChatMessage{
			{ID: 1, Role: models.RoleClient, Text: "please fix the crash", Timestamp: ts(1)},
			{ID: 2, Role: models.RoleClient, Text: "any update?", Timestamp: ts(2)},
			{ID: 3, Role: models.RoleDeveloper, Text: "fixed and deployed", Timestamp: ts(3), ReplyToMessageID: 1},
		},
	}
}

func pendingTask(id string, sourceID int) models.Task {
	return models.Task{
		ID:              id,
		Description:     "fix the crash",
		Status:          models.StatusPending,
		Priority:        models.PriorityMedium,
		SourceMessageID: sourceID,
		RequestedAt:     ts(1),
	}
}

func TestMatchTasksCompleted(t *testing.T) {
	provider := &fakeProvider{
		results: []llm.CompletionResult{
			{Completed: true, ResponseMessageID: 3, Evidence: "developer confirmed the deploy"},
		},
	}
	m := New(provider, withSleep(noSleep))

	session := sessionWithReply()
	tasks := m.MatchTasks(context.Background(), session, []models.Task{pendingTask("chat_1_0", 1)})

	task := tasks[0]
	if task.Status != models.StatusCompleted {
		t.Fatalf("status = %s, want completed", task.Status)
	}
	if task.ResponseMessageID != 3 {
		t.Errorf("responseMessageId = %d, want 3", task.ResponseMessageID)
	}
	if task.ResponseMessageText != "fixed and deployed" {
		t.Errorf("responseMessageText = %q", task.ResponseMessageText)
	}
	if task.CompletedAt == nil || !task.CompletedAt.Equal(ts(3)) {
		t.Errorf("completedAt = %v, want %v", task.CompletedAt, ts(3))
	}
	if task.CompletionEvidence != "developer confirmed the deploy" {
		t.Errorf("evidence = %q", task.CompletionEvidence)
	}
}

func TestMatchTasksCompletedWithUnknownCitation(t *testing.T) {
	provider := &fakeProvider{
		results: []llm.CompletionResult{
			{Completed: true, ResponseMessageID: 777, Evidence: "done"},
		},
	}
	m := New(provider, withSleep(noSleep))

	tasks := m.MatchTasks(context.Background(), sessionWithReply(), []models.Task{pendingTask("chat_1_0", 1)})

	task := tasks[0]
	// The verdict stands even when the cited reply id is unknown; the
	// response fields just stay unset.
	if task.Status != models.StatusCompleted {
		t.Fatalf("status = %s, want completed", task.Status)
	}
	if task.ResponseMessageID != 0 || task.ResponseMessageText != "" || task.CompletedAt != nil {
		t.Errorf("response fields should stay unset: %+v", task)
	}
}

func TestMatchTasksMissedVerdict(t *testing.T) {
	provider := &fakeProvider{
		results: []llm.CompletionResult{
			{Completed: false, Evidence: "the developer never replied to this"},
		},
	}
	m := New(provider, withSleep(noSleep))

	tasks := m.MatchTasks(context.Background(), sessionWithReply(), []models.Task{pendingTask("chat_1_0", 1)})

	if tasks[0].Status != models.StatusMissed {
		t.Fatalf("status = %s, want missed", tasks[0].Status)
	}
	if tasks[0].MissedReason != "the developer never replied to this" {
		t.Errorf("missedReason = %q", tasks[0].MissedReason)
	}
}

func TestMatchTasksSourceMessageGone(t *testing.T) {
	provider := &fakeProvider{}
	m := New(provider, withSleep(noSleep))

	tasks := m.MatchTasks(context.Background(), sessionWithReply(), []models.Task{pendingTask("chat_9_0", 9)})

	if tasks[0].Status != models.StatusMissed {
		t.Fatalf("status = %s, want missed", tasks[0].Status)
	}
	if tasks[0].MissedReason != "originating message not found" {
		t.Errorf("missedReason = %q", tasks[0].MissedReason)
	}
	if len(provider.calls) != 0 {
		t.Errorf("model called %d times, want 0", len(provider.calls))
	}
}

func TestMatchTasksNoResponsesAfterRequest(t *testing.T) {
	provider := &fakeProvider{}
	m := New(provider, withSleep(noSleep))

	// The only developer reply sits before the request.
	session := &models.ChatSession{
		ChatID: "chat",
		Messages: []models.ChatMessage{
			{ID: 1, Role: models.RoleDeveloper, Text: "morning", Timestamp: ts(1)},
			{ID: 2, Role: models.RoleClient, Text: "add an export button", Timestamp: ts(2)},
			{ID: 3, Role: models.RoleClient, Text: "please", Timestamp: ts(3)},
		},
	}
	tasks := m.MatchTasks(context.Background(), session, []models.Task{pendingTask("chat_2_0", 2)})

	if tasks[0].Status != models.StatusMissed {
		t.Fatalf("status = %s, want missed", tasks[0].Status)
	}
	if tasks[0].MissedReason != "no responses after request" {
		t.Errorf("missedReason = %q", tasks[0].MissedReason)
	}
	if len(provider.calls) != 0 {
		t.Errorf("model called %d times, want 0", len(provider.calls))
	}
}

func TestMatchTasksProviderErrorIsolated(t *testing.T) {
	provider := &fakeProvider{
		errs: []error{errors.New("gateway blew up"), nil},
		results: []llm.CompletionResult{
			{},
			{Completed: true, ResponseMessageID: 3, Evidence: "done"},
		},
	}
	m := New(provider, withSleep(noSleep))

	session := sessionWithReply()
	tasks := m.MatchTasks(context.Background(), session, []models.Task{
		pendingTask("chat_1_0", 1),
		pendingTask("chat_2_1", 2),
	})

	if tasks[0].Status != models.StatusMissed {
		t.Errorf("first task status = %s, want missed", tasks[0].Status)
	}
	if tasks[0].MissedReason == "" {
		t.Error("first task should carry the error text as reason")
	}
	// The second task is still evaluated.
	if tasks[1].Status != models.StatusCompleted {
		t.Errorf("second task status = %s, want completed", tasks[1].Status)
	}
}

func TestResponsesAfterWindowAndRoles(t *testing.T) {
	session := &models.ChatSession{ChatID: "chat"}
	session.Messages = append(session.Messages, models.ChatMessage{ID: 1, Role: models.RoleClient, Text: "request"})
	// Interleave developer replies with client and system noise.
	id := 2
	for i := 0; i < 12; i++ {
		session.Messages = append(session.Messages,
			models.ChatMessage{ID: id, Role: models.RoleClient, Text: "noise"},
			models.ChatMessage{ID: id + 1, Role: models.RoleDeveloper, Text: "reply"},
		)
		id += 2
	}

	responses := responsesAfter(session, 1, 10)
	if len(responses) != 10 {
		t.Fatalf("got %d responses, want the window of 10", len(responses))
	}
	for _, r := range responses {
		if r.Role != models.RoleDeveloper {
			t.Errorf("non-developer message %d in responses", r.ID)
		}
	}
	// Skipped client messages must not consume the window.
	if responses[9].ID != 21 {
		t.Errorf("last response id = %d, want 21", responses[9].ID)
	}
}

func TestMatchTasksPausesBetweenTasks(t *testing.T) {
	provider := &fakeProvider{
		results: []llm.CompletionResult{
			{Completed: false, Evidence: "nope"},
			{Completed: false, Evidence: "nope"},
		},
	}

	var slept []time.Duration
	m := New(provider,
		WithPause(300*time.Millisecond),
		withSleep(func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		}),
	)

	m.MatchTasks(context.Background(), sessionWithReply(), []models.Task{
		pendingTask("chat_1_0", 1),
		pendingTask("chat_2_1", 2),
	})

	if len(slept) != 1 || slept[0] != 300*time.Millisecond {
		t.Errorf("slept %v, want one 300ms pause", slept)
	}
}

package llm

import "context"

// MessageRef is a minimal view of a chat message handed to the model.
type MessageRef struct {
	ID   int    `json:"id"`
	Role string `json:"role,omitempty"`
	Text string `json:"text"`
}

// TaskDraft is one task candidate as reported by the model for a chunk
// of client messages. Drafts still need to be resolved against the
// session before they become tasks.
type TaskDraft struct {
	Description string `json:"description"`
	MessageID   int    `json:"message_id"`
	Priority    string `json:"priority"`
	Context     string `json:"context"`
}

// TaskInput is the task side of a completion check.
type TaskInput struct {
	Description string
	Context     string
}

// CompletionResult is the model's verdict on whether a task was fulfilled.
// ResponseMessageID is zero when no confirming reply was cited.
type CompletionResult struct {
	Completed         bool
	ResponseMessageID int
	Evidence          string
}

// Provider defines the boundary to the external language-model service.
// Implementations own retry policy and response parsing.
type Provider interface {
	// Generate sends a single prompt (plus optional system instruction)
	// and returns the raw model text.
	Generate(ctx context.Context, prompt, systemPrompt string) (string, error)

	// ExtractTasks asks the model to identify client tasks in the given
	// messages. Unparseable model output degrades to an empty list.
	ExtractTasks(ctx context.Context, messages []MessageRef) ([]TaskDraft, error)

	// CheckCompletion asks the model whether the task was fulfilled by any
	// of the candidate responses. Unparseable model output degrades to a
	// negative verdict.
	CheckCompletion(ctx context.Context, task TaskInput, responses []MessageRef) (CompletionResult, error)
}

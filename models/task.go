package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// TaskStatus represents the possible statuses of an extracted task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusRejected   TaskStatus = "rejected"
	StatusMissed     TaskStatus = "missed"
)

// TaskPriority represents the priority levels of a task.
type TaskPriority string

const (
	PriorityLow      TaskPriority = "low"
	PriorityMedium   TaskPriority = "medium"
	PriorityHigh     TaskPriority = "high"
	PriorityCritical TaskPriority = "critical"
)

// ParsePriority normalizes a free-form priority string against the known
// levels. Anything unrecognized falls back to medium.
func ParsePriority(s string) TaskPriority {
	switch TaskPriority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow
	case PriorityMedium:
		return PriorityMedium
	case PriorityHigh:
		return PriorityHigh
	case PriorityCritical:
		return PriorityCritical
	default:
		return PriorityMedium
	}
}

// Task is a single client request extracted from a conversation, tracked
// to a completion verdict. Extraction creates it as pending; matching
// moves it exactly once to completed or missed.
type Task struct {
	ID          string       `json:"id" validate:"required"`
	Description string       `json:"description" validate:"required"`
	Status      TaskStatus   `json:"status" validate:"required,oneof=pending in_progress completed rejected missed"`
	Priority    TaskPriority `json:"priority" validate:"required,oneof=low medium high critical"`

	SourceMessageID   int    `json:"sourceMessageId" validate:"required"`
	SourceMessageText string `json:"sourceMessageText"`

	RequestedAt time.Time `json:"requestedAt"`
	AssignedTo  string    `json:"assignedTo,omitempty"`

	ResponseMessageID   int        `json:"responseMessageId,omitempty"`
	ResponseMessageText string     `json:"responseMessageText,omitempty"`
	CompletedAt         *time.Time `json:"completedAt,omitempty"`

	Context            string `json:"context,omitempty"`
	MissedReason       string `json:"missedReason,omitempty"`
	CompletionEvidence string `json:"completionEvidence,omitempty"`
}

// global validator instance, caches struct info
var validate = validator.New()

// ValidateStruct performs validation on any struct carrying validation tags.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, e := range validationErrors {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed rule '%s' (value: '%v')", e.StructNamespace(), e.Tag(), e.Value()))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}

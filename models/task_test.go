package models

import (
	"testing"
	"time"
)

func TestParsePriority(t *testing.T) {
	cases := []struct {
		in   string
		want TaskPriority
	}{
		{"low", PriorityLow},
		{"MEDIUM", PriorityMedium},
		{"High", PriorityHigh},
		{"critical", PriorityCritical},
		{" high ", PriorityHigh},
		{"urgent", PriorityMedium},
		{"", PriorityMedium},
		{"banana", PriorityMedium},
	}
	for _, tc := range cases {
		if got := ParsePriority(tc.in); got != tc.want {
			t.Errorf("ParsePriority(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestValidateTask(t *testing.T) {
	task := Task{
		ID:              "chat_1_0",
		Description:     "fix the login page",
		Status:          StatusPending,
		Priority:        PriorityMedium,
		SourceMessageID: 1,
		RequestedAt:     time.Now(),
	}
	if err := ValidateStruct(task); err != nil {
		t.Errorf("valid task failed validation: %v", err)
	}

	task.Status = "done"
	if err := ValidateStruct(task); err == nil {
		t.Error("unknown status should fail validation")
	}
}

package models

import "time"

// ReportSummary holds the aggregate task counts of one analysis run.
// TotalTasks always equals the sum of the four per-status counts.
type ReportSummary struct {
	TotalTasks      int `json:"totalTasks"`
	CompletedTasks  int `json:"completedTasks"`
	PendingTasks    int `json:"pendingTasks"`
	MissedTasks     int `json:"missedTasks"`
	InProgressTasks int `json:"inProgressTasks"`
}

// AnalysisReport is the final artifact of a run: chat identity, summary
// counts, the full task list and the missed-only sublist. It is derived
// entirely from the task list and carries no state of its own.
type AnalysisReport struct {
	RunID       string        `json:"runId"`
	ChatID      string        `json:"chatId" validate:"required"`
	ChatTitle   string        `json:"chatTitle,omitempty"`
	AnalyzedAt  time.Time     `json:"analyzedAt"`
	Summary     ReportSummary `json:"summary"`
	Tasks       []Task        `json:"tasks"`
	MissedTasks []Task        `json:"missedTasks"`
}

// Package report assembles the analysis report and renders it to a
// structured file and a human-readable text file.
package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	yaml "gopkg.in/yaml.v3"

	"github.com/mkravets/chatlens/models"
)

const (
	// FormatJSON and FormatYAML select the structured report encoding.
	FormatJSON = "json"
	FormatYAML = "yaml"

	filenameStamp = "20060102_150405"
	excerptRunes  = 100
)

// Generator builds reports and persists them under the output directory.
type Generator struct {
	fs     afero.Fs
	dir    string
	format string
	now    func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithFS replaces the filesystem. Used in tests.
func WithFS(fs afero.Fs) Option {
	return func(g *Generator) { g.fs = fs }
}

// WithFormat selects the structured file encoding, json (default) or yaml.
func WithFormat(format string) Option {
	return func(g *Generator) {
		if format == FormatYAML {
			g.format = FormatYAML
		}
	}
}

// WithClock replaces the timestamp source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a Generator writing into dir.
func NewGenerator(dir string, opts ...Option) *Generator {
	g := &Generator{
		fs:     afero.NewOsFs(),
		dir:    dir,
		format: FormatJSON,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate partitions the task list by status and packages it into a
// report. It is a pure transform: counts are recomputed from the tasks
// every time and always satisfy total == completed+pending+missed+in_progress.
func (g *Generator) Generate(chatID, chatTitle string, tasks []models.Task) *models.AnalysisReport {
	var missed []models.Task
	summary := models.ReportSummary{TotalTasks: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case models.StatusCompleted:
			summary.CompletedTasks++
		case models.StatusMissed:
			summary.MissedTasks++
			missed = append(missed, t)
		case models.StatusInProgress:
			summary.InProgressTasks++
		default:
			summary.PendingTasks++
		}
	}

	return &models.AnalysisReport{
		RunID:       uuid.NewString(),
		ChatID:      chatID,
		ChatTitle:   chatTitle,
		AnalyzedAt:  g.now(),
		Summary:     summary,
		Tasks:       tasks,
		MissedTasks: missed,
	}
}

// SaveStructured writes the machine-readable report file and returns its
// path. The encoding is json unless the generator was configured for yaml.
func (g *Generator) SaveStructured(report *models.AnalysisReport) (string, error) {
	var (
		data []byte
		err  error
	)
	switch g.format {
	case FormatYAML:
		data, err = yaml.Marshal(report)
	default:
		data, err = json.MarshalIndent(report, "", "  ")
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	path := g.reportPath(report, g.format)
	if err := g.write(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// SaveText writes the formatted human-readable report and returns its path.
func (g *Generator) SaveText(report *models.AnalysisReport) (string, error) {
	path := g.reportPath(report, "txt")
	if err := g.write(path, []byte(renderText(report))); err != nil {
		return "", err
	}
	return path, nil
}

func (g *Generator) reportPath(report *models.AnalysisReport, ext string) string {
	stamp := g.now().Format(filenameStamp)
	return filepath.Join(g.dir, fmt.Sprintf("report_%s_%s.%s", report.ChatID, stamp, ext))
}

func (g *Generator) write(path string, data []byte) error {
	if err := g.fs.MkdirAll(g.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create reports directory %s: %w", g.dir, err)
	}
	if err := afero.WriteFile(g.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

const divider = "================================================================================"
const thinDivider = "--------------------------------------------------------------------------------"

// renderText produces the human-readable rendering: statistics first,
// then missed tasks in detail, then every task with a one-line status.
func renderText(report *models.AnalysisReport) string {
	var b strings.Builder

	title := report.ChatTitle
	if title == "" {
		title = report.ChatID
	}

	fmt.Fprintf(&b, "%s\nCHAT ANALYSIS REPORT\n%s\n\n", divider, divider)
	fmt.Fprintf(&b, "Chat: %s\n", title)
	fmt.Fprintf(&b, "Analyzed: %s\n\n", report.AnalyzedAt.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(&b, "STATISTICS:\n%s\n", thinDivider)
	fmt.Fprintf(&b, "Total tasks: %d\n", report.Summary.TotalTasks)
	fmt.Fprintf(&b, "Completed: %d\n", report.Summary.CompletedTasks)
	fmt.Fprintf(&b, "In progress: %d\n", report.Summary.InProgressTasks)
	fmt.Fprintf(&b, "Pending: %d\n", report.Summary.PendingTasks)
	fmt.Fprintf(&b, "Missed: %d\n\n", report.Summary.MissedTasks)

	if len(report.MissedTasks) > 0 {
		fmt.Fprintf(&b, "%s\nMISSED TASKS:\n%s\n\n", divider, divider)
		for i, task := range report.MissedTasks {
			fmt.Fprintf(&b, "%d. TASK #%s\n", i+1, task.ID)
			fmt.Fprintf(&b, "   Description: %s\n", task.Description)
			fmt.Fprintf(&b, "   Priority: %s\n", task.Priority)
			fmt.Fprintf(&b, "   Message #%d: %s\n", task.SourceMessageID, excerpt(task.SourceMessageText))
			fmt.Fprintf(&b, "   Missed because: %s\n", orUnspecified(task.MissedReason))
			fmt.Fprintf(&b, "   Requested: %s\n", task.RequestedAt.Format("2006-01-02 15:04:05"))
			if task.Context != "" {
				fmt.Fprintf(&b, "   Context: %s\n", task.Context)
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "%s\nALL TASKS:\n%s\n\n", divider, divider)
	for i, task := range report.Tasks {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, strings.ToUpper(string(task.Status)), task.Description)
		fmt.Fprintf(&b, "   Message #%d\n", task.SourceMessageID)
		switch {
		case task.Status == models.StatusCompleted && task.CompletionEvidence != "":
			fmt.Fprintf(&b, "   Completed: %s\n", task.CompletionEvidence)
		case task.Status == models.StatusMissed:
			fmt.Fprintf(&b, "   Missed: %s\n", orUnspecified(task.MissedReason))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// excerpt truncates the source message to a short preview, rune-safe.
func excerpt(s string) string {
	runes := []rune(s)
	if len(runes) <= excerptRunes {
		return s
	}
	return string(runes[:excerptRunes]) + "..."
}

func orUnspecified(s string) string {
	if s == "" {
		return "not specified"
	}
	return s
}

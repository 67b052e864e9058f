package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/mkravets/chatlens/extractor"
	"github.com/mkravets/chatlens/llm"
	"github.com/mkravets/chatlens/matcher"
	"github.com/mkravets/chatlens/models"
	"github.com/mkravets/chatlens/report"
	"github.com/mkravets/chatlens/types"
)

// runAnalysis drives the pipeline over an imported session: extraction,
// matching, report assembly, and persistence of both report files.
func runAnalysis(ctx context.Context, cfg *types.AppConfig, session *models.ChatSession) error {
	title := session.ChatTitle
	if title == "" {
		title = session.ChatID
	}
	fmt.Printf("\nAnalyzing chat: %s\n", title)
	fmt.Printf("Messages: %d (source: %s)\n\n", session.TotalMessages, session.Source)

	provider, err := llm.NewProvider(&cfg.LLM)
	if err != nil {
		return err
	}

	fmt.Println("Extracting tasks...")
	ext := extractor.New(provider,
		extractor.WithChunkSize(cfg.Analysis.ChunkSize),
		extractor.WithPause(secondsToDuration(cfg.Analysis.ChunkPauseSec)),
	)
	tasks, err := ext.ExtractTasks(ctx, session)
	if err != nil {
		return err
	}
	fmt.Printf("Tasks found: %d\n", len(tasks))

	if len(tasks) == 0 {
		fmt.Println("No tasks found, nothing to report.")
		return nil
	}

	fmt.Println("Matching tasks with responses...")
	m := matcher.New(provider,
		matcher.WithResponseWindow(cfg.Analysis.ResponseWindow),
		matcher.WithPause(secondsToDuration(cfg.Analysis.TaskPauseSec)),
	)
	tasks = m.MatchTasks(ctx, session, tasks)

	fmt.Println("Generating report...")
	gen := report.NewGenerator(cfg.Reports.Dir, report.WithFormat(cfg.Reports.Format))
	rep := gen.Generate(session.ChatID, session.ChatTitle, tasks)

	structuredPath, err := gen.SaveStructured(rep)
	if err != nil {
		return err
	}
	textPath, err := gen.SaveText(rep)
	if err != nil {
		return err
	}

	fmt.Println("\nReport created:")
	fmt.Printf("  %s: %s\n", cfg.Reports.Format, structuredPath)
	fmt.Printf("  txt: %s\n", textPath)
	fmt.Println("\nStatistics:")
	fmt.Printf("  Total tasks: %d\n", rep.Summary.TotalTasks)
	fmt.Printf("  Completed: %d\n", rep.Summary.CompletedTasks)
	fmt.Printf("  Missed: %d\n", rep.Summary.MissedTasks)
	fmt.Printf("  In progress: %d\n", rep.Summary.InProgressTasks)
	fmt.Printf("  Pending: %d\n", rep.Summary.PendingTasks)
	return nil
}

func secondsToDuration(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}

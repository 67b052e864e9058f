package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkravets/chatlens/parser"
)

// fileCmd imports a chat from an exported file and analyzes it.
var fileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Import a chat from an exported file and analyze it",
	Long: `Imports a conversation from a local file and runs the analysis.
The extension picks the parser: .json for a structured Telegram export,
.txt for a line-oriented "Client:/Developer:" transcript.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}

		path := args[0]
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("cannot access %s: %w", path, err)
		}

		fmt.Printf("Parsing %s...\n", path)
		session, err := parser.NewChatParser().ParseFile(path)
		if err != nil {
			return err
		}
		fmt.Printf("Imported messages: %d\n", session.TotalMessages)

		return runAnalysis(cmd.Context(), cfg, session)
	},
}

func init() {
	rootCmd.AddCommand(fileCmd)
}

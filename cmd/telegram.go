package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkravets/chatlens/models"
	"github.com/mkravets/chatlens/telegram"
	"github.com/mkravets/chatlens/types"
)

// telegramCmd imports a chat live from a Telegram account and analyzes it.
var telegramCmd = &cobra.Command{
	Use:   "telegram <chat_id|@username|username>",
	Short: "Import a chat from the Telegram API and analyze it",
	Long: `Imports a conversation straight from a Telegram account and runs the
analysis. The chat is addressed either by its numeric id or by username;
a username with no exact match falls back to a substring search over the
account's dialogs, and the first candidate is used.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}

		identifier := args[0]
		ctx := cmd.Context()

		var session *models.ChatSession
		err = telegram.Connect(ctx, cfg.Telegram, func(ctx context.Context, tr telegram.Transport) error {
			importer := telegram.NewImporter(tr)

			chatID, err := resolveChatID(ctx, importer, identifier)
			if err != nil {
				return err
			}

			fmt.Printf("Importing chat (ID: %d)...\n", chatID)
			session, err = importer.ImportChat(ctx, chatID)
			if err != nil {
				return err
			}
			fmt.Printf("Imported messages: %d\n", session.TotalMessages)
			return nil
		})
		if err != nil {
			return err
		}

		return runAnalysis(ctx, cfg, session)
	},
}

// resolveChatID turns the command argument into a chat id. Numeric
// arguments are used as-is; anything else goes through username
// resolution with a fuzzy fallback.
func resolveChatID(ctx context.Context, importer *telegram.Importer, identifier string) (int64, error) {
	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil && !strings.HasPrefix(identifier, "@") {
		return id, nil
	}

	username := strings.TrimPrefix(identifier, "@")
	fmt.Printf("Looking up chat by username: @%s...\n", username)

	chatID, err := importer.FindChatByUsername(ctx, username)
	if err == nil {
		return chatID, nil
	}

	fmt.Printf("No exact match for @%s, trying substring search...\n", username)
	candidates, err := importer.SearchChatsByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, &types.TransportError{Op: "resolve chat", Err: fmt.Errorf("no chat matching %q found", username)}
	}

	fmt.Println("Similar chats found:")
	for i, c := range candidates {
		name := c.Username
		if name == "" {
			name = "N/A"
		}
		fmt.Printf("  %d. @%s - %s (ID: %d)\n", i+1, name, c.Title, c.ID)
	}
	fmt.Println("Using the first match.")
	return candidates[0].ID, nil
}

func init() {
	rootCmd.AddCommand(telegramCmd)
}

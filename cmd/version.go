package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the chatlens version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("chatlens %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/declmig/declmig/database"
	"github.com/declmig/declmig/runner"
)

var historyLimit int

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Show only the most recent N records")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show migration history from the tracking table",
	Run: func(cmd *cobra.Command, args []string) {
		pool, err := database.Connect(context.Background(), databaseURL)
		if err != nil {
			fmt.Println("❌ Connecting to database:", err)
			os.Exit(1)
		}
		defer pool.Close()

		records, err := runner.History(context.Background(), pool)
		if err != nil {
			fmt.Println("❌ History error:", err)
			os.Exit(1)
		}

		if len(records) == 0 {
			fmt.Println("📋 No migration history found")
			return
		}
		if historyLimit > 0 && len(records) > historyLimit {
			records = records[:historyLimit]
		}

		cyan := color.New(color.FgCyan)
		cyan.Println("📋 Migration history (newest first):")
		for _, r := range records {
			fmt.Printf("   %s  %s\n", r.AppliedAt.Format("2006-01-02 15:04:05"), r.MigrationName)
		}
	},
}

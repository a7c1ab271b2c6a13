package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/declmig/declmig/database"
	"github.com/declmig/declmig/runner"
)

var (
	rollbackSteps  int
	rollbackTarget int
)

func init() {
	rollbackCmd.Flags().IntVarP(&rollbackSteps, "steps", "s", 1, "Number of migrations to rollback")
	rollbackCmd.Flags().IntVar(&rollbackTarget, "to", 0, "Rollback down to (but not including) this migration number")
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Rollback applied migrations",
	Long: `Rollback the most recent migration or several at once.

Examples:
  declmig rollback             # Rollback the last migration
  declmig rollback --steps=3   # Rollback the last 3 migrations
  declmig rollback --to 7      # Rollback everything above number 7
`,
	Run: func(cmd *cobra.Command, args []string) {
		if rollbackSteps < 1 && rollbackTarget == 0 {
			fmt.Println("❌ Steps must be at least 1")
			os.Exit(1)
		}

		pool, err := database.Connect(context.Background(), databaseURL)
		if err != nil {
			fmt.Println("❌ Connecting to database:", err)
			os.Exit(1)
		}
		defer pool.Close()

		opts := runner.Options{
			MigrationsDir: migrationsDir,
			Schema:        schemaName,
			Steps:         rollbackSteps,
			TargetNumber:  rollbackTarget,
		}
		if rollbackTarget > 0 {
			opts.Steps = 0
		}

		results, err := runner.Revert(context.Background(), pool, opts)
		if err != nil {
			fmt.Println("❌ Rollback failed:", err)
			os.Exit(1)
		}

		if len(results) == 0 {
			fmt.Println("✅ No migrations to rollback.")
			return
		}

		for _, r := range results {
			if r.Success {
				fmt.Println("✅ Rolled back:", r.MigrationName)
			} else {
				fmt.Printf("❌ Failed: %s: %v\n", r.MigrationName, r.Err)
				os.Exit(1)
			}
		}
	},
}

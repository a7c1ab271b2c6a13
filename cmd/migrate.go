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
	migrateTarget int
	keepGoing     bool
)

func init() {
	migrateCmd.Flags().IntVar(&migrateTarget, "to", 0, "Apply up to and including this migration number")
	migrateCmd.Flags().BoolVar(&keepGoing, "keep-going", false, "Continue with later migrations after one fails")
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending migrations",
	Run: func(cmd *cobra.Command, args []string) {
		pool, err := database.Connect(context.Background(), databaseURL)
		if err != nil {
			fmt.Println("❌ Connecting to database:", err)
			os.Exit(1)
		}
		defer pool.Close()

		results, err := runner.Apply(context.Background(), pool, runner.Options{
			MigrationsDir: migrationsDir,
			Schema:        schemaName,
			TargetNumber:  migrateTarget,
			KeepGoing:     keepGoing,
		})
		if err != nil {
			fmt.Println("❌ Migration failed:", err)
			os.Exit(1)
		}

		if len(results) == 0 {
			fmt.Println("✅ No pending migrations.")
			return
		}

		failed := false
		for _, r := range results {
			if r.Success {
				fmt.Println("✅ Applied:", r.MigrationName)
			} else {
				failed = true
				fmt.Printf("❌ Failed: %s: %v\n", r.MigrationName, r.Err)
			}
		}
		if failed {
			os.Exit(1)
		}
	},
}

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

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	Run: func(cmd *cobra.Command, args []string) {
		pool, err := database.Connect(context.Background(), databaseURL)
		if err != nil {
			fmt.Println("❌ Connecting to database:", err)
			os.Exit(1)
		}
		defer pool.Close()

		applied, pending, err := runner.Status(context.Background(), pool, migrationsDir)
		if err != nil {
			fmt.Println("❌ Status error:", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen)
		yellow := color.New(color.FgYellow)

		green.Println("✅ Applied migrations:")
		for _, f := range applied {
			fmt.Println("   -", f)
		}

		yellow.Println("\n🕒 Pending migrations:")
		for _, f := range pending {
			fmt.Printf("   - %s (%s)\n", f.Filename, f.Kind)
		}
	},
}

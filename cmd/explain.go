package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/declmig/declmig/runner"
)

var explainCmd = &cobra.Command{
	Use:   "explain <number> [up|down]",
	Short: "Show the SQL a migration would execute, without running it",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		number, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Println("❌ Migration number must be an integer:", args[0])
			os.Exit(1)
		}
		direction := "up"
		if len(args) == 2 {
			direction = args[1]
		}

		statements, err := runner.Explain(migrationsDir, number, direction)
		if err != nil {
			fmt.Println("❌ Explain failed:", err)
			os.Exit(1)
		}

		color.New(color.FgCyan).Printf("-- Migration %04d (%s) --\n", number, direction)
		for _, stmt := range statements {
			fmt.Println(stmt)
		}
	},
}

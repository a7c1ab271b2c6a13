package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/declmig/declmig/catalog"
	"github.com/declmig/declmig/database"
	"github.com/declmig/declmig/extensions"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database connectivity and extension compatibility",
	Run: func(cmd *cobra.Command, args []string) {
		pool, err := database.Connect(context.Background(), databaseURL)
		if err != nil {
			fmt.Println("❌ Connecting to database:", err)
			os.Exit(1)
		}
		defer pool.Close()

		snap, err := catalog.Capture(context.Background(), pool, schemaName)
		if err != nil {
			fmt.Println("❌ Reading catalog state:", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen)
		green.Println("✅ Database connection OK")
		fmt.Printf("   server version: %d\n", snap.ServerVersionNum)
		fmt.Printf("   schema %q: %d table(s), %d index(es), %d function(s)\n",
			snap.Schema, len(snap.Tables), len(snap.Indexes), len(snap.Functions))

		var present []string
		for fn := range snap.Functions {
			if extensions.Owned(fn) {
				present = append(present, fn)
			}
		}
		if err := extensions.Check(snap, present); err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}

		for _, line := range extensions.Advise(snap) {
			fmt.Println("ℹ️ ", line)
		}
	},
}

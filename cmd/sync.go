package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/declmig/declmig/database"
	"github.com/declmig/declmig/introspect"
)

var syncFile string

func init() {
	syncCmd.Flags().StringVarP(&syncFile, "file", "f", "models.yaml", "Model file name to write in the shared layer")
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Capture live database objects into a shared-layer model file",
	Long: `One-time reverse sync for bootstrapping: introspects tables, columns
and enum types of the live database and writes them as a model file in
the shared layer. Not a reconciliation loop.
`,
	Run: func(cmd *cobra.Command, args []string) {
		pool, err := database.Connect(context.Background(), databaseURL)
		if err != nil {
			fmt.Println("❌ Connecting to database:", err)
			os.Exit(1)
		}
		defer pool.Close()

		models, enums, err := introspect.Sync(context.Background(), pool, schemaName)
		if err != nil {
			fmt.Println("❌ Introspecting database:", err)
			os.Exit(1)
		}
		if len(models) == 0 {
			fmt.Println("✅ No tables found, nothing to sync.")
			return
		}

		path, err := introspect.WriteModelFile(modelsDir, syncFile, models, enums)
		if err != nil {
			fmt.Println("❌ Writing model file:", err)
			os.Exit(1)
		}
		fmt.Printf("✅ Synced %d table(s) and %d enum type(s) to %s\n", len(models), len(enums), path)
	},
}

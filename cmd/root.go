package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/declmig/declmig/utils"
)

var (
	migrationsDir string
	modelsDir     string
	schemaName    string
	databaseURL   string
)

var rootCmd = &cobra.Command{
	Use:   "declmig",
	Short: "A declarative schema-migration compiler for PostgreSQL",
	Long: `declmig compiles declarative model changes into numbered migration
files and applies them against a database while tracking history.

Examples:

  declmig generate --actions changes.yaml
  declmig migrate
  declmig rollback --steps 1
  declmig explain 12 up
`,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

func init() {
	utils.LoadEnv()

	rootCmd.PersistentFlags().StringVar(&migrationsDir, "migrations", utils.Getenv("DECLMIG_MIGRATIONS_DIR", "migrations"), "Migrations directory")
	rootCmd.PersistentFlags().StringVar(&modelsDir, "models", utils.Getenv("DECLMIG_MODELS_DIR", "models"), "Models directory")
	rootCmd.PersistentFlags().StringVar(&schemaName, "schema", utils.Getenv("DECLMIG_SCHEMA", "public"), "Database schema")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", utils.Getenv("DATABASE_URL", ""), "PostgreSQL connection URL")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(healthCmd)
}

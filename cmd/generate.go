package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/declmig/declmig/compiler"
	"github.com/declmig/declmig/extensions"
	"github.com/declmig/declmig/generator"
	"github.com/declmig/declmig/schema"
)

var (
	actionsFile     string
	migrationName   string
	dryRunGenerate  bool
	skipDefinitions bool
)

func init() {
	generateCmd.Flags().StringVarP(&actionsFile, "actions", "a", "", "Action list (YAML) produced by the diff engine")
	generateCmd.Flags().StringVarP(&migrationName, "name", "n", "migration", "Human name for the structural migration")
	generateCmd.Flags().BoolVar(&dryRunGenerate, "dry-run", false, "Preview the SQL that would be generated without writing files")
	generateCmd.Flags().BoolVar(&skipDefinitions, "skip-definitions", false, "Skip generating function/trigger/policy/view migrations")
}

type actionList struct {
	Actions []schema.Action `yaml:"actions"`
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate migration files from a diff action list and definitions",
	Long: `Generate a numbered structural-diff migration from an action list, plus
one migration per new function/trigger/policy/view definition.

Examples:
  declmig generate --actions changes.yaml -n add_orders
  declmig generate --actions changes.yaml --dry-run
  declmig generate                         # definitions only
`,
	Run: func(cmd *cobra.Command, args []string) {
		var actions []schema.Action
		if actionsFile != "" {
			data, err := os.ReadFile(actionsFile)
			if err != nil {
				fmt.Println("❌ Reading action list:", err)
				os.Exit(1)
			}
			var list actionList
			if err := yaml.Unmarshal(data, &list); err != nil {
				fmt.Println("❌ Parsing action list:", err)
				os.Exit(1)
			}
			actions = list.Actions
		}

		if dryRunGenerate {
			statements, err := compiler.CompileAll(actions, nil)
			if err != nil {
				fmt.Println("❌ Compiling actions:", err)
				os.Exit(1)
			}
			fmt.Println("\n================ DRY RUN: Migration Preview ================")
			for _, stmt := range statements {
				fmt.Println(stmt)
			}
			fmt.Println("============================================================")
			fmt.Println("(Dry run only. No files were written.)")
			return
		}

		if len(actions) > 0 {
			// Compile once up front so a bad action never lands in a file.
			if _, err := compiler.CompileAll(actions, nil); err != nil {
				fmt.Println("❌ Compiling actions:", err)
				os.Exit(1)
			}

			files, err := generator.List(migrationsDir)
			if err != nil {
				fmt.Println("❌ Listing migrations:", err)
				os.Exit(1)
			}
			filename, err := generator.WriteDiff(migrationsDir, generator.NextNumber(files), migrationName, actions)
			if err != nil {
				fmt.Println("❌ Writing migration file:", err)
				os.Exit(1)
			}
			fmt.Println("✅ Migration generated:", filename)
		}

		if skipDefinitions {
			return
		}

		result, err := generator.GenerateFromDefinitions(modelsDir, migrationsDir, extensions.Owned)
		if err != nil {
			fmt.Println("❌ Generating definition migrations:", err)
			os.Exit(1)
		}
		for _, f := range result.Created {
			fmt.Println("✅ Migration generated:", f)
		}
		for _, name := range result.Skipped {
			fmt.Printf("ℹ️  %s is extension-provided, skipping\n", name)
		}
		for _, orphan := range result.Orphans {
			fmt.Println("⚠️ ", orphan)
		}
		if len(actions) == 0 && len(result.Created) == 0 {
			fmt.Println("✅ Nothing to generate.")
		}
	},
}

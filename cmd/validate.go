package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/declmig/declmig/generator"
	"github.com/declmig/declmig/runner"
	"github.com/declmig/declmig/validator"
)

var showFixes bool

func init() {
	validateCmd.Flags().BoolVar(&showFixes, "fix", false, "Show suggested rewrites for fixable findings")
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run advisory SQL heuristics over all migration files",
	Long: `Check migration SQL for common mistakes: array-membership syntax
against JSON values, unquoted dotted identifiers, malformed DROP
statements. Findings are advisory and never block anything.
`,
	Run: func(cmd *cobra.Command, args []string) {
		files, err := generator.List(migrationsDir)
		if err != nil {
			fmt.Println("❌ Listing migrations:", err)
			os.Exit(1)
		}

		var issues []validator.Issue
		for _, f := range files {
			var scripts []string
			if f.Kind == generator.KindDiff {
				statements, err := runner.Explain(migrationsDir, f.Number, "up")
				if err != nil {
					fmt.Println("❌ Compiling", f.Filename+":", err)
					os.Exit(1)
				}
				scripts = statements
			} else {
				forward, backward, err := generator.ReadScript(f.Path)
				if err != nil {
					fmt.Println("❌ Reading", f.Filename+":", err)
					os.Exit(1)
				}
				scripts = []string{forward, backward}
			}

			for _, sql := range scripts {
				for _, issue := range validator.Inspect(sql) {
					issue.Message = f.Filename + ": " + issue.Message
					issues = append(issues, issue)
				}
			}
		}

		if len(issues) == 0 {
			fmt.Println("✅ No findings.")
			return
		}

		yellow := color.New(color.FgYellow)
		for _, issue := range issues {
			yellow.Printf("⚠️  [%s] %s\n", issue.Rule, issue.Message)
			if issue.Snippet != "" {
				fmt.Println("     near:", issue.Snippet)
			}
			if showFixes && issue.Fixed != "" {
				fmt.Println("     try: ", issue.Fixed)
			}
		}
		fmt.Printf("\n%d finding(s); these are advisory only.\n", len(issues))
	},
}

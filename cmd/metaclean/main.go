package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/metaclean/cmd/metaclean/commands"
	"github.com/teranos/metaclean/logger"
)

var rootCmd = &cobra.Command{
	Use:   "metaclean",
	Short: "Clear metadata from files to protect your privacy",
	Long: `metaclean removes privacy-sensitive metadata from files:

  - Named/alternate data streams (Zone.Identifier and any others)
  - File timestamps (created, modified, accessed)
  - File ownership (with --admin, from an elevated session)
  - Embedded Office document properties (author, company, ...)

Available commands:
  file       - Clean a single file
  dir        - Clean all files in a directory (non-recursive)
  recursive  - Clean a directory tree
  info       - Show what metadata a file carries (read-only)

Examples:
  metaclean file report.docx          # Clean one document
  metaclean dir --dry-run             # Preview cleaning the current directory
  metaclean recursive ~/export --yes  # Clean a tree without prompting
  metaclean info report.docx          # Inspect without changing anything`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		if err := logger.Initialize(jsonOutput, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("dry-run", "n", false, "Compute and report changes without mutating anything")
	rootCmd.PersistentFlags().BoolP("yes", "y", false, "Skip confirmation prompts")
	rootCmd.PersistentFlags().BoolP("admin", "a", false, "Also clear file ownership (requires an elevated session)")
	rootCmd.PersistentFlags().String("mode", "standard", "Clean mode: quick, standard, full, custom")
	rootCmd.PersistentFlags().Bool("json", false, "Output reports as JSON")
	rootCmd.PersistentFlags().String("config", "", "Path to a metaclean.toml config file")
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail)")

	rootCmd.AddCommand(commands.FileCmd)
	rootCmd.AddCommand(commands.DirCmd)
	rootCmd.AddCommand(commands.RecursiveCmd)
	rootCmd.AddCommand(commands.InfoCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

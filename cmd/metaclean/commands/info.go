package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/metaclean/display"
	"github.com/teranos/metaclean/errors"
)

// InfoCmd shows what metadata a file carries without changing anything
var InfoCmd = &cobra.Command{
	Use:     "info [path]",
	Aliases: []string{"i"},
	Short:   "Show what metadata a file carries (read-only)",
	Long: `Display the metadata recorded for a file: named data streams,
timestamps, the security descriptor owner, and embedded Office document
properties. Never mutates the file.

Examples:
  metaclean info report.docx
  metaclean info --json report.docx`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := resolveTarget(args)
		if err != nil {
			return err
		}

		info, err := os.Stat(target)
		if err != nil {
			if os.IsNotExist(err) {
				return errors.Wrapf(errors.ErrNotFound, "path does not exist: %s", target)
			}
			return errors.WithStack(err)
		}
		if info.IsDir() {
			target, err = pickFile(target)
			if err != nil {
				return err
			}
		}

		engine, _, err := newEngine(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := runContext()
		defer cancel()

		snap, err := engine.Inspect(ctx, target)
		if err != nil {
			return err
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return display.OutputJSON(snap)
		}
		display.RenderSnapshot(snap)
		return nil
	},
}

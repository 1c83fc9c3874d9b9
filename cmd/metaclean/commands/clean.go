package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/metaclean/errors"
)

// FileCmd cleans a single file
var FileCmd = &cobra.Command{
	Use:     "file [path]",
	Aliases: []string{"f"},
	Short:   "Clean metadata from a single file",
	Long: `Clean metadata from a single file.

If no path is given, or the path is a directory, an interactive picker
lists the files in that directory.

Examples:
  metaclean file report.docx
  metaclean file --dry-run report.docx   # Preview only
  metaclean file --mode full --admin report.docx`,
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

		ok, err := confirmAction(cmd, fmt.Sprintf("Clean metadata from '%s'?", target))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		return runBatch(cmd, []string{target})
	},
}

// DirCmd cleans all files directly in a directory
var DirCmd = &cobra.Command{
	Use:     "dir [path]",
	Aliases: []string{"d"},
	Short:   "Clean metadata from all files in a directory (non-recursive)",
	Long: `Clean metadata from all files directly in a directory. Files in
subdirectories are not touched. Defaults to the current directory.

Examples:
  metaclean dir
  metaclean dir ~/Downloads --yes`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDirectory(cmd, args, false)
	},
}

// RecursiveCmd cleans a whole directory tree
var RecursiveCmd = &cobra.Command{
	Use:     "recursive [path]",
	Aliases: []string{"r"},
	Short:   "Clean metadata from a directory and all subdirectories",
	Long: `Clean metadata from every file in a directory tree. Use with
caution on large trees. Defaults to the current directory.

Examples:
  metaclean recursive ~/export
  metaclean recursive --dry-run .`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDirectory(cmd, args, true)
	},
}

func runDirectory(cmd *cobra.Command, args []string, recursive bool) error {
	target, err := resolveTarget(args)
	if err != nil {
		return err
	}

	paths, err := collectFiles(target, recursive)
	if err != nil {
		return err
	}

	ok, err := confirmAction(cmd, fmt.Sprintf("Clean metadata from %d file(s) under '%s'?", len(paths), target))
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	return runBatch(cmd, paths)
}

package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/metaclean/cleaner"
	"github.com/teranos/metaclean/config"
	"github.com/teranos/metaclean/display"
	"github.com/teranos/metaclean/errors"
	"github.com/teranos/metaclean/logger"
)

// loadConfig honors the global --config flag, falling back to the merged
// user/project configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// buildOptions assembles the engine options from the global flags.
func buildOptions(cmd *cobra.Command) (cleaner.CleanOptions, error) {
	modeName, _ := cmd.Flags().GetString("mode")
	mode, err := cleaner.ParseCleanMode(modeName)
	if err != nil {
		return cleaner.CleanOptions{}, err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbosity, _ := cmd.Flags().GetCount("verbose")
	admin, _ := cmd.Flags().GetBool("admin")

	return cleaner.CleanOptions{
		Mode:             mode,
		DryRun:           dryRun,
		Verbose:          verbosity > 0,
		ElevateOwnership: admin,
	}, nil
}

// newEngine builds an engine from the command's flags and configuration.
func newEngine(cmd *cobra.Command) (*cleaner.Engine, cleaner.CleanOptions, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, cleaner.CleanOptions{}, err
	}

	opts, err := buildOptions(cmd)
	if err != nil {
		return nil, cleaner.CleanOptions{}, err
	}

	engine, err := cleaner.New(opts, cfg, logger.Logger)
	if err != nil {
		return nil, cleaner.CleanOptions{}, err
	}
	return engine, opts, nil
}

// runContext returns a context cancelled by SIGINT so an interrupt stops
// dispatching new files while in-flight rewrites finish cleanly.
func runContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// collectFiles lists the regular files under root, either the directory
// itself or the whole tree. Paths come back sorted for deterministic runs.
func collectFiles(root string, recursive bool) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrNotFound, "path does not exist: %s", root)
		}
		return nil, errors.WithStack(err)
	}
	if !info.IsDir() {
		return nil, errors.Newf("expected a directory: %s", root)
	}

	var paths []string
	if recursive {
		err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				// Unreadable subtree: log and keep walking
				logger.Warnw("Skipping unreadable path", "path", path, "error", err)
				return nil
			}
			if !d.IsDir() {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.WithStack(err)
		}
	} else {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				paths = append(paths, filepath.Join(root, entry.Name()))
			}
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// confirmAction prompts unless --yes was passed. Returns false when the user
// declined.
func confirmAction(cmd *cobra.Command, prompt string) (bool, error) {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return true, nil
	}
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		// JSON mode is non-interactive
		return true, nil
	}
	return pterm.DefaultInteractiveConfirm.Show(prompt)
}

// pickFile interactively selects one file from a directory listing.
func pickFile(dir string) (string, error) {
	files, err := collectFiles(dir, false)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", errors.Newf("no files found in directory: %s", dir)
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}

	choice, err := pterm.DefaultInteractiveSelect.WithOptions(names).Show("Select a file")
	if err != nil {
		return "", errors.WithStack(err)
	}
	return filepath.Join(dir, choice), nil
}

// resolveTarget turns the optional positional argument into a concrete path,
// defaulting to the current directory.
func resolveTarget(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WithStack(err)
	}
	return cwd, nil
}

// runBatch cleans the given paths, renders the report, and returns an error
// when any operation failed so the process exits non-zero.
func runBatch(cmd *cobra.Command, paths []string) error {
	engine, opts, err := newEngine(cmd)
	if err != nil {
		return err
	}

	if len(paths) == 0 {
		pterm.Info.Println("No files to process")
		return nil
	}

	if opts.DryRun {
		pterm.Warning.Println("[DRY RUN] No changes will be made")
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx, cancel := runContext()
	defer cancel()

	var bar *pterm.ProgressbarPrinter
	if !jsonOutput && len(paths) > 1 {
		bar, _ = pterm.DefaultProgressbar.WithTotal(len(paths)).WithTitle("Cleaning").Start()
		engine.OnResult = func(cleaner.FileResult) { bar.Increment() }
	}

	report := engine.CleanPaths(ctx, paths)

	if bar != nil {
		bar.Stop()
	}

	if jsonOutput {
		if err := display.OutputJSON(report); err != nil {
			return err
		}
	} else {
		display.RenderReport(report, opts.Verbose)
	}

	if report.HasFailures() {
		return errors.Newf("%d of %d file(s) had failures", report.Counts.Failed, report.Counts.Files)
	}
	return nil
}

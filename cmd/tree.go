package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/talenthium/patchtree/internal/log"
	"github.com/talenthium/patchtree/internal/watcher"
)

var (
	treeOpts  viewOptions
	treeWatch bool
)

var treeCmd = &cobra.Command{
	Use:   "tree [file.json|-]",
	Short: "Show the file tree of a commit diff read from a file or stdin",
	Long: `Read a commit diff as JSON and print its changed files as a tree.

The input may be the diff endpoint's response ({"commit": ..., "files": [...]}),
an object with only "files", or a bare array of file changes. With no argument
or "-" the diff is read from stdin.

Examples:
  patchtree tree diff.json
  curl -s $URL | patchtree tree --include 'src/**'
  patchtree tree diff.json --watch --patches`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTree,
}

func init() {
	addViewFlags(treeCmd, &treeOpts)
	treeCmd.Flags().BoolVar(&treeWatch, "watch", false, "re-render whenever the file changes")
	rootCmd.AddCommand(treeCmd)
}

func runTree(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	if treeWatch && (path == "" || path == "-") {
		return fmt.Errorf("--watch needs a file argument")
	}

	if err := renderTreeOnce(cmd, path); err != nil {
		return err
	}
	if !treeWatch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return watchTree(ctx, cmd, path)
}

func renderTreeOnce(cmd *cobra.Command, path string) error {
	data, err := readInput(cmd, path)
	if err != nil {
		return err
	}
	diff, err := decodeDiff(data)
	if err != nil {
		return err
	}
	log.Debug(log.CatTree, "Rendering tree", "files", len(diff.Files), "source", path)
	return printDiff(cmd.Context(), cmd.OutOrStdout(), diff, treeOpts)
}

// watchTree re-renders path on every debounced change until ctx is done.
// Decode errors are reported and the previous output stays on screen.
func watchTree(ctx context.Context, cmd *cobra.Command, path string) error {
	w, err := watcher.New(watcher.DefaultConfig(path))
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			fmt.Fprintln(cmd.OutOrStdout())
			if err := renderTreeOnce(cmd, path); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
			}
		}
	}
}

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/talenthium/patchtree/internal/gitsource"
	"github.com/talenthium/patchtree/internal/store"
)

var (
	localOpts    viewOptions
	localSave    bool
	localProject string
	localLabels  []string
)

var localCmd = &cobra.Command{
	Use:   "local [repo-path] [revision]",
	Short: "Show a commit from a local git repository",
	Long: `Diff a commit of a local git repository against its first parent and show it
the same way as 'fetch'. The repository defaults to the current directory and the
revision to HEAD; any revision git understands works (hash, branch, tag, HEAD~2).

Examples:
  patchtree local
  patchtree local ../service v1.4.0 --patches
  patchtree local . HEAD~1 --save --project service`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoPath, rev := ".", "HEAD"
		if len(args) > 0 {
			repoPath = args[0]
		}
		if len(args) > 1 {
			rev = args[1]
		}

		src, err := gitsource.Open(repoPath, gitsource.WithTracer(traceProvider.Tracer()))
		if err != nil {
			if gitsource.IsNotRepository(err) {
				return fmt.Errorf("%s is not inside a git repository", repoPath)
			}
			return err
		}

		diff, err := src.CommitDiff(cmd.Context(), rev)
		if err != nil {
			return err
		}

		if localSave {
			hash, err := src.Resolve(rev)
			if err != nil {
				return err
			}
			project := localProject
			if project == "" {
				abs, err := filepath.Abs(repoPath)
				if err != nil {
					return err
				}
				project = filepath.Base(abs)
			}
			id, err := saveSnapshot(cmd, store.Snapshot{
				ProjectID:  project,
				CommitHash: hash.String(),
				Source:     store.SourceGit,
				Labels:     localLabels,
				Diff:       *diff,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Saved snapshot %s\n", id)
		}

		return printDiff(cmd.Context(), cmd.OutOrStdout(), diff, localOpts)
	},
}

func init() {
	addViewFlags(localCmd, &localOpts)
	localCmd.Flags().BoolVar(&localSave, "save", false, "store the diff as a snapshot")
	localCmd.Flags().StringVar(&localProject, "project", "", "project id for the snapshot (default: repository directory name)")
	localCmd.Flags().StringArrayVarP(&localLabels, "label", "l", nil, "label for the saved snapshot (repeatable)")
	rootCmd.AddCommand(localCmd)
}

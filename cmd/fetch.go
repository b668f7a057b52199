package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/talenthium/patchtree/internal/log"
	"github.com/talenthium/patchtree/internal/store"
)

var (
	fetchOpts   viewOptions
	fetchSave   bool
	fetchLabels []string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <project-id> <commit-hash>",
	Short: "Fetch a commit diff from the project service and show it",
	Long: `Fetch the diff of one commit from the project service and print its header
and file tree. Responses are cached according to the cache section of the config.

Examples:
  patchtree fetch 42 9f1c2ab
  patchtree fetch 42 9f1c2ab --patches --include '**/*.go'
  patchtree fetch 42 9f1c2ab --save --label release`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		projectID, hash := args[0], args[1]

		client, closer, err := newAPIClient(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = closer.Close() }()

		diff, err := client.CommitDiff(ctx, projectID, hash)
		if err != nil {
			return err
		}

		if fetchSave {
			id, err := saveSnapshot(cmd, store.Snapshot{
				ProjectID:  projectID,
				CommitHash: hash,
				Source:     store.SourceAPI,
				Labels:     fetchLabels,
				Diff:       *diff,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Saved snapshot %s\n", id)
		}

		return printDiff(ctx, cmd.OutOrStdout(), diff, fetchOpts)
	},
}

func init() {
	addViewFlags(fetchCmd, &fetchOpts)
	fetchCmd.Flags().BoolVar(&fetchSave, "save", false, "store the diff as a snapshot for offline viewing")
	fetchCmd.Flags().StringArrayVarP(&fetchLabels, "label", "l", nil, "label for the saved snapshot (repeatable)")
	rootCmd.AddCommand(fetchCmd)
}

// saveSnapshot stores s in the configured snapshot database.
func saveSnapshot(cmd *cobra.Command, s store.Snapshot) (string, error) {
	db, err := openStore()
	if err != nil {
		return "", err
	}
	defer func() { _ = db.Close() }()

	id, err := db.Snapshots().Save(cmd.Context(), s)
	if err != nil {
		return "", err
	}
	log.Info(log.CatDB, "Saved snapshot", "id", id, "project", s.ProjectID, "commit", s.CommitHash, "files", len(s.Diff.Files))
	return id, nil
}

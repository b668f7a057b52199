package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/talenthium/patchtree/internal/presentation"
	"github.com/talenthium/patchtree/internal/store"
)

var (
	snapshotsProject string
	snapshotsLabel   string
	snapshotsLimit   int
	snapshotsJSON    bool
	snapshotShowOpts viewOptions
)

var snapshotsCmd = &cobra.Command{
	Use:     "snapshots",
	Aliases: []string{"snap"},
	Short:   "Manage commit diffs saved with --save",
}

var snapshotsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved snapshots, newest first",
	Long: `List saved snapshots, newest first.

Examples:
  patchtree snapshots list
  patchtree snapshots list --project 42 --label release
  patchtree snapshots list --json | jq '.[].commitHash'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		infos, err := db.Snapshots().List(cmd.Context(), store.ListFilter{
			ProjectID: snapshotsProject,
			Label:     snapshotsLabel,
			Limit:     snapshotsLimit,
		})
		if err != nil {
			return err
		}

		formatter := presentation.NewFormatter(cmd.OutOrStdout())
		if snapshotsJSON {
			if infos == nil {
				infos = []store.SnapshotInfo{}
			}
			return formatter.JSON(infos)
		}
		return formatter.Snapshots(infos)
	},
}

var snapshotsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		snap, err := db.Snapshots().FindByID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printDiff(cmd.Context(), cmd.OutOrStdout(), &snap.Diff, snapshotShowOpts)
	},
}

var snapshotsRmCmd = &cobra.Command{
	Use:     "rm <id>...",
	Aliases: []string{"delete"},
	Short:   "Delete saved snapshots",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		for _, id := range args {
			if err := db.Snapshots().Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
		}
		return nil
	},
}

func init() {
	snapshotsListCmd.Flags().StringVarP(&snapshotsProject, "project", "p", "", "only this project")
	snapshotsListCmd.Flags().StringVarP(&snapshotsLabel, "label", "l", "", "only snapshots with this label")
	snapshotsListCmd.Flags().IntVarP(&snapshotsLimit, "limit", "n", 50, "maximum number of snapshots (0 for all)")
	snapshotsListCmd.Flags().BoolVar(&snapshotsJSON, "json", false, "print JSON")
	addViewFlags(snapshotsShowCmd, &snapshotShowOpts)

	snapshotsCmd.AddCommand(snapshotsListCmd, snapshotsShowCmd, snapshotsRmCmd)
	rootCmd.AddCommand(snapshotsCmd)
}

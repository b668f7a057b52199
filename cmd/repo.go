package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/talenthium/patchtree/internal/patch"
	"github.com/talenthium/patchtree/internal/presentation"
	"github.com/talenthium/patchtree/internal/render"
)

var (
	repoTreeJSON     bool
	repoTreeCollapse []string
)

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Browse a GitHub repository through the project service",
}

var repoTreeCmd = &cobra.Command{
	Use:   "tree <owner> <repo>",
	Short: "Print the full file tree of a repository",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, closer, err := newAPIClient(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = closer.Close() }()

		roots, err := client.RepoTree(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if repoTreeJSON {
			return presentation.NewFormatter(cmd.OutOrStdout()).JSON(roots)
		}
		return render.WriteTree(cmd.OutOrStdout(), newTheme(cmd.OutOrStdout()), roots, render.TreeOptions{
			Collapsed: patch.CollapsedSet(repoTreeCollapse...),
		})
	},
}

var repoCatCmd = &cobra.Command{
	Use:   "cat <owner> <repo> <path>",
	Short: "Print one file of a repository",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, closer, err := newAPIClient(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = closer.Close() }()

		content, err := client.FileContent(cmd.Context(), args[0], args[1], args[2])
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), content)
		return err
	},
}

func init() {
	repoTreeCmd.Flags().BoolVar(&repoTreeJSON, "json", false, "print the tree as JSON")
	repoTreeCmd.Flags().StringArrayVar(&repoTreeCollapse, "collapse", nil, "collapse this folder path (repeatable)")
	repoCmd.AddCommand(repoTreeCmd, repoCatCmd)
	rootCmd.AddCommand(repoCmd)
}

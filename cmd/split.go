package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/talenthium/patchtree/internal/presentation"
	"github.com/talenthium/patchtree/internal/render"
)

var (
	splitFilename   string
	splitSideBySide bool
	splitWidth      int
)

var splitCmd = &cobra.Command{
	Use:   "split [patch-file|-]",
	Short: "Reconstruct the before/after text of a single-file patch",
	Long: `Split a unified diff for one file into its original and modified text.

By default the result is printed as JSON with the detected language:
  {"language": "go", "original": "...", "modified": "..."}

With --side-by-side the patch is drawn as two aligned columns instead.

Examples:
  git diff main -- cmd/root.go | patchtree split --filename cmd/root.go
  patchtree split change.patch --side-by-side -w 160`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		data, err := readInput(cmd, path)
		if err != nil {
			return err
		}

		if !splitSideBySide {
			return presentation.NewFormatter(cmd.OutOrStdout()).JSON(presentation.FromPatch(splitFilename, string(data)))
		}

		lines, err := render.SideBySide(cmd.Context(), newTheme(cmd.OutOrStdout()), string(data), splitWidth)
		if err != nil {
			return fmt.Errorf("parsing patch: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(lines, "\n"))
		return err
	},
}

func init() {
	splitCmd.Flags().StringVarP(&splitFilename, "filename", "f", "", "file name used for language detection")
	splitCmd.Flags().BoolVar(&splitSideBySide, "side-by-side", false, "draw aligned columns instead of printing JSON")
	splitCmd.Flags().IntVarP(&splitWidth, "width", "w", 0, "output width in columns (0 means 120)")
	rootCmd.AddCommand(splitCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/talenthium/patchtree/internal/config"
)

var themeCmd = &cobra.Command{
	Use:       "theme [light|dark]",
	Short:     "Show or set the terminal palette",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"light", "dark"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			mode := cfg.Theme.Mode
			if mode == "" {
				mode = "dark"
			}
			fmt.Fprintln(cmd.OutOrStdout(), mode)
			return nil
		}

		path := configPathInUse()
		if err := config.SaveThemeMode(path, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Theme set to %s in %s\n", args[0], path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(themeCmd)
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/talenthium/patchtree/internal/presentation"
)

var langJSON bool

var langCmd = &cobra.Command{
	Use:   "lang <filename>...",
	Short: "Print the syntax-highlighting language for file names",
	Long: `Print the language identifier used for syntax highlighting of each file name.
Unknown extensions map to "plaintext".

Examples:
  patchtree lang src/app.tsx README.md Makefile
  patchtree lang --json main.go`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatter := presentation.NewFormatter(cmd.OutOrStdout())
		dtos := presentation.FromFilenames(args)
		if langJSON {
			return formatter.JSON(dtos)
		}
		return formatter.Languages(dtos)
	},
}

func init() {
	langCmd.Flags().BoolVar(&langJSON, "json", false, "print JSON")
	rootCmd.AddCommand(langCmd)
}

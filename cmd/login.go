package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/talenthium/patchtree/internal/config"
)

var loginToken string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a project service token in the config file",
	Long: `Store the bearer token sent to the project service under auth.token in the
config file. Other settings and comments in the file are kept.

Examples:
  patchtree login --token "$TOKEN"
  echo "$TOKEN" | patchtree login`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		token := strings.TrimSpace(loginToken)
		if token == "" {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("no token given: pass --token or pipe it on stdin")
			}
			token = strings.TrimSpace(line)
		}
		if token == "" {
			return fmt.Errorf("token must not be empty")
		}

		path := configPathInUse()
		if err := config.SaveAuth(path, token); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", path)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored project service token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := configPathInUse()
		if err := config.SaveAuth(path, ""); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Token removed from %s\n", path)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginToken, "token", "", "bearer token (read from stdin when omitted)")
	rootCmd.AddCommand(loginCmd, logoutCmd)
}

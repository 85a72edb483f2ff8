package cmd

import (
	"time"

	"github.com/habedi/psnauth/auth"
	"github.com/habedi/psnauth/pkg/clierr"
	"github.com/spf13/cobra"
)

// statusCmd shows when the tokens in a token file expire. It never contacts PSN.
func statusCmd() *cobra.Command {
	var tokenFile string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the expiry of a stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stored, err := readTokenFile(cmd, tokenFile)
			if err != nil {
				return err
			}

			// No refresher: FullToken never refreshes.
			manager := auth.NewManager(nil)
			manager.InitializeToken(stored)
			token, err := manager.FullToken()
			if err != nil {
				return clierr.FromAuth(err)
			}

			now := time.Now()
			printTokenTable(cmd.OutOrStdout(), token, now)
			switch {
			case token.RefreshExpiresAt().Before(now):
				cmd.Println("The refresh token has expired. Run 'psnauth login' with a new NPSSO.")
			case token.AccessExpiresAt().Before(now):
				cmd.Println("The access token has expired. Run 'psnauth token --json' to refresh it.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&tokenFile, "token-file", "f", stdinPath, "Token JSON written by 'psnauth login --json' ('-' for stdin)")

	return cmd
}

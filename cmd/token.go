package cmd

import (
	"fmt"

	"github.com/habedi/psnauth/auth"
	"github.com/habedi/psnauth/pkg/clierr"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// tokenCmd prints a usable access token, refreshing the stored one if it has expired.
func tokenCmd(opts *rootOptions) *cobra.Command {
	var tokenFile string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a valid access token, refreshing it when needed",
		Long: "Print a valid access token, refreshing it when needed.\n\n" +
			"A refreshed token is not written back to the token file; use --json and redirect the output to keep it.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stored, err := readTokenFile(cmd, tokenFile)
			if err != nil {
				return err
			}

			ctx, cancel, err := opts.requestContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			manager := auth.NewManager(opts.newGateway(opts))
			manager.InitializeToken(stored)
			accessToken, err := manager.AccessToken(ctx)
			if err != nil {
				return clierr.FromAuth(err)
			}

			current, err := manager.FullToken()
			if err != nil {
				return clierr.FromAuth(err)
			}
			if current.AccessToken != stored.AccessToken {
				log.Info().Msg("Access token was refreshed.")
			}

			if asJSON {
				return writeTokenJSON(cmd.OutOrStdout(), current)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), accessToken)
			return err
		},
	}

	cmd.Flags().StringVarP(&tokenFile, "token-file", "f", stdinPath, "Token JSON written by 'psnauth login --json' ('-' for stdin)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full token record as JSON")

	return cmd
}

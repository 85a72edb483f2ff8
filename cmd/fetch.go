package cmd

import (
	"context"
	"fmt"

	"github.com/habedi/psnauth/auth"
	"github.com/habedi/psnauth/client"
	"github.com/habedi/psnauth/pkg/clierr"
	"github.com/habedi/psnauth/pkg/pool"
	"github.com/habedi/psnauth/pkg/validation"
	"github.com/spf13/cobra"
)

// fetchCmd GETs PSN API resources with the stored token as bearer credential.
// All requests share one Manager, so an expired access token is refreshed once.
func fetchCmd(opts *rootOptions) *cobra.Command {
	var tokenFile string
	var workers int

	cmd := &cobra.Command{
		Use:   "fetch [url...]",
		Short: "GET PSN API resources with a bearer token",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, url := range args {
				if err := validation.ValidateNonEmptyString("url", url); err != nil {
					return clierr.New(clierr.Validation, "Error: "+err.Error(), err)
				}
			}
			if workers < 1 {
				return clierr.New(clierr.Validation, "Error: Number of workers must be at least 1.", nil)
			}
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
			httpClient := auth.NewHTTPClient(nil, manager)

			results := pool.Map(ctx, args, workers, func(ctx context.Context, url string) ([]byte, error) {
				return client.Fetch(ctx, httpClient, url)
			})

			out := cmd.OutOrStdout()
			for i, result := range results {
				if result.Err != nil {
					return fetchError(args[i], result.Err)
				}
				if len(args) > 1 {
					fmt.Fprintf(out, "==> %s <==\n", args[i])
				}
				if _, err := out.Write(result.Value); err != nil {
					return err
				}
				if len(args) > 1 {
					fmt.Fprintln(out)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&tokenFile, "token-file", "f", stdinPath, "Token JSON written by 'psnauth login --json' ('-' for stdin)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "Number of concurrent requests")

	return cmd
}

func fetchError(url string, err error) error {
	if cliErr := clierr.FromAuth(err); cliErr.Type != clierr.Internal {
		return cliErr
	}
	return clierr.New(clierr.Network, "Error: Failed to fetch "+url+": "+err.Error(), err)
}

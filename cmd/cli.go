package cmd

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/habedi/psnauth/auth"
	"github.com/habedi/psnauth/client"
	"github.com/habedi/psnauth/pkg/clierr"
	"github.com/habedi/psnauth/pkg/validation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by all commands.
type rootOptions struct {
	timeout    time.Duration
	noReadable bool

	// newGateway builds the gateway used by a command; tests point it at a local server.
	newGateway func(opts *rootOptions) auth.Gateway
}

func Execute() {
	rootCmd := createRootCmd()
	rootCmd.PersistentFlags().BoolP("help", "h", false, "Show help for a command")

	if err := rootCmd.Execute(); err != nil {
		cliErr := clierr.FromAuth(err)
		rootCmd.PrintErrln(cliErr.Message)
		log.Error().Err(err).Str("type", string(cliErr.Type)).Msg("Command execution failed.")
		os.Exit(1)
	}
}

func createRootCmd() *cobra.Command {
	return newRootCmd(defaultGateway)
}

func newRootCmd(newGateway func(opts *rootOptions) auth.Gateway) *cobra.Command {
	opts := &rootOptions{newGateway: newGateway}

	rootCmd := &cobra.Command{
		Use:           "psnauth",
		Short:         "Authenticate with PlayStation Network and keep access tokens fresh",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().DurationVarP(&opts.timeout, "timeout", "t", client.DefaultTimeout,
		"Timeout for requests to PSN")
	rootCmd.PersistentFlags().BoolVar(&opts.noReadable, "no-readable", false,
		"Leave the human-readable expiry fields out of issued tokens")

	rootCmd.AddCommand(
		loginCmd(opts),
		tokenCmd(opts),
		statusCmd(),
		fetchCmd(opts),
		versionCmd(),
	)

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	return rootCmd
}

func defaultGateway(opts *rootOptions) auth.Gateway {
	gateway := client.NewPSNClient()
	gateway.HTTPClient = &http.Client{Timeout: opts.timeout}
	gateway.IncludeReadableExpiry = !opts.noReadable
	return gateway
}

// requestContext bounds a command's network work by the --timeout flag.
func (o *rootOptions) requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc, error) {
	if err := validation.ValidateTimeout(o.timeout); err != nil {
		return nil, nil, clierr.New(clierr.Validation, "Error: "+err.Error(), err)
	}
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, o.timeout)
	return ctx, cancel, nil
}

func (o *rootOptions) service() *auth.Service {
	return auth.NewService(o.newGateway(o))
}

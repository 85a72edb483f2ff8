package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/habedi/psnauth/client"
	"github.com/habedi/psnauth/pkg/clierr"
	"github.com/habedi/psnauth/pkg/validation"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// npssoEnv lets scripts supply the NPSSO without a prompt.
const npssoEnv = "PSNAUTH_NPSSO"

// captureNpsso is swapped out in tests.
var captureNpsso = client.CaptureNpsso

// loginCmd exchanges an NPSSO for a token and prints the result.
func loginCmd(opts *rootOptions) *cobra.Command {
	var useBrowser, headless, asJSON bool
	var userDataDir string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange an NPSSO for access and refresh tokens",
		Long: "Exchange an NPSSO for access and refresh tokens.\n\n" +
			"The NPSSO is read from the " + npssoEnv + " environment variable, captured from a browser session " +
			"with --browser, or prompted for. While signed in to PlayStation in a browser, it can be found at " +
			client.SSOCookieURL + ".",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			npsso, err := obtainNpsso(cmd, useBrowser, client.CaptureOptions{Headless: headless, UserDataDir: userDataDir})
			if err != nil {
				return err
			}
			if err := validation.ValidateNpsso(npsso); err != nil {
				return clierr.New(clierr.Validation, "Error: "+err.Error(), err)
			}

			ctx, cancel, err := opts.requestContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			service := opts.service()
			if err := service.Login(ctx, npsso); err != nil {
				return clierr.FromAuth(err)
			}
			token, err := service.Manager.FullToken()
			if err != nil {
				return clierr.FromAuth(err)
			}

			if asJSON {
				return writeTokenJSON(cmd.OutOrStdout(), token)
			}
			cmd.Println("Login was successful.")
			printTokenTable(cmd.OutOrStdout(), token, time.Now())
			cmd.Println("Run 'psnauth login --json > token.json' to keep the token for the other commands.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&useBrowser, "browser", "b", false, "Capture the NPSSO by signing in with a Chrome window")
	cmd.Flags().BoolVarP(&headless, "headless", "n", false, "Run the browser headless (needs a signed-in --user-data-dir)")
	cmd.Flags().StringVar(&userDataDir, "user-data-dir", "", "Chrome profile directory to reuse for --browser")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the token as JSON instead of a table")

	return cmd
}

func obtainNpsso(cmd *cobra.Command, useBrowser bool, captureOpts client.CaptureOptions) (string, error) {
	if useBrowser {
		cmd.PrintErrln("Sign in to your Sony account in the browser window that opens.")
		npsso, err := captureNpsso(cmd.Context(), captureOpts)
		if err != nil {
			return "", clierr.New(clierr.Auth, "Error: Failed to capture the NPSSO from the browser.", err)
		}
		return npsso, nil
	}
	if npsso := strings.TrimSpace(os.Getenv(npssoEnv)); npsso != "" {
		return npsso, nil
	}
	return promptForNpsso(cmd)
}

// promptForNpsso reads the NPSSO without echo when stdin is a terminal, and as a plain line otherwise.
func promptForNpsso(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "NPSSO: ")
		npsso, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", clierr.New(clierr.Internal, "Error: Failed to read NPSSO.", err)
		}
		return strings.TrimSpace(string(npsso)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", clierr.New(clierr.Internal, "Error: Failed to read NPSSO.", err)
	}
	return strings.TrimSpace(line), nil
}

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/habedi/psnauth/auth"
	"github.com/habedi/psnauth/pkg/clierr"
	"github.com/habedi/psnauth/pkg/validation"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// stdinPath makes --token-file read the token from standard input.
const stdinPath = "-"

// readTokenFile loads a token record written by 'psnauth login --json'.
func readTokenFile(cmd *cobra.Command, path string) (auth.Token, error) {
	var data []byte
	var err error
	if path == stdinPath {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return auth.Token{}, clierr.New(clierr.Validation,
			fmt.Sprintf("Error: Failed to read token file %q.", path), err)
	}

	var token auth.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return auth.Token{}, clierr.New(clierr.Validation,
			fmt.Sprintf("Error: %q does not contain a valid token.", path), err)
	}
	if err := validateToken(token); err != nil {
		return auth.Token{}, clierr.New(clierr.Validation,
			fmt.Sprintf("Error: %q does not contain a valid token: %v", path, err), err)
	}
	return token, nil
}

func validateToken(token auth.Token) error {
	if err := validation.ValidateNonEmptyString("accessToken", token.AccessToken); err != nil {
		return err
	}
	if err := validation.ValidateNonEmptyString("refreshToken", token.RefreshToken); err != nil {
		return err
	}
	if err := validation.ValidateEpochMillis("tokenExpirationEpoch", token.AccessExpiry); err != nil {
		return err
	}
	return validation.ValidateEpochMillis("refreshTokenExpirationEpoch", token.RefreshExpiry)
}

func writeTokenJSON(w io.Writer, token auth.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return clierr.New(clierr.Internal, "Error: Failed to encode token.", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printTokenTable renders both expiries of token relative to now.
func printTokenTable(w io.Writer, token auth.Token, now time.Time) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Token", "Value", "Expires At (UTC)", "Remaining", "State"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetRowLine(false)

	table.Append(tokenRow("Access", token.AccessToken, token.AccessExpiry, now))
	table.Append(tokenRow("Refresh", token.RefreshToken, token.RefreshExpiry, now))
	table.Render()
}

func tokenRow(name, value string, expiry int64, now time.Time) []string {
	remaining := time.UnixMilli(expiry).Sub(now)
	state := "valid"
	if remaining < 0 {
		state = "expired"
		remaining = 0
	}
	return []string{name, maskToken(value), auth.FormatEpoch(expiry), remaining.Round(time.Second).String(), state}
}

// maskToken keeps only the start of a credential for display.
func maskToken(value string) string {
	const visible = 10
	if len(value) <= visible {
		return value
	}
	return value[:visible] + "..."
}

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/habedi/psnauth/auth"
	"github.com/habedi/psnauth/client"
	"github.com/habedi/psnauth/pkg/clierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_JSONFromEnv(t *testing.T) {
	f := newFakePSN(t)
	t.Setenv(npssoEnv, goodNpsso)

	out, err := runCmd(t, f, "", "login", "--json")
	require.NoError(t, err)

	var token auth.Token
	require.NoError(t, json.Unmarshal([]byte(out), &token))
	assert.Equal(t, "A1", token.AccessToken)
	assert.Equal(t, "R1", token.RefreshToken)
	assert.Greater(t, token.RefreshExpiry, token.AccessExpiry)
	assert.NotEmpty(t, token.AccessExpiryISO)
	assert.NotEmpty(t, token.RefreshExpiryISO)
}

func TestLogin_NoReadableOmitsISOFields(t *testing.T) {
	f := newFakePSN(t)
	t.Setenv(npssoEnv, goodNpsso)

	out, err := runCmd(t, f, "", "--no-readable", "login", "--json")
	require.NoError(t, err)
	assert.NotContains(t, out, "humanReadableTokenExpiration")
	assert.NotContains(t, out, "humanReadableRefreshTokenExpiration")
}

func TestLogin_PromptReadsStdin(t *testing.T) {
	f := newFakePSN(t)
	t.Setenv(npssoEnv, "")

	out, err := runCmd(t, f, goodNpsso+"\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Login was successful.")
	assert.Contains(t, out, "Access")
	assert.Contains(t, out, "valid")
}

func TestLogin_EmptyNpssoIsRejectedLocally(t *testing.T) {
	f := newFakePSN(t)
	t.Setenv(npssoEnv, "")

	_, err := runCmd(t, f, "\n", "login")
	var cliErr *clierr.Error
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, clierr.Validation, cliErr.Type)
	assert.Zero(t, f.tokenCalls.Load())
}

func TestLogin_WrongNpssoIsAuthError(t *testing.T) {
	f := newFakePSN(t)
	t.Setenv(npssoEnv, "expired-npsso")

	_, err := runCmd(t, f, "", "login")
	var cliErr *clierr.Error
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, clierr.Auth, cliErr.Type)
	assert.Zero(t, f.tokenCalls.Load())
}

func TestLogin_BrowserCapture(t *testing.T) {
	f := newFakePSN(t)
	t.Setenv(npssoEnv, "")

	original := captureNpsso
	t.Cleanup(func() { captureNpsso = original })
	var gotOpts client.CaptureOptions
	captureNpsso = func(ctx context.Context, opts client.CaptureOptions) (string, error) {
		gotOpts = opts
		return goodNpsso, nil
	}

	out, err := runCmd(t, f, "", "login", "--browser", "--headless", "--user-data-dir", "/tmp/profile", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"accessToken": "A1"`)
	assert.True(t, gotOpts.Headless)
	assert.Equal(t, "/tmp/profile", gotOpts.UserDataDir)
}

func TestLogin_BrowserCaptureFailure(t *testing.T) {
	f := newFakePSN(t)

	original := captureNpsso
	t.Cleanup(func() { captureNpsso = original })
	captureNpsso = func(ctx context.Context, opts client.CaptureOptions) (string, error) {
		return "", errors.New("no chrome")
	}

	_, err := runCmd(t, f, "", "login", "--browser")
	var cliErr *clierr.Error
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, clierr.Auth, cliErr.Type)
	assert.Zero(t, f.tokenCalls.Load())
}

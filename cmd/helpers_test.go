package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/habedi/psnauth/auth"
	"github.com/habedi/psnauth/client"
	"github.com/stretchr/testify/require"
)

const (
	goodNpsso  = "good-npsso"
	accessCode = "v3.ABCDEF"
)

// fakePSN serves the authorize and token endpoints plus one protected resource.
type fakePSN struct {
	server       *httptest.Server
	tokenCalls   atomic.Int32
	refreshCalls atomic.Int32
}

func newFakePSN(t *testing.T) *fakePSN {
	t.Helper()
	f := &fakePSN{}
	mux := http.NewServeMux()
	mux.HandleFunc("/authorize", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Cookie") != "npsso="+goodNpsso {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Header().Set("Location", "com.scee.psxandroid.scecompcall://redirect/?code="+accessCode+"&cid=abc")
		w.WriteHeader(http.StatusFound)
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch {
		case r.PostForm.Get("grant_type") == "authorization_code" && r.PostForm.Get("code") == accessCode:
			writeTokenResponse(w, "A1", "R1")
		case r.PostForm.Get("grant_type") == "refresh_token" && r.PostForm.Get("refresh_token") == "R1":
			f.refreshCalls.Add(1)
			writeTokenResponse(w, "A2", "R2")
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid grant"}`))
		}
	})
	mux.HandleFunc("/resource", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("hello " + strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func writeTokenResponse(w http.ResponseWriter, access, refresh string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token":             access,
		"expires_in":               3600,
		"refresh_token":            refresh,
		"refresh_token_expires_in": 5184000,
		"token_type":               "bearer",
	})
}

func (f *fakePSN) gateway(opts *rootOptions) auth.Gateway {
	c := client.NewPSNClient()
	c.AuthorizeURL = f.server.URL + "/authorize"
	c.TokenURL = f.server.URL + "/token"
	c.HTTPClient = f.server.Client()
	c.IncludeReadableExpiry = !opts.noReadable
	return c
}

// runCmd executes the root command against f with args and returns stdout.
func runCmd(t *testing.T, f *fakePSN, stdin string, args ...string) (string, error) {
	t.Helper()
	rootCmd := newRootCmd(f.gateway)
	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// writeTokenFile stores a token whose expiries are offsets from now.
func writeTokenFile(t *testing.T, accessIn, refreshIn time.Duration) string {
	t.Helper()
	now := time.Now()
	token := auth.Token{
		AccessToken:   "A1",
		AccessExpiry:  now.Add(accessIn).UnixMilli(),
		RefreshToken:  "R1",
		RefreshExpiry: now.Add(refreshIn).UnixMilli(),
	}
	data, err := json.Marshal(token)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

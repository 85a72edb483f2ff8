package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestClient returns a PSNClient pointing at server with a fixed clock.
func newTestClient(server *httptest.Server) *PSNClient {
	c := NewPSNClient()
	c.AuthorizeURL = server.URL + "/authorize"
	c.TokenURL = server.URL + "/token"
	c.HTTPClient = server.Client()
	c.now = func() time.Time { return testNow }
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func tokenBody(access, refresh string) map[string]interface{} {
	return map[string]interface{}{
		"access_token":             access,
		"expires_in":               3600,
		"refresh_token":            refresh,
		"refresh_token_expires_in": 5184000,
		"token_type":               "bearer",
		"scope":                    "psn:mobile.v2.core psn:clientapp",
		"id_token":                 "id",
	}
}

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/habedi/psnauth/auth"
	"github.com/habedi/psnauth/pkg/autherr"
	"github.com/rs/zerolog/log"
)

// tokenResponse is the body returned by the token endpoint.
type tokenResponse struct {
	AccessToken           string `json:"access_token"`
	ExpiresIn             int64  `json:"expires_in"`
	RefreshToken          string `json:"refresh_token"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in"`
	TokenType             string `json:"token_type"`
	Scope                 string `json:"scope"`
	IDToken               string `json:"id_token"`
}

// tokenErrorResponse is the body returned by the token endpoint on failure.
type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// retryBackoff is the first wait between attempts in sendRequest; it doubles per attempt.
var retryBackoff = 1 * time.Second

// createFormRequest creates a form-encoded POST with the client's Basic authorization.
func (c *PSNClient) createFormRequest(ctx context.Context, urlStr string, form url.Values) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, urlStr, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", c.BasicAuth)
	return req, nil
}

// postTokenForm sends a form to the token endpoint and turns a 200 response into a Token.
// Non-200 responses are reported with failKind; unparseable bodies with MalformedResponse.
func (c *PSNClient) postTokenForm(ctx context.Context, form url.Values, failKind autherr.Kind, failMsg string) (auth.Token, error) {
	req, err := c.createFormRequest(ctx, c.TokenURL, form)
	if err != nil {
		return auth.Token{}, autherr.New(autherr.ExchangeFailed, "failed to create token request", err)
	}

	log.Debug().Str("url", c.TokenURL).Str("grant_type", form.Get("grant_type")).Msg("Sending token request")
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return auth.Token{}, autherr.New(autherr.ExchangeFailed, failMsg, err)
	}
	defer closeResponseBody(resp)

	body, err := readResponseBody(resp)
	if err != nil {
		return auth.Token{}, autherr.New(autherr.ExchangeFailed, "failed to read token response", err)
	}
	// Expiries count from the moment the response arrived.
	received := c.currentTime()

	if resp.StatusCode != http.StatusOK {
		log.Debug().Int("status", resp.StatusCode).Msg("Token request returned non-OK status")
		return auth.Token{}, statusError(failKind, failMsg, resp.StatusCode, body)
	}

	var result tokenResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return auth.Token{}, autherr.New(autherr.MalformedResponse, "failed to parse token response", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		return auth.Token{}, autherr.New(autherr.MalformedResponse, "token response is missing the access or refresh token", nil)
	}

	return auth.NewToken(result.AccessToken, result.ExpiresIn, result.RefreshToken, result.RefreshTokenExpiresIn,
		received, c.IncludeReadableExpiry), nil
}

// statusError builds an error carrying the HTTP status and, when present, the provider's error description.
func statusError(kind autherr.Kind, msg string, statusCode int, body []byte) *autherr.Error {
	err := autherr.WithStatus(kind, msg, statusCode, http.StatusText(statusCode))
	var providerErr tokenErrorResponse
	if json.Unmarshal(body, &providerErr) == nil {
		switch {
		case providerErr.ErrorDescription != "":
			err.Err = errors.New(providerErr.ErrorDescription)
		case providerErr.Error != "":
			err.Err = errors.New(providerErr.Error)
		}
	}
	return err
}

// Fetch GETs urlStr with httpClient and returns the body.
// Server errors are retried with exponential backoff; only use it for idempotent reads.
func Fetch(ctx context.Context, httpClient *http.Client, urlStr string) ([]byte, error) {
	log.Info().Str("url", urlStr).Msg("Fetching resource")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := sendRequest(httpClient, req)
	if err != nil {
		return nil, err
	}
	defer closeResponseBody(resp)

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

func sendRequest(httpClient *http.Client, req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	const maxRetries = 3
	backoff := retryBackoff

	for i := 0; i < maxRetries; i++ {
		resp, err = httpClient.Do(req)
		if err != nil {
			// Authentication problems will not go away by retrying.
			if autherr.KindOf(err) != "" || req.Context().Err() != nil {
				return nil, err
			}
			log.Warn().Err(err).Int("attempt", i+1).Int("max_attempts", maxRetries).Msg("Request failed, retrying...")
		} else if resp.StatusCode >= 500 {
			log.Warn().Int("status", resp.StatusCode).Int("attempt", i+1).Int("max_attempts", maxRetries).Msg("Server error, retrying...")
		} else {
			break
		}

		if i == maxRetries-1 {
			break
		}
		if resp != nil && resp.StatusCode >= 500 {
			closeResponseBody(resp)
		}
		select {
		case <-time.After(backoff):
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
		backoff *= 2
	}

	if err != nil {
		log.Error().Err(err).Msg("Failed to send request after multiple retries")
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().Int("status", resp.StatusCode).Msg("HTTP request failed with non-successful status")
		closeResponseBody(resp)
		return nil, fmt.Errorf("HTTP request failed with status %d", resp.StatusCode)
	}
	return resp, nil
}

func readResponseBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read response body")
		return nil, err
	}
	return body, nil
}

func closeResponseBody(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.CopyN(io.Discard, resp.Body, 1024*1024)
	_ = resp.Body.Close()
}

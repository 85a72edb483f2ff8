package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/habedi/psnauth/auth"
	"github.com/habedi/psnauth/pkg/autherr"
	"github.com/habedi/psnauth/pkg/validation"
	"github.com/rs/zerolog/log"
)

const (
	npssoHelp = "Please visit https://ca.account.sony.com/api/v1/ssocookie and double check if you have provided the correct NPSSO."

	missingLocationMessage = "Unable to retrieve the Access Code. " + npssoHelp
	malformedCodeMessage   = "Malformed Access Code received, this usually happens because a bad NPSSO was provided. " + npssoHelp
	codeExchangeMessage    = "Authentication failed! Failed to use Access Code to retrieve Authentication Token."
)

// ExchangeInitialCredential trades an NPSSO session cookie for a Token.
func (c *PSNClient) ExchangeInitialCredential(ctx context.Context, npsso string) (auth.Token, error) {
	if err := validation.ValidateNpsso(npsso); err != nil {
		return auth.Token{}, autherr.New(autherr.InvalidInput, err.Error(), nil)
	}

	code, err := c.requestAccessCode(ctx, npsso)
	if err != nil {
		return auth.Token{}, err
	}
	log.Debug().Msg("Received access code, exchanging it for a token")

	return c.exchangeCodeForToken(ctx, code)
}

// requestAccessCode asks the authorize endpoint for an access code.
// The code comes back in the Location header of a redirect, which must not be followed.
func (c *PSNClient) requestAccessCode(ctx context.Context, npsso string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.AuthorizeURL, nil)
	if err != nil {
		return "", autherr.New(autherr.ExchangeFailed, "failed to create access code request", err)
	}
	req.Header.Set("Cookie", "npsso="+npsso)

	resp, err := c.noRedirectClient().Do(req)
	if err != nil {
		return "", autherr.New(autherr.ExchangeFailed, "failed to request an access code", err)
	}
	closeResponseBody(resp)

	location := resp.Header.Get("Location")
	if location == "" {
		return "", autherr.New(autherr.InvalidCredential, missingLocationMessage, nil)
	}
	return extractAccessCode(location)
}

// extractAccessCode pulls the access code out of a Location header of the form ...code=<code>&cid=...
func extractAccessCode(location string) (string, error) {
	idx := strings.LastIndex(location, "code=")
	if idx < 0 {
		return "", autherr.New(autherr.MalformedResponse, malformedCodeMessage, nil)
	}
	code, _, _ := strings.Cut(location[idx+len("code="):], "&cid=")
	if code == "" || len(code) > maxAccessCodeLength {
		return "", autherr.New(autherr.MalformedResponse, malformedCodeMessage, nil)
	}
	return code, nil
}

func (c *PSNClient) exchangeCodeForToken(ctx context.Context, code string) (auth.Token, error) {
	form := url.Values{
		"code":         {code},
		"redirect_uri": {redirectURI},
		"grant_type":   {"authorization_code"},
		"token_format": {"jwt"},
	}
	return c.postTokenForm(ctx, form, autherr.InvalidCredential, codeExchangeMessage)
}

package client

import (
	"net/http"
	"time"
)

// See https://andshrew.github.io/PlayStation-Trophies/ for more information on PSN's authentication API

const (
	// DefaultAuthorizeURL starts the authorization code flow for the PlayStation mobile app client.
	DefaultAuthorizeURL = "https://ca.account.sony.com/api/authz/v3/oauth/authorize" +
		"?access_type=offline&client_id=09515159-7237-4370-9b40-3806e67c0891" +
		"&redirect_uri=com.scee.psxandroid.scecompcall%3A%2F%2Fredirect" +
		"&response_type=code&scope=psn%3Amobile.v2.core%20psn%3Aclientapp"

	// DefaultTokenURL is the endpoint for both code and refresh token exchanges.
	DefaultTokenURL = "https://ca.account.sony.com/api/authz/v3/oauth/token"

	// DefaultBasicAuth identifies the PlayStation mobile app client.
	DefaultBasicAuth = "Basic MDk1MTUxNTktNzIzNy00MzcwLTliNDAtMzgwNmU2N2MwODkxOnVjUGprYTV0bnRCMktxc1A="

	DefaultTimeout = 30 * time.Second

	redirectURI  = "com.scee.psxandroid.scecompcall://redirect"
	refreshScope = "psn:mobile.v2.core psn:clientapp"

	// Access codes are short ("v3." plus six characters); anything longer means the
	// Location header did not have the shape we expect.
	maxAccessCodeLength = 10
)

// PSNClient performs the token exchanges against PSN.
// It implements auth.Gateway.
type PSNClient struct {
	AuthorizeURL string
	TokenURL     string
	BasicAuth    string
	HTTPClient   *http.Client

	// IncludeReadableExpiry adds ISO-8601 renderings of the expiries to returned tokens.
	IncludeReadableExpiry bool

	now func() time.Time
}

// NewPSNClient returns a PSNClient pointing at the production endpoints.
func NewPSNClient() *PSNClient {
	return &PSNClient{
		AuthorizeURL:          DefaultAuthorizeURL,
		TokenURL:              DefaultTokenURL,
		BasicAuth:             DefaultBasicAuth,
		HTTPClient:            &http.Client{Timeout: DefaultTimeout},
		IncludeReadableExpiry: true,
	}
}

func (c *PSNClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: DefaultTimeout}
}

// noRedirectClient returns a copy of the HTTP client that hands back redirects instead of following them.
func (c *PSNClient) noRedirectClient() *http.Client {
	base := c.httpClient()
	return &http.Client{
		Transport: base.Transport,
		Jar:       base.Jar,
		Timeout:   base.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (c *PSNClient) currentTime() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

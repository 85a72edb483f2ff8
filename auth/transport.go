package auth

import "net/http"

// Transport is an http.RoundTripper that adds a bearer token from Source to every request.
type Transport struct {
	Base   http.RoundTripper
	Source AccessTokenSource
}

var _ http.RoundTripper = (*Transport)(nil)

// NewHTTPClient returns an *http.Client that authenticates its requests with source.
func NewHTTPClient(base *http.Client, source AccessTokenSource) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	return &http.Client{
		Transport:     &Transport{Base: base.Transport, Source: source},
		CheckRedirect: base.CheckRedirect,
		Jar:           base.Jar,
		Timeout:       base.Timeout,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	accessToken, err := t.Source.AccessToken(req.Context())
	if err != nil {
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, err
	}

	// RoundTrippers must not modify the caller's request.
	reqCopy := req.Clone(req.Context())
	reqCopy.Header.Set("Authorization", "Bearer "+accessToken)

	return t.base().RoundTrip(reqCopy)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

package auth

import "context"

// Refresher defines the contract for any component that can trade a refresh token for a new Token.
type Refresher interface {
	ExchangeRefreshToken(ctx context.Context, refreshToken string, refreshExpiry int64) (Token, error)
}

// CredentialExchanger defines the contract for any component that can trade an NPSSO for a Token.
type CredentialExchanger interface {
	ExchangeInitialCredential(ctx context.Context, npsso string) (Token, error)
}

// Gateway is the full set of exchanges offered by the provider.
type Gateway interface {
	CredentialExchanger
	Refresher
}

// AccessTokenSource hands out a currently valid access token.
type AccessTokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

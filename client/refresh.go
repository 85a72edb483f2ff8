package client

import (
	"context"
	"net/url"

	"github.com/habedi/psnauth/auth"
	"github.com/habedi/psnauth/pkg/autherr"
	"github.com/habedi/psnauth/pkg/validation"
)

const (
	missingRefreshTokenMessage  = `No valid "refreshToken" passed, impossible to refresh accessToken without one.`
	invalidRefreshExpiryMessage = "Token doesn't provide a valid 'refreshTokenExpirationEpoch', " +
		"required to check if the refreshToken is within refresh Date range."
	refreshTooOldMessage = `The "refreshToken" is too old to be refreshed. Please login again using a new NPSSO.`
	refreshFailedMessage = "Authentication failed! Failed to use Refresh Token to retrieve an updated Authentication Token."
)

// ExchangeRefreshToken trades a refresh token for a new Token.
// refreshExpiry is checked locally first so an expired token never reaches the provider.
func (c *PSNClient) ExchangeRefreshToken(ctx context.Context, refreshToken string, refreshExpiry int64) (auth.Token, error) {
	if err := validation.ValidateNonEmptyString("refreshToken", refreshToken); err != nil {
		return auth.Token{}, autherr.New(autherr.InvalidInput, missingRefreshTokenMessage, err)
	}
	if err := validation.ValidateEpochMillis("refreshTokenExpirationEpoch", refreshExpiry); err != nil {
		return auth.Token{}, autherr.New(autherr.InvalidInput, invalidRefreshExpiryMessage, err)
	}
	if c.currentTime().UnixMilli() > refreshExpiry {
		return auth.Token{}, autherr.New(autherr.ExpiredRefreshToken, refreshTooOldMessage, nil)
	}

	form := url.Values{
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
		"token_format":  {"jwt"},
		"scope":         {refreshScope},
	}
	return c.postTokenForm(ctx, form, autherr.ExchangeFailed, refreshFailedMessage)
}

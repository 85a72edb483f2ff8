package auth

import "time"

// ISOLayout renders expiries the way the provider's own clients do (UTC, millisecond precision).
const ISOLayout = "2006-01-02T15:04:05.000Z"

// Token holds everything needed to authenticate against PSN.
// Expiries are milliseconds since the epoch. The ISO fields are for display only.
type Token struct {
	AccessToken      string `json:"accessToken"`
	AccessExpiry     int64  `json:"tokenExpirationEpoch"`
	AccessExpiryISO  string `json:"humanReadableTokenExpiration,omitempty"`
	RefreshToken     string `json:"refreshToken"`
	RefreshExpiry    int64  `json:"refreshTokenExpirationEpoch"`
	RefreshExpiryISO string `json:"humanReadableRefreshTokenExpiration,omitempty"`
}

// NewToken builds a Token from provider-supplied lifetimes in seconds, counted from now.
func NewToken(accessToken string, accessTTL int64, refreshToken string, refreshTTL int64, now time.Time, readable bool) Token {
	nowMs := now.UnixMilli()
	token := Token{
		AccessToken:   accessToken,
		AccessExpiry:  nowMs + accessTTL*1000,
		RefreshToken:  refreshToken,
		RefreshExpiry: nowMs + refreshTTL*1000,
	}
	if readable {
		token.AccessExpiryISO = FormatEpoch(token.AccessExpiry)
		token.RefreshExpiryISO = FormatEpoch(token.RefreshExpiry)
	}
	return token
}

// AccessExpiresAt returns the access token expiry as a time.Time.
func (t Token) AccessExpiresAt() time.Time { return time.UnixMilli(t.AccessExpiry) }

// RefreshExpiresAt returns the refresh token expiry as a time.Time.
func (t Token) RefreshExpiresAt() time.Time { return time.UnixMilli(t.RefreshExpiry) }

// FormatEpoch renders a millisecond epoch with ISOLayout.
func FormatEpoch(epochMs int64) string {
	return time.UnixMilli(epochMs).UTC().Format(ISOLayout)
}

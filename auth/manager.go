package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/habedi/psnauth/pkg/autherr"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	notInitializedMessage = "token manager is not initialized; authenticate with an NPSSO first " +
		"(or keep using the token returned by the exchange if automatic refreshing is not wanted)"
	expiredRefreshTokenMessage = "the refresh token is too old to be refreshed; please login again using a new NPSSO"

	refreshKey = "refresh"

	// refreshTimeout bounds a shared refresh, which no single caller's context controls.
	refreshTimeout = time.Minute
)

// Manager keeps one Token current on behalf of its callers.
// It refreshes the access token through its Refresher when it goes stale.
// Concurrent refreshes are coalesced into a single exchange.
type Manager struct {
	refresher Refresher
	now       func() time.Time

	mu      sync.RWMutex
	current *Token // nil until InitializeToken

	group singleflight.Group
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock sets the time source used for expiry checks.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates an uninitialized Manager that refreshes through refresher.
func NewManager(refresher Refresher, opts ...ManagerOption) *Manager {
	m := &Manager{
		refresher: refresher,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// InitializeToken stores token as the current record.
// The token is trusted as-is since it comes from a successful exchange.
func (m *Manager) InitializeToken(token Token) {
	m.setToken(token)
}

// Initialized reports whether a token has been stored.
func (m *Manager) Initialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}

// FullToken returns the stored record verbatim. It never refreshes.
func (m *Manager) FullToken() (Token, error) {
	current, err := m.load()
	if err != nil {
		return Token{}, err
	}
	return *current, nil
}

// AccessToken returns a valid access token, refreshing it first if it has expired.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	current, err := m.load()
	if err != nil {
		return "", err
	}

	// Both expiry checks use the same snapshot of the clock.
	now := m.now().UnixMilli()
	if current.AccessExpiry >= now {
		return current.AccessToken, nil
	}
	if current.RefreshExpiry < now {
		return "", autherr.New(autherr.ExpiredRefreshToken, expiredRefreshTokenMessage, nil)
	}

	fresh, err := m.refresh(ctx, current)
	if err != nil {
		return "", err
	}
	return fresh.AccessToken, nil
}

func (m *Manager) refresh(ctx context.Context, stale *Token) (*Token, error) {
	ch := m.group.DoChan(refreshKey, func() (interface{}, error) {
		// The flight outlives a cancelled leader; waiters still give up on their own ctx below.
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		m.mu.RLock()
		latest := m.current
		m.mu.RUnlock()

		// Another flight may have finished between the caller's check and this one.
		if latest != stale {
			if latest.AccessExpiry >= m.now().UnixMilli() {
				return latest, nil
			}
			stale = latest
		}

		log.Debug().Str("refresh_expires_at", FormatEpoch(stale.RefreshExpiry)).Msg("Access token expired, refreshing")
		fresh, err := m.refresher.ExchangeRefreshToken(flightCtx, stale.RefreshToken, stale.RefreshExpiry)
		if err != nil {
			return nil, exchangeError(err)
		}
		stored := m.setToken(fresh)
		log.Debug().Str("expires_at", FormatEpoch(stored.AccessExpiry)).Msg("Access token refreshed")
		return stored, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Token), nil
	case <-ctx.Done():
		return nil, autherr.New(autherr.ExchangeFailed, "token refresh was cancelled", ctx.Err())
	}
}

func (m *Manager) load() (*Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil, autherr.New(autherr.NotInitialized, notInitializedMessage, nil)
	}
	return m.current, nil
}

// setToken replaces the whole record in one step; readers never see a partial update.
func (m *Manager) setToken(token Token) *Token {
	stored := token
	m.mu.Lock()
	m.current = &stored
	m.mu.Unlock()
	return &stored
}

// exchangeError keeps gateway errors that already describe a refresh failure
// and wraps everything else as ExchangeFailed.
func exchangeError(err error) error {
	var authErr *autherr.Error
	if errors.As(err, &authErr) {
		switch authErr.Kind {
		case autherr.ExchangeFailed, autherr.ExpiredRefreshToken:
			return err
		}
	}
	return autherr.New(autherr.ExchangeFailed, "failed to refresh the access token", err)
}

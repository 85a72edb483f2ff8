package auth

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Service ties the initial credential exchange to a Manager.
type Service struct {
	Exchanger CredentialExchanger
	Manager   *Manager
}

// NewService is the constructor for our auth service.
// The returned Service refreshes through the same gateway it logs in with.
func NewService(gateway Gateway, opts ...ManagerOption) *Service {
	return &Service{
		Exchanger: gateway,
		Manager:   NewManager(gateway, opts...),
	}
}

// Authenticate exchanges an NPSSO for a Token without touching the Manager.
func (s *Service) Authenticate(ctx context.Context, npsso string) (Token, error) {
	token, err := s.Exchanger.ExchangeInitialCredential(ctx, npsso)
	if err != nil {
		return Token{}, fmt.Errorf("failed to exchange NPSSO for a token: %w", err)
	}
	return token, nil
}

// Login exchanges an NPSSO and hands the resulting Token to the Manager.
func (s *Service) Login(ctx context.Context, npsso string) error {
	token, err := s.Authenticate(ctx, npsso)
	if err != nil {
		return err
	}
	s.Manager.InitializeToken(token)
	log.Info().Str("expires_at", FormatEpoch(token.AccessExpiry)).Msg("Authenticated with PSN.")
	return nil
}

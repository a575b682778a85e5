package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/moosefactory/registrar-api/internal/auth"
	"github.com/moosefactory/registrar-api/pkg/msgraph"
)

// ErrLoginFailed indicates the identity provider rejected the exchange or
// returned an unusable profile.
var ErrLoginFailed = errors.New("login failed")

// IdentityProvider is the slice of the Graph client the identity service
// depends on.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchProfile(ctx context.Context, token *oauth2.Token) (msgraph.Profile, error)
}

// IdentityService drives the OAuth login flow and mints session tokens for
// the resulting principal.
type IdentityService interface {
	LoginURL(state string) string
	CompleteLogin(ctx context.Context, code string) (auth.Principal, string, error)
}

type identityService struct {
	provider      IdentityProvider
	sessionSecret string
	sessionTTL    time.Duration
	logger        zerolog.Logger
}

// NewIdentityService constructs the identity service.
func NewIdentityService(provider IdentityProvider, sessionSecret string, sessionTTL time.Duration, logger zerolog.Logger) IdentityService {
	return &identityService{
		provider:      provider,
		sessionSecret: sessionSecret,
		sessionTTL:    sessionTTL,
		logger:        logger.With().Str("component", "identity_service").Logger(),
	}
}

func (s *identityService) LoginURL(state string) string {
	return s.provider.AuthCodeURL(state)
}

// CompleteLogin exchanges the authorization code, reads the directory
// profile, and mints a session token carrying the resolved principal.
func (s *identityService) CompleteLogin(ctx context.Context, code string) (auth.Principal, string, error) {
	if strings.TrimSpace(code) == "" {
		return auth.Principal{}, "", ErrLoginFailed
	}

	token, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn().Err(err).Msg("authorization code exchange failed")
		return auth.Principal{}, "", fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	profile, err := s.provider.FetchProfile(ctx, token)
	if err != nil {
		s.logger.Warn().Err(err).Msg("profile fetch failed")
		return auth.Principal{}, "", fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	principal := auth.Principal{
		Email: strings.ToLower(strings.TrimSpace(profile.Email())),
		Name:  strings.TrimSpace(profile.DisplayName),
	}
	if !principal.Valid() {
		return auth.Principal{}, "", ErrLoginFailed
	}

	session, err := auth.IssueSessionToken(s.sessionSecret, principal, s.sessionTTL)
	if err != nil {
		return auth.Principal{}, "", err
	}

	return principal, session, nil
}

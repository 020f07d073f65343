package auth

import (
	"context"
	"fmt"
	"time"
)

// LoginStage names the step of the callback state machine a login reached.
type LoginStage string

const (
	StageStarted        LoginStage = "started"
	StageStateValidated LoginStage = "state_validated"
	StageTokenExchanged LoginStage = "token_exchanged"
	StageProfileFetched LoginStage = "profile_fetched"
	StageSessionIssued  LoginStage = "session_issued"
)

// LoginError records the last stage a failed login completed.
type LoginError struct {
	Stage LoginStage
	Err   error
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login failed after %s: %v", e.Stage, e.Err)
}

func (e *LoginError) Unwrap() error {
	return e.Err
}

type discordProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (accessToken, tokenType string, err error)
	FetchProfile(ctx context.Context, tokenType, accessToken string) (*DiscordUser, error)
}

// LoginResult is the outcome of a successful callback.
type LoginResult struct {
	Token     string
	User      DiscordUser
	ExpiresAt time.Time
}

// Service coordinates the Discord login flow and verifies session credentials.
type Service struct {
	provider discordProvider
	states   *StateBroker
	codec    *SessionCodec
}

// NewService creates a new auth Service.
func NewService(provider discordProvider, states *StateBroker, codec *SessionCodec) *Service {
	return &Service{provider: provider, states: states, codec: codec}
}

// BeginLogin issues a CSRF state and returns the provider URL to redirect to.
func (s *Service) BeginLogin(ctx context.Context) (string, error) {
	state, err := s.states.Issue(ctx)
	if err != nil {
		return "", err
	}
	return s.provider.AuthURL(state), nil
}

// CompleteLogin runs the callback steps strictly in order: redeem state,
// exchange code, fetch profile, issue session. The first failure ends the attempt.
func (s *Service) CompleteLogin(ctx context.Context, code, state string) (*LoginResult, error) {
	if code == "" || state == "" {
		return nil, &LoginError{Stage: StageStarted, Err: ErrMalformedCallback}
	}

	if err := s.states.Redeem(ctx, state); err != nil {
		return nil, &LoginError{Stage: StageStarted, Err: err}
	}

	accessToken, tokenType, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, &LoginError{Stage: StageStateValidated, Err: fmt.Errorf("%w: %w", ErrProviderExchange, err)}
	}

	user, err := s.provider.FetchProfile(ctx, tokenType, accessToken)
	if err != nil {
		return nil, &LoginError{Stage: StageTokenExchanged, Err: fmt.Errorf("%w: %w", ErrProviderProfile, err)}
	}

	claims := s.codec.NewClaims(*user)
	token, err := s.codec.Sign(claims)
	if err != nil {
		return nil, &LoginError{Stage: StageProfileFetched, Err: err}
	}

	return &LoginResult{
		Token:     token,
		User:      *user,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Authenticate turns a raw credential into an identity. Every failure,
// whether absent, tampered or expired, is reported as ErrUnauthorized.
// It never touches the state store or the network.
func (s *Service) Authenticate(token string) (*AuthUser, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	claims, err := s.codec.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	return &AuthUser{ID: claims.UserID, Discord: claims.Discord}, nil
}

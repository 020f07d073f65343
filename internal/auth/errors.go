package auth

import "errors"

var (
	// ErrMalformedCallback means the provider callback lacked a code or a state.
	ErrMalformedCallback = errors.New("malformed oauth callback")
	// ErrInvalidState means the CSRF state was missing, expired or already used.
	ErrInvalidState = errors.New("missing or expired CSRF token, re-authenticate")
	// ErrProviderExchange wraps failures trading the authorization code for a token.
	ErrProviderExchange = errors.New("provider token exchange failed")
	// ErrProviderProfile wraps failures fetching the provider profile.
	ErrProviderProfile = errors.New("provider profile fetch failed")
	// ErrSessionIssue wraps signing failures while minting a session credential.
	ErrSessionIssue = errors.New("session issue failed")

	// ErrInvalidSignature means a credential failed signature or format checks.
	ErrInvalidSignature = errors.New("invalid session signature")
	// ErrExpired means a credential verified but its expiry has passed.
	ErrExpired = errors.New("session expired")
	// ErrUnauthorized is the single outcome the identity extractor reports.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrStoreUnavailable wraps transport failures talking to the state store.
	ErrStoreUnavailable = errors.New("state store unavailable")
)

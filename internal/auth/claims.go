package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the payload carried inside the signed session credential.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID  string      `json:"id"`
	Discord DiscordUser `json:"discord"`
}

// SessionCodec issues and verifies HS256 session tokens with a single server key.
type SessionCodec struct {
	key      []byte
	validity time.Duration
	now      func() time.Time
}

// NewSessionCodec returns a codec signing with key; tokens stay valid for validity.
func NewSessionCodec(key []byte, validity time.Duration) *SessionCodec {
	return NewSessionCodecWithClock(key, validity, time.Now)
}

// NewSessionCodecWithClock is NewSessionCodec reading time from now.
func NewSessionCodecWithClock(key []byte, validity time.Duration, now func() time.Time) *SessionCodec {
	return &SessionCodec{key: key, validity: validity, now: now}
}

// NewClaims builds the claims for user expiring validity from now.
func (c *SessionCodec) NewClaims(user DiscordUser) SessionClaims {
	now := c.now()
	return SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.validity)),
		},
		UserID:  user.ID,
		Discord: user,
	}
}

// Issue signs a fresh claim for user.
func (c *SessionCodec) Issue(user DiscordUser) (string, error) {
	return c.Sign(c.NewClaims(user))
}

// Sign serialises and signs claims as they are.
func (c *SessionCodec) Sign(claims SessionClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSessionIssue, err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns its claims.
// Failures are ErrExpired for a correctly signed but stale token and
// ErrInvalidSignature for everything else.
func (c *SessionCodec) Verify(token string) (*SessionClaims, error) {
	var claims SessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.secondClock),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return &claims, nil
}

func (c *SessionCodec) keyFunc(*jwt.Token) (any, error) {
	return c.key, nil
}

// secondClock truncates to whole seconds so that exp compares on epoch seconds.
func (c *SessionCodec) secondClock() time.Time {
	return c.now().Truncate(time.Second)
}

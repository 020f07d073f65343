package auth

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func sampleUser() DiscordUser {
	flags := uint64(64)
	premium := uint8(2)
	return DiscordUser{
		ID:            "42",
		Username:      "neo",
		Discriminator: "0001",
		Avatar:        strPtr("a_1234"),
		MFAEnabled:    boolPtr(true),
		Locale:        strPtr("en-US"),
		Verified:      boolPtr(true),
		Email:         strPtr("neo@example.com"),
		Flags:         &flags,
		PremiumType:   &premium,
		PublicFlags:   &flags,
	}
}

func TestSessionCodecRoundTrip(t *testing.T) {
	issuedAt := time.Unix(1_700_000_000, 0)
	now := issuedAt
	codec := NewSessionCodecWithClock(testKey, 24*time.Hour, func() time.Time { return now })

	users := []DiscordUser{
		sampleUser(),
		{ID: "1", Username: "minimal", Discriminator: "0"},
	}
	for _, user := range users {
		token, err := codec.Issue(user)
		if err != nil {
			t.Fatalf("Issue returned error: %v", err)
		}

		now = issuedAt.Add(23 * time.Hour)
		claims, err := codec.Verify(token)
		if err != nil {
			t.Fatalf("Verify returned error: %v", err)
		}
		if claims.UserID != user.ID || claims.Subject != user.ID {
			t.Fatalf("expected subject %q, got id=%q sub=%q", user.ID, claims.UserID, claims.Subject)
		}
		if !reflect.DeepEqual(claims.Discord, user) {
			t.Fatalf("embedded user mismatch:\n got %+v\nwant %+v", claims.Discord, user)
		}
		if got := claims.ExpiresAt.Time; !got.Equal(issuedAt.Add(24 * time.Hour)) {
			t.Fatalf("expected expiry %s, got %s", issuedAt.Add(24*time.Hour), got)
		}
		now = issuedAt
	}
}

func TestSessionCodecIsDeterministicForSameInstant(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	codec := NewSessionCodecWithClock(testKey, time.Hour, func() time.Time { return now })

	first, err := codec.Issue(sampleUser())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	second, err := codec.Issue(sampleUser())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if first != second {
		t.Fatal("expected identical tokens for identical input at the same instant")
	}
}

func TestSessionCodecExpiredAtAndAfterDeadline(t *testing.T) {
	issuedAt := time.Unix(1_700_000_000, 0)
	now := issuedAt
	codec := NewSessionCodecWithClock(testKey, 2*time.Hour, func() time.Time { return now })

	token, err := codec.Issue(sampleUser())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	for _, offset := range []time.Duration{
		2 * time.Hour,
		2*time.Hour + 500*time.Millisecond,
		2*time.Hour + time.Second,
		72 * time.Hour,
	} {
		now = issuedAt.Add(offset)
		_, err := codec.Verify(token)
		if !errors.Is(err, ErrExpired) {
			t.Fatalf("offset %s: expected ErrExpired, got %v", offset, err)
		}
		if errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("offset %s: expired token must not report invalid signature", offset)
		}
	}

	now = issuedAt.Add(2*time.Hour - time.Second)
	if _, err := codec.Verify(token); err != nil {
		t.Fatalf("expected token valid one second before expiry, got %v", err)
	}
}

func TestSessionCodecRejectsFlippedBit(t *testing.T) {
	codec := NewSessionCodec(testKey, time.Hour)
	token, err := codec.Issue(sampleUser())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected three token segments, got %d", len(parts))
	}
	header, payload := parts[0], parts[1]

	positions := []int{
		len(header) / 2,
		len(header) + 1 + len(payload)/2,
		len(header) + 1 + len(payload) + 1,
	}
	for _, pos := range positions {
		tampered := []byte(token)
		tampered[pos] ^= 0x01
		_, err := codec.Verify(string(tampered))
		if !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("flip at %d: expected ErrInvalidSignature, got %v", pos, err)
		}
	}
}

func TestSessionCodecRejectsEverySingleBitFlip(t *testing.T) {
	codec := NewSessionCodec(testKey, time.Hour)
	token, err := codec.Issue(sampleUser())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	for pos := range token {
		for bit := 0; bit < 8; bit++ {
			tampered := []byte(token)
			tampered[pos] ^= 1 << bit
			_, err := codec.Verify(string(tampered))
			if !errors.Is(err, ErrInvalidSignature) {
				t.Fatalf("bit %d at %d (%q -> %q): expected ErrInvalidSignature, got %v",
					bit, pos, token[pos], tampered[pos], err)
			}
		}
	}
}

func TestSessionCodecRejectsSignaturePaddingBits(t *testing.T) {
	codec := NewSessionCodec(testKey, time.Hour)
	token, err := codec.Issue(sampleUser())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	last := len(token) - 1
	for bit := 0; bit < 8; bit++ {
		tampered := []byte(token)
		tampered[last] ^= 1 << bit
		if _, err := codec.Verify(string(tampered)); err == nil {
			t.Fatalf("bit %d flipped in final signature character (%q -> %q) still verifies",
				bit, token[last], tampered[last])
		}
	}
}

func TestSessionCodecRejectsForeignKey(t *testing.T) {
	issuer := NewSessionCodec([]byte("another-key-another-key-another-k"), time.Hour)
	verifier := NewSessionCodec(testKey, time.Hour)

	token, err := issuer.Issue(sampleUser())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestSessionCodecRejectsUnsignedToken(t *testing.T) {
	codec := NewSessionCodec(testKey, time.Hour)
	claims := codec.NewClaims(sampleUser())

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build unsigned token: %v", err)
	}
	if _, err := codec.Verify(unsigned); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestSessionCodecRejectsMissingExpiry(t *testing.T) {
	codec := NewSessionCodec(testKey, time.Hour)
	claims := codec.NewClaims(sampleUser())
	claims.ExpiresAt = nil

	token, err := codec.Sign(claims)
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}
	if _, err := codec.Verify(token); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestSessionCodecRejectsGarbage(t *testing.T) {
	codec := NewSessionCodec(testKey, time.Hour)
	for _, token := range []string{"", "abc", "a.b.c", "legacy-session-value"} {
		if _, err := codec.Verify(token); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("token %q: expected ErrInvalidSignature, got %v", token, err)
		}
	}
}

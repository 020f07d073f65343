package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"testing"
	"time"

	"doorman/internal/audit"
	"doorman/internal/auth"
	"doorman/internal/config"
	"doorman/internal/platform/cache"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeProvider struct {
	mu        sync.Mutex
	lastState string
	user      *auth.DiscordUser

	exchangeErr error
	profileErr  error
}

func (f *fakeProvider) AuthURL(state string) string {
	f.mu.Lock()
	f.lastState = state
	f.mu.Unlock()
	return "https://discord.test/oauth2/authorize?state=" + url.QueryEscape(state) + "&prompt=none"
}

func (f *fakeProvider) state() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastState
}

func (f *fakeProvider) Exchange(ctx context.Context, code string) (string, string, error) {
	if f.exchangeErr != nil {
		return "", "", f.exchangeErr
	}
	return "access-" + code, "Bearer", nil
}

func (f *fakeProvider) FetchProfile(ctx context.Context, tokenType, accessToken string) (*auth.DiscordUser, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	if f.user != nil {
		return f.user, nil
	}
	return &auth.DiscordUser{ID: "42", Username: "neo", Discriminator: "0001"}, nil
}

// failingStore reports every operation as a transport failure.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, error) {
	return "", errors.New("dial tcp: connection refused")
}

func (failingStore) Set(context.Context, string, string) error {
	return errors.New("dial tcp: connection refused")
}

func (failingStore) SetWithExpiry(context.Context, string, string, time.Duration) error {
	return errors.New("dial tcp: connection refused")
}

func (failingStore) Delete(context.Context, string) (bool, error) {
	return false, errors.New("dial tcp: connection refused")
}

func (failingStore) GetDel(context.Context, string) (string, error) {
	return "", errors.New("dial tcp: connection refused")
}

type testEnv struct {
	provider *fakeProvider
	store    cache.Store
	codec    *auth.SessionCodec
	service  *auth.Service
	repo     *audit.InMemoryRepository
	recorder *audit.Recorder

	mu  sync.Mutex
	now time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, cache.NewMemoryStore())
}

func newTestEnvWithStore(t *testing.T, store cache.Store) *testEnv {
	t.Helper()
	env := &testEnv{
		provider: &fakeProvider{},
		store:    store,
		repo:     audit.NewInMemoryRepository(),
		now:      time.Now().Truncate(time.Second),
	}
	env.codec = auth.NewSessionCodecWithClock(testSigningKey, 24*time.Hour, env.clock)
	env.service = auth.NewService(env.provider, auth.NewStateBroker(store, auth.DefaultStateTTL, discardLogger()), env.codec)
	env.recorder = audit.NewRecorder(env.repo, discardLogger())
	return env
}

func (e *testEnv) clock() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *testEnv) advance(d time.Duration) {
	e.mu.Lock()
	e.now = e.now.Add(d)
	e.mu.Unlock()
}

func (e *testEnv) credential(t *testing.T, user auth.DiscordUser) string {
	t.Helper()
	token, err := e.codec.Issue(user)
	if err != nil {
		t.Fatalf("issue credential: %v", err)
	}
	return token
}

func testCookie() SessionCookie {
	return SessionCookie{Name: "doorman_session", MaxAge: 3600, Secure: true}
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Environment:    config.EnvProduction,
		AllowedOrigins: []string{"https://example.com"},
		StaticDir:      t.TempDir(),
		SessionName:    "doorman_session",
		SessionTimeout: time.Hour,
		SessionSecure:  true,
	}
}

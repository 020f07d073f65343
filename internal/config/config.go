package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	AuditStoreMemory   = "memory"
	AuditStorePostgres = "postgres"

	minJWTKeyLength = 32
)

// Config aggregates runtime configuration for the doorman service. It is built
// once by Load and passed by value; nothing mutates it afterwards.
type Config struct {
	Environment    string
	LogLevel       string
	ServerAddress  string
	AllowedOrigins []string
	StaticDir      string

	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURL  string
	DiscordScopes       []string
	DiscordAuthorizeURL string
	DiscordAPIURL       string
	ProviderTimeout     time.Duration

	JWTKey        []byte
	JWTExpiration time.Duration

	SessionName    string
	SessionTimeout time.Duration
	SessionSecure  bool

	RedisURL     string
	StoreTimeout time.Duration
	StateTTL     time.Duration

	AuditStore  string
	DatabaseURL string
}

// Load reads configuration from an optional .env file and the process
// environment. Variables already present in the environment take precedence.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: loading .env: %w", err)
	}

	discordSecret, err := getEnvOrFile("DISCORD_SECRET", "/run/secrets/doorman_discord_secret")
	if err != nil {
		return Config{}, err
	}
	jwtKey, err := getEnvOrFile("JWT_KEY", "/run/secrets/doorman_jwt_key")
	if err != nil {
		return Config{}, err
	}
	redisURL, err := getEnvOrFile("REDIS_URL", "/run/secrets/doorman_redis_url")
	if err != nil {
		return Config{}, err
	}
	databaseURL, err := getEnvOrFile("DATABASE_URL", "/run/secrets/doorman_database_url")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Environment:         strings.ToLower(getEnv("APP_ENV", EnvProduction)),
		LogLevel:            strings.ToLower(getEnv("LOG_LEVEL", "info")),
		ServerAddress:       getEnv("SERVER_ADDRESS", ":"+getEnv("PORT", "8080")),
		AllowedOrigins:      parseCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:8080")),
		StaticDir:           getEnv("STATIC_DIR", "static"),
		DiscordClientID:     strings.TrimSpace(os.Getenv("DISCORD_ID")),
		DiscordClientSecret: strings.TrimSpace(discordSecret),
		DiscordRedirectURL:  strings.TrimSpace(os.Getenv("DISCORD_REDIRECT")),
		DiscordScopes:       parseCSV(getEnv("DISCORD_SCOPES", "identify")),
		DiscordAuthorizeURL: getEnv("DISCORD_AUTHORIZE_URL", "https://discord.com/oauth2/authorize"),
		DiscordAPIURL:       strings.TrimRight(getEnv("DISCORD_API_URL", "https://discord.com/api"), "/"),
		JWTKey:              []byte(strings.TrimSpace(jwtKey)),
		SessionName:         getEnv("SESSION_NAME", "doorman_session"),
		RedisURL:            strings.TrimSpace(redisURL),
		AuditStore:          strings.ToLower(getEnv("AUDIT_STORE", AuditStoreMemory)),
		DatabaseURL:         strings.TrimSpace(databaseURL),
	}

	if cfg.ProviderTimeout, err = getDuration("PROVIDER_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.StoreTimeout, err = getDuration("STORE_TIMEOUT", 2*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.StateTTL, err = getDuration("STATE_TTL", 90*time.Second); err != nil {
		return Config{}, err
	}

	hours, err := getPositiveInt("JWT_EXPIRATION", 24)
	if err != nil {
		return Config{}, err
	}
	cfg.JWTExpiration = time.Duration(hours) * time.Hour

	minutes, err := getPositiveInt("SESSION_TIMEOUT", hours*60)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionTimeout = time.Duration(minutes) * time.Minute

	secure := getEnv("SESSION_SECURE", "true")
	cfg.SessionSecure, err = strconv.ParseBool(secure)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SESSION_SECURE %q: %w", secure, err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Environment)
	}

	if c.DiscordClientID == "" {
		return errors.New("DISCORD_ID is required")
	}
	if c.DiscordClientSecret == "" {
		return errors.New("DISCORD_SECRET is required")
	}
	if c.DiscordRedirectURL == "" {
		return errors.New("DISCORD_REDIRECT is required")
	}
	if len(c.DiscordScopes) == 0 {
		return errors.New("DISCORD_SCOPES must define at least one scope")
	}
	if len(c.JWTKey) == 0 {
		return errors.New("JWT_KEY is required")
	}
	if c.SessionName == "" {
		return errors.New("SESSION_NAME cannot be empty")
	}

	switch c.AuditStore {
	case AuditStoreMemory:
	case AuditStorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("AUDIT_STORE is postgres but DATABASE_URL is not set")
		}
	default:
		return fmt.Errorf("AUDIT_STORE must be %q or %q, got %q", AuditStoreMemory, AuditStorePostgres, c.AuditStore)
	}

	if c.IsDevelopment() {
		return nil
	}

	if len(c.JWTKey) < minJWTKeyLength {
		return fmt.Errorf("JWT_KEY must be at least %d bytes outside development", minJWTKeyLength)
	}
	if c.RedisURL == "" {
		return errors.New("REDIS_URL is required outside development")
	}
	if len(c.AllowedOrigins) == 0 {
		return errors.New("ALLOWED_ORIGINS must define at least one origin outside development")
	}
	for _, origin := range c.AllowedOrigins {
		if origin == "*" {
			return errors.New("ALLOWED_ORIGINS cannot contain wildcard outside development")
		}
	}
	return nil
}

// IsDevelopment reports whether the service runs with development relaxations.
func (c Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// UseMemoryStateStore returns true when CSRF state should live in process memory.
func (c Config) UseMemoryStateStore() bool {
	return c.RedisURL == ""
}

// UseInMemoryAudit returns true if the in-memory audit repository should be used.
func (c Config) UseInMemoryAudit() bool {
	return c.AuditStore == AuditStoreMemory
}

// SessionMaxAge returns the cookie Max-Age in seconds.
func (c Config) SessionMaxAge() int {
	return int(c.SessionTimeout / time.Second)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %q", key, raw)
	}
	return value, nil
}

func getPositiveInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, value)
	}
	return value, nil
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvOrFile(key, defaultPath string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}

	fileKey := key + "_FILE"
	if path := os.Getenv(fileKey); path != "" {
		return readSecret(path, fileKey)
	}

	if defaultPath != "" {
		return readSecret(defaultPath, key)
	}

	return "", nil
}

func readSecret(path, name string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("config: reading %s (%s): %w", name, path, err)
	}

	value := strings.TrimSpace(string(contents))
	if value == "" {
		return "", fmt.Errorf("config: %s (%s) is empty", name, path)
	}
	return value, nil
}

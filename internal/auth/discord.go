package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	DefaultDiscordAuthorizeURL = "https://discord.com/oauth2/authorize"
	DefaultDiscordAPIURL       = "https://discord.com/api"
)

// DiscordOptions configures a DiscordClient.
type DiscordOptions struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	AuthorizeURL string
	APIURL       string
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// DiscordClient performs the Discord OAuth 2.0 authorization code flow.
type DiscordClient struct {
	config     *oauth2.Config
	apiURL     string
	timeout    time.Duration
	httpClient *http.Client
}

// NewDiscordClient builds a client for the given application credentials.
func NewDiscordClient(opts DiscordOptions) *DiscordClient {
	authorizeURL := opts.AuthorizeURL
	if authorizeURL == "" {
		authorizeURL = DefaultDiscordAuthorizeURL
	}
	apiURL := strings.TrimSuffix(opts.APIURL, "/")
	if apiURL == "" {
		apiURL = DefaultDiscordAPIURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &DiscordClient{
		config: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Scopes:       opts.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authorizeURL,
				TokenURL:  apiURL + "/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiURL:     apiURL,
		timeout:    opts.Timeout,
		httpClient: httpClient,
	}
}

// AuthURL returns the consent URL carrying state. prompt=none skips re-consent
// for users who already authorized the application.
func (d *DiscordClient) AuthURL(state string) string {
	return d.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "none"))
}

// Exchange trades an authorization code for an access token and its type.
// The refresh token is discarded.
func (d *DiscordClient) Exchange(ctx context.Context, code string) (string, string, error) {
	ctx, cancel := d.bound(ctx)
	defer cancel()

	token, err := d.config.Exchange(ctx, code,
		oauth2.SetAuthURLParam("scope", strings.Join(d.config.Scopes, " ")),
	)
	if err != nil {
		return "", "", fmt.Errorf("token exchange: %w", err)
	}
	if token.AccessToken == "" {
		return "", "", fmt.Errorf("token exchange: empty access token")
	}
	return token.AccessToken, token.Type(), nil
}

// FetchProfile loads the current user's profile with the given token.
func (d *DiscordClient) FetchProfile(ctx context.Context, tokenType, accessToken string) (*DiscordUser, error) {
	ctx, cancel := d.bound(ctx)
	defer cancel()

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   tokenType,
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.apiURL+"/users/@me", nil)
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("profile request: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var user DiscordUser
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("decode profile: missing user id")
	}
	return &user, nil
}

// bound applies the per-call timeout and routes oauth2 through our HTTP client.
func (d *DiscordClient) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, d.httpClient)
	if d.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.timeout)
}

package lexmachina

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultAPIBaseURL is used when API_BASE_URL is not set.
const DefaultAPIBaseURL = "https://law-api-poc.stage.lexmachina.com"

// Environment variable names recognized by LoadConfig.
const (
	EnvAPIBaseURL    = "API_BASE_URL"
	EnvAPIToken      = "API_TOKEN"
	EnvClientID      = "CLIENT_ID"
	EnvClientSecret  = "CLIENT_SECRET"
	EnvDelegationURL = "DELEGATION_URL"
)

// Config holds the authentication configuration for the Lex Machina API.
// It is constructed once at process start and is immutable thereafter.
//
// Exactly one mechanism is selected when building a client, in priority order:
// static token, then OAuth2 client credentials, then delegation URL.
type Config struct {
	APIBaseURL    string
	Token         string
	ClientID      string
	ClientSecret  string
	DelegationURL string

	log *slog.Logger
}

// LoadConfig reads the authentication configuration through getenv and
// validates that the configured mechanisms are jointly coherent. It never
// issues a network call.
//
// getenv is injected (pass os.Getenv in production) so validation can be
// tested without mutating process environment.
func LoadConfig(getenv func(string) string, log *slog.Logger) (Config, error) {
	if log == nil {
		log = slog.Default()
	}

	// Values are whitespace-trimmed, so a variable set to "" or blanks counts
	// as absent rather than triggering pair validation.
	get := func(name string) string { return strings.TrimSpace(getenv(name)) }

	apiBaseURL := get(EnvAPIBaseURL)
	if apiBaseURL == "" {
		apiBaseURL = DefaultAPIBaseURL
	}
	token := get(EnvAPIToken)
	clientID := get(EnvClientID)
	clientSecret := get(EnvClientSecret)
	delegationURL := get(EnvDelegationURL)

	if token == "" && clientID == "" && clientSecret == "" && delegationURL == "" {
		return Config{}, &MissingConfigurationError{
			Fields: []string{EnvAPIToken, EnvClientID, EnvClientSecret, EnvDelegationURL},
		}
	}

	if token != "" {
		log.Warn("using API_TOKEN for authentication; consider CLIENT_ID / CLIENT_SECRET or DELEGATION_URL for better security")
	}
	if clientID != "" && clientSecret == "" {
		return Config{}, &RequiredConfigurationError{Field: EnvClientSecret}
	}
	if clientSecret != "" && clientID == "" {
		return Config{}, &RequiredConfigurationError{Field: EnvClientID}
	}

	return Config{
		APIBaseURL:    apiBaseURL,
		Token:         token,
		ClientID:      clientID,
		ClientSecret:  clientSecret,
		DelegationURL: delegationURL,
		log:           log,
	}, nil
}

// IsUsingDelegation reports whether a delegation URL is configured,
// regardless of whether a higher-priority mechanism would win selection.
func (c Config) IsUsingDelegation() bool {
	return c.DelegationURL != ""
}

// BuildClient resolves the configured credentials into an authenticated
// Client. The static token path needs no network call; the client-credentials
// path performs exactly one synchronous token exchange against
// {base}/api/token.
func (c Config) BuildClient(ctx context.Context) (*Client, error) {
	log := c.log
	if log == nil {
		log = slog.Default()
	}

	switch {
	case c.Token != "":
		return NewClient(c.APIBaseURL, c.Token, log)

	case c.ClientID != "" && c.ClientSecret != "":
		token, err := exchangeClientCredentials(ctx, c.APIBaseURL, c.ClientID, c.ClientSecret)
		if err != nil {
			log.Error("OAuth2 token request failed", "err", err)
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		return NewClient(c.APIBaseURL, token, log)

	case c.DelegationURL != "":
		return nil, ErrDelegationNotImplemented

	default:
		// Unreachable after LoadConfig validation.
		return nil, ErrConfiguration
	}
}

// exchangeClientCredentials performs the OAuth2 client-credentials grant and
// returns the issued access token.
func exchangeClientCredentials(ctx context.Context, baseURL, clientID, clientSecret string) (string, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return "", err
	}
	u := base.ResolveReference(&url.URL{Path: "api/token"})

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	hc := &http.Client{Timeout: 30 * time.Second}
	resp, err := hc.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode/100 != 2 {
		return "", newHTTPError("token", resp, b)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return "", fmt.Errorf("parse token response: %w", err)
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return "", fmt.Errorf("token endpoint did not return access_token")
	}
	return strings.TrimSpace(out.AccessToken), nil
}

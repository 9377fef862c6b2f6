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

// Client is an authenticated HTTP client for the Lex Machina legal-analytics
// API. It wraps a base URL and a resolved bearer token and is immutable after
// construction. One instance is meant to be reused for the lifetime of an
// agent so the underlying connection pool is shared across queries; call
// Close on teardown to release idle connections.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
	log     *slog.Logger
}

// NewClient constructs a client for the given API base URL and bearer token.
//
// baseURL should look like "https://law-api-poc.stage.lexmachina.com".
func NewClient(baseURL, token string, log *slog.Logger) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL: base,
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: 60 * time.Second},
		log:     log,
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("api base URL is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse api base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api base URL must include a host (got %q)", raw)
	}
	// Ensure the base path ends with a slash so ResolveReference treats it as a directory.
	u.Path = strings.TrimRight(u.Path, "/") + "/"
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// Close releases the client's idle connections. The client must not be used
// after Close.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// GetSuggestedSearches calls the /search/ai_suggested endpoint.
//
// Upstream HTTP status errors are converted to an {"error": ...} envelope
// rather than returned: there is nothing for the caller to retry and the
// orchestrator's stage gate owns that branch. Transport and decoding errors
// are returned as errors and are fatal for the request.
func (c *Client) GetSuggestedSearches(ctx context.Context, query string) (map[string]any, error) {
	c.log.Info("fetching suggested searches", "query", query)

	u := c.resolve("search/ai_suggested")
	q := url.Values{}
	q.Set("q", query)
	u.RawQuery = q.Encode()

	out, err := c.getJSON(ctx, "suggestedSearches", u)
	if httpErr := asHTTPError(err); httpErr != nil {
		c.log.Error("suggested searches request failed", "status", httpErr.StatusCode, "err", httpErr.Error())
		return map[string]any{"error": httpErr.Error()}, nil
	}
	return out, err
}

// GetSearchDescription fetches the description for a single suggested search.
// descriptionURL may be absolute or relative to the API base URL.
//
// Like GetSuggestedSearches, status errors become an {"error": ...} envelope
// scoped to this one description; transport errors are returned.
func (c *Client) GetSearchDescription(ctx context.Context, descriptionURL string) (map[string]any, error) {
	c.log.Debug("fetching search description", "url", descriptionURL)

	ref, err := url.Parse(strings.TrimSpace(descriptionURL))
	if err != nil {
		return nil, fmt.Errorf("parse description URL %q: %w", descriptionURL, err)
	}
	u := c.baseURL.ResolveReference(ref)

	out, err := c.getJSON(ctx, "searchDescription", u)
	if httpErr := asHTTPError(err); httpErr != nil {
		c.log.Error("description request failed", "url", descriptionURL, "status", httpErr.StatusCode)
		return map[string]any{"error": httpErr.Error()}, nil
	}
	return out, err
}

func (c *Client) getJSON(ctx context.Context, op string, u *url.URL) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, newHTTPError(op, resp, b)
	}

	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse %s response: %w", op, err)
	}
	return out, nil
}

func (c *Client) resolve(relPath string) *url.URL {
	relPath = strings.TrimPrefix(relPath, "/")
	rel := &url.URL{Path: relPath}
	return c.baseURL.ResolveReference(rel)
}

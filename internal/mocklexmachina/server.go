// Package mocklexmachina implements a minimal "Lex Machina-like" API surface
// for tests and local development: the OAuth2 token endpoint, the suggested
// searches endpoint, and description endpoints.
package mocklexmachina

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Call records a request made to the mock service.
type Call struct {
	Method string
	Path   string
}

// Server implements the mock API. Configure canned responses and failure
// injection before serving; all methods are safe for concurrent use.
type Server struct {
	mu sync.Mutex

	calls []Call

	expectedAuthorization string

	clientID     string
	clientSecret string
	accessToken  string

	// envelopes maps a query string to the suggested-searches response body.
	envelopes map[string]map[string]any

	// failures maps a request path to an injected HTTP status code.
	failures map[string]int

	// delays maps a request path to an artificial response latency. Used to
	// force out-of-order completion in enrichment tests.
	delays map[string]time.Duration
}

// New constructs an empty mock server.
func New() *Server {
	return &Server{
		envelopes: make(map[string]map[string]any),
		failures:  make(map[string]int),
		delays:    make(map[string]time.Duration),
	}
}

// RequireBearerToken enforces that API requests carry a matching bearer
// Authorization header. An empty token disables enforcement. The token
// endpoint itself is exempt.
func (s *Server) RequireBearerToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token = strings.TrimSpace(token)
	if token == "" {
		s.expectedAuthorization = ""
		return
	}
	s.expectedAuthorization = "Bearer " + token
}

// SetClientCredentials configures the token endpoint to accept the given pair
// and issue accessToken.
func (s *Server) SetClientCredentials(clientID, clientSecret, accessToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientID = clientID
	s.clientSecret = clientSecret
	s.accessToken = accessToken
}

// SetEnvelope sets the full suggested-searches response body for a query.
func (s *Server) SetEnvelope(query string, envelope map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envelopes[query] = envelope
}

// SetSuggestionURLs is a convenience wrapper around SetEnvelope that builds a
// {"result": [{"description_url": ...}, ...]} body.
func (s *Server) SetSuggestionURLs(query string, urls ...string) {
	result := make([]any, 0, len(urls))
	for _, u := range urls {
		result = append(result, map[string]any{"description_url": u})
	}
	s.SetEnvelope(query, map[string]any{"result": result})
}

// FailPath makes requests to path return the given HTTP status.
func (s *Server) FailPath(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = status
}

// DelayPath delays responses to path by d.
func (s *Server) DelayPath(path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[path] = d
}

// Calls returns a snapshot of calls made to the server.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Handler returns an http.Handler that serves the mock API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", s.handleToken)
	mux.HandleFunc("/search/ai_suggested", s.handleSuggested)
	mux.HandleFunc("/", s.handleDescription)
	return mux
}

func (s *Server) recordCall(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path})
}

func (s *Server) authorize(w http.ResponseWriter, r *http.Request) bool {
	s.mu.Lock()
	expected := s.expectedAuthorization
	s.mu.Unlock()

	if expected == "" {
		return true
	}
	if r.Header.Get("Authorization") != expected {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	return true
}

// injectFault applies configured failure/delay for the request path. Returns
// true when the request was answered with an injected failure.
func (s *Server) injectFault(w http.ResponseWriter, r *http.Request) bool {
	s.mu.Lock()
	status := s.failures[r.URL.Path]
	delay := s.delays[r.URL.Path]
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if status != 0 {
		writeJSONError(w, status, fmt.Sprintf("injected failure for %s", r.URL.Path))
		return true
	}
	return false
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	s.recordCall(r)
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.injectFault(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	if r.PostFormValue("grant_type") != "client_credentials" {
		writeJSONError(w, http.StatusBadRequest, "unsupported grant_type")
		return
	}

	s.mu.Lock()
	clientID, clientSecret, accessToken := s.clientID, s.clientSecret, s.accessToken
	s.mu.Unlock()

	if clientID != "" && (r.PostFormValue("client_id") != clientID || r.PostFormValue("client_secret") != clientSecret) {
		writeJSONError(w, http.StatusUnauthorized, "invalid client credentials")
		return
	}
	if accessToken == "" {
		// Misconfigured stub: return a body without access_token so resolver
		// error paths can be exercised.
		writeJSON(w, http.StatusOK, map[string]any{"token_type": "bearer"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"access_token": accessToken, "token_type": "bearer"})
}

func (s *Server) handleSuggested(w http.ResponseWriter, r *http.Request) {
	s.recordCall(r)
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.authorize(w, r) {
		return
	}
	if s.injectFault(w, r) {
		return
	}

	query := r.URL.Query().Get("q")

	s.mu.Lock()
	envelope, ok := s.envelopes[query]
	s.mu.Unlock()

	if !ok {
		envelope = map[string]any{"result": []any{}}
	}
	writeJSON(w, http.StatusOK, envelope)
}

// handleDescription serves any other GET path as a description payload.
func (s *Server) handleDescription(w http.ResponseWriter, r *http.Request) {
	s.recordCall(r)
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.authorize(w, r) {
		return
	}
	if s.injectFault(w, r) {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"url":  r.URL.Path,
		"text": "Description for " + r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

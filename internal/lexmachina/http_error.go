package lexmachina

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lexmachina/suggested-searches-agent/internal/util"
)

// errorEnvelope covers the JSON error body shapes the Lex Machina API is known
// to return. Responses may include additional fields; we intentionally ignore them.
type errorEnvelope struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// HTTPError is a sanitized summary of a non-2xx upstream API response.
//
// Important: do not include raw response bodies here (can leak PII/tokens).
type HTTPError struct {
	Op         string
	StatusCode int
	Status     string
	Detail     string

	// Snippet is a redacted, truncated hint for responses without a
	// recognized error envelope.
	Snippet string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "lexmachina http error"
	}
	parts := []string{
		fmt.Sprintf("lexmachina api error: op=%s status=%s", strings.TrimSpace(e.Op), strings.TrimSpace(e.Status)),
	}
	if strings.TrimSpace(e.Detail) != "" {
		parts = append(parts, "detail="+strings.TrimSpace(e.Detail))
	}
	if strings.TrimSpace(e.Snippet) != "" {
		parts = append(parts, "body="+strings.TrimSpace(e.Snippet))
	}
	return strings.Join(parts, " ")
}

func newHTTPError(op string, resp *http.Response, body []byte) error {
	h := &HTTPError{Op: op}
	if resp != nil {
		h.StatusCode = resp.StatusCode
		h.Status = resp.Status
	}

	// Best effort: parse a structured error envelope.
	var env errorEnvelope
	if len(body) > 0 && json.Unmarshal(body, &env) == nil {
		detail := strings.TrimSpace(env.Error)
		if detail == "" {
			detail = strings.TrimSpace(env.Detail)
		}
		if detail != "" {
			h.Detail = util.RedactSecrets(detail)
			return h
		}
	}

	// Fallback: include a small, redacted hint only.
	h.Snippet = redactAndTruncate(body)
	return h
}

// asHTTPError unwraps err to an *HTTPError, or returns nil when err is nil or
// of another kind.
func asHTTPError(err error) *HTTPError {
	var he *HTTPError
	if errors.As(err, &he) {
		return he
	}
	return nil
}

func redactAndTruncate(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	// Keep this small: response bodies can contain sensitive data.
	const max = 256
	b := body
	if len(b) > max {
		b = b[:max]
	}
	s := util.RedactSecrets(string(b))
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(body) > max {
		return s + "..."
	}
	return s
}

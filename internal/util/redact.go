package util

import (
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>" (JWTs and opaque tokens). Keep it broad: tokens show up
	// in logs via HTTP error messages from the upstream API.
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// Common key=value formats that sometimes leak in error strings, e.g. from
	// form-encoded token-exchange request dumps.
	credentialKVRe = regexp.MustCompile(`(?i)\b(api[_-]?token|client[_-]?secret|access[_-]?token)\b\s*[:=]\s*[^\s"'&]+`)
)

// RedactSecrets removes obvious secret-bearing substrings from error/log strings.
//
// This is intentionally conservative: it should be safe to call on any message,
// including user-provided queries and upstream error strings.
func RedactSecrets(s string) string {
	if s == "" {
		return ""
	}
	out := s
	out = bearerTokenRe.ReplaceAllString(out, "Bearer <redacted>")
	out = credentialKVRe.ReplaceAllString(out, "<redacted_kv>")
	return strings.TrimSpace(out)
}

package lexmachina

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration is the base error for configuration failures. Every
// configuration error kind below matches it via errors.Is, so callers can
// treat "fix your environment" uniformly while still branching on the
// specific kind with errors.As.
var ErrConfiguration = errors.New("invalid configuration")

// ErrDelegationNotImplemented reports that DELEGATION_URL was selected as the
// authentication mechanism. The capability is reserved but the exchange flow
// is not built; this is deliberately distinct from ErrConfiguration so callers
// can tell "this code path doesn't exist yet" from "you must fix your config".
var ErrDelegationNotImplemented = fmt.Errorf("delegation URL authentication is not implemented yet: %w", errors.ErrUnsupported)

// MissingConfigurationError is returned when no authentication mechanism is
// configured at all.
type MissingConfigurationError struct {
	Fields []string
}

func (e *MissingConfigurationError) Error() string {
	return "missing configuration values: " + strings.Join(e.Fields, ", ")
}

func (e *MissingConfigurationError) Unwrap() error { return ErrConfiguration }

// RequiredConfigurationError is returned when one half of a jointly required
// pair (CLIENT_ID / CLIENT_SECRET) is set without the other.
type RequiredConfigurationError struct {
	Field string
}

func (e *RequiredConfigurationError) Error() string {
	return "missing required configuration value: " + e.Field
}

func (e *RequiredConfigurationError) Unwrap() error { return ErrConfiguration }

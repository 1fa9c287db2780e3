package config

import (
	"fmt"
	"strings"
)

// MissingConfigError reports required environment variables that are
// absent or empty. Vars preserves the declaration order of the
// required set, not the order problems were found in.
type MissingConfigError struct {
	Vars []string
}

func (e *MissingConfigError) Error() string {
	if len(e.Vars) == 1 {
		return fmt.Sprintf("required environment variable %s is not set", e.Vars[0])
	}
	return fmt.Sprintf("required environment variables not set: %s", strings.Join(e.Vars, ", "))
}

// InvalidHostnameError reports a HOSTNAME value that failed format
// validation.
type InvalidHostnameError struct {
	Value  string
	Reason string
}

func (e *InvalidHostnameError) Error() string {
	return fmt.Sprintf("invalid hostname %q: %s", e.Value, e.Reason)
}

// InvalidSSLModeError reports a PGSSLMODE value outside the accepted set.
type InvalidSSLModeError struct {
	Value string
}

func (e *InvalidSSLModeError) Error() string {
	return fmt.Sprintf("invalid SSL mode %q: must be one of %s", e.Value, strings.Join(ValidSSLModes, ", "))
}

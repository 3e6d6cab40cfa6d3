package guard

import (
	"errors"
	"fmt"
)

// ErrInvalidRule is wrapped by every ConfigError.
var ErrInvalidRule = errors.New("invalid rule")

// ConfigError reports a rule rejected at registration.
type ConfigError struct {
	Rule    string
	Problem string
}

func (e *ConfigError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("invalid rule: %s", e.Problem)
	}
	return fmt.Sprintf("invalid rule %q: %s", e.Rule, e.Problem)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidRule }

func configErr(rule, format string, args ...any) error {
	return &ConfigError{Rule: rule, Problem: fmt.Sprintf(format, args...)}
}

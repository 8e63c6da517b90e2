package cache

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every ConfigurationError.
var ErrInvalidConfig = errors.New("invalid cache configuration")

// ConfigurationError reports a configuration field that violates the
// geometry or policy constraints. It is only ever returned before a
// Simulator exists.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s = %v %s", ErrInvalidConfig, e.Field, e.Value, e.Reason)
}

// Unwrap allows errors.Is(err, ErrInvalidConfig).
func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfig
}

package nndescent

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is the sentinel wrapped by every construction-time
	// validation failure.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrPointOutOfRange is returned when a point index is not in [0, n).
	ErrPointOutOfRange = errors.New("point out of range")
)

// ErrInvalidConfig reports a rejected construction parameter.
//
// errors.Is(err, ErrInvalidConfiguration) holds for every ErrInvalidConfig.
type ErrInvalidConfig struct {
	Field  string
	Value  any
	Reason string
}

func (e *ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *ErrInvalidConfig) Unwrap() error { return ErrInvalidConfiguration }

func invalidConfig(field string, value any, reason string) error {
	return &ErrInvalidConfig{Field: field, Value: value, Reason: reason}
}

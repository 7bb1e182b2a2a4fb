package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration indicates invalid stage configuration or an unknown
	// method, policy or symbol.
	ErrConfiguration = errors.New("configuration error")

	// ErrClassificationConflict indicates a sub-stage observed with more than
	// one indicator string.
	ErrClassificationConflict = errors.New("classification conflict")

	// ErrEmptyBucket indicates a quasi-cycle closed without any green time.
	ErrEmptyBucket = errors.New("empty cycle bucket")

	// ErrNoGreenSubStage indicates a stage with no sub-stage showing the green symbol.
	ErrNoGreenSubStage = errors.New("no green sub-stage")

	// ErrInsufficientData marks offset opportunities that have too few upcoming
	// intervals. The analyzer reports these as unavailable cells instead of
	// returning it.
	ErrInsufficientData = errors.New("insufficient data")
)

// ConfigError describes which configuration field is invalid.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}

// NewConfigError returns a ConfigError with a formatted reason.
func NewConfigError(field, format string, args ...interface{}) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ConflictError reports the distinct states seen for one sub-stage.
type ConflictError struct {
	SubStageID SubStageID
	States     []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("classification conflict for sub-stage %s: states %s",
		e.SubStageID, strings.Join(e.States, ", "))
}

func (e *ConflictError) Unwrap() error {
	return ErrClassificationConflict
}

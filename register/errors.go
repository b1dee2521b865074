/*
errors.go - Centralized error types for the review engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Outer packages (ingest, store, api) wrap these with context.

ERROR CATEGORIES:
  1. Configuration errors - bad base date, day-count method, policy table
  2. Shape errors - a register handed to the engine under the wrong role
  3. Run history errors - lookups of unknown runs

  Data defects in registers are NEVER errors. They become Findings.

USAGE:
    if errors.Is(err, register.ErrInvalidConfig) {
        writeError(w, http.StatusBadRequest, ...)
    }

SEE ALSO:
  - finding.go: data defects
  - api/handlers.go: maps these to HTTP status codes
*/
package register

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidConfig is returned when a review configuration is unusable.
	ErrInvalidConfig = errors.New("invalid review configuration")

	// ErrUnknownDayCount is returned for an unrecognized day-count method.
	ErrUnknownDayCount = errors.New("unknown day-count method")

	// ErrUnknownPolicy is returned for an unrecognized multiplier policy.
	ErrUnknownPolicy = errors.New("unknown multiplier policy")

	// ErrUnknownRole is returned for an unrecognized register role.
	ErrUnknownRole = errors.New("unknown register role")

	// ErrRegisterShape is returned when a register is placed under a role
	// other than its own. This is a caller bug, not a data defect.
	ErrRegisterShape = errors.New("register shape violation")

	// ErrRunNotFound is returned when a stored review run doesn't exist.
	ErrRunNotFound = errors.New("review run not found")

	// ErrDuplicateRun is returned when a run ID is saved twice. Runs are
	// immutable once stored.
	ErrDuplicateRun = errors.New("duplicate review run")

	// ErrUnknownCategory is returned when a finding category isn't registered.
	ErrUnknownCategory = errors.New("unknown finding category")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigError names the configuration field that failed and why.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
	Err    error // sentinel, defaults to ErrInvalidConfig
}

func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("config %s=%v: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidConfig
}

// Is lets every ConfigError match ErrInvalidConfig as well as its own sentinel.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// NewConfigError builds a ConfigError.
func NewConfigError(field string, value any, reason string) *ConfigError {
	return &ConfigError{Field: field, Value: value, Reason: reason}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error was caused by caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrUnknownDayCount) ||
		errors.Is(err, ErrUnknownPolicy) ||
		errors.Is(err, ErrUnknownRole) ||
		errors.Is(err, ErrRegisterShape)
}

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound) || errors.Is(err, ErrUnknownCategory)
}

package arbiter

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrUnauthorized is returned (wrapped in an *AuthorizationError) when
	// Authorize evaluates a check that does not resolve to true.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidConfig is returned (wrapped in a *ConfigurationError) when
	// Configure receives an unusable entity type or callback.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ConfigurationError reports a rejected Configure call. It is returned
// synchronously and never surfaces during evaluation.
type ConfigurationError struct {
	// EntityType is the type tag the caller tried to register.
	EntityType string
	// Reason explains what was wrong with the registration.
	Reason string
}

// Error returns a human-readable description of the rejected registration.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("arbiter: configure %q: %s", e.EntityType, e.Reason)
}

// Is reports whether this error matches the target error.
// It supports errors.Is(err, ErrInvalidConfig).
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// AuthorizationError is returned by Authorize when the underlying check does
// not resolve to true. It carries the denial classification and the raw
// check result so callers can tell an explicit deny from "no applicable rule".
type AuthorizationError struct {
	// Code is the HTTP-style status code for the denial. Always 401.
	Code int
	// Reason is the machine-readable classification. Always "unauthorized".
	Reason string
	// Action is the action that was denied.
	Action string
	// TargetType is the type tag of the target the action was denied on.
	TargetType string
	// Result is the value the underlying Can check resolved to.
	Result bool
}

// Error returns a human-readable description of the denial.
func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("arbiter: %s: action %q on %q denied", e.Reason, e.Action, e.TargetType)
}

// Is reports whether this error matches the target error.
// It supports errors.Is(err, ErrUnauthorized).
func (e *AuthorizationError) Is(target error) bool {
	return target == ErrUnauthorized
}

// errorf returns a formatted error prefixed with "arbiter:".
func errorf(format string, args ...any) error {
	return fmt.Errorf("arbiter: "+format, args...)
}

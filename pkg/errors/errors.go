// Unified error handling for the olfactometer config generator
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents the category of error
type ErrorCode string

const (
	// Configuration errors
	ErrConfigMissing ErrorCode = "CONFIG_MISSING"
	ErrConfigValue   ErrorCode = "CONFIG_VALUE"
	ErrConfigType    ErrorCode = "CONFIG_TYPE"

	// Hardware / pin-pool errors
	ErrUnsupportedManifold ErrorCode = "UNSUPPORTED_MANIFOLD"
	ErrPinConflict         ErrorCode = "PIN_CONFLICT"

	// Scheduling errors
	ErrInsufficientPins ErrorCode = "INSUFFICIENT_PINS"
	ErrDuplicateOdor    ErrorCode = "DUPLICATE_ODOR"
	ErrDuplicateCO2     ErrorCode = "DUPLICATE_CO2"
	ErrMissingCO2Pin    ErrorCode = "MISSING_CO2_PIN"
	ErrCO2PinInUse      ErrorCode = "CO2_PIN_IN_USE"
	ErrVialLookup       ErrorCode = "VIAL_LOOKUP_MISS"
)

// GenError is the unified error type for schedule generation.
// All fatal configuration errors defined by the generators carry one of the
// ErrorCode categories above; advisory conditions are logged, never errors.
type GenError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Key is the config key or field the error relates to (if applicable)
	Key string

	// Err wraps the underlying error
	Err error
}

// Error implements the error interface
func (e *GenError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Key, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *GenError) Unwrap() error {
	return e.Err
}

// SetKey sets the config key context
func (e *GenError) SetKey(key string) *GenError {
	e.Key = key
	return e
}

// New creates a new GenError
func New(code ErrorCode, message string) *GenError {
	return &GenError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new GenError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *GenError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode, message string) *GenError {
	return &GenError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// HasCode reports whether err (or any error it wraps) is a GenError with the
// given code.
func HasCode(err error, code ErrorCode) bool {
	var ge *GenError
	if stderrors.As(err, &ge) {
		return ge.Code == code
	}
	return false
}

// Config errors

// ConfigMissingError creates an error for a required but absent config key
func ConfigMissingError(key string) *GenError {
	return New(ErrConfigMissing, "must be specified").SetKey(key)
}

// ConfigValueError creates an error for an invalid config value
func ConfigValueError(key, reason string) *GenError {
	return New(ErrConfigValue, reason).SetKey(key)
}

// ConfigTypeError creates an error for a config parse/type failure
func ConfigTypeError(key string, err error) *GenError {
	return Wrap(err, ErrConfigType, err.Error()).SetKey(key)
}

// Hardware errors

// UnsupportedManifoldError creates an error for a hardware topology the
// requested scheduler cannot drive
func UnsupportedManifoldError(reason string) *GenError {
	return New(ErrUnsupportedManifold, reason)
}

// PinConflictError creates an error for a pin appearing in more than one role
func PinConflictError(pin int, reason string) *GenError {
	return Newf(ErrPinConflict, "pin %d: %s", pin, reason)
}

// Scheduling errors

// InsufficientPinsError creates an error for a pool too small for its odors
func InsufficientPinsError(needed, available int) *GenError {
	return Newf(ErrInsufficientPins,
		"%d valve pins required but only %d available", needed, available)
}

// DuplicateOdorError creates an error for a repeated odor name within a pair
func DuplicateOdorError(name string) *GenError {
	return Newf(ErrDuplicateOdor, "odor '%s' appears on both streams of a pair", name)
}

// DuplicateCO2Error creates an error for more than one CO2 entry; only a
// single co2_pin exists, so this configuration is unsupported
func DuplicateCO2Error(n int) *GenError {
	return Newf(ErrDuplicateCO2, "%d CO2 entries declared but only one is supported", n)
}

// MissingCO2PinError creates an error for a CO2 odor without a co2_pin
func MissingCO2PinError() *GenError {
	return New(ErrMissingCO2Pin, "a CO2 odor is declared but no co2_pin is configured").
		SetKey("co2_pin")
}

// CO2PinInUseError creates an error for a co2_pin already scheduled before
// compensation rewiring ran
func CO2PinInUseError(pin int) *GenError {
	return Newf(ErrCO2PinInUse, "co2_pin %d already appears in the trial list", pin)
}

// VialLookupError creates an error for a concentration with no wired vial
func VialLookupError(name, conc string) *GenError {
	return Newf(ErrVialLookup, "no vial wired for odor '%s' at %s", name, conc)
}

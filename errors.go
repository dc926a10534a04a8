package spot

import (
	"errors"
	"fmt"
)

// Sentinel errors. The typed errors below unwrap to these so callers can
// use errors.Is without depending on the concrete type.
var (
	ErrUnsupportedOperator = errors.New("unsupported operator")
	ErrParameterMismatch   = errors.New("parameter count mismatch")
	ErrDuplicateOperator   = errors.New("operator already registered")
	ErrDuplicateMethod     = errors.New("method already exists")
	ErrUnknownMethod       = errors.New("unknown method")
	ErrDeprecatedUsage     = errors.New("deprecated usage")
	ErrInvalidValue        = errors.New("invalid operator value")
	ErrInvalidDirection    = errors.New("invalid sort direction")
	ErrInvalidJoiner       = errors.New("invalid condition joiner")
	ErrUnknownPlatform     = errors.New("unknown database platform")
	ErrNoConnection        = errors.New("no database connection")
	ErrNoResolver          = errors.New("no resolver configured")
	ErrInvalidArgument     = errors.New("invalid method argument")
	ErrIndexOutOfRange     = errors.New("result index out of range")
)

// UnsupportedOperatorError is returned when a condition key names an operator
// token that is not in the registry.
type UnsupportedOperatorError struct {
	Operator string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("unsupported operator %q in condition: register it with OperatorRegistry.Register(%q, fn) to use a custom operator", e.Operator, e.Operator)
}

func (e *UnsupportedOperatorError) Unwrap() error { return ErrUnsupportedOperator }

// ParameterMismatchError is returned by WhereFieldSQL when the number of
// placeholders does not match the number of supplied parameters.
type ParameterMismatchError struct {
	Placeholders int
	Params       int
}

func (e *ParameterMismatchError) Error() string {
	return fmt.Sprintf("number of supplied parameters (%d) does not match the number of provided placeholders (%d)", e.Params, e.Placeholders)
}

func (e *ParameterMismatchError) Unwrap() error { return ErrParameterMismatch }

// DuplicateOperatorError is returned when an operator token is registered twice.
type DuplicateOperatorError struct {
	Operator string
}

func (e *DuplicateOperatorError) Error() string {
	return fmt.Sprintf("where operator %q already exists", e.Operator)
}

func (e *DuplicateOperatorError) Unwrap() error { return ErrDuplicateOperator }

// DuplicateMethodError is returned when a custom method collides with a
// built-in Query method or a previously registered custom method.
type DuplicateMethodError struct {
	Method  string
	Builtin bool
}

func (e *DuplicateMethodError) Error() string {
	if e.Builtin {
		return fmt.Sprintf("method %q already exists on Query", e.Method)
	}
	return fmt.Sprintf("custom method %q already registered", e.Method)
}

func (e *DuplicateMethodError) Unwrap() error { return ErrDuplicateMethod }

// UnknownMethodError is returned when dispatch exhausts custom methods,
// scopes and result-set methods.
type UnknownMethodError struct {
	Method string
	Entity string
	Cause  error // set when executing the query for result-set lookup failed
}

func (e *UnknownMethodError) Error() string {
	msg := fmt.Sprintf("method %q not found: not a custom method, a scope on %s, or a result-set method", e.Method, e.Entity)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *UnknownMethodError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrUnknownMethod, e.Cause}
	}
	return []error{ErrUnknownMethod}
}

// DeprecatedUsageError is returned for calling conventions that are no
// longer supported. It fails loudly instead of producing wrong SQL.
type DeprecatedUsageError struct {
	Usage       string
	Replacement string
}

func (e *DeprecatedUsageError) Error() string {
	return fmt.Sprintf("%s is no longer supported: %s", e.Usage, e.Replacement)
}

func (e *DeprecatedUsageError) Unwrap() error { return ErrDeprecatedUsage }

// InvalidValueError is returned when an operator receives a value it cannot bind.
type InvalidValueError struct {
	Operator string
	Column   string
	Reason   string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("operator %s on %s: %s", e.Operator, e.Column, e.Reason)
}

func (e *InvalidValueError) Unwrap() error { return ErrInvalidValue }

// DriverError carries a normalized database driver error code.
type DriverError struct {
	Code    uint16
	Message string
	Err     error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("driver error %d: %s", e.Code, e.Message)
}

func (e *DriverError) Unwrap() error { return e.Err }

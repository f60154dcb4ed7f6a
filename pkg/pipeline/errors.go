package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorClass classifies pipeline errors so tooling can tell a typo in a unit
// name apart from bad settings or a broken unit.
type ErrorClass string

const (
	// ErrorClassConfiguration marks a unit configuration that failed
	// validation, or a malformed pipeline document.
	ErrorClassConfiguration ErrorClass = "configuration"

	// ErrorClassUnknownUnit marks a unit name that does not resolve against
	// the catalogue.
	ErrorClassUnknownUnit ErrorClass = "unknown_unit"

	// ErrorClassUnit marks a failure raised by a unit lifecycle hook.
	ErrorClassUnit ErrorClass = "unit"

	// ErrorClassInternal marks a catalogue or kind registration bug.
	ErrorClassInternal ErrorClass = "internal"
)

// Common error codes.
const (
	ErrCodeInvalidConfiguration  = "INVALID_CONFIGURATION"
	ErrCodeInvalidDocument       = "INVALID_DOCUMENT"
	ErrCodeInvalidBuilderContext = "INVALID_BUILDER_CONTEXT"
	ErrCodeUnknownUnit           = "UNKNOWN_UNIT"
	ErrCodeHookFailed            = "HOOK_FAILED"
	ErrCodeHookPanicked          = "HOOK_PANICKED"
	ErrCodeUnknownKind           = "UNKNOWN_KIND"
	ErrCodeKindMismatch          = "KIND_MISMATCH"
	ErrCodeDuplicateUnit         = "DUPLICATE_UNIT"
)

// Error is a classified pipeline error carrying the offending unit and the
// configuration payload verbatim, so a pipeline file can be fixed without
// source access.
type Error struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Unit is the name of the offending unit, if any.
	Unit string `json:"unit,omitempty"`

	// Kind is the kind of the offending unit, if known.
	Kind Kind `json:"kind,omitempty"`

	// Hook is the lifecycle hook that failed (pre_run, post_run, post_run_report).
	Hook string `json:"hook,omitempty"`

	// Configuration is the configuration supplied for the unit, verbatim.
	Configuration Configuration `json:"configuration,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Class, e.Message)

	var ctx []string
	if e.Unit != "" {
		ctx = append(ctx, "unit="+e.Unit)
	}
	if e.Kind != "" {
		ctx = append(ctx, "kind="+string(e.Kind))
	}
	if e.Hook != "" {
		ctx = append(ctx, "hook="+e.Hook)
	}
	if e.Configuration != nil {
		ctx = append(ctx, fmt.Sprintf("configuration=%v", map[string]any(e.Configuration)))
	}
	if len(ctx) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(ctx, ", "))
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// NewConfigurationError creates a configuration error for a unit.
func NewConfigurationError(unit string, configuration Configuration, err error) *Error {
	return &Error{
		Class:         ErrorClassConfiguration,
		Message:       "invalid unit configuration",
		Code:          ErrCodeInvalidConfiguration,
		Unit:          unit,
		Configuration: configuration,
		Err:           err,
	}
}

// NewUnknownUnitError creates an error for a unit name missing from the
// catalogue.
func NewUnknownUnitError(unit string) *Error {
	return &Error{
		Class:   ErrorClassUnknownUnit,
		Message: "unit not found in catalogue",
		Code:    ErrCodeUnknownUnit,
		Unit:    unit,
	}
}

// NewUnitError wraps a failure raised by a unit lifecycle hook.
func NewUnitError(unit string, kind Kind, hook string, err error) *Error {
	return &Error{
		Class:   ErrorClassUnit,
		Message: "unit hook failed",
		Code:    ErrCodeHookFailed,
		Unit:    unit,
		Kind:    kind,
		Hook:    hook,
		Err:     err,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(message string, err error) *Error {
	return &Error{
		Class:   ErrorClassInternal,
		Message: message,
		Err:     err,
	}
}

// WithCode sets the error code.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// WithUnit sets the offending unit name and kind.
func (e *Error) WithUnit(name string, kind Kind) *Error {
	e.Unit = name
	e.Kind = kind
	return e
}

// WithKind sets the offending unit kind.
func (e *Error) WithKind(kind Kind) *Error {
	e.Kind = kind
	return e
}

// IsConfigurationError returns true if the error is a configuration error.
func IsConfigurationError(err error) bool {
	return hasClass(err, ErrorClassConfiguration)
}

// IsUnknownUnit returns true if the error reports an unknown unit name.
func IsUnknownUnit(err error) bool {
	return hasClass(err, ErrorClassUnknownUnit)
}

// IsUnitError returns true if the error was raised by a unit hook.
func IsUnitError(err error) bool {
	return hasClass(err, ErrorClassUnit)
}

// IsInternal returns true if the error is an internal error.
func IsInternal(err error) bool {
	return hasClass(err, ErrorClassInternal)
}

func hasClass(err error, class ErrorClass) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == class
	}
	return false
}

// ErrNotAcceptable is returned by Config.Run when a boot rejects the run. It
// is control flow, not a fault.
var ErrNotAcceptable = errors.New("not acceptable")

// ErrContextReleased is the panic value raised when a run context is read
// after it was released.
var ErrContextReleased = errors.New("run context accessed after release")

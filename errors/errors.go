package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where a boundary call or generation run failed
type Phase string

const (
	PhaseLower    Phase = "lower"    // Go value to flat/linear memory
	PhaseLift     Phase = "lift"     // flat/linear memory to Go value
	PhaseCall     Phase = "call"     // crossing the boundary
	PhaseHost     Phase = "host"     // host-side implementation
	PhaseGuest    Phase = "guest"    // guest synthesis and instantiation
	PhaseState    Phase = "state"    // scalar register checks
	PhaseParse    Phase = "parse"    // interface-definition reading
	PhaseGenerate Phase = "generate" // external binding generator
	PhaseConfig   Phase = "config"   // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	// KindRangeViolation: a value outside its kind's representable domain was
	// about to cross the boundary.
	KindRangeViolation Kind = "range_violation"
	// KindEncodingMismatch: the receiving side cannot decode the wire form.
	KindEncodingMismatch Kind = "encoding_mismatch"
	// KindStateVisibility: a read did not observe the most recent write.
	KindStateVisibility Kind = "state_visibility"

	KindTypeMismatch   Kind = "type_mismatch"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindAllocation     Kind = "allocation"
	KindUnsupported    Kind = "unsupported"
	KindNotFound       Kind = "not_found"
	KindInvalidInput   Kind = "invalid_input"
	KindExpectation    Kind = "expectation"
	KindInstantiation  Kind = "instantiation"
	KindTrap           Kind = "trap"
	KindTimeout        Kind = "timeout"
	KindProcess        Kind = "process"
	KindNoOutput       Kind = "no_output"
	KindInvalidConfig  Kind = "invalid_config"
	KindNotInitialized Kind = "not_initialized"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	GoType  string
	WitType string
	Detail  string
	Path    []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	typed := e.GoType != "" || e.WitType != ""
	if typed {
		b.WriteString(": ")
		switch {
		case e.GoType != "" && e.WitType != "":
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", WIT type ")
			b.WriteString(e.WitType)
		case e.GoType != "":
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		default:
			b.WriteString("WIT type ")
			b.WriteString(e.WitType)
		}
	}

	if e.Detail != "" {
		if typed {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target with an empty
// Phase matches any phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Phase == "" || t.Phase == e.Phase
}

// Fatal reports whether the kind must fail the current test run outright.
// Every kind is fatal at the marshaling layer; the distinction exists for
// callers that want to classify generator failures separately.
func (e *Error) Fatal() bool {
	switch e.Kind {
	case KindTimeout, KindProcess, KindNoOutput, KindInvalidConfig:
		return false
	default:
		return true
	}
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// WitType sets the WIT type name
func (b *Builder) WitType(t string) *Builder {
	b.err.WitType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Sentinels for errors.Is matching regardless of phase.
var (
	ErrRangeViolation   = &Error{Kind: KindRangeViolation}
	ErrEncodingMismatch = &Error{Kind: KindEncodingMismatch}
	ErrStateVisibility  = &Error{Kind: KindStateVisibility}
	ErrExpectation      = &Error{Kind: KindExpectation}
	ErrTimeout          = &Error{Kind: KindTimeout}
)

// RangeViolation reports a value outside the representable domain of witType
func RangeViolation(phase Phase, path []string, value any, witType string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindRangeViolation,
		Path:    path,
		WitType: witType,
		Detail:  fmt.Sprintf("value %v is not a valid %s", value, witType),
		Value:   value,
	}
}

// InvalidChar reports a code point that is not a Unicode scalar value
func InvalidChar(phase Phase, path []string, r uint32) *Error {
	kind := KindRangeViolation
	if phase == PhaseLift {
		kind = KindEncodingMismatch
	}
	return &Error{
		Phase:   phase,
		Kind:    kind,
		Path:    path,
		WitType: "char",
		Detail:  fmt.Sprintf("invalid Unicode scalar value: 0x%X", r),
		Value:   r,
	}
}

// InvalidUTF8 reports bytes that are not well-formed UTF-8
func InvalidUTF8(phase Phase, path []string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:   phase,
		Kind:    KindEncodingMismatch,
		Path:    path,
		WitType: "string",
		Detail:  fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// UnpairedSurrogate reports a UTF-16 code unit sequence with a lone surrogate
func UnpairedSurrogate(phase Phase, path []string, index int, unit uint16) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindEncodingMismatch,
		Path:    path,
		WitType: "string",
		Detail:  fmt.Sprintf("unpaired surrogate 0x%04X at code unit %d", unit, index),
		Value:   unit,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, witType string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindTypeMismatch,
		Path:    path,
		GoType:  goType,
		WitType: witType,
	}
}

// OutOfBounds reports a linear memory access outside the guest memory
func OutOfBounds(phase Phase, path []string, offset, length uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("memory access out of bounds: offset=%d, length=%d", offset, length),
		Value:  offset,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size, align uint32, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
		Cause:  cause,
	}
}

// StateMismatch reports a scalar register read that missed the latest write
func StateMismatch(path []string, want, got uint32) *Error {
	return &Error{
		Phase:   PhaseState,
		Kind:    KindStateVisibility,
		Path:    path,
		WitType: "u32",
		Detail:  fmt.Sprintf("read %d, most recent write was %d", got, want),
		Value:   got,
	}
}

// Expectation reports an implementing side that received an unexpected value
func Expectation(path []string, want, got any) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindExpectation,
		Path:   path,
		Detail: fmt.Sprintf("expected %v, got %v", want, got),
		Value:  got,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// Instantiation creates an instantiation error
func Instantiation(phase Phase, what string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInstantiation,
		Detail: "instantiate " + what,
		Cause:  cause,
	}
}

// Trap wraps an error raised while executing guest code
func Trap(path []string, cause error) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindTrap,
		Path:   path,
		Detail: "guest trapped",
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

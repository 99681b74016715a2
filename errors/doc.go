// Package errors provides structured error types for boundary calls.
//
// Errors carry a Phase (lower, lift, call, host, state, ...) and a Kind. Three
// kinds form the failure taxonomy of the marshaling core:
//
//   - KindRangeViolation: a value outside its kind's domain was about to be sent
//   - KindEncodingMismatch: the receiver could not decode what it was handed
//   - KindStateVisibility: a scalar register read missed the latest write
//
// Use the Builder for structured construction:
//
//	err := errors.New(errors.PhaseLower, errors.KindRangeViolation).
//		Path("roundtrip-char", "a").
//		WitType("char").
//		Detail("surrogate code point 0x%X", 0xD800).
//		Build()
//
// Sentinels such as ErrRangeViolation match any phase with errors.Is.
package errors

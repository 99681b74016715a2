// Package canon implements the canonical ABI rules for the primitive WIT
// kinds and strings.
//
// Lowering turns a Go value into flat core values (uint64 slots as used by
// wazero) or into bytes in guest linear memory; lifting is the inverse.
// Go representations per kind:
//
//	bool    bool
//	u8..u64 uint8, uint16, uint32, uint64
//	s8..s64 int8, int16, int32, int64
//	f32     float32
//	f64     float64
//	char    rune
//	string  string
//
// Floats are NaN-canonicalised on lower and lift. A char outside the Unicode
// scalar value range is a range violation on lower and an encoding mismatch
// on lift. Strings are validated in both directions.
package canon

package canon

import (
	"math"

	"github.com/tetratelabs/wazero/api"

	"github.com/Nor2-io/wit-bindgen-yowl/errors"
	"github.com/Nor2-io/wit-bindgen-yowl/kind"
)

// ValidChar reports whether cp is a Unicode scalar value.
func ValidChar(cp uint32) bool {
	return cp <= 0x10FFFF && (cp < 0xD800 || cp > 0xDFFF)
}

// LowerScalar coerces value to k and returns its single flat core value.
func LowerScalar(k kind.Kind, value any, path []string) (uint64, error) {
	if !k.IsPrimitive() {
		return 0, errors.TypeMismatch(errors.PhaseLower, path, goTypeName(value), k.String())
	}
	v, err := Coerce(k, value, path)
	if err != nil {
		return 0, err
	}
	return flatten(k, v), nil
}

// flatten expects v to already be the canonical Go type of k.
func flatten(k kind.Kind, v any) uint64 {
	switch k {
	case kind.Bool:
		if v.(bool) {
			return 1
		}
		return 0
	case kind.U8:
		return uint64(v.(uint8))
	case kind.S8:
		return api.EncodeI32(int32(v.(int8)))
	case kind.U16:
		return uint64(v.(uint16))
	case kind.S16:
		return api.EncodeI32(int32(v.(int16)))
	case kind.U32:
		return api.EncodeU32(v.(uint32))
	case kind.S32:
		return api.EncodeI32(v.(int32))
	case kind.U64:
		return v.(uint64)
	case kind.S64:
		return api.EncodeI64(v.(int64))
	case kind.F32:
		return uint64(CanonicalizeF32(math.Float32bits(v.(float32))))
	case kind.F64:
		return CanonicalizeF64(math.Float64bits(v.(float64)))
	case kind.Char:
		return uint64(uint32(v.(rune)))
	}
	return 0
}

// LiftScalar converts a flat core value back to the canonical Go type of k.
// Integers narrower than the core type are truncated (unsigned) or sign
// extended from their low bits (signed).
func LiftScalar(k kind.Kind, flat uint64, path []string) (any, error) {
	switch k {
	case kind.Bool:
		return uint32(flat) != 0, nil
	case kind.U8:
		return uint8(flat), nil
	case kind.S8:
		return int8(flat), nil
	case kind.U16:
		return uint16(flat), nil
	case kind.S16:
		return int16(flat), nil
	case kind.U32:
		return uint32(flat), nil
	case kind.S32:
		return int32(flat), nil
	case kind.U64:
		return flat, nil
	case kind.S64:
		return int64(flat), nil
	case kind.F32:
		return math.Float32frombits(CanonicalizeF32(uint32(flat))), nil
	case kind.F64:
		return math.Float64frombits(CanonicalizeF64(flat)), nil
	case kind.Char:
		cp := uint32(flat)
		if !ValidChar(cp) {
			return nil, errors.InvalidChar(errors.PhaseLift, path, cp)
		}
		return rune(cp), nil
	}
	return nil, errors.Unsupported(errors.PhaseLift, "flat lift of "+k.String())
}

// Equal compares two canonical values of kind k. Floats compare NaN-aware.
func Equal(k kind.Kind, a, b any) bool {
	switch k {
	case kind.F32:
		x, ok1 := a.(float32)
		y, ok2 := b.(float32)
		return ok1 && ok2 && EqualF32(x, y)
	case kind.F64:
		x, ok1 := a.(float64)
		y, ok2 := b.(float64)
		return ok1 && ok2 && EqualF64(x, y)
	}
	return a == b
}

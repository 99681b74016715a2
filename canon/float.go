package canon

import "math"

const (
	canonicalNaN32 = uint32(0x7fc00000)
	canonicalNaN64 = uint64(0x7ff8000000000000)
)

// CanonicalizeF32 maps every NaN bit pattern to the canonical quiet NaN.
func CanonicalizeF32(bits uint32) uint32 {
	if bits&0x7f800000 == 0x7f800000 && bits&0x007fffff != 0 {
		return canonicalNaN32
	}
	return bits
}

// CanonicalizeF64 maps every NaN bit pattern to the canonical quiet NaN.
func CanonicalizeF64(bits uint64) uint64 {
	if bits&0x7ff0000000000000 == 0x7ff0000000000000 && bits&0x000fffffffffffff != 0 {
		return canonicalNaN64
	}
	return bits
}

// EqualF32 compares bit patterns, except that any NaN equals any NaN.
func EqualF32(a, b float32) bool {
	if a != a && b != b {
		return true
	}
	return math.Float32bits(a) == math.Float32bits(b)
}

// EqualF64 compares bit patterns, except that any NaN equals any NaN.
func EqualF64(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Float64bits(a) == math.Float64bits(b)
}

package canon

import (
	"fmt"
	"math"

	"github.com/Nor2-io/wit-bindgen-yowl/errors"
	"github.com/Nor2-io/wit-bindgen-yowl/kind"
)

// Coerce converts a dynamic Go value into the canonical Go type of k.
// Integer inputs of any width are accepted when they fit; values that do not
// fit are a range violation. Whole float64 values are accepted for integer
// kinds so that decoded JSON and parsed CLI input can be passed through.
func Coerce(k kind.Kind, value any, path []string) (any, error) {
	switch k {
	case kind.Bool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
	case kind.U8, kind.U16, kind.U32, kind.U64:
		u, ok, neg := toUint64(value)
		if neg {
			return nil, errors.RangeViolation(errors.PhaseLower, path, value, k.String())
		}
		if !ok {
			break
		}
		if k.Bits() < 64 && u > uint64(1)<<k.Bits()-1 {
			return nil, errors.RangeViolation(errors.PhaseLower, path, value, k.String())
		}
		switch k {
		case kind.U8:
			return uint8(u), nil
		case kind.U16:
			return uint16(u), nil
		case kind.U32:
			return uint32(u), nil
		default:
			return u, nil
		}
	case kind.S8, kind.S16, kind.S32, kind.S64:
		i, ok, overflow := toInt64(value)
		if overflow {
			return nil, errors.RangeViolation(errors.PhaseLower, path, value, k.String())
		}
		if !ok {
			break
		}
		if k.Bits() < 64 {
			lim := int64(1) << (k.Bits() - 1)
			if i < -lim || i > lim-1 {
				return nil, errors.RangeViolation(errors.PhaseLower, path, value, k.String())
			}
		}
		switch k {
		case kind.S8:
			return int8(i), nil
		case kind.S16:
			return int16(i), nil
		case kind.S32:
			return int32(i), nil
		default:
			return i, nil
		}
	case kind.F32:
		switch v := value.(type) {
		case float32:
			return v, nil
		case float64:
			if !math.IsNaN(v) && !math.IsInf(v, 0) && math.Abs(v) > math.MaxFloat32 {
				return nil, errors.RangeViolation(errors.PhaseLower, path, value, k.String())
			}
			return float32(v), nil
		}
		if i, ok, _ := toInt64(value); ok {
			return float32(i), nil
		}
	case kind.F64:
		switch v := value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		}
		if i, ok, _ := toInt64(value); ok {
			return float64(i), nil
		}
	case kind.Char:
		var cp int64
		switch v := value.(type) {
		case rune:
			cp = int64(v)
		case uint32:
			cp = int64(v)
		case string:
			r := []rune(v)
			if len(r) != 1 {
				return nil, errors.New(errors.PhaseLower, errors.KindTypeMismatch).
					Path(path...).GoType("string").WitType("char").
					Detail("expected exactly one character, got %d", len(r)).
					Build()
			}
			cp = int64(r[0])
		default:
			i, ok, _ := toInt64(value)
			if !ok {
				return nil, errors.TypeMismatch(errors.PhaseLower, path, goTypeName(value), "char")
			}
			cp = i
		}
		if cp < 0 || cp > math.MaxUint32 || !ValidChar(uint32(cp)) {
			return nil, errors.InvalidChar(errors.PhaseLower, path, uint32(cp))
		}
		return rune(cp), nil
	case kind.String:
		switch v := value.(type) {
		case string:
			return v, nil
		case []byte:
			return string(v), nil
		}
	default:
		return nil, errors.Unsupported(errors.PhaseLower, fmt.Sprintf("kind %d", k))
	}
	return nil, errors.TypeMismatch(errors.PhaseLower, path, goTypeName(value), k.String())
}

// toUint64 reports ok for integer-valued inputs; neg is set for negative ones.
func toUint64(value any) (u uint64, ok bool, neg bool) {
	switch v := value.(type) {
	case uint8:
		return uint64(v), true, false
	case uint16:
		return uint64(v), true, false
	case uint32:
		return uint64(v), true, false
	case uint64:
		return v, true, false
	case uint:
		return uint64(v), true, false
	case int8, int16, int32, int64, int:
		i, _, _ := toInt64(v)
		if i < 0 {
			return 0, false, true
		}
		return uint64(i), true, false
	case float64:
		if v < 0 {
			return 0, false, v == math.Trunc(v)
		}
		if v == math.Trunc(v) && v < float64(math.MaxUint64) {
			return uint64(v), true, false
		}
	case float32:
		return toUint64(float64(v))
	}
	return 0, false, false
}

// toInt64 reports ok for integer-valued inputs; overflow is set for integers
// outside the int64 range.
func toInt64(value any) (i int64, ok bool, overflow bool) {
	switch v := value.(type) {
	case int8:
		return int64(v), true, false
	case int16:
		return int64(v), true, false
	case int32:
		return int64(v), true, false
	case int64:
		return v, true, false
	case int:
		return int64(v), true, false
	case uint8:
		return int64(v), true, false
	case uint16:
		return int64(v), true, false
	case uint32:
		return int64(v), true, false
	case uint64:
		if v > math.MaxInt64 {
			return 0, false, true
		}
		return int64(v), true, false
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, false, true
		}
		return int64(v), true, false
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, false, false
		}
		if v < float64(math.MinInt64) || v >= float64(math.MaxInt64) {
			return 0, false, true
		}
		return int64(v), true, false
	case float32:
		return toInt64(float64(v))
	}
	return 0, false, false
}

func goTypeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}

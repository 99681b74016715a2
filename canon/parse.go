package canon

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Nor2-io/wit-bindgen-yowl/errors"
	"github.com/Nor2-io/wit-bindgen-yowl/kind"
)

// ParseValue parses text typed at a prompt or on a command line into the
// canonical Go value of k. Integers accept any base strconv understands.
// Floats accept "nan", "inf", "+inf" and "-inf". A char is either a single
// character or a code point written as U+XXXX.
func ParseValue(k kind.Kind, text string, path []string) (any, error) {
	switch {
	case k == kind.String:
		return text, nil
	case k == kind.Bool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, parseError(k, text, path, err)
		}
		return b, nil
	case k == kind.Char:
		if upper := strings.ToUpper(text); strings.HasPrefix(upper, "U+") {
			cp, err := strconv.ParseUint(text[2:], 16, 32)
			if err != nil {
				return nil, parseError(k, text, path, err)
			}
			return Coerce(k, uint32(cp), path)
		}
		if utf8.RuneCountInString(text) != 1 {
			return nil, parseError(k, text, path, nil)
		}
		return Coerce(k, text, path)
	case k.IsFloat():
		f, err := strconv.ParseFloat(text, k.Bits())
		if err != nil {
			var numErr *strconv.NumError
			if !asNumError(err, &numErr) || numErr.Err != strconv.ErrRange {
				return nil, parseError(k, text, path, err)
			}
			return nil, errors.RangeViolation(errors.PhaseLower, path, text, k.String())
		}
		if k == kind.F32 {
			if math.IsNaN(f) {
				return float32(math.NaN()), nil
			}
			return float32(f), nil
		}
		return f, nil
	case k.IsInteger() && k.IsSigned():
		i, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return nil, integerError(k, text, path, err)
		}
		return Coerce(k, i, path)
	case k.IsInteger():
		if strings.HasPrefix(text, "-") {
			return nil, errors.RangeViolation(errors.PhaseLower, path, text, k.String())
		}
		u, err := strconv.ParseUint(text, 0, 64)
		if err != nil {
			return nil, integerError(k, text, path, err)
		}
		return Coerce(k, u, path)
	}
	return nil, errors.Unsupported(errors.PhaseLower, "parse "+k.String())
}

func integerError(k kind.Kind, text string, path []string, err error) error {
	var numErr *strconv.NumError
	if asNumError(err, &numErr) && numErr.Err == strconv.ErrRange {
		return errors.RangeViolation(errors.PhaseLower, path, text, k.String())
	}
	return parseError(k, text, path, err)
}

func asNumError(err error, target **strconv.NumError) bool {
	ne, ok := err.(*strconv.NumError)
	if ok {
		*target = ne
	}
	return ok
}

func parseError(k kind.Kind, text string, path []string, cause error) error {
	return errors.New(errors.PhaseLower, errors.KindInvalidInput).
		Path(path...).
		WitType(k.String()).
		Value(text).
		Cause(cause).
		Detail("cannot parse %q", text).
		Build()
}

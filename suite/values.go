package suite

import (
	"fmt"
	"math"

	"github.com/Nor2-io/wit-bindgen-yowl/iface"
	"github.com/Nor2-io/wit-bindgen-yowl/kind"
)

// Case is one roundtrip input.
type Case struct {
	Value any
	Name  string
	Kind  kind.Kind
}

// Func is the numbers function that roundtrips the case's kind.
func (c Case) Func() string {
	return "roundtrip-" + c.Kind.String()
}

func (c Case) String() string {
	return c.Kind.String() + "/" + c.Name
}

// IntegerCases returns 0, max and 1 for every integer kind and min for the
// signed ones.
func IntegerCases() []Case {
	return []Case{
		{Kind: kind.U8, Name: "0", Value: uint8(0)},
		{Kind: kind.U8, Name: "max", Value: uint8(math.MaxUint8)},
		{Kind: kind.U8, Name: "1", Value: uint8(1)},
		{Kind: kind.S8, Name: "0", Value: int8(0)},
		{Kind: kind.S8, Name: "min", Value: int8(math.MinInt8)},
		{Kind: kind.S8, Name: "max", Value: int8(math.MaxInt8)},
		{Kind: kind.S8, Name: "1", Value: int8(1)},
		{Kind: kind.U16, Name: "0", Value: uint16(0)},
		{Kind: kind.U16, Name: "max", Value: uint16(math.MaxUint16)},
		{Kind: kind.U16, Name: "1", Value: uint16(1)},
		{Kind: kind.S16, Name: "0", Value: int16(0)},
		{Kind: kind.S16, Name: "min", Value: int16(math.MinInt16)},
		{Kind: kind.S16, Name: "max", Value: int16(math.MaxInt16)},
		{Kind: kind.S16, Name: "1", Value: int16(1)},
		{Kind: kind.U32, Name: "0", Value: uint32(0)},
		{Kind: kind.U32, Name: "max", Value: uint32(math.MaxUint32)},
		{Kind: kind.U32, Name: "1", Value: uint32(1)},
		{Kind: kind.S32, Name: "0", Value: int32(0)},
		{Kind: kind.S32, Name: "min", Value: int32(math.MinInt32)},
		{Kind: kind.S32, Name: "max", Value: int32(math.MaxInt32)},
		{Kind: kind.S32, Name: "1", Value: int32(1)},
		{Kind: kind.U64, Name: "0", Value: uint64(0)},
		{Kind: kind.U64, Name: "max", Value: uint64(math.MaxUint64)},
		{Kind: kind.U64, Name: "1", Value: uint64(1)},
		{Kind: kind.S64, Name: "0", Value: int64(0)},
		{Kind: kind.S64, Name: "min", Value: int64(math.MinInt64)},
		{Kind: kind.S64, Name: "max", Value: int64(math.MaxInt64)},
		{Kind: kind.S64, Name: "1", Value: int64(1)},
	}
}

// FloatCases returns 1.0, +inf, -inf and NaN for both float kinds.
func FloatCases() []Case {
	var out []Case
	for _, v := range []struct {
		name string
		f    float64
	}{
		{"1.0", 1.0},
		{"+inf", math.Inf(1)},
		{"-inf", math.Inf(-1)},
		{"nan", math.NaN()},
	} {
		out = append(out,
			Case{Kind: kind.F32, Name: v.name, Value: float32(v.f)},
			Case{Kind: kind.F64, Name: v.name, Value: v.f},
		)
	}
	return out
}

// CharCases returns an ASCII letter, a space and a code point outside the
// basic multilingual plane.
func CharCases() []Case {
	return []Case{
		{Kind: kind.Char, Name: "letter", Value: 'a'},
		{Kind: kind.Char, Name: "space", Value: ' '},
		{Kind: kind.Char, Name: "U+1F6A9", Value: '\U0001F6A9'},
	}
}

// PrimitiveCases is every integer, float and char case.
func PrimitiveCases() []Case {
	out := IntegerCases()
	out = append(out, FloatCases()...)
	return append(out, CharCases()...)
}

// TextCase is one text roundtrip input.
type TextCase struct {
	Name  string
	Value string
}

// TextCases covers empty, ASCII, single-unit non-ASCII and supplementary
// plane text.
func TextCases() []TextCase {
	return []TextCase{
		{Name: "empty", Value: ""},
		{Name: "ascii", Value: "x"},
		{Name: "basic", Value: iface.BasicText},
		{Name: "latin1", Value: "ÿé ñ"},
		{Name: "bmp", Value: "Привет, κόσμε"},
		{Name: "mixed", Value: iface.UnicodeText},
	}
}

func (c TextCase) String() string {
	return fmt.Sprintf("string/%s", c.Name)
}

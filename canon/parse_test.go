package canon

import (
	"errors"
	"math"
	"testing"

	yerrors "github.com/Nor2-io/wit-bindgen-yowl/errors"
	"github.com/Nor2-io/wit-bindgen-yowl/kind"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		kind kind.Kind
		text string
		want any
	}{
		{kind.U8, "255", uint8(255)},
		{kind.U16, "0xffff", uint16(math.MaxUint16)},
		{kind.S8, "-128", int8(math.MinInt8)},
		{kind.S64, "-9223372036854775808", int64(math.MinInt64)},
		{kind.U64, "18446744073709551615", uint64(math.MaxUint64)},
		{kind.F32, "1.5", float32(1.5)},
		{kind.F64, "-inf", math.Inf(-1)},
		{kind.Char, "a", 'a'},
		{kind.Char, "U+1F6A9", '\U0001F6A9'},
		{kind.Char, "🚩", '\U0001F6A9'},
		{kind.String, "latin utf16", "latin utf16"},
		{kind.Bool, "true", true},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String()+"/"+tt.text, func(t *testing.T) {
			got, err := ParseValue(tt.kind, tt.text, nil)
			if err != nil {
				t.Fatalf("ParseValue: %v", err)
			}
			if !Equal(tt.kind, got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseValueNaN(t *testing.T) {
	got, err := ParseValue(kind.F32, "nan", nil)
	if err != nil {
		t.Fatal(err)
	}
	if f, ok := got.(float32); !ok || !math.IsNaN(float64(f)) {
		t.Errorf("got %#v, want float32 NaN", got)
	}
}

func TestParseValueErrors(t *testing.T) {
	invalid := &yerrors.Error{Kind: yerrors.KindInvalidInput}
	tests := []struct {
		kind kind.Kind
		text string
		want error
	}{
		{kind.U8, "256", yerrors.ErrRangeViolation},
		{kind.U32, "-1", yerrors.ErrRangeViolation},
		{kind.S64, "9223372036854775808", yerrors.ErrRangeViolation},
		{kind.F32, "1e39", yerrors.ErrRangeViolation},
		{kind.Char, "U+D800", yerrors.ErrRangeViolation},
		{kind.Char, "U+110000", yerrors.ErrRangeViolation},
		{kind.U8, "abc", invalid},
		{kind.Char, "ab", invalid},
		{kind.Char, "", invalid},
		{kind.F64, "one", invalid},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String()+"/"+tt.text, func(t *testing.T) {
			_, err := ParseValue(tt.kind, tt.text, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

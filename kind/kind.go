package kind

import (
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
)

// Kind is a WIT value kind that can cross a boundary without compound layout.
type Kind uint8

const (
	Bool Kind = iota
	U8
	S8
	U16
	S16
	U32
	S32
	U64
	S64
	F32
	F64
	Char
	String
)

var names = [...]string{
	Bool:   "bool",
	U8:     "u8",
	S8:     "s8",
	U16:    "u16",
	S16:    "s16",
	U32:    "u32",
	S32:    "s32",
	U64:    "u64",
	S64:    "s64",
	F32:    "f32",
	F64:    "f64",
	Char:   "char",
	String: "string",
}

// Primitives lists the kinds carried by the numbers interface, in
// declaration order.
var Primitives = []Kind{U8, S8, U16, S16, U32, S32, U64, S64, F32, F64, Char}

func (k Kind) String() string {
	if int(k) < len(names) {
		return names[k]
	}
	return "unknown"
}

// Parse returns the kind named by a WIT primitive type name.
func Parse(name string) (Kind, bool) {
	for k, n := range names {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

func (k Kind) Valid() bool {
	return k <= String
}

func (k Kind) IsPrimitive() bool {
	return k <= Char
}

func (k Kind) IsInteger() bool {
	return k >= U8 && k <= S64
}

func (k Kind) IsSigned() bool {
	switch k {
	case S8, S16, S32, S64:
		return true
	}
	return false
}

func (k Kind) IsFloat() bool {
	return k == F32 || k == F64
}

// Bits is the width of an integer or float kind, 32 for char and 8 for bool.
func (k Kind) Bits() int {
	switch k {
	case Bool, U8, S8:
		return 8
	case U16, S16:
		return 16
	case U32, S32, F32, Char:
		return 32
	case U64, S64, F64:
		return 64
	default:
		return 0
	}
}

// Size is the byte size of the kind in linear memory.
func (k Kind) Size() uint32 {
	switch k {
	case Bool, U8, S8:
		return 1
	case U16, S16:
		return 2
	case U32, S32, F32, Char:
		return 4
	case U64, S64, F64:
		return 8
	case String:
		return 8 // [ptr: u32, len: u32]
	default:
		return 0
	}
}

// Align is the byte alignment of the kind in linear memory.
func (k Kind) Align() uint32 {
	switch k {
	case Bool, U8, S8:
		return 1
	case U16, S16:
		return 2
	case U32, S32, F32, Char, String:
		return 4
	case U64, S64, F64:
		return 8
	default:
		return 1
	}
}

func (k Kind) FlatCount() int {
	if k == String {
		return 2
	}
	return 1
}

// FlatTypes returns the core value types the kind flattens to.
func (k Kind) FlatTypes() []api.ValueType {
	switch k {
	case U64, S64:
		return []api.ValueType{api.ValueTypeI64}
	case F32:
		return []api.ValueType{api.ValueTypeF32}
	case F64:
		return []api.ValueType{api.ValueTypeF64}
	case String:
		return []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}
	default:
		return []api.ValueType{api.ValueTypeI32}
	}
}

// WIT returns the go.bytecodealliance.org/wit type for the kind.
func (k Kind) WIT() wit.Type {
	switch k {
	case Bool:
		return wit.Bool{}
	case U8:
		return wit.U8{}
	case S8:
		return wit.S8{}
	case U16:
		return wit.U16{}
	case S16:
		return wit.S16{}
	case U32:
		return wit.U32{}
	case S32:
		return wit.S32{}
	case U64:
		return wit.U64{}
	case S64:
		return wit.S64{}
	case F32:
		return wit.F32{}
	case F64:
		return wit.F64{}
	case Char:
		return wit.Char{}
	case String:
		return wit.String{}
	default:
		return nil
	}
}

// FromWIT maps a wit type back to a kind. Compound types are not kinds.
func FromWIT(t wit.Type) (Kind, bool) {
	switch t.(type) {
	case wit.Bool:
		return Bool, true
	case wit.U8:
		return U8, true
	case wit.S8:
		return S8, true
	case wit.U16:
		return U16, true
	case wit.S16:
		return S16, true
	case wit.U32:
		return U32, true
	case wit.S32:
		return S32, true
	case wit.U64:
		return U64, true
	case wit.S64:
		return S64, true
	case wit.F32:
		return F32, true
	case wit.F64:
		return F64, true
	case wit.Char:
		return Char, true
	case wit.String:
		return String, true
	default:
		return 0, false
	}
}

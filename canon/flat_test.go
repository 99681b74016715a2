package canon

import (
	"testing"

	"github.com/tetratelabs/wazero/api"

	"github.com/Nor2-io/wit-bindgen-yowl/kind"
)

func TestTupleLayout(t *testing.T) {
	offsets, size, align := TupleLayout([]kind.Kind{kind.U8, kind.U32, kind.U16, kind.String, kind.F64})
	want := []uint32{0, 4, 8, 12, 24}
	for i := range want {
		if offsets[i] != want[i] {
			t.Errorf("offset[%d] = %d, want %d", i, offsets[i], want[i])
		}
	}
	if size != 32 || align != 8 {
		t.Errorf("size=%d align=%d, want 32/8", size, align)
	}
}

func TestFlatten(t *testing.T) {
	got := Flatten([]kind.Kind{kind.U8, kind.String, kind.S64, kind.F32})
	want := []api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeF32}
	if len(got) != len(want) {
		t.Fatalf("Flatten = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if Indirect([]kind.Kind{kind.U64}) || !Indirect([]kind.Kind{kind.String}) {
		t.Error("Indirect wrong")
	}
}

func TestLowerLiftValues(t *testing.T) {
	kinds := []kind.Kind{kind.U8, kind.S16, kind.String, kind.F64, kind.Char}
	values := []any{uint8(7), int16(-3), "🚀 rocket", 2.5, 'x'}

	for _, enc := range Encodings {
		mem := newTestMemory(1024)
		opts := mem.options(enc)
		flat, err := LowerValues(opts, kinds, values, nil)
		if err != nil {
			t.Fatalf("%s: LowerValues: %v", enc, err)
		}
		if len(flat) != 6 {
			t.Fatalf("%s: %d flat values, want 6", enc, len(flat))
		}
		got, err := LiftValues(opts, kinds, flat, nil)
		if err != nil {
			t.Fatalf("%s: LiftValues: %v", enc, err)
		}
		for i, k := range kinds {
			if !Equal(k, values[i], got[i]) {
				t.Errorf("%s: [%d] = %v, want %v", enc, i, got[i], values[i])
			}
		}
	}
}

func TestSpilledValues(t *testing.T) {
	kinds := make([]kind.Kind, 17)
	values := make([]any, 17)
	for i := range kinds {
		kinds[i] = kind.U64
		values[i] = uint64(i + 1)
	}
	if !Spilled(kinds) {
		t.Fatal("17 u64 params must spill")
	}
	if Spilled(kinds[:16]) {
		t.Fatal("16 u64 params must not spill")
	}

	mem := newTestMemory(1024)
	opts := mem.options(UTF8)
	flat, err := LowerValues(opts, kinds, values, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(flat) != 1 {
		t.Fatalf("spilled lower returned %d values", len(flat))
	}
	if flat[0]%8 != 0 {
		t.Errorf("spill area %d not 8-aligned", flat[0])
	}
	got, err := LiftValues(opts, kinds, flat, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := range values {
		if got[i] != values[i] {
			t.Errorf("[%d] = %v, want %v", i, got[i], values[i])
		}
	}
}

func TestStoreLoad(t *testing.T) {
	mem := newTestMemory(256)
	opts := mem.options(Latin1UTF16)
	cases := []struct {
		kind  kind.Kind
		value any
		addr  uint32
	}{
		{kind.Bool, true, 100},
		{kind.S8, int8(-5), 101},
		{kind.S16, int16(-300), 102},
		{kind.F32, float32(1.5), 104},
		{kind.S64, int64(-1), 112},
		{kind.String, "ÿ", 120},
		{kind.Char, '🚩', 128},
	}
	for _, c := range cases {
		if err := Store(opts, c.kind, c.addr, c.value, nil); err != nil {
			t.Fatalf("Store %s: %v", c.kind, err)
		}
	}
	for _, c := range cases {
		got, err := Load(opts, c.kind, c.addr, nil)
		if err != nil {
			t.Fatalf("Load %s: %v", c.kind, err)
		}
		if !Equal(c.kind, c.value, got) {
			t.Errorf("%s: got %v, want %v", c.kind, got, c.value)
		}
	}

	if err := Store(opts, kind.U32, 2, uint32(1), nil); err == nil {
		t.Error("misaligned store accepted")
	}
}

func TestLowerValuesArity(t *testing.T) {
	mem := newTestMemory(64)
	if _, err := LowerValues(mem.options(UTF8), []kind.Kind{kind.U8}, nil, nil); err == nil {
		t.Error("arity mismatch accepted")
	}
	if _, err := LiftValues(mem.options(UTF8), []kind.Kind{kind.String}, []uint64{1}, nil); err == nil {
		t.Error("short flat accepted")
	}
}

package guest

import (
	"context"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/Nor2-io/wit-bindgen-yowl/canon"
	"github.com/Nor2-io/wit-bindgen-yowl/iface"
	"github.com/Nor2-io/wit-bindgen-yowl/kind"
)

type call struct {
	name  string
	stack []uint64
}

// instantiate links the guest against host stubs that record every call and
// leave the stack untouched, so single-value imports echo their first param.
func instantiate(t *testing.T, ifaces []*iface.Interface, enc canon.StringEncoding) (api.Module, *[]call) {
	t.Helper()
	ctx := context.Background()

	m, err := Synthesize(ifaces, Options{Encoding: enc, Resolve: BuiltinImpl})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	r := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	t.Cleanup(func() { _ = r.Close(ctx) })

	calls := &[]call{}
	for _, in := range ifaces {
		b := r.NewHostModuleBuilder(in.QualifiedName())
		for _, f := range in.Functions {
			name := f.Name
			sig := f.ImportSignature()
			b.NewFunctionBuilder().
				WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
					*calls = append(*calls, call{name: name, stack: append([]uint64(nil), stack...)})
				}), sig.Params, sig.Results).
				Export(name)
		}
		if _, err := b.Instantiate(ctx); err != nil {
			t.Fatalf("host module %s: %v", in.QualifiedName(), err)
		}
	}

	mod, err := r.InstantiateWithConfig(ctx, m.Binary, wazero.NewModuleConfig().WithName("guest"))
	if err != nil {
		t.Fatalf("instantiate guest: %v", err)
	}
	return mod, calls
}

func TestSynthesizeCompiles(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	for _, enc := range canon.Encodings {
		m, err := Synthesize(iface.Builtins(), Options{Encoding: enc, Resolve: BuiltinImpl})
		if err != nil {
			t.Fatalf("%s: Synthesize failed: %v", enc, err)
		}
		compiled, err := r.CompileModule(ctx, m.Binary)
		if err != nil {
			t.Fatalf("%s: CompileModule failed: %v", enc, err)
		}
		exports := compiled.ExportedFunctions()
		for _, in := range iface.Builtins() {
			for _, f := range in.Functions {
				if _, ok := exports[ExportName(in, f)]; !ok {
					t.Errorf("%s: export %s missing", enc, ExportName(in, f))
				}
				if _, ok := exports[RelayName(in, f)]; !ok {
					t.Errorf("%s: export %s missing", enc, RelayName(in, f))
				}
			}
		}
		for _, name := range []string{ReallocExport, HeapResetExport} {
			if _, ok := exports[name]; !ok {
				t.Errorf("%s: %s missing", enc, name)
			}
		}
		if m.HeapBase < MinHeapBase || m.HeapBase%8 != 0 {
			t.Errorf("%s: HeapBase = %d", enc, m.HeapBase)
		}
	}
}

func TestEchoScalar(t *testing.T) {
	ctx := context.Background()
	in := iface.Numbers()
	mod, calls := instantiate(t, []*iface.Interface{in}, canon.UTF8)

	f, _ := in.Function("roundtrip-u64")
	res, err := mod.ExportedFunction(ExportName(in, f)).Call(ctx, 1<<63)
	if err != nil {
		t.Fatal(err)
	}
	if res[0] != 1<<63 {
		t.Errorf("echo = %#x", res[0])
	}

	f, _ = in.Function("roundtrip-f64")
	res, err = mod.ExportedFunction(ExportName(in, f)).Call(ctx, api.EncodeF64(2.5))
	if err != nil {
		t.Fatal(err)
	}
	if api.DecodeF64(res[0]) != 2.5 {
		t.Errorf("echo f64 = %v", api.DecodeF64(res[0]))
	}

	if len(*calls) != 0 {
		t.Errorf("echo reached the host: %+v", *calls)
	}
}

func TestForwardAndRelay(t *testing.T) {
	ctx := context.Background()
	in := iface.Numbers()
	mod, calls := instantiate(t, []*iface.Interface{in}, canon.UTF8)

	set, _ := in.Function("set-scalar")
	if _, err := mod.ExportedFunction(ExportName(in, set)).Call(ctx, 7); err != nil {
		t.Fatal(err)
	}
	rt, _ := in.Function("roundtrip-u8")
	res, err := mod.ExportedFunction(RelayName(in, rt)).Call(ctx, 200)
	if err != nil {
		t.Fatal(err)
	}
	if res[0] != 200 {
		t.Errorf("relay result = %d", res[0])
	}

	if len(*calls) != 2 {
		t.Fatalf("calls = %+v", *calls)
	}
	if (*calls)[0].name != "set-scalar" || (*calls)[0].stack[0] != 7 {
		t.Errorf("set-scalar call = %+v", (*calls)[0])
	}
	if (*calls)[1].name != "roundtrip-u8" {
		t.Errorf("relay call = %+v", (*calls)[1])
	}
}

func TestForwardIndirectResult(t *testing.T) {
	ctx := context.Background()
	in := iface.Strings()
	mod, calls := instantiate(t, []*iface.Interface{in}, canon.UTF8)

	f, _ := in.Function("roundtrip")
	res, err := mod.ExportedFunction(RelayName(in, f)).Call(ctx, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res[0] != ReturnArea {
		t.Errorf("relay returned %d, want return area", res[0])
	}
	if len(*calls) != 1 || len((*calls)[0].stack) != 3 || (*calls)[0].stack[2] != ReturnArea {
		t.Errorf("import call = %+v", *calls)
	}
}

func TestRealloc(t *testing.T) {
	ctx := context.Background()
	mod, _ := instantiate(t, []*iface.Interface{iface.Numbers()}, canon.UTF8)
	realloc := mod.ExportedFunction(ReallocExport)
	mem := mod.Memory()

	res, err := realloc.Call(ctx, 0, 0, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	first := uint32(res[0])
	if first < MinHeapBase {
		t.Errorf("first allocation %d below heap base", first)
	}

	res, err = realloc.Call(ctx, 0, 0, 8, 16)
	if err != nil {
		t.Fatal(err)
	}
	second := uint32(res[0])
	if second%8 != 0 || second < first+3 {
		t.Errorf("second allocation %d (first %d)", second, first)
	}

	mem.Write(second, []byte("abcdefgh"))
	res, err = realloc.Call(ctx, uint64(second), 8, 8, 4)
	if err != nil {
		t.Fatal(err)
	}
	moved, _ := mem.Read(uint32(res[0]), 4)
	if string(moved) != "abcd" {
		t.Errorf("realloc copied %q", moved)
	}

	before := mem.Size()
	if _, err := realloc.Call(ctx, 0, 0, 1, 3*PageSize); err != nil {
		t.Fatal(err)
	}
	if mem.Size() <= before {
		t.Errorf("memory did not grow: %d -> %d", before, mem.Size())
	}

	res, err = realloc.Call(ctx, 0, 0, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res[0] != 0 {
		t.Errorf("zero-size allocation = %d", res[0])
	}
}

func TestHeapReset(t *testing.T) {
	ctx := context.Background()
	mod, _ := instantiate(t, []*iface.Interface{iface.Numbers()}, canon.UTF8)
	realloc := mod.ExportedFunction(ReallocExport)

	first, err := realloc.Call(ctx, 0, 0, 8, 64)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := realloc.Call(ctx, 0, 0, 8, 64); err != nil {
		t.Fatal(err)
	}
	if _, err := mod.ExportedFunction(HeapResetExport).Call(ctx); err != nil {
		t.Fatal(err)
	}
	again, err := realloc.Call(ctx, 0, 0, 8, 64)
	if err != nil {
		t.Fatal(err)
	}
	if again[0] != first[0] {
		t.Errorf("allocation after reset = %d, want %d", again[0], first[0])
	}
}

func TestReallocFailureRecorded(t *testing.T) {
	ctx := context.Background()
	m, err := Synthesize(nil, Options{})
	if err != nil {
		t.Fatal(err)
	}

	r := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter().WithMemoryLimitPages(1))
	defer r.Close(ctx)
	mod, err := r.Instantiate(ctx, m.Binary)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := mod.ExportedFunction(ReallocExport).Call(ctx, 0, 0, 4, 2*PageSize); err == nil {
		t.Fatal("allocation beyond the memory limit succeeded")
	}
	size := mod.ExportedGlobal(FailedSizeExport)
	align := mod.ExportedGlobal(FailedAlignExport)
	if size.Get() != 2*PageSize || align.Get() != 4 {
		t.Errorf("recorded failure = (%d, %d)", size.Get(), align.Get())
	}

	if _, err := mod.ExportedFunction(HeapResetExport).Call(ctx); err != nil {
		t.Fatal(err)
	}
	if size.Get() != 0 || align.Get() != 0 {
		t.Errorf("reset left failure (%d, %d)", size.Get(), align.Get())
	}
	res, err := mod.ExportedFunction(ReallocExport).Call(ctx, 0, 0, 1, 16)
	if err != nil || uint32(res[0]) != m.HeapBase {
		t.Errorf("allocation after reset = %v, %v", res, err)
	}
}

func TestReturnAreaFitsLargestResult(t *testing.T) {
	ctx := context.Background()
	results := make([]kind.Kind, 9)
	values := make([]any, 9)
	for i := range results {
		results[i] = kind.U64
		values[i] = uint64(0xAAAAAAAAAAAAAAAA)
	}
	wide := &iface.Interface{Name: "wide", Functions: []*iface.Function{{Name: "nine", Results: results}}}
	strs := iface.Strings()
	ifaces := []*iface.Interface{strs, wide}

	m, err := Synthesize(ifaces, Options{Encoding: canon.UTF8, Resolve: BuiltinImpl})
	if err != nil {
		t.Fatal(err)
	}
	if m.ReturnAreaSize < 72 {
		t.Errorf("ReturnAreaSize = %d, want at least 72", m.ReturnAreaSize)
	}
	if m.ConstBase < ReturnArea+m.ReturnAreaSize {
		t.Errorf("constants at %d overlap return area ending at %d", m.ConstBase, ReturnArea+m.ReturnAreaSize)
	}

	mod, _ := instantiate(t, ifaces, canon.UTF8)
	opts := canon.ForModule(ctx, mod, canon.UTF8)

	res, err := mod.ExportedFunction(RelayName(wide, wide.Functions[0])).Call(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// the host writes the whole tuple through the return pointer
	if err := canon.StoreTuple(opts, results, uint32(res[0]), values, nil); err != nil {
		t.Fatal(err)
	}

	f, _ := strs.Function("return-unicode")
	res, err = mod.ExportedFunction(ExportName(strs, f)).Call(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got, err := canon.Load(opts, kind.String, uint32(res[0]), nil)
	if err != nil || got != iface.UnicodeText {
		t.Errorf("return-unicode after wide result = %q, %v", got, err)
	}
}

func TestEchoString(t *testing.T) {
	ctx := context.Background()
	in := iface.Strings()
	f, _ := in.Function("roundtrip")

	for _, enc := range canon.Encodings {
		t.Run(enc.String(), func(t *testing.T) {
			mod, _ := instantiate(t, []*iface.Interface{in}, enc)
			opts := canon.ForModule(ctx, mod, enc)

			ptr, length, err := canon.LowerString(opts, iface.UnicodeText, nil)
			if err != nil {
				t.Fatal(err)
			}
			res, err := mod.ExportedFunction(ExportName(in, f)).Call(ctx, uint64(ptr), uint64(length))
			if err != nil {
				t.Fatal(err)
			}
			got, err := canon.Load(opts, kind.String, uint32(res[0]), nil)
			if err != nil {
				t.Fatal(err)
			}
			if got != iface.UnicodeText {
				t.Errorf("echo = %q", got)
			}
			copied, _ := opts.Memory.ReadU32(uint32(res[0]))
			if copied == ptr {
				t.Error("echo returned the argument buffer instead of a copy")
			}
		})
	}
}

func TestConstStrings(t *testing.T) {
	ctx := context.Background()
	in := iface.Strings()

	for _, enc := range canon.Encodings {
		t.Run(enc.String(), func(t *testing.T) {
			mod, _ := instantiate(t, []*iface.Interface{in}, enc)
			opts := canon.ForModule(ctx, mod, enc)

			for name, want := range map[string]string{"return-unicode": iface.UnicodeText, "return-empty": ""} {
				f, _ := in.Function(name)
				res, err := mod.ExportedFunction(ExportName(in, f)).Call(ctx)
				if err != nil {
					t.Fatal(err)
				}
				got, err := canon.Load(opts, kind.String, uint32(res[0]), nil)
				if err != nil {
					t.Fatal(err)
				}
				if got != want {
					t.Errorf("%s = %q, want %q", name, got, want)
				}
			}
		})
	}
}

func TestImplSelection(t *testing.T) {
	strs := iface.Strings()
	tests := []struct {
		name string
		mode Mode
	}{
		{"roundtrip", Echo},
		{"take-basic", Forward},
		{"return-empty", Empty},
		{"return-unicode", Const},
	}
	for _, tt := range tests {
		f, _ := strs.Function(tt.name)
		if got := BuiltinImpl(strs, f).Mode; got != tt.mode {
			t.Errorf("%s: mode = %s, want %s", tt.name, got, tt.mode)
		}
	}

	get, _ := iface.Numbers().Function("get-scalar")
	if DefaultImpl(iface.Numbers(), get).Mode != Forward {
		t.Error("get-scalar must forward")
	}
}

func TestSynthesizeRejectsBadImpl(t *testing.T) {
	in := iface.Numbers()
	_, err := Synthesize([]*iface.Interface{in}, Options{
		Resolve: func(*iface.Interface, *iface.Function) Impl { return Impl{Mode: Empty} },
	})
	if err == nil {
		t.Fatal("empty-string implementation of a numeric function accepted")
	}
}

func TestLEB128(t *testing.T) {
	if got := EncodeULEB128(624485); string(got) != "\xe5\x8e\x26" {
		t.Errorf("ULEB128(624485) = %x", got)
	}
	if got := EncodeSLEB128(int32(-123456)); string(got) != "\xc0\xbb\x78" {
		t.Errorf("SLEB128(-123456) = %x", got)
	}
	if got := EncodeSLEB128(int64(-1)); string(got) != "\x7f" {
		t.Errorf("SLEB128(-1) = %x", got)
	}
}

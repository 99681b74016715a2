package iface

import (
	"errors"
	"strings"
	"testing"

	"github.com/tetratelabs/wazero/api"

	yerrors "github.com/Nor2-io/wit-bindgen-yowl/errors"
	"github.com/Nor2-io/wit-bindgen-yowl/kind"
)

func TestBuiltins(t *testing.T) {
	tests := []struct {
		in    *Interface
		name  string
		funcs int
	}{
		{Numbers(), NumbersName, 13},
		{Strings(), StringsName, 4},
		{ManyArguments(), ManyArgumentsName, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.QualifiedName(); got != tt.name {
				t.Errorf("QualifiedName() = %q, want %q", got, tt.name)
			}
			if len(tt.in.Functions) != tt.funcs {
				t.Errorf("%d functions, want %d", len(tt.in.Functions), tt.funcs)
			}
		})
	}
}

func TestNumbersSignatures(t *testing.T) {
	in := Numbers()
	for _, k := range kind.Primitives {
		f, ok := in.Function("roundtrip-" + k.String())
		if !ok {
			t.Fatalf("roundtrip-%s missing", k)
		}
		if len(f.Params) != 1 || f.Params[0].Kind != k || len(f.Results) != 1 || f.Results[0] != k {
			t.Errorf("%s has wrong signature: %s", f.Name, f)
		}
	}

	set, _ := in.Function("set-scalar")
	if len(set.Results) != 0 || set.Params[0].Kind != kind.U32 {
		t.Errorf("set-scalar = %s", set)
	}
	get, _ := in.Function("get-scalar")
	if len(get.Params) != 0 || get.Results[0] != kind.U32 {
		t.Errorf("get-scalar = %s", get)
	}
}

func TestCoreSignatures(t *testing.T) {
	strs := Strings()
	rt, _ := strs.Function("roundtrip")

	exp := rt.ExportSignature()
	if len(exp.Params) != 2 || len(exp.Results) != 1 || exp.Results[0] != api.ValueTypeI32 {
		t.Errorf("roundtrip export = %+v", exp)
	}
	imp := rt.ImportSignature()
	if len(imp.Params) != 3 || len(imp.Results) != 0 {
		t.Errorf("roundtrip import = %+v", imp)
	}

	many, _ := ManyArguments().Function("many-arguments")
	sig := many.ExportSignature()
	if len(sig.Params) != 16 || len(sig.Results) != 0 {
		t.Errorf("many-arguments export = %+v", sig)
	}
	for _, p := range sig.Params {
		if p != api.ValueTypeI64 {
			t.Errorf("param type %v, want i64", p)
		}
	}

	f64, _ := Numbers().Function("roundtrip-f64")
	sig = f64.ImportSignature()
	if len(sig.Results) != 1 || sig.Results[0] != api.ValueTypeF64 {
		t.Errorf("roundtrip-f64 import = %+v", sig)
	}
}

func TestParse(t *testing.T) {
	doc, err := Parse(`
package demo:pkg@0.1.0;

// comments are ignored: fake: func(a: list<u8>);
interface api {
  echo: func(msg: string) -> string;
  pair: func() -> tuple<u32, string>;
  nothing: func();
}

world w {
  import api;
  export api;
}
`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.Package != "demo:pkg@0.1.0" {
		t.Errorf("Package = %q", doc.Package)
	}
	in, ok := doc.Interface("api")
	if !ok {
		t.Fatal("interface api missing")
	}
	if in.QualifiedName() != "demo:pkg@0.1.0/api" {
		t.Errorf("QualifiedName = %q", in.QualifiedName())
	}
	if len(in.Functions) != 3 {
		t.Fatalf("%d functions", len(in.Functions))
	}
	pair, _ := in.Function("pair")
	if len(pair.Results) != 2 || pair.Results[1] != kind.String {
		t.Errorf("pair = %s", pair)
	}
	if !strings.Contains(pair.String(), "tuple<u32, string>") {
		t.Errorf("String() = %q", pair.String())
	}
	if len(doc.Worlds) != 1 || doc.Worlds[0].Imports[0] != "api" || doc.Worlds[0].Exports[0] != "api" {
		t.Errorf("worlds = %+v", doc.Worlds)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind yerrors.Kind
	}{
		{"no interfaces", "package a:b;", yerrors.KindInvalidInput},
		{"compound type", "interface i { f: func(a: list<u8>); }", yerrors.KindUnsupported},
		{"untyped param", "interface i { f: func(a); }", yerrors.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if !errors.Is(err, &yerrors.Error{Kind: tt.kind}) {
				t.Errorf("err = %v, want kind %s", err, tt.kind)
			}
		})
	}
}

func TestBuiltinSources(t *testing.T) {
	src, err := BuiltinSources()
	if err != nil {
		t.Fatal(err)
	}
	names := BuiltinNames()
	if len(src) != 3 || len(names) != 3 {
		t.Fatalf("%d sources, %d names", len(src), len(names))
	}
	for _, n := range names {
		if _, err := Parse(string(src[n])); err != nil {
			t.Errorf("%s: %v", n, err)
		}
	}
}

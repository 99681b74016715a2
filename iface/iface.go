package iface

import (
	"strings"

	"github.com/tetratelabs/wazero/api"

	"github.com/Nor2-io/wit-bindgen-yowl/canon"
	"github.com/Nor2-io/wit-bindgen-yowl/kind"
)

// Param is a named function parameter.
type Param struct {
	Name string
	Kind kind.Kind
}

// Function is an interface function whose params and results are value kinds.
type Function struct {
	Name    string
	Params  []Param
	Results []kind.Kind
}

// Interface is a named set of functions inside a package.
type Interface struct {
	Package   string
	Name      string
	Functions []*Function
}

// QualifiedName returns "package/interface", or the bare name when the
// interface has no package.
func (i *Interface) QualifiedName() string {
	if i.Package == "" {
		return i.Name
	}
	return i.Package + "/" + i.Name
}

// Function looks up a function by name.
func (i *Interface) Function(name string) (*Function, bool) {
	for _, f := range i.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// ParamKinds returns the kinds of the parameters in order.
func (f *Function) ParamKinds() []kind.Kind {
	out := make([]kind.Kind, len(f.Params))
	for i, p := range f.Params {
		out[i] = p.Kind
	}
	return out
}

// ParamNames returns the parameter names in order.
func (f *Function) ParamNames() []string {
	out := make([]string, len(f.Params))
	for i, p := range f.Params {
		out[i] = p.Name
	}
	return out
}

// String renders the function in WIT syntax.
func (f *Function) String() string {
	var b strings.Builder
	b.WriteString(f.Name)
	b.WriteString(": func(")
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		b.WriteString(": ")
		b.WriteString(p.Kind.String())
	}
	b.WriteByte(')')
	switch len(f.Results) {
	case 0:
	case 1:
		b.WriteString(" -> ")
		b.WriteString(f.Results[0].String())
	default:
		b.WriteString(" -> tuple<")
		for i, k := range f.Results {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k.String())
		}
		b.WriteByte('>')
	}
	return b.String()
}

// Signature is a core wasm function type.
type Signature struct {
	Params  []api.ValueType
	Results []api.ValueType
}

// ExportSignature is the core type of the guest export implementing f: past
// MaxFlatParams the params are one pointer, past MaxFlatResults the result is
// a return pointer.
func (f *Function) ExportSignature() Signature {
	return Signature{
		Params:  f.coreParams(),
		Results: f.coreResults(),
	}
}

// ImportSignature is the core type the guest uses to call f on the host.
// Indirect results are written through a trailing return-pointer param.
func (f *Function) ImportSignature() Signature {
	params := f.coreParams()
	if canon.Indirect(f.Results) {
		return Signature{Params: append(params, api.ValueTypeI32)}
	}
	return Signature{Params: params, Results: canon.Flatten(f.Results)}
}

func (f *Function) coreParams() []api.ValueType {
	kinds := f.ParamKinds()
	if canon.Spilled(kinds) {
		return []api.ValueType{api.ValueTypeI32}
	}
	return canon.Flatten(kinds)
}

func (f *Function) coreResults() []api.ValueType {
	if canon.Indirect(f.Results) {
		return []api.ValueType{api.ValueTypeI32}
	}
	return canon.Flatten(f.Results)
}

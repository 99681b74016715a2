package iface

import (
	"embed"
	"fmt"
	"path"
	"sort"
)

//go:embed wit/*.wit
var builtinFS embed.FS

// Qualified names of the built-in interfaces.
const (
	NumbersName       = "test:numbers/test"
	StringsName       = "test:strings/test"
	ManyArgumentsName = "test:many-arguments/test"
)

// Numbers is the interface carrying one roundtrip function per primitive
// kind plus the scalar register accessors.
func Numbers() *Interface { return mustBuiltin("numbers.wit") }

// Strings is the interface carrying string roundtrip functions.
func Strings() *Interface { return mustBuiltin("strings.wit") }

// ManyArguments carries a single function with sixteen u64 params.
func ManyArguments() *Interface { return mustBuiltin("many-arguments.wit") }

// Builtins returns every built-in interface.
func Builtins() []*Interface {
	return []*Interface{Numbers(), Strings(), ManyArguments()}
}

// BuiltinSources returns the embedded .wit sources keyed by file name.
func BuiltinSources() (map[string][]byte, error) {
	entries, err := builtinFS.ReadDir("wit")
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(entries))
	for _, e := range entries {
		data, err := builtinFS.ReadFile(path.Join("wit", e.Name()))
		if err != nil {
			return nil, err
		}
		out[e.Name()] = data
	}
	return out, nil
}

// BuiltinNames returns the embedded .wit file names, sorted.
func BuiltinNames() []string {
	entries, _ := builtinFS.ReadDir("wit")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func mustBuiltin(file string) *Interface {
	data, err := builtinFS.ReadFile(path.Join("wit", file))
	if err != nil {
		panic(fmt.Sprintf("iface: builtin %s: %v", file, err))
	}
	doc, err := Parse(string(data))
	if err != nil {
		panic(fmt.Sprintf("iface: builtin %s: %v", file, err))
	}
	return doc.Interfaces[0]
}

// Texts the strings interface exchanges.
const (
	BasicText   = "latin utf16"
	UnicodeText = "🚀🚀🚀 𠈄𓀀"
)

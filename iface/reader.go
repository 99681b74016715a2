package iface

import (
	"regexp"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/Nor2-io/wit-bindgen-yowl/errors"
	"github.com/Nor2-io/wit-bindgen-yowl/kind"
)

var (
	commentPattern   = regexp.MustCompile(`//[^\n]*`)
	packagePattern   = regexp.MustCompile(`package\s+([a-zA-Z0-9_:.@/-]+)\s*;`)
	blockPattern     = regexp.MustCompile(`(interface|world)\s+([a-zA-Z_][a-zA-Z0-9_-]*)\s*\{([^}]*)\}`)
	funcPattern      = regexp.MustCompile(`(?:export\s+|import\s+)?([a-zA-Z_][a-zA-Z0-9_-]*)\s*:\s*func\s*\(([^)]*)\)(?:\s*->\s*([^;]+))?`)
	worldItemPattern = regexp.MustCompile(`(import|export)\s+([a-zA-Z_][a-zA-Z0-9_:/@.-]*)\s*;`)
)

// Document is the subset of a .wit file the reader understands: the package
// name, interfaces with function signatures, and worlds.
type Document struct {
	Package    string
	Interfaces []*Interface
	Worlds     []*World
}

// World names the interfaces a world imports and exports.
type World struct {
	Name    string
	Imports []string
	Exports []string
}

// Interface looks up an interface by its unqualified name.
func (d *Document) Interface(name string) (*Interface, bool) {
	for _, i := range d.Interfaces {
		if i.Name == name {
			return i, true
		}
	}
	return nil, false
}

// Parse extracts interfaces and function signatures from WIT text. Only
// value kinds are accepted as param and result types.
func Parse(text string) (*Document, error) {
	text = commentPattern.ReplaceAllString(text, "")

	doc := &Document{}
	if m := packagePattern.FindStringSubmatch(text); m != nil {
		doc.Package = m[1]
	}

	for _, block := range blockPattern.FindAllStringSubmatch(text, -1) {
		switch block[1] {
		case "interface":
			in := &Interface{Package: doc.Package, Name: block[2]}
			funcs, err := parseFunctions(block[3], in.Name)
			if err != nil {
				return nil, err
			}
			in.Functions = funcs
			doc.Interfaces = append(doc.Interfaces, in)
		case "world":
			w := &World{Name: block[2]}
			for _, item := range worldItemPattern.FindAllStringSubmatch(block[3], -1) {
				if item[1] == "import" {
					w.Imports = append(w.Imports, item[2])
				} else {
					w.Exports = append(w.Exports, item[2])
				}
			}
			doc.Worlds = append(doc.Worlds, w)
		}
	}

	if len(doc.Interfaces) == 0 {
		return nil, errors.InvalidInput(errors.PhaseParse, "no interfaces found in WIT text")
	}
	return doc, nil
}

func parseFunctions(body, ifaceName string) ([]*Function, error) {
	var funcs []*Function
	for _, match := range funcPattern.FindAllStringSubmatch(body, -1) {
		fn := &Function{Name: match[1]}
		path := []string{ifaceName, fn.Name}

		if paramsStr := strings.TrimSpace(match[2]); paramsStr != "" {
			for i, p := range splitParams(paramsStr) {
				name, typStr, ok := strings.Cut(p, ":")
				if !ok {
					return nil, errors.New(errors.PhaseParse, errors.KindInvalidInput).
						Path(path...).Detail("param %d %q has no type", i, p).Build()
				}
				k, err := parseKind(typStr, path)
				if err != nil {
					return nil, err
				}
				fn.Params = append(fn.Params, Param{Name: strings.TrimSpace(name), Kind: k})
			}
		}

		resultStr := strings.TrimSpace(match[3])
		if resultStr != "" && resultStr != "()" {
			if strings.HasPrefix(resultStr, "tuple<") && strings.HasSuffix(resultStr, ">") {
				inner := strings.TrimSuffix(strings.TrimPrefix(resultStr, "tuple<"), ">")
				for _, part := range splitParams(inner) {
					k, err := parseKind(part, path)
					if err != nil {
						return nil, err
					}
					fn.Results = append(fn.Results, k)
				}
			} else {
				k, err := parseKind(resultStr, path)
				if err != nil {
					return nil, err
				}
				fn.Results = []kind.Kind{k}
			}
		}

		funcs = append(funcs, fn)
	}
	return funcs, nil
}

// parseKind resolves a type name to a kind. Legacy spellings such as
// float32 are resolved through wit.ParseType.
func parseKind(s string, path []string) (kind.Kind, error) {
	s = strings.TrimSpace(s)
	if k, ok := kind.Parse(s); ok {
		return k, nil
	}
	t, err := wit.ParseType(s)
	if err != nil {
		return 0, errors.New(errors.PhaseParse, errors.KindUnsupported).
			Path(path...).WitType(s).Cause(err).Detail("unsupported type").Build()
	}
	k, ok := kind.FromWIT(t)
	if !ok {
		return 0, errors.New(errors.PhaseParse, errors.KindUnsupported).
			Path(path...).WitType(s).Detail("only primitive kinds and string are supported").Build()
	}
	return k, nil
}

// splitParams splits a comma separated list, ignoring commas nested in
// parentheses or angle brackets.
func splitParams(s string) []string {
	var result []string
	var current strings.Builder
	depth := 0

	for _, ch := range s {
		switch ch {
		case '(', '<':
			depth++
			current.WriteRune(ch)
		case ')', '>':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				if str := strings.TrimSpace(current.String()); str != "" {
					result = append(result, str)
				}
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}

	if str := strings.TrimSpace(current.String()); str != "" {
		result = append(result, str)
	}
	return result
}

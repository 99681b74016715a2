package canon

import (
	"strconv"

	"github.com/tetratelabs/wazero/api"

	"github.com/Nor2-io/wit-bindgen-yowl/errors"
	"github.com/Nor2-io/wit-bindgen-yowl/kind"
)

// FlatCount is the number of flat core values a sequence of kinds occupies.
func FlatCount(kinds []kind.Kind) int {
	n := 0
	for _, k := range kinds {
		n += k.FlatCount()
	}
	return n
}

// Flatten concatenates the flat core types of kinds.
func Flatten(kinds []kind.Kind) []api.ValueType {
	out := make([]api.ValueType, 0, FlatCount(kinds))
	for _, k := range kinds {
		out = append(out, k.FlatTypes()...)
	}
	return out
}

// Spilled reports whether params of the given kinds travel as a pointer to a
// tuple in memory.
func Spilled(params []kind.Kind) bool {
	return FlatCount(params) > MaxFlatParams
}

// Indirect reports whether results of the given kinds travel through a
// return pointer.
func Indirect(results []kind.Kind) bool {
	return FlatCount(results) > MaxFlatResults
}

// LowerValues lowers values to flat core values. Past MaxFlatParams the
// values are stored as a tuple in memory obtained from the allocator and a
// single pointer is returned.
func LowerValues(opts *Options, kinds []kind.Kind, values []any, path []string) ([]uint64, error) {
	if len(values) != len(kinds) {
		return nil, errors.New(errors.PhaseLower, errors.KindInvalidInput).
			Path(path...).
			Detail("expected %d values, got %d", len(kinds), len(values)).Build()
	}

	if Spilled(kinds) {
		if opts.Alloc == nil {
			return nil, errors.NotInitialized(errors.PhaseLower, "allocator")
		}
		_, size, align := TupleLayout(kinds)
		ptr, err := opts.Alloc.Alloc(size, align)
		if err != nil {
			return nil, errors.AllocationFailed(errors.PhaseLower, size, align, err)
		}
		if err := StoreTuple(opts, kinds, ptr, values, path); err != nil {
			return nil, err
		}
		return []uint64{api.EncodeU32(ptr)}, nil
	}

	flat := make([]uint64, 0, FlatCount(kinds))
	for i, k := range kinds {
		p := elemPath(path, i)
		if k == kind.String {
			v, err := Coerce(k, values[i], p)
			if err != nil {
				return nil, err
			}
			ptr, length, err := LowerString(opts, v.(string), p)
			if err != nil {
				return nil, err
			}
			flat = append(flat, api.EncodeU32(ptr), api.EncodeU32(length))
			continue
		}
		f, err := LowerScalar(k, values[i], p)
		if err != nil {
			return nil, err
		}
		flat = append(flat, f)
	}
	return flat, nil
}

// LiftValues is the inverse of LowerValues.
func LiftValues(opts *Options, kinds []kind.Kind, flat []uint64, path []string) ([]any, error) {
	if Spilled(kinds) {
		if len(flat) != 1 {
			return nil, errors.New(errors.PhaseLift, errors.KindInvalidInput).
				Path(path...).Detail("spilled values expect one pointer, got %d", len(flat)).Build()
		}
		return LoadTuple(opts, kinds, api.DecodeU32(flat[0]), path)
	}

	if len(flat) != FlatCount(kinds) {
		return nil, errors.New(errors.PhaseLift, errors.KindInvalidInput).
			Path(path...).
			Detail("expected %d flat values, got %d", FlatCount(kinds), len(flat)).Build()
	}

	out := make([]any, len(kinds))
	pos := 0
	for i, k := range kinds {
		p := elemPath(path, i)
		if k == kind.String {
			s, err := LiftString(opts, api.DecodeU32(flat[pos]), api.DecodeU32(flat[pos+1]), p)
			if err != nil {
				return nil, err
			}
			out[i] = s
			pos += 2
			continue
		}
		v, err := LiftScalar(k, flat[pos], p)
		if err != nil {
			return nil, err
		}
		out[i] = v
		pos++
	}
	return out, nil
}

func elemPath(path []string, i int) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = strconv.Itoa(i)
	return out
}

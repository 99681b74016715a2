package canon

import (
	"github.com/Nor2-io/wit-bindgen-yowl/errors"
	"github.com/Nor2-io/wit-bindgen-yowl/kind"
)

// AlignTo rounds offset up to a multiple of align.
func AlignTo(offset, align uint32) uint32 {
	if align <= 1 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// TupleLayout returns field offsets, total size and alignment of a tuple of
// the given kinds as laid out in linear memory.
func TupleLayout(kinds []kind.Kind) (offsets []uint32, size, align uint32) {
	offsets = make([]uint32, len(kinds))
	align = 1
	for i, k := range kinds {
		a := k.Align()
		size = AlignTo(size, a)
		offsets[i] = size
		size += k.Size()
		if a > align {
			align = a
		}
	}
	return offsets, AlignTo(size, align), align
}

// Store writes value of kind k at addr. Strings are copied into fresh memory
// and their (ptr, len) pair is written at addr.
func Store(opts *Options, k kind.Kind, addr uint32, value any, path []string) error {
	if opts.Memory == nil {
		return errors.NotInitialized(errors.PhaseLower, "memory")
	}
	if addr%k.Align() != 0 {
		return errors.New(errors.PhaseLower, errors.KindOutOfBounds).
			Path(path...).WitType(k.String()).
			Detail("address %d not aligned to %d", addr, k.Align()).Build()
	}

	var err error
	if k == kind.String {
		v, cerr := Coerce(k, value, path)
		if cerr != nil {
			return cerr
		}
		ptr, length, lerr := LowerString(opts, v.(string), path)
		if lerr != nil {
			return lerr
		}
		if err = opts.Memory.WriteU32(addr, ptr); err == nil {
			err = opts.Memory.WriteU32(addr+4, length)
		}
	} else {
		flat, lerr := LowerScalar(k, value, path)
		if lerr != nil {
			return lerr
		}
		switch k.Size() {
		case 1:
			err = opts.Memory.WriteU8(addr, uint8(flat))
		case 2:
			err = opts.Memory.WriteU16(addr, uint16(flat))
		case 4:
			err = opts.Memory.WriteU32(addr, uint32(flat))
		case 8:
			err = opts.Memory.WriteU64(addr, flat)
		}
	}
	if err != nil {
		return errors.New(errors.PhaseLower, errors.KindOutOfBounds).
			Path(path...).WitType(k.String()).Cause(err).Build()
	}
	return nil
}

// Load reads a value of kind k from addr.
func Load(opts *Options, k kind.Kind, addr uint32, path []string) (any, error) {
	if opts.Memory == nil {
		return nil, errors.NotInitialized(errors.PhaseLift, "memory")
	}
	if addr%k.Align() != 0 {
		return nil, errors.New(errors.PhaseLift, errors.KindOutOfBounds).
			Path(path...).WitType(k.String()).
			Detail("address %d not aligned to %d", addr, k.Align()).Build()
	}

	var (
		flat uint64
		err  error
	)
	switch k.Size() {
	case 1:
		var v uint8
		v, err = opts.Memory.ReadU8(addr)
		flat = uint64(v)
	case 2:
		var v uint16
		v, err = opts.Memory.ReadU16(addr)
		flat = uint64(v)
	case 4:
		var v uint32
		v, err = opts.Memory.ReadU32(addr)
		flat = uint64(v)
	case 8:
		if k == kind.String {
			var ptr, length uint32
			if ptr, err = opts.Memory.ReadU32(addr); err == nil {
				length, err = opts.Memory.ReadU32(addr + 4)
			}
			if err != nil {
				break
			}
			return LiftString(opts, ptr, length, path)
		}
		flat, err = opts.Memory.ReadU64(addr)
	}
	if err != nil {
		return nil, errors.New(errors.PhaseLift, errors.KindOutOfBounds).
			Path(path...).WitType(k.String()).Cause(err).Build()
	}
	return LiftScalar(k, flat, path)
}

// StoreTuple writes values as a tuple at addr.
func StoreTuple(opts *Options, kinds []kind.Kind, addr uint32, values []any, path []string) error {
	if len(values) != len(kinds) {
		return errors.InvalidInput(errors.PhaseLower, "tuple arity mismatch")
	}
	offsets, _, _ := TupleLayout(kinds)
	for i, k := range kinds {
		if err := Store(opts, k, addr+offsets[i], values[i], elemPath(path, i)); err != nil {
			return err
		}
	}
	return nil
}

// LoadTuple reads a tuple of the given kinds from addr.
func LoadTuple(opts *Options, kinds []kind.Kind, addr uint32, path []string) ([]any, error) {
	offsets, _, _ := TupleLayout(kinds)
	out := make([]any, len(kinds))
	for i, k := range kinds {
		v, err := Load(opts, k, addr+offsets[i], elemPath(path, i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

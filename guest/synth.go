package guest

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/Nor2-io/wit-bindgen-yowl/canon"
	"github.com/Nor2-io/wit-bindgen-yowl/errors"
	"github.com/Nor2-io/wit-bindgen-yowl/iface"
	"github.com/Nor2-io/wit-bindgen-yowl/kind"
)

// Linear memory layout of a synthesised guest. Address 0 is never handed
// out so a zero pointer always means "no allocation". The return area starts
// at ReturnArea and is sized for the largest indirect result; constant
// strings follow it, then the heap.
const (
	ReturnArea        = 8
	MinReturnAreaSize = 8
	MinConstBase      = 64
	MinHeapBase       = 1024
	PageSize          = 65536
)

// Export names of the guest's allocator, memory and allocator state.
const (
	ReallocExport   = "cabi_realloc"
	MemoryExport    = "memory"
	HeapResetExport = "heap_reset"

	// FailedSizeExport and FailedAlignExport are globals holding the
	// request that made cabi_realloc trap, zero otherwise.
	FailedSizeExport  = "alloc_failed_size"
	FailedAlignExport = "alloc_failed_align"
)

// ExportName is the name of the export implementing f natively.
func ExportName(in *iface.Interface, f *iface.Function) string {
	return in.QualifiedName() + "#" + f.Name
}

// RelayName is the name of the export that forwards f to the host import.
func RelayName(in *iface.Interface, f *iface.Function) string {
	return "relay:" + ExportName(in, f)
}

// Mode selects how an export is implemented inside the guest.
type Mode uint8

const (
	// Forward calls the host import of the same function.
	Forward Mode = iota
	// Echo returns its single argument; strings are copied into a fresh
	// allocation first.
	Echo
	// Empty returns the empty string.
	Empty
	// Const returns a string placed in the data segment.
	Const
)

func (m Mode) String() string {
	switch m {
	case Forward:
		return "forward"
	case Echo:
		return "echo"
	case Empty:
		return "empty"
	case Const:
		return "const"
	}
	return "unknown"
}

// Impl is the implementation chosen for one export.
type Impl struct {
	Mode  Mode
	Value string
}

// Resolver picks the implementation of each interface function.
type Resolver func(in *iface.Interface, f *iface.Function) Impl

// DefaultImpl echoes functions shaped like roundtrips and forwards the rest.
func DefaultImpl(_ *iface.Interface, f *iface.Function) Impl {
	if len(f.Params) == 1 && len(f.Results) == 1 && f.Params[0].Kind == f.Results[0] {
		return Impl{Mode: Echo}
	}
	return Impl{Mode: Forward}
}

// BuiltinImpl extends DefaultImpl with the string-returning functions of the
// built-in strings interface.
func BuiltinImpl(in *iface.Interface, f *iface.Function) Impl {
	if in.QualifiedName() == iface.StringsName {
		switch f.Name {
		case "return-empty":
			return Impl{Mode: Empty}
		case "return-unicode":
			return Impl{Mode: Const, Value: iface.UnicodeText}
		}
	}
	return DefaultImpl(in, f)
}

// Options configures synthesis.
type Options struct {
	Encoding canon.StringEncoding
	Resolve  Resolver
}

// Module is a synthesised guest core module.
type Module struct {
	Binary         []byte
	Exports        []string
	ReturnAreaSize uint32
	ConstBase      uint32
	HeapBase       uint32
	Pages          uint32
	Impls          map[string]Impl
}

type importFunc struct {
	module string
	name   string
	sig    iface.Signature
}

type definedFunc struct {
	export string
	sig    iface.Signature
	body   []byte
}

type constRef struct {
	addr   uint32
	length uint32
}

var reallocSig = iface.Signature{
	Params:  []api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32},
	Results: []api.ValueType{api.ValueTypeI32},
}

// Synthesize builds a guest core module that imports every function of the
// given interfaces from host modules named by their qualified names, and
// exports for each function f of interface I both "I#f" and "relay:I#f".
func Synthesize(ifaces []*iface.Interface, opts Options) (*Module, error) {
	resolve := opts.Resolve
	if resolve == nil {
		resolve = DefaultImpl
	}

	var imports []importFunc
	importIdx := make(map[string]uint32)
	for _, in := range ifaces {
		for _, f := range in.Functions {
			importIdx[ExportName(in, f)] = uint32(len(imports))
			imports = append(imports, importFunc{
				module: in.QualifiedName(),
				name:   f.Name,
				sig:    f.ImportSignature(),
			})
		}
	}
	reallocIdx := uint32(len(imports))

	retSize := returnAreaSize(ifaces)
	constBase := canon.AlignTo(ReturnArea+retSize, 8)
	if constBase < MinConstBase {
		constBase = MinConstBase
	}

	// Constant strings go first so the heap can start right after them.
	impls := make(map[string]Impl)
	consts := make(map[string]constRef)
	var data []byte
	for _, in := range ifaces {
		for _, f := range in.Functions {
			name := ExportName(in, f)
			impl := resolve(in, f)
			impls[name] = impl
			if impl.Mode != Const {
				continue
			}
			encoded, length, align, err := canon.EncodeString(opts.Encoding, impl.Value, []string{name})
			if err != nil {
				return nil, err
			}
			for uint32(len(data))%align != 0 {
				data = append(data, 0)
			}
			consts[name] = constRef{addr: constBase + uint32(len(data)), length: length}
			data = append(data, encoded...)
		}
	}

	heapBase := canon.AlignTo(constBase+uint32(len(data)), 8)
	if heapBase < MinHeapBase {
		heapBase = MinHeapBase
	}

	defs := []definedFunc{
		{export: ReallocExport, sig: reallocSig, body: reallocBody()},
		{export: HeapResetExport, body: heapResetBody(heapBase)},
	}
	for _, in := range ifaces {
		for _, f := range in.Functions {
			name := ExportName(in, f)
			sig := f.ExportSignature()

			body, err := implBody(f, impls[name], consts[name], importIdx[name], reallocIdx, opts.Encoding)
			if err != nil {
				return nil, err
			}
			defs = append(defs,
				definedFunc{export: name, sig: sig, body: body},
				definedFunc{export: RelayName(in, f), sig: sig, body: forwardBody(f, importIdx[name])},
			)
		}
	}

	pages := (heapBase + PageSize - 1) / PageSize
	if pages == 0 {
		pages = 1
	}

	m := &Module{
		Binary:         assemble(imports, defs, heapBase, constBase, pages, data),
		ReturnAreaSize: retSize,
		ConstBase:      constBase,
		HeapBase:       heapBase,
		Pages:          pages,
		Impls:          impls,
	}
	m.Exports = append(m.Exports, MemoryExport, FailedSizeExport, FailedAlignExport)
	for _, d := range defs {
		m.Exports = append(m.Exports, d.export)
	}
	return m, nil
}

// returnAreaSize is the size of the largest indirect result tuple, which the
// host writes through the return pointer of forwarded calls.
func returnAreaSize(ifaces []*iface.Interface) uint32 {
	size := uint32(MinReturnAreaSize)
	for _, in := range ifaces {
		for _, f := range in.Functions {
			if !canon.Indirect(f.Results) {
				continue
			}
			if _, n, _ := canon.TupleLayout(f.Results); n > size {
				size = n
			}
		}
	}
	return size
}

func implBody(f *iface.Function, impl Impl, ref constRef, importIdx, reallocIdx uint32, enc canon.StringEncoding) ([]byte, error) {
	switch impl.Mode {
	case Forward:
		return forwardBody(f, importIdx), nil
	case Echo:
		if len(f.Params) != 1 || len(f.Results) != 1 || f.Params[0].Kind != f.Results[0] {
			return nil, errors.New(errors.PhaseGuest, errors.KindUnsupported).
				Path(f.Name).Detail("echo needs one param and a result of the same kind").Build()
		}
		if f.Results[0] == kind.String {
			return echoStringBody(reallocIdx, enc), nil
		}
		var c code
		c.localGet(0)
		return c.body(0), nil
	case Empty, Const:
		if len(f.Results) != 1 || f.Results[0] != kind.String {
			return nil, errors.New(errors.PhaseGuest, errors.KindUnsupported).
				Path(f.Name).Detail("%s needs a single string result", impl.Mode).Build()
		}
		return stringResultBody(ref.addr, ref.length), nil
	}
	return nil, errors.Unsupported(errors.PhaseGuest, "implementation mode "+impl.Mode.String())
}

// forwardBody passes every param through to the import. Indirect results
// are written by the host into the return area, which is then returned.
func forwardBody(f *iface.Function, importIdx uint32) []byte {
	var c code
	for i := range f.ExportSignature().Params {
		c.localGet(uint32(i))
	}
	indirect := canon.Indirect(f.Results)
	if indirect {
		c.i32Const(ReturnArea)
	}
	c.call(importIdx)
	if indirect {
		c.i32Const(ReturnArea)
	}
	return c.body(0)
}

// echoStringBody copies the (ptr, len) argument into a fresh allocation and
// returns it through the return area.
// Locals: 0 ptr, 1 len, 2 byte length, 3 new ptr.
func echoStringBody(reallocIdx uint32, enc canon.StringEncoding) []byte {
	var c code
	align := int32(2)
	switch enc {
	case canon.UTF8:
		c.localGet(1)
		align = 1
	case canon.UTF16:
		c.localGet(1).i32Const(1).op(opI32Shl)
	case canon.Latin1UTF16:
		// (len & 0x7fffffff) << (len >> 31)
		c.localGet(1).i32Const(0x7fffffff).op(opI32And).
			localGet(1).i32Const(31).op(opI32ShrU).
			op(opI32Shl)
	}
	c.localSet(2)

	c.i32Const(0).i32Const(0).i32Const(align).localGet(2).call(reallocIdx).localSet(3)
	c.localGet(3).localGet(0).localGet(2).memoryCopy()

	c.i32Const(ReturnArea).localGet(3).i32Store(0)
	c.i32Const(ReturnArea).localGet(1).i32Store(4)
	c.i32Const(ReturnArea)
	return c.body(2)
}

func stringResultBody(addr, length uint32) []byte {
	var c code
	c.i32Const(ReturnArea).i32Const(int32(addr)).i32Store(0)
	c.i32Const(ReturnArea).i32Const(int32(length)).i32Store(4)
	c.i32Const(ReturnArea)
	return c.body(0)
}

// reallocBody is a bump allocator over global 0. Memory grows one page at a
// time until the new heap end fits; a failed grow records the request in
// globals 1 and 2 and traps. A non-zero old_ptr has min(old_size, new_size)
// bytes copied to the new block.
// Locals: 0 old_ptr, 1 old_size, 2 align, 3 new_size, 4 ptr.
func reallocBody() []byte {
	var c code

	c.localGet(3).op(opI32Eqz).op(opIf, blockTypeEmpty).
		i32Const(0).op(opReturn).
		op(opEnd)

	c.op(opGlobalGet, 0).localGet(2).op(opI32Add).i32Const(1).op(opI32Sub).
		i32Const(0).localGet(2).op(opI32Sub).
		op(opI32And).localSet(4)

	c.localGet(4).localGet(3).op(opI32Add).op(opGlobalSet, 0)

	c.op(opBlock, blockTypeEmpty).op(opLoop, blockTypeEmpty)
	c.op(opGlobalGet, 0).op(opMemorySize, 0x00).i32Const(16).op(opI32Shl).op(opI32LeU).op(opBrIf, 1)
	c.i32Const(1).op(opMemoryGrow, 0x00).i32Const(-1).op(opI32Eq).
		op(opIf, blockTypeEmpty).
		localGet(3).op(opGlobalSet, 1).
		localGet(2).op(opGlobalSet, 2).
		op(opUnreachable).
		op(opEnd)
	c.op(opBr, 0)
	c.op(opEnd).op(opEnd)

	c.localGet(0).op(opIf, blockTypeEmpty)
	c.localGet(4).localGet(0).
		localGet(1).localGet(3).localGet(1).localGet(3).op(opI32LtU).op(opSelect).
		memoryCopy()
	c.op(opEnd)

	c.localGet(4)
	return c.body(1)
}

// heapResetBody releases every allocation by moving the heap back to its base
// and clears the recorded allocation failure.
func heapResetBody(heapBase uint32) []byte {
	var c code
	c.i32Const(int32(heapBase)).op(opGlobalSet, 0)
	c.i32Const(0).op(opGlobalSet, 1)
	c.i32Const(0).op(opGlobalSet, 2)
	return c.body(0)
}

func assemble(imports []importFunc, defs []definedFunc, heapBase, constBase, pages uint32, data []byte) []byte {
	var types [][]byte
	typeIdx := make(map[string]uint32)
	typeOf := func(sig iface.Signature) uint32 {
		enc := encodeFuncType(sig.Params, sig.Results)
		if idx, ok := typeIdx[string(enc)]; ok {
			return idx
		}
		idx := uint32(len(types))
		typeIdx[string(enc)] = idx
		types = append(types, enc)
		return idx
	}

	importTypes := make([]uint32, len(imports))
	for i, imp := range imports {
		importTypes[i] = typeOf(imp.sig)
	}
	defTypes := make([]uint32, len(defs))
	for i, d := range defs {
		defTypes[i] = typeOf(d.sig)
	}

	wasm := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	section := EncodeULEB128(uint32(len(types)))
	for _, t := range types {
		section = append(section, t...)
	}
	wasm = appendSection(wasm, 0x01, section)

	if len(imports) > 0 {
		section = EncodeULEB128(uint32(len(imports)))
		for i, imp := range imports {
			section = appendName(section, imp.module)
			section = appendName(section, imp.name)
			section = append(section, 0x00)
			section = append(section, EncodeULEB128(importTypes[i])...)
		}
		wasm = appendSection(wasm, 0x02, section)
	}

	section = EncodeULEB128(uint32(len(defs)))
	for _, t := range defTypes {
		section = append(section, EncodeULEB128(t)...)
	}
	wasm = appendSection(wasm, 0x03, section)

	section = []byte{0x01, 0x00}
	section = append(section, EncodeULEB128(pages)...)
	wasm = appendSection(wasm, 0x05, section)

	// 0 heap pointer, 1 failed size, 2 failed align
	section = []byte{0x03, 0x7f, 0x01, opI32Const}
	section = append(section, EncodeSLEB128(int32(heapBase))...)
	section = append(section, opEnd)
	section = append(section, 0x7f, 0x01, opI32Const, 0x00, opEnd)
	section = append(section, 0x7f, 0x01, opI32Const, 0x00, opEnd)
	wasm = appendSection(wasm, 0x06, section)

	section = EncodeULEB128(uint32(len(defs) + 3))
	section = appendName(section, MemoryExport)
	section = append(section, 0x02, 0x00)
	section = appendName(section, FailedSizeExport)
	section = append(section, 0x03, 0x01)
	section = appendName(section, FailedAlignExport)
	section = append(section, 0x03, 0x02)
	for i, d := range defs {
		section = appendName(section, d.export)
		section = append(section, 0x00)
		section = append(section, EncodeULEB128(uint32(len(imports)+i))...)
	}
	wasm = appendSection(wasm, 0x07, section)

	section = EncodeULEB128(uint32(len(defs)))
	for _, d := range defs {
		section = append(section, d.body...)
	}
	wasm = appendSection(wasm, 0x0a, section)

	if len(data) > 0 {
		section = []byte{0x01, 0x00, opI32Const}
		section = append(section, EncodeSLEB128(int32(constBase))...)
		section = append(section, opEnd)
		section = append(section, EncodeULEB128(uint32(len(data)))...)
		section = append(section, data...)
		wasm = appendSection(wasm, 0x0b, section)
	}

	return wasm
}

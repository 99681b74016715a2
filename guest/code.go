package guest

// Instruction opcodes used by the synthesised function bodies.
const (
	opUnreachable = 0x00
	opBlock       = 0x02
	opLoop        = 0x03
	opIf          = 0x04
	opEnd         = 0x0b
	opBr          = 0x0c
	opBrIf        = 0x0d
	opReturn      = 0x0f
	opCall        = 0x10
	opSelect      = 0x1b
	opLocalGet    = 0x20
	opLocalSet    = 0x21
	opGlobalGet   = 0x23
	opGlobalSet   = 0x24
	opI32Store    = 0x36
	opMemorySize  = 0x3f
	opMemoryGrow  = 0x40
	opI32Const    = 0x41
	opI32Eqz      = 0x45
	opI32Eq       = 0x46
	opI32LtU      = 0x49
	opI32LeU      = 0x4d
	opI32Add      = 0x6a
	opI32Sub      = 0x6b
	opI32And      = 0x71
	opI32Shl      = 0x74
	opI32ShrU     = 0x76
	opPrefixFC    = 0xfc
	opMemoryCopy  = 0x0a // 0xfc prefixed

	blockTypeEmpty = 0x40
)

// code accumulates a function body's instruction stream.
type code []byte

func (c *code) op(b ...byte) *code {
	*c = append(*c, b...)
	return c
}

func (c *code) localGet(i uint32) *code {
	*c = append(*c, opLocalGet)
	*c = append(*c, EncodeULEB128(i)...)
	return c
}

func (c *code) localSet(i uint32) *code {
	*c = append(*c, opLocalSet)
	*c = append(*c, EncodeULEB128(i)...)
	return c
}

func (c *code) i32Const(v int32) *code {
	*c = append(*c, opI32Const)
	*c = append(*c, EncodeSLEB128(v)...)
	return c
}

func (c *code) call(idx uint32) *code {
	*c = append(*c, opCall)
	*c = append(*c, EncodeULEB128(idx)...)
	return c
}

// i32Store stores with natural 4-byte alignment at the given static offset.
func (c *code) i32Store(offset uint32) *code {
	*c = append(*c, opI32Store, 0x02)
	*c = append(*c, EncodeULEB128(offset)...)
	return c
}

func (c *code) memoryCopy() *code {
	*c = append(*c, opPrefixFC)
	*c = append(*c, EncodeULEB128(opMemoryCopy)...)
	*c = append(*c, 0x00, 0x00)
	return c
}

// body wraps the instructions with a locals declaration and the final end.
// extraI32 is the number of i32 locals beyond the params.
func (c code) body(extraI32 uint32) []byte {
	var b []byte
	if extraI32 == 0 {
		b = append(b, 0x00)
	} else {
		b = append(b, 0x01)
		b = append(b, EncodeULEB128(extraI32)...)
		b = append(b, 0x7f)
	}
	b = append(b, c...)
	b = append(b, opEnd)

	out := EncodeULEB128(uint32(len(b)))
	return append(out, b...)
}

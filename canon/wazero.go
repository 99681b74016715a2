package canon

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/Nor2-io/wit-bindgen-yowl"
)

// WrapMemory adapts a wazero memory to yowl.Memory.
func WrapMemory(mem api.Memory) yowl.Memory {
	if mem == nil {
		return nil
	}
	return &memoryWrapper{mem: mem}
}

// WrapAllocator adapts a guest cabi_realloc export to yowl.Allocator. reset
// is the guest's heap reset export; without one Reset does nothing.
func WrapAllocator(ctx context.Context, realloc, reset api.Function) yowl.Allocator {
	if realloc == nil {
		return nil
	}
	return &reallocWrapper{ctx: ctx, fn: realloc, reset: reset}
}

// ForModule builds options from a module's exported memory, cabi_realloc
// and heap_reset.
func ForModule(ctx context.Context, mod api.Module, enc StringEncoding) *Options {
	return &Options{
		Memory:   WrapMemory(mod.Memory()),
		Alloc:    WrapAllocator(ctx, mod.ExportedFunction("cabi_realloc"), mod.ExportedFunction("heap_reset")),
		Encoding: enc,
	}
}

type memoryWrapper struct {
	mem api.Memory
}

func (m *memoryWrapper) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("memory read out of bounds: offset=%d, length=%d", offset, length)
	}
	return data, nil
}

func (m *memoryWrapper) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return fmt.Errorf("memory write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	return nil
}

func (m *memoryWrapper) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.mem.ReadByte(offset)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return v, nil
}

func (m *memoryWrapper) ReadU16(offset uint32) (uint16, error) {
	v, ok := m.mem.ReadUint16Le(offset)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return v, nil
}

func (m *memoryWrapper) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return v, nil
}

func (m *memoryWrapper) ReadU64(offset uint32) (uint64, error) {
	v, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return v, nil
}

func (m *memoryWrapper) WriteU8(offset uint32, value uint8) error {
	if !m.mem.WriteByte(offset, value) {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	return nil
}

func (m *memoryWrapper) WriteU16(offset uint32, value uint16) error {
	if !m.mem.WriteUint16Le(offset, value) {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	return nil
}

func (m *memoryWrapper) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	return nil
}

func (m *memoryWrapper) WriteU64(offset uint32, value uint64) error {
	if !m.mem.WriteUint64Le(offset, value) {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	return nil
}

type reallocWrapper struct {
	ctx   context.Context
	fn    api.Function
	reset api.Function
}

func (a *reallocWrapper) Alloc(size, align uint32) (uint32, error) {
	results, err := a.fn.Call(a.ctx, 0, 0, uint64(align), uint64(size))
	if err != nil {
		return 0, fmt.Errorf("cabi_realloc: %w", err)
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("cabi_realloc returned no result")
	}
	ptr := uint32(results[0])
	if align > 1 && ptr%align != 0 {
		return 0, fmt.Errorf("cabi_realloc returned %d, not aligned to %d", ptr, align)
	}
	return ptr, nil
}

func (a *reallocWrapper) Reset() error {
	if a.reset == nil {
		return nil
	}
	if _, err := a.reset.Call(a.ctx); err != nil {
		return fmt.Errorf("heap_reset: %w", err)
	}
	return nil
}

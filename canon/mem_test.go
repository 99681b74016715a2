package canon

import (
	"encoding/binary"
	"fmt"
)

// testMemory is a linear memory with a bump allocator for unit tests.
type testMemory struct {
	buf    []byte
	next   uint32
	allocs int
}

func newTestMemory(size int) *testMemory {
	return &testMemory{buf: make([]byte, size), next: 16}
}

func (m *testMemory) options(enc StringEncoding) *Options {
	return &Options{Memory: m, Alloc: m, Encoding: enc}
}

func (m *testMemory) check(offset, length uint32) error {
	if uint64(offset)+uint64(length) > uint64(len(m.buf)) {
		return fmt.Errorf("out of bounds: offset=%d length=%d", offset, length)
	}
	return nil
}

func (m *testMemory) Read(offset, length uint32) ([]byte, error) {
	if err := m.check(offset, length); err != nil {
		return nil, err
	}
	return m.buf[offset : offset+length], nil
}

func (m *testMemory) Write(offset uint32, data []byte) error {
	if err := m.check(offset, uint32(len(data))); err != nil {
		return err
	}
	copy(m.buf[offset:], data)
	return nil
}

func (m *testMemory) ReadU8(offset uint32) (uint8, error) {
	if err := m.check(offset, 1); err != nil {
		return 0, err
	}
	return m.buf[offset], nil
}

func (m *testMemory) ReadU16(offset uint32) (uint16, error) {
	if err := m.check(offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(m.buf[offset:]), nil
}

func (m *testMemory) ReadU32(offset uint32) (uint32, error) {
	if err := m.check(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m.buf[offset:]), nil
}

func (m *testMemory) ReadU64(offset uint32) (uint64, error) {
	if err := m.check(offset, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(m.buf[offset:]), nil
}

func (m *testMemory) WriteU8(offset uint32, v uint8) error {
	if err := m.check(offset, 1); err != nil {
		return err
	}
	m.buf[offset] = v
	return nil
}

func (m *testMemory) WriteU16(offset uint32, v uint16) error {
	if err := m.check(offset, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(m.buf[offset:], v)
	return nil
}

func (m *testMemory) WriteU32(offset uint32, v uint32) error {
	if err := m.check(offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.buf[offset:], v)
	return nil
}

func (m *testMemory) WriteU64(offset uint32, v uint64) error {
	if err := m.check(offset, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(m.buf[offset:], v)
	return nil
}

func (m *testMemory) Alloc(size, align uint32) (uint32, error) {
	ptr := AlignTo(m.next, align)
	if err := m.check(ptr, size); err != nil {
		return 0, err
	}
	m.next = ptr + size
	m.allocs++
	return ptr, nil
}

func (m *testMemory) Reset() error {
	m.next = 16
	return nil
}

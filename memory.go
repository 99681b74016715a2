package yowl

// Memory is a view of guest linear memory. Multi-byte values are little-endian.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU8(offset uint32, value uint8) error
	WriteU16(offset uint32, value uint16) error
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
}

// Allocator hands out regions of guest linear memory through the guest's
// cabi_realloc export. Reset releases every region handed out so far; lifted
// values never alias guest memory, so a call's allocations are dead once its
// results are lifted.
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
	Reset() error
}

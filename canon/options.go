package canon

import (
	"github.com/Nor2-io/wit-bindgen-yowl"
)

// Canonical ABI flattening limits.
const (
	MaxFlatParams  = 16
	MaxFlatResults = 1
)

// StringEncoding selects how strings are laid out in linear memory.
type StringEncoding byte

const (
	UTF8 StringEncoding = iota
	UTF16
	Latin1UTF16
)

// latin1+utf16 marks a UTF-16 payload by setting the high bit of the length.
const utf16Tag = uint32(1) << 31

var encodingNames = [...]string{
	UTF8:        "utf8",
	UTF16:       "utf16",
	Latin1UTF16: "latin1+utf16",
}

func (e StringEncoding) String() string {
	if int(e) < len(encodingNames) {
		return encodingNames[e]
	}
	return "unknown"
}

// ParseEncoding accepts the canonical option spellings.
func ParseEncoding(s string) (StringEncoding, bool) {
	switch s {
	case "utf8", "utf-8", "":
		return UTF8, true
	case "utf16", "utf-16", "utf16le":
		return UTF16, true
	case "latin1+utf16", "compact-utf16", "latin1":
		return Latin1UTF16, true
	}
	return 0, false
}

// Encodings lists every supported string encoding.
var Encodings = []StringEncoding{UTF8, UTF16, Latin1UTF16}

// Options carries the canonical options of one side of a boundary call.
type Options struct {
	Memory   yowl.Memory
	Alloc    yowl.Allocator
	Encoding StringEncoding
}

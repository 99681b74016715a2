package canon

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/Nor2-io/wit-bindgen-yowl/errors"
)

// maxStringUnits bounds the length field so that the latin1+utf16 tag bit
// never collides with a real length.
const maxStringUnits = utf16Tag - 1

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// EncodeString returns the wire bytes of s under enc, the value of the length
// field and the alignment the buffer needs.
func EncodeString(enc StringEncoding, s string, path []string) (data []byte, length uint32, align uint32, err error) {
	if !utf8.ValidString(s) {
		return nil, 0, 0, errors.InvalidUTF8(errors.PhaseLower, path, []byte(s))
	}

	switch enc {
	case UTF8:
		data = []byte(s)
		length = uint32(len(data))
		align = 1
	case UTF16:
		data, err = utf16le.NewEncoder().Bytes([]byte(s))
		if err != nil {
			return nil, 0, 0, errors.New(errors.PhaseLower, errors.KindEncodingMismatch).
				Path(path...).WitType("string").Cause(err).Detail("utf-16 encode").Build()
		}
		length = uint32(len(data) / 2)
		align = 2
	case Latin1UTF16:
		align = 2
		if isLatin1(s) {
			data, err = charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
			if err != nil {
				return nil, 0, 0, errors.New(errors.PhaseLower, errors.KindEncodingMismatch).
					Path(path...).WitType("string").Cause(err).Detail("latin1 encode").Build()
			}
			length = uint32(len(data))
			break
		}
		data, err = utf16le.NewEncoder().Bytes([]byte(s))
		if err != nil {
			return nil, 0, 0, errors.New(errors.PhaseLower, errors.KindEncodingMismatch).
				Path(path...).WitType("string").Cause(err).Detail("utf-16 encode").Build()
		}
		length = uint32(len(data)/2) | utf16Tag
	default:
		return nil, 0, 0, errors.Unsupported(errors.PhaseLower, "string encoding "+enc.String())
	}

	if uint64(len(data)) > uint64(maxStringUnits) {
		return nil, 0, 0, errors.RangeViolation(errors.PhaseLower, path, len(s), "string")
	}
	return data, length, align, nil
}

// DecodeString is the inverse of EncodeString. data holds exactly the bytes
// covered by the length field.
func DecodeString(enc StringEncoding, data []byte, length uint32, path []string) (string, error) {
	switch enc {
	case UTF8:
		if !utf8.Valid(data) {
			return "", errors.InvalidUTF8(errors.PhaseLift, path, data)
		}
		return string(data), nil
	case UTF16:
		return decodeUTF16(data, path)
	case Latin1UTF16:
		if length&utf16Tag != 0 {
			return decodeUTF16(data, path)
		}
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return "", errors.New(errors.PhaseLift, errors.KindEncodingMismatch).
				Path(path...).WitType("string").Cause(err).Detail("latin1 decode").Build()
		}
		return string(out), nil
	}
	return "", errors.Unsupported(errors.PhaseLift, "string encoding "+enc.String())
}

// decodeUTF16 rejects unpaired surrogates before decoding; the x/text decoder
// would silently substitute U+FFFD for them.
func decodeUTF16(data []byte, path []string) (string, error) {
	if len(data)%2 != 0 {
		return "", errors.New(errors.PhaseLift, errors.KindEncodingMismatch).
			Path(path...).WitType("string").
			Detail("odd utf-16 byte length %d", len(data)).Build()
	}
	n := len(data) / 2
	for i := 0; i < n; i++ {
		u := uint16(data[2*i]) | uint16(data[2*i+1])<<8
		switch {
		case u >= 0xD800 && u <= 0xDBFF:
			if i+1 >= n {
				return "", errors.UnpairedSurrogate(errors.PhaseLift, path, i, u)
			}
			next := uint16(data[2*i+2]) | uint16(data[2*i+3])<<8
			if next < 0xDC00 || next > 0xDFFF {
				return "", errors.UnpairedSurrogate(errors.PhaseLift, path, i, u)
			}
			i++
		case u >= 0xDC00 && u <= 0xDFFF:
			return "", errors.UnpairedSurrogate(errors.PhaseLift, path, i, u)
		}
	}
	out, err := utf16le.NewDecoder().Bytes(data)
	if err != nil {
		return "", errors.New(errors.PhaseLift, errors.KindEncodingMismatch).
			Path(path...).WitType("string").Cause(err).Detail("utf-16 decode").Build()
	}
	return string(out), nil
}

func isLatin1(s string) bool {
	for _, r := range s {
		if r > 0xFF {
			return false
		}
	}
	return true
}

// byteLength is the number of bytes a length field covers under enc.
func byteLength(enc StringEncoding, length uint32) uint64 {
	switch enc {
	case UTF16:
		return uint64(length) * 2
	case Latin1UTF16:
		if length&utf16Tag != 0 {
			return uint64(length&^utf16Tag) * 2
		}
		return uint64(length)
	default:
		return uint64(length)
	}
}

// LowerString copies s into memory obtained from the allocator. An empty
// string lowers to (0, 0) without allocating.
func LowerString(opts *Options, s string, path []string) (ptr, length uint32, err error) {
	if s == "" {
		return 0, 0, nil
	}
	data, length, align, err := EncodeString(opts.Encoding, s, path)
	if err != nil {
		return 0, 0, err
	}
	if opts.Memory == nil {
		return 0, 0, errors.NotInitialized(errors.PhaseLower, "memory")
	}
	if opts.Alloc == nil {
		return 0, 0, errors.NotInitialized(errors.PhaseLower, "allocator")
	}
	ptr, err = opts.Alloc.Alloc(uint32(len(data)), align)
	if err != nil {
		return 0, 0, errors.AllocationFailed(errors.PhaseLower, uint32(len(data)), align, err)
	}
	if err := opts.Memory.Write(ptr, data); err != nil {
		return 0, 0, errors.New(errors.PhaseLower, errors.KindOutOfBounds).
			Path(path...).Cause(err).Detail("write string at %d", ptr).Build()
	}
	return ptr, length, nil
}

// LiftString copies a string out of memory. The result does not alias guest
// memory.
func LiftString(opts *Options, ptr, length uint32, path []string) (string, error) {
	n := byteLength(opts.Encoding, length)
	if n == 0 {
		return "", nil
	}
	if opts.Memory == nil {
		return "", errors.NotInitialized(errors.PhaseLift, "memory")
	}
	if opts.Encoding != UTF8 && ptr%2 != 0 {
		return "", errors.New(errors.PhaseLift, errors.KindEncodingMismatch).
			Path(path...).WitType("string").
			Detail("misaligned %s pointer %d", opts.Encoding, ptr).Build()
	}
	if uint64(ptr)+n > 1<<32 {
		return "", errors.OutOfBounds(errors.PhaseLift, path, ptr, uint32(n))
	}
	data, err := opts.Memory.Read(ptr, uint32(n))
	if err != nil {
		return "", errors.New(errors.PhaseLift, errors.KindOutOfBounds).
			Path(path...).Cause(err).Detail("read string at %d", ptr).Build()
	}
	return DecodeString(opts.Encoding, data, length, path)
}

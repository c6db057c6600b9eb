package clr

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"
)

// Heap is an immutable metadata stream addressed by byte offset.
type Heap struct {
	Name string
	Data []byte
	// IndexSize is the width in bytes of a table column pointing into the heap.
	IndexSize int
}

func newHeap(name string, data []byte) Heap {
	return Heap{Name: name, Data: data, IndexSize: 2}
}

// Size returns the number of bytes in the heap.
func (h *Heap) Size() int {
	return len(h.Data)
}

func (h *Heap) check(name string, index uint32) error {
	if h == nil {
		return errors.Wrapf(ErrHeapAbsent, "%s heap", name)
	}
	if int64(index) >= int64(len(h.Data)) {
		return errors.Wrapf(ErrOutsideBoundary, "index 0x%x beyond %s heap of %d bytes", index, name, len(h.Data))
	}
	return nil
}

// blobAt reads a compressed length prefix at index and returns the payload.
func (h *Heap) blobAt(name string, index uint32) ([]byte, error) {
	if err := h.check(name, index); err != nil {
		return nil, err
	}
	length, n, err := decodeCompressedUint(h.Data[index:])
	if err != nil {
		return nil, errors.WithMessagef(err, "%s heap index 0x%x", name, index)
	}
	start := uint64(index) + uint64(n)
	end := start + uint64(length)
	if end > uint64(len(h.Data)) {
		return nil, errors.Wrapf(ErrOutsideBoundary, "%s entry at 0x%x overruns heap", name, index)
	}
	return h.Data[start:end], nil
}

// StringHeap is the #Strings stream of NUL-terminated UTF-8 names.
type StringHeap struct{ Heap }

// StringAt returns the identifier at index.
func (h *StringHeap) StringAt(index uint32) (string, error) {
	if h == nil {
		return "", errors.Wrap(ErrHeapAbsent, "string heap")
	}
	if err := h.check("string", index); err != nil {
		return "", err
	}
	return string(GetStringFromData(index, h.Data)), nil
}

// BlobHeap is the #Blob stream of length prefixed byte sequences.
type BlobHeap struct{ Heap }

// Blob returns the blob stored at index.
func (h *BlobHeap) Blob(index uint32) ([]byte, error) {
	if h == nil {
		return nil, errors.Wrap(ErrHeapAbsent, "blob heap")
	}
	return h.blobAt("blob", index)
}

// GUIDHeap is the #GUID stream of 16-byte entries.
type GUIDHeap struct{ Heap }

const guidSize = 16

// GUID returns the entry at the 1-based index. Index 0 is the nil GUID.
func (h *GUIDHeap) GUID(index uint32) (uuid.UUID, error) {
	if h == nil {
		return uuid.Nil, errors.Wrap(ErrHeapAbsent, "GUID heap")
	}
	if index == 0 {
		return uuid.Nil, nil
	}
	start := uint64(index-1) * guidSize
	if start+guidSize > uint64(len(h.Data)) {
		return uuid.Nil, errors.Wrapf(ErrOutsideBoundary, "GUID index %d beyond heap of %d bytes", index, len(h.Data))
	}
	return guidFromBytes(h.Data[start : start+guidSize]), nil
}

// guidFromBytes converts the on-disk GUID layout, whose first three groups are
// little endian, into RFC 4122 byte order.
func guidFromBytes(b []byte) uuid.UUID {
	var u uuid.UUID
	u[0], u[1], u[2], u[3] = b[3], b[2], b[1], b[0]
	u[4], u[5] = b[5], b[4]
	u[6], u[7] = b[7], b[6]
	copy(u[8:], b[8:16])
	return u
}

// UserStringHeap is the #US stream of UTF-16 string literals.
type UserStringHeap struct{ Heap }

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// StringAt returns the literal at index.
func (h *UserStringHeap) StringAt(index uint32) (string, error) {
	if h == nil {
		return "", errors.Wrap(ErrHeapAbsent, "user string heap")
	}
	data, err := h.blobAt("user string", index)
	if err != nil {
		return "", err
	}
	// an odd length carries a trailing byte flagging non-ASCII content
	if len(data)%2 == 1 {
		data = data[:len(data)-1]
	}
	s, err := utf16le.NewDecoder().Bytes(data)
	if err != nil {
		return "", errors.Wrapf(err, "user string at 0x%x", index)
	}
	return string(s), nil
}

// decodeCompressedUint reads an ECMA-335 compressed unsigned integer and
// returns the value and the number of bytes consumed.
func decodeCompressedUint(b []byte) (uint32, int, error) {
	if len(b) == 0 {
		return 0, 0, errors.Wrap(ErrOutsideBoundary, "empty compressed integer")
	}
	switch {
	case b[0]&0x80 == 0:
		return uint32(b[0]), 1, nil
	case b[0]&0xC0 == 0x80:
		if len(b) < 2 {
			return 0, 0, errors.Wrap(ErrOutsideBoundary, "truncated compressed integer")
		}
		return uint32(b[0]&0x3F)<<8 | uint32(b[1]), 2, nil
	case b[0]&0xE0 == 0xC0:
		if len(b) < 4 {
			return 0, 0, errors.Wrap(ErrOutsideBoundary, "truncated compressed integer")
		}
		return uint32(b[0]&0x1F)<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), 4, nil
	}
	return 0, 0, errors.Errorf("invalid compressed integer lead byte 0x%x", b[0])
}

package clr

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// MetadataRoot is the header of the metadata block.
type MetadataRoot struct {
	MajorVersion uint16
	MinorVersion uint16
	Version      string
	Flags        uint16
	Streams      []StreamHeader
}

type StreamHeader struct {
	// Offset is relative to the start of the metadata root.
	Offset uint32
	Size   uint32
	Name   string
}

func (f *File) readMetadata() (err error) {
	rva := f.RuntimeHeader.Metadata.VirtualAddress
	if f.MetadataSection, err = f.SectionByRVA(rva); err != nil {
		return errors.WithMessage(err, "failure to locate metadata section")
	}
	if err := f.gotoRVA(rva); err != nil {
		return err
	}

	signature, err := f.c.u32()
	if err != nil {
		return errors.WithMessage(err, "failure to read metadata signature")
	}
	if signature != MetadataSignature {
		return errors.Wrapf(ErrMalformedContainer, "invalid metadata signature 0x%x", signature)
	}

	root := &f.Metadata
	var length uint32
	read := func(data any) bool {
		err = f.c.read(data)
		return err == nil
	}
	skip := func(n int64) bool {
		err = f.c.skip(n)
		return err == nil
	}
	if !read(&root.MajorVersion) ||
		!read(&root.MinorVersion) ||
		!skip(4) || // reserved
		!read(&length) {
		return errors.WithMessage(err, "failure to read metadata root")
	}
	if length > maxVersionLength {
		return errors.Wrapf(ErrMalformedContainer, "metadata version length %d", length)
	}
	version, err := f.c.bytes(int(length))
	if err != nil {
		return errors.WithMessage(err, "failure to read metadata version")
	}
	root.Version = cString(version)

	var count uint16
	if !read(&root.Flags) || !read(&count) {
		return errors.WithMessage(err, "failure to read metadata root")
	}

	// Stream offsets are relative to the metadata root, which itself sits at
	// this offset from the section's raw data.
	base := rva - f.MetadataSection.VirtualAddress
	root.Streams = make([]StreamHeader, 0, count)
	for i := 0; i < int(count); i++ {
		var sh StreamHeader
		if !read(&sh.Offset) || !read(&sh.Size) {
			return errors.WithMessagef(err, "failure to read stream header %d", i)
		}
		if sh.Name, err = f.readStreamName(); err != nil {
			return errors.WithMessagef(err, "failure to read stream header %d", i)
		}
		root.Streams = append(root.Streams, sh)

		offset := base + sh.Offset
		data, serr := f.streamData(offset, sh.Size)
		if serr != nil {
			return errors.WithMessagef(serr, "failure to read stream %q", sh.Name)
		}
		f.dispatchStream(sh.Name, offset, data)
	}

	if f.Tables == nil {
		return nil
	}
	return f.readTableHeap()
}

// readStreamName reads a NUL-terminated name of at most 32 bytes and moves
// the cursor to the next 4-byte boundary.
func (f *File) readStreamName() (string, error) {
	name := make([]byte, 0, maxStreamNameSize)
	for i := 0; i < maxStreamNameSize; i++ {
		b, err := f.c.u8()
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		name = append(name, b)
	}
	if err := f.c.align(4); err != nil {
		return "", err
	}
	return string(name), nil
}

// streamData copies size bytes located at offset from the metadata section's
// raw data.
func (f *File) streamData(offset, size uint32) ([]byte, error) {
	start := int64(f.MetadataSection.PointerToRawData) + int64(offset)
	if start+int64(size) > f.size {
		return nil, errors.Wrapf(ErrOutsideBoundary, "stream of 0x%x bytes at 0x%x", size, start)
	}
	data := make([]byte, size)
	if _, err := f.sr.ReadAt(data, start); err != nil {
		return nil, errors.Wrapf(ErrOutsideBoundary, "stream of 0x%x bytes at 0x%x", size, start)
	}
	return data, nil
}

func (f *File) dispatchStream(name string, offset uint32, data []byte) {
	switch name {
	case streamTables, streamTablesUncompressed:
		f.Tables = &TableHeap{Name: name, Data: data, StreamOffset: offset}
	case streamStrings:
		f.Strings = &StringHeap{newHeap(name, data)}
	case streamBlob:
		f.Blobs = &BlobHeap{newHeap(name, data)}
	case streamGUID:
		f.GUIDs = &GUIDHeap{newHeap(name, data)}
	case streamUserStrings:
		f.UserStrings = &UserStringHeap{newHeap(name, data)}
	default:
		f.logger.Debug("skipping unsupported metadata stream",
			zap.String("name", name),
			zap.Int("size", len(data)))
	}
}

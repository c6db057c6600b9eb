package clr

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// RuntimeHeader is the managed runtime header pointed to by the image's
// runtime data directory.
type RuntimeHeader struct {
	MajorRuntimeVersion uint16
	MinorRuntimeVersion uint16
	Metadata            DataDirectory
	Flags               RuntimeFlags
	EntryPointToken     Token
	Resources           DataDirectory
	// StrongNameSignature is recorded but never verified.
	StrongNameSignature DataDirectory
}

func (f *File) readRuntimeHeader() (err error) {
	if !f.RuntimeDirectory.Present() {
		return errors.Wrap(ErrMalformedContainer, "image has no runtime header")
	}
	if err := f.gotoRVA(f.RuntimeDirectory.VirtualAddress); err != nil {
		return errors.WithMessage(err, "failure to locate runtime header")
	}

	rh := &f.RuntimeHeader
	read := func(data any) bool {
		err = f.c.read(data)
		return err == nil
	}
	// cb
	if err := f.c.skip(4); err != nil {
		return err
	}
	if !read(&rh.MajorRuntimeVersion) ||
		!read(&rh.MinorRuntimeVersion) ||
		!read(&rh.Metadata) ||
		!read(&rh.Flags) ||
		!read(&rh.EntryPointToken) ||
		!read(&rh.Resources) ||
		!read(&rh.StrongNameSignature) {
		return errors.WithMessage(err, "failure to read runtime header")
	}
	return nil
}

// ManifestResource returns the managed resource stored at offset within the
// runtime header's resources directory. Each resource is prefixed by its
// 4-byte length.
func (f *File) ManifestResource(offset uint32) ([]byte, error) {
	res := f.RuntimeHeader.Resources
	if !res.Present() {
		return nil, errors.Wrap(ErrAddressOutOfRange, "image has no managed resources")
	}
	if uint64(offset)+4 > uint64(res.Size) {
		return nil, errors.Wrapf(ErrOutsideBoundary, "resource offset 0x%x beyond directory size 0x%x", offset, res.Size)
	}
	prefix, err := f.ReadAtRVA(res.VirtualAddress+offset, 4)
	if err != nil {
		return nil, err
	}
	length := binary.LittleEndian.Uint32(prefix)
	if uint64(offset)+4+uint64(length) > uint64(res.Size) {
		return nil, errors.Wrapf(ErrOutsideBoundary, "resource at 0x%x overruns directory", offset)
	}
	return f.ReadAtRVA(res.VirtualAddress+offset+4, length)
}

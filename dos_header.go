package clr

import (
	"github.com/h2non/filetype"
	"github.com/pkg/errors"
)

func (f *File) readDOSHeader() error {
	stub := make([]byte, lfanewOffset+4)
	if _, err := f.sr.ReadAt(stub, 0); err != nil {
		return errors.Wrap(ErrMalformedContainer, "failure to read DOS header")
	}
	if !filetype.Is(stub, "exe") {
		return errors.Wrap(ErrMalformedContainer, "invalid DOS header signature")
	}

	if err := f.c.seek(lfanewOffset); err != nil {
		return err
	}
	lfanew, err := f.c.u32()
	if err != nil {
		return err
	}
	if lfanew < 4 || int64(lfanew) > f.size {
		return errors.Wrapf(ErrMalformedContainer, "invalid e_lfanew value 0x%x", lfanew)
	}
	f.AddressOfNewEXEHeader = lfanew
	return nil
}

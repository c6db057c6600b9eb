package clr

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	methodFormatMask = 0x3
	methodTinyFormat = 0x2
	methodFatFormat  = 0x3
	methodMoreSects  = 0x8
	methodInitLocals = 0x10

	fatHeaderSize   = 12
	tinyMaxStack    = 8
	fatFlagsMask    = 0x0FFF
	fatSizeShift    = 12
	tinyLengthShift = 2
)

// MethodBody is a method's bytecode and the header in front of it.
type MethodBody struct {
	RVA        uint32
	Fat        bool
	Flags      uint16
	HeaderSize uint32
	MaxStack   uint16
	// LocalVarSig is the StandAloneSig token of the locals, nil for tiny bodies.
	LocalVarSig Token
	Code        []byte
}

// MoreSects reports whether data sections (exception clauses) follow the code.
func (b *MethodBody) MoreSects() bool {
	return b.Flags&methodMoreSects != 0
}

// InitLocals reports whether locals are zero initialized.
func (b *MethodBody) InitLocals() bool {
	return b.Flags&methodInitLocals != 0
}

// MethodBody reads the method body at rva.
func (f *File) MethodBody(rva uint32) (*MethodBody, error) {
	first, err := f.ReadAtRVA(rva, 1)
	if err != nil {
		return nil, errors.WithMessagef(err, "method body at 0x%x", rva)
	}

	body := &MethodBody{RVA: rva}
	var codeSize uint32
	switch first[0] & methodFormatMask {
	case methodTinyFormat:
		body.Flags = uint16(first[0] & methodFormatMask)
		body.HeaderSize = 1
		body.MaxStack = tinyMaxStack
		codeSize = uint32(first[0] >> tinyLengthShift)
	case methodFatFormat:
		hdr, err := f.ReadAtRVA(rva, fatHeaderSize)
		if err != nil {
			return nil, errors.WithMessagef(err, "method body at 0x%x", rva)
		}
		flagsAndSize := binary.LittleEndian.Uint16(hdr)
		body.Fat = true
		body.Flags = flagsAndSize & fatFlagsMask
		body.HeaderSize = uint32(flagsAndSize>>fatSizeShift) * 4
		body.MaxStack = binary.LittleEndian.Uint16(hdr[2:])
		codeSize = binary.LittleEndian.Uint32(hdr[4:])
		body.LocalVarSig = Token(binary.LittleEndian.Uint32(hdr[8:]))
		if body.HeaderSize < fatHeaderSize {
			return nil, errors.Wrapf(ErrMalformedContainer, "fat method header at 0x%x is %d bytes", rva, body.HeaderSize)
		}
	default:
		return nil, errors.Wrapf(ErrMalformedContainer, "method header at 0x%x has format 0x%x", rva, first[0]&methodFormatMask)
	}

	if body.Code, err = f.ReadAtRVA(rva+body.HeaderSize, codeSize); err != nil {
		return nil, errors.WithMessagef(err, "method body at 0x%x", rva)
	}
	return body, nil
}

// MethodDefBody reads the body of the 1-based MethodDef row.
func (f *File) MethodDefBody(row uint32) (*MethodBody, error) {
	md, err := f.MethodDef(row)
	if err != nil {
		return nil, err
	}
	if md.RVA == 0 {
		return nil, errors.Wrapf(ErrAddressOutOfRange, "method %q has no body", md.Name)
	}
	return f.MethodBody(md.RVA)
}

package clr

import (
	"time"

	"github.com/pkg/errors"
)

type DataDirectory struct {
	VirtualAddress uint32
	Size           uint32
}

// Present reports whether the directory exists in the image.
func (dd DataDirectory) Present() bool {
	return dd.Size != 0
}

// Header holds the container header values the metadata decoder keeps.
type Header struct {
	AddressOfNewEXEHeader uint32
	Machine               uint16
	NumberOfSections      uint16
	TimeDateStamp         time.Time
	Characteristics       Characteristics
	Magic                 uint16
	Subsystem             Subsystem
	DllCharacteristics    DllFlags

	BaseRelocationTable DataDirectory
	// RuntimeDirectory locates the runtime header that leads to the metadata.
	RuntimeDirectory DataDirectory
}

// Is64 reports whether the optional header uses the PE32+ layout.
func (h *Header) Is64() bool {
	return h.Magic == ImageNtOptionalHdr64Magic
}

func (f *File) readNTHeader() (err error) {
	if err := f.c.seek(int64(f.AddressOfNewEXEHeader)); err != nil {
		return err
	}

	signature, err := f.c.u32()
	if err != nil {
		return err
	}
	if signature != ImageNTHeaderSignature {
		return errors.Wrap(ErrMalformedContainer, "not a valid PE signature. Magic not found")
	}

	read := func(data any) bool {
		err = f.c.read(data)
		return err == nil
	}
	skip := func(n int64) bool {
		err = f.c.skip(n)
		return err == nil
	}

	var timestamp uint32
	if !read(&f.Machine) {
		return errors.WithMessage(err, "failure to read machine")
	}
	if f.Machine != ImageFileMachineI386 {
		return errors.Wrapf(ErrMalformedContainer, "unsupported machine 0x%x", f.Machine)
	}

	// Symbol table pointer, symbol count and optional header size are not used.
	if !read(&f.NumberOfSections) ||
		!read(&timestamp) ||
		!skip(10) ||
		!read(&f.Characteristics) ||
		!read(&f.Magic) {
		return errors.WithMessage(err, "failure to read file header")
	}
	f.TimeDateStamp = time.Unix(int64(timestamp), 0).UTC()

	if f.Magic != ImageNtOptionalHdr32Magic && f.Magic != ImageNtOptionalHdr64Magic {
		return errors.Wrapf(ErrMalformedContainer, "optional header has unexpected Magic of 0x%x", f.Magic)
	}

	var reserved uint32
	if !skip(50) || !read(&reserved) {
		return errors.WithMessage(err, "failure to read optional header")
	}
	if reserved != 0 {
		return errors.Wrapf(ErrMalformedContainer, "reserved optional header value is 0x%x", reserved)
	}

	// Stack and heap reservations are pointer sized.
	stackBlock := int64(48)
	if f.Is64() {
		stackBlock = 64
	}
	if !skip(12) ||
		!read(&f.Subsystem) ||
		!read(&f.DllCharacteristics) ||
		!skip(stackBlock) ||
		!read(&f.BaseRelocationTable) ||
		!skip(80) ||
		!read(&f.RuntimeDirectory) ||
		!skip(8) {
		return errors.WithMessage(err, "failure to read optional header")
	}
	return nil
}

// ModuleKind classifies an image by how it is loaded.
type ModuleKind int

const (
	ModuleKindConsole ModuleKind = iota
	ModuleKindWindows
	ModuleKindLibrary
)

func (k ModuleKind) String() string {
	switch k {
	case ModuleKindLibrary:
		return "library"
	case ModuleKindWindows:
		return "windows"
	default:
		return "console"
	}
}

func moduleKind(characteristics Characteristics, subsystem Subsystem) ModuleKind {
	if characteristics&ImageFileDLL != 0 {
		return ModuleKindLibrary
	}
	if subsystem == ImageSubsystemWindowsGUI || subsystem == ImageSubsystemWindowsCEGUI {
		return ModuleKindWindows
	}
	return ModuleKindConsole
}

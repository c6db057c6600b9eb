package clr

import (
	"crypto/md5"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

type SectionHeader32 struct {
	Name                 [8]uint8
	VirtualSize          uint32
	VirtualAddress       uint32
	SizeOfRawData        uint32
	PointerToRawData     uint32
	PointerToRelocations uint32
	PointerToLineNumbers uint32
	NumberOfRelocations  uint16
	NumberOfLineNumbers  uint16
	Characteristics      uint32
}

type SectionHeader struct {
	Name             string
	VirtualSize      uint32
	VirtualAddress   uint32
	SizeOfRawData    uint32
	PointerToRawData uint32
	Characteristics  uint32
}

type Section struct {
	SectionHeader

	sr *io.SectionReader
}

// Data reads and returns the raw contents of the section.
func (s *Section) Data() ([]byte, error) {
	dat := make([]byte, s.sr.Size())
	n, err := s.sr.ReadAt(dat, 0)
	if n == len(dat) {
		err = nil
	}
	return dat[0:n], err
}

// Open returns a new ReadSeeker reading the section's raw data.
func (s *Section) Open() io.ReadSeeker {
	return io.NewSectionReader(s.sr, 0, s.sr.Size())
}

// Contains reports whether rva falls inside the section. The on-disk extent
// (SizeOfRawData) bounds the section, not VirtualSize.
func (s *Section) Contains(rva uint32) bool {
	return rva >= s.VirtualAddress && uint64(rva) < uint64(s.VirtualAddress)+uint64(s.SizeOfRawData)
}

func (s *Section) MD5() string {
	hasher := md5.New()
	_, _ = io.Copy(hasher, s.Open())
	return fmt.Sprintf("%x", hasher.Sum(nil))
}

func (s *Section) Entropy() float64 {
	var e EntropyCalculator
	_, _ = io.Copy(&e, s.Open())
	return e.Sum()
}

func (s *Section) Flags() (flags string) {
	if (ImageScnMemRead & s.Characteristics) == ImageScnMemRead {
		flags += "r"
	}
	if (ImageScnMemExecute & s.Characteristics) == ImageScnMemExecute {
		flags += "x"
	}
	if (ImageScnMemWrite & s.Characteristics) == ImageScnMemWrite {
		flags += "w"
	}
	return flags
}

func (f *File) readSections() error {
	f.Sections = make([]*Section, f.NumberOfSections)
	for i := 0; i < int(f.NumberOfSections); i++ {
		// relocation and line number fields are read but meaningless for images
		sh := new(SectionHeader32)
		if err := f.c.read(sh); err != nil {
			return errors.WithMessagef(err, "failure to read section header %d", i)
		}
		s := new(Section)
		s.SectionHeader = SectionHeader{
			Name:             cString(sh.Name[:]),
			VirtualSize:      sh.VirtualSize,
			VirtualAddress:   sh.VirtualAddress,
			SizeOfRawData:    sh.SizeOfRawData,
			PointerToRawData: sh.PointerToRawData,
			Characteristics:  sh.Characteristics,
		}
		var r io.ReaderAt = f.sr
		if sh.PointerToRawData == 0 { // .bss must have all 0s
			r = zeroReaderAt{}
		}
		s.sr = io.NewSectionReader(r, int64(sh.PointerToRawData), int64(sh.SizeOfRawData))
		f.Sections[i] = s
	}
	return nil
}

// Section returns the first section with the given name, or nil.
func (f *File) Section(name string) *Section {
	for _, s := range f.Sections {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// SectionByRVA returns the section whose raw extent contains rva.
func (f *File) SectionByRVA(rva uint32) (*Section, error) {
	for _, section := range f.Sections {
		if section.Contains(rva) {
			return section, nil
		}
	}
	return nil, errors.Wrapf(ErrAddressOutOfRange, "no section contains RVA 0x%x", rva)
}

// RVAToOffset translates a relative virtual address into a file offset.
func (f *File) RVAToOffset(rva uint32) (uint32, error) {
	section, err := f.SectionByRVA(rva)
	if err != nil {
		return 0, err
	}
	return rva - section.VirtualAddress + section.PointerToRawData, nil
}

// ReadAtRVA reads n bytes of the image starting at rva.
func (f *File) ReadAtRVA(rva, n uint32) ([]byte, error) {
	offset, err := f.RVAToOffset(rva)
	if err != nil {
		return nil, err
	}
	if int64(offset)+int64(n) > f.size {
		return nil, errors.Wrapf(ErrOutsideBoundary, "read %d bytes at RVA 0x%x", n, rva)
	}
	data := make([]byte, n)
	if n == 0 {
		return data, nil
	}
	if _, err := f.sr.ReadAt(data, int64(offset)); err != nil {
		return nil, errors.Wrapf(ErrOutsideBoundary, "read %d bytes at RVA 0x%x", n, rva)
	}
	return data, nil
}

func (f *File) gotoRVA(rva uint32) error {
	offset, err := f.RVAToOffset(rva)
	if err != nil {
		return err
	}
	return f.c.seek(int64(offset))
}

// zeroReaderAt is ReaderAt that reads 0s.
type zeroReaderAt struct{}

// ReadAt writes len(p) 0s into p.
func (w zeroReaderAt) ReadAt(p []byte, off int64) (n int, err error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

package clr

import (
	"io"
)

type largestOffsetAndSize struct {
	offset, size int64
}

// overlayOffset returns the offset of the first byte past everything the
// headers describe, or 0 when nothing follows.
func (f *File) overlayOffset() int64 {
	largest := largestOffsetAndSize{}
	update := func(offset, size int64) {
		sum := offset + size
		if sum <= f.size && sum > largest.offset+largest.size {
			largest = largestOffsetAndSize{offset: offset, size: size}
		}
	}

	for _, section := range f.Sections {
		update(int64(section.PointerToRawData), int64(section.SizeOfRawData))
	}

	for _, dd := range []DataDirectory{
		f.RuntimeDirectory,
		f.RuntimeHeader.Metadata,
		f.RuntimeHeader.Resources,
		f.RuntimeHeader.StrongNameSignature,
	} {
		if !dd.Present() {
			continue
		}
		offset, err := f.RVAToOffset(dd.VirtualAddress)
		if err != nil {
			continue
		}
		update(int64(offset), int64(dd.Size))
	}

	if end := largest.offset + largest.size; end > 0 && end < f.size {
		return end
	}
	return 0
}

// OverlayOffset is the file offset of data appended after the image, or 0
// when there is none.
func (f *File) OverlayOffset() int64 {
	return f.overlayOffset()
}

// Overlay returns a reader over the data appended after the image, or nil.
func (f *File) Overlay() *io.SectionReader {
	offset := f.overlayOffset()
	if offset == 0 {
		return nil
	}
	return io.NewSectionReader(f.sr, offset, f.size-offset)
}

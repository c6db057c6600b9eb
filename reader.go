package clr

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// cursor is a forward reading view over the image with absolute seeking.
// All scalars are little endian.
type cursor struct {
	sr *io.SectionReader
}

func newCursor(sr *io.SectionReader) *cursor {
	return &cursor{sr: sr}
}

func (c *cursor) pos() int64 {
	off, _ := c.sr.Seek(0, io.SeekCurrent)
	return off
}

func (c *cursor) seek(off int64) error {
	if off < 0 || off > c.sr.Size() {
		return errors.Wrapf(ErrOutsideBoundary, "seek to 0x%x", off)
	}
	_, err := c.sr.Seek(off, io.SeekStart)
	return err
}

func (c *cursor) skip(n int64) error {
	return c.seek(c.pos() + n)
}

// align moves the cursor forward to the next multiple of n.
func (c *cursor) align(n int64) error {
	p := c.pos()
	return c.seek((p + n - 1) &^ (n - 1))
}

func (c *cursor) read(data any) error {
	if err := binary.Read(c.sr, binary.LittleEndian, data); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return errors.Wrapf(ErrOutsideBoundary, "read %d bytes at 0x%x", binary.Size(data), c.pos())
		}
		return err
	}
	return nil
}

func (c *cursor) u8() (v uint8, err error) {
	err = c.read(&v)
	return
}

func (c *cursor) u32() (v uint32, err error) {
	err = c.read(&v)
	return
}

func (c *cursor) bytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.sr, buf); err != nil {
		return nil, errors.Wrapf(ErrOutsideBoundary, "read %d bytes at 0x%x", n, c.pos())
	}
	return buf, nil
}

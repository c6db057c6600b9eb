package clr

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// TableInfo locates one table inside the table stream.
type TableInfo struct {
	Rows    uint32
	RowSize uint32
	// Offset is the byte offset of row 1 from the start of the table stream.
	Offset uint32
}

// TableHeap is the #~ (or #-) stream: the header, the row counts and the
// computed layout of every present table.
type TableHeap struct {
	Name string
	Data []byte
	// StreamOffset is the stream's offset from the raw data of the metadata
	// section.
	StreamOffset uint32

	MajorVersion uint8
	MinorVersion uint8
	HeapSizes    uint8
	Valid        uint64
	Sorted       uint64
	HeaderSize   uint32
	Tables       [TableCount]TableInfo

	stringIndexSize int
	guidIndexSize   int
	blobIndexSize   int

	// codedSizes memoizes CodedIndexSize per kind; 0 means not computed yet.
	codedSizes  [codedIndexCount]int
	codedMisses int
}

func (th *TableHeap) HasTable(t TableID) bool {
	return t < TableCount && th.Valid&(1<<t) != 0
}

func (th *TableHeap) IsSorted(t TableID) bool {
	return t < TableCount && th.Sorted&(1<<t) != 0
}

// Info returns the row count, row size and offset of table t. Absent tables
// report zero values.
func (th *TableHeap) Info(t TableID) TableInfo {
	if t >= TableCount {
		return TableInfo{}
	}
	return th.Tables[t]
}

// RowCount returns the number of rows in table t.
func (th *TableHeap) RowCount(t TableID) uint32 {
	return th.Info(t).Rows
}

// TableIndexSize is the width of a column indexing into table t.
func (th *TableHeap) TableIndexSize(t TableID) int {
	if th.RowCount(t) < 65536 {
		return 2
	}
	return 4
}

// CodedIndexSize is the width of a column of coded index kind c. The result
// is computed once per kind and reused.
func (th *TableHeap) CodedIndexSize(c CodedIndex) int {
	if size := th.codedSizes[c]; size != 0 {
		return size
	}
	th.codedMisses++
	th.codedSizes[c] = c.width(th.RowCount)
	return th.codedSizes[c]
}

// StringIndexSize, GUIDIndexSize and BlobIndexSize are the heap index widths
// resolved from the heap size flags. An absent heap uses 2.
func (th *TableHeap) StringIndexSize() int { return th.stringIndexSize }
func (th *TableHeap) GUIDIndexSize() int   { return th.guidIndexSize }
func (th *TableHeap) BlobIndexSize() int   { return th.blobIndexSize }

func (th *TableHeap) columnSize(col Column) int {
	switch col.Kind {
	case ColumnString:
		return th.stringIndexSize
	case ColumnGUID:
		return th.guidIndexSize
	case ColumnBlob:
		return th.blobIndexSize
	case ColumnTable:
		return th.TableIndexSize(col.Table)
	case ColumnCoded:
		return th.CodedIndexSize(col.Coded)
	default:
		return col.Size
	}
}

// computeLayout assigns every present table its row size and offset. Tables
// are contiguous in ascending id order, starting right after the header.
// All row counts must be known before calling it.
func (th *TableHeap) computeLayout() error {
	offset := uint64(th.HeaderSize)
	for i := 0; i < TableCount; i++ {
		t := TableID(i)
		if !th.HasTable(t) {
			continue
		}
		schema, ok := tableSchemas[t]
		if !ok {
			return errors.Wrapf(ErrUnsupportedSchema, "table 0x%02x has no known layout", i)
		}

		size := 0
		for _, col := range schema.Columns {
			size += th.columnSize(col)
		}
		th.Tables[i].RowSize = uint32(size)
		th.Tables[i].Offset = uint32(offset)
		offset += uint64(size) * uint64(th.Tables[i].Rows)
	}
	if offset > uint64(len(th.Data)) {
		return errors.Wrapf(ErrMalformedContainer,
			"tables need 0x%x bytes but %s stream holds 0x%x", offset, th.Name, len(th.Data))
	}

	// Resolve the remaining kinds so that lookups after decoding never write.
	for c := CodedIndex(0); c < codedIndexCount; c++ {
		th.CodedIndexSize(c)
	}
	return nil
}

// Row returns the raw bytes of the 1-based row of table t.
func (th *TableHeap) Row(t TableID, row uint32) ([]byte, error) {
	info := th.Info(t)
	if row == 0 || row > info.Rows {
		return nil, errors.Wrapf(ErrRowOutOfRange, "%s row %d of %d", t, row, info.Rows)
	}
	start := uint64(info.Offset) + uint64(row-1)*uint64(info.RowSize)
	end := start + uint64(info.RowSize)
	if end > uint64(len(th.Data)) {
		return nil, errors.Wrapf(ErrOutsideBoundary, "%s row %d", t, row)
	}
	return th.Data[start:end], nil
}

// Values decodes the 1-based row of table t into one value per column.
func (th *TableHeap) Values(t TableID, row uint32) ([]uint32, error) {
	data, err := th.Row(t, row)
	if err != nil {
		return nil, err
	}
	cols := t.Columns()
	values := make([]uint32, len(cols))
	pos := 0
	for i, col := range cols {
		size := th.columnSize(col)
		switch size {
		case 1:
			values[i] = uint32(data[pos])
		case 2:
			values[i] = uint32(binary.LittleEndian.Uint16(data[pos:]))
		case 4:
			values[i] = binary.LittleEndian.Uint32(data[pos:])
		default:
			return nil, errors.Wrapf(ErrUnsupportedSchema, "%s.%s has width %d", t, col.Name, size)
		}
		pos += size
	}
	return values, nil
}

func (f *File) readTableHeap() (err error) {
	th := f.Tables
	if err := f.c.seek(int64(f.MetadataSection.PointerToRawData) + int64(th.StreamOffset)); err != nil {
		return errors.WithMessage(err, "failure to locate table stream")
	}
	start := f.c.pos()

	read := func(data any) bool {
		err = f.c.read(data)
		return err == nil
	}
	skip := func(n int64) bool {
		err = f.c.skip(n)
		return err == nil
	}
	if !skip(4) ||
		!read(&th.MajorVersion) ||
		!read(&th.MinorVersion) ||
		!read(&th.HeapSizes) ||
		!skip(1) ||
		!read(&th.Valid) ||
		!read(&th.Sorted) {
		return errors.WithMessage(err, "failure to read table stream header")
	}

	for i := 0; i < TableCount; i++ {
		if !th.HasTable(TableID(i)) {
			continue
		}
		if !read(&th.Tables[i].Rows) {
			return errors.WithMessagef(err, "failure to read row count of %s", TableID(i))
		}
	}
	th.HeaderSize = uint32(f.c.pos() - start)

	f.setIndexSizes()
	return th.computeLayout()
}

// setIndexSizes applies the heap size flags to the heaps that are present.
func (f *File) setIndexSizes() {
	th := f.Tables
	sizeOf := func(flag uint8) int {
		if th.HeapSizes&flag != 0 {
			return 4
		}
		return 2
	}

	th.stringIndexSize, th.guidIndexSize, th.blobIndexSize = 2, 2, 2
	if f.Strings != nil {
		f.Strings.IndexSize = sizeOf(heapSizeStrings)
		th.stringIndexSize = f.Strings.IndexSize
	}
	if f.GUIDs != nil {
		f.GUIDs.IndexSize = sizeOf(heapSizeGUID)
		th.guidIndexSize = f.GUIDs.IndexSize
	}
	if f.Blobs != nil {
		f.Blobs.IndexSize = sizeOf(heapSizeBlob)
		th.blobIndexSize = f.Blobs.IndexSize
	}
}

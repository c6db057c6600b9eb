package clr

import (
	"bytes"
	"encoding/binary"
	"sort"
)

const (
	testLfanew      = 0x80
	testSectionRVA  = 0x2000
	testSectionRaw  = 0x200
	testMetadataOff = 0x48 // metadata root offset inside the section
	testOptOffset   = testLfanew + 24
)

type testStream struct {
	name string
	data []byte
}

// testModule describes a single-section managed image. The section holds the
// runtime header, the metadata root and then the extra bytes.
type testModule struct {
	machine         uint16
	magic           uint16
	characteristics uint16
	subsystem       uint16
	dllFlags        uint16
	timestamp       uint32
	entryPoint      uint32
	relocations     DataDirectory
	streams         []testStream
	version         string
	extra           []byte
	// extraIsResources points the managed resources directory at extra.
	extraIsResources bool
}

func newTestModule() *testModule {
	return &testModule{
		machine:         ImageFileMachineI386,
		magic:           ImageNtOptionalHdr32Magic,
		characteristics: uint16(ImageFileExecutableImage | ImageFileDLL),
		subsystem:       uint16(ImageSubsystemWindowsCUI),
		timestamp:       1600000000,
		version:         "v4.0.30319",
	}
}

func align4(n int) int {
	return (n + 3) &^ 3
}

func put16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func put32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }

// metadata lays out the metadata root with its stream headers followed by
// the stream contents.
func (m *testModule) metadata() []byte {
	version := make([]byte, align4(len(m.version)+1))
	copy(version, m.version)

	headerLen := 16 + len(version) + 4
	for _, s := range m.streams {
		headerLen += 8 + align4(len(s.name)+1)
	}

	var buf bytes.Buffer
	w := func(v any) { _ = binary.Write(&buf, binary.LittleEndian, v) }
	w(uint32(MetadataSignature))
	w(uint16(1))
	w(uint16(1))
	w(uint32(0))
	w(uint32(len(version)))
	buf.Write(version)
	w(uint16(0))
	w(uint16(len(m.streams)))

	offset := headerLen
	for _, s := range m.streams {
		w(uint32(offset))
		w(uint32(len(s.data)))
		name := make([]byte, align4(len(s.name)+1))
		copy(name, s.name)
		buf.Write(name)
		offset += align4(len(s.data))
	}
	for _, s := range m.streams {
		data := make([]byte, align4(len(s.data)))
		copy(data, s.data)
		buf.Write(data)
	}
	return buf.Bytes()
}

// extraOffset is the offset of the extra bytes inside the section.
func (m *testModule) extraOffset() int {
	return align4(testMetadataOff + len(m.metadata()))
}

// extraRVA is the relative virtual address of the extra bytes.
func (m *testModule) extraRVA() uint32 {
	return uint32(testSectionRVA + m.extraOffset())
}

func (m *testModule) build() []byte {
	meta := m.metadata()
	extraOff := m.extraOffset()
	body := make([]byte, extraOff+len(m.extra))

	// runtime header
	put32(body[0:], 72)
	put16(body[4:], 2)
	put16(body[6:], 5)
	put32(body[8:], testSectionRVA+testMetadataOff)
	put32(body[12:], uint32(len(meta)))
	put32(body[16:], uint32(RuntimeFlagsILOnly))
	put32(body[20:], m.entryPoint)
	if m.extraIsResources {
		put32(body[24:], m.extraRVA())
		put32(body[28:], uint32(len(m.extra)))
	}
	copy(body[testMetadataOff:], meta)
	copy(body[extraOff:], m.extra)

	rawSize := (len(body) + 0x1FF) &^ 0x1FF
	img := make([]byte, testSectionRaw+rawSize)
	img[0], img[1] = 'M', 'Z'
	put32(img[lfanewOffset:], testLfanew)

	pe := img[testLfanew:]
	copy(pe, "PE\x00\x00")
	put16(pe[4:], m.machine)
	put16(pe[6:], 1)
	put32(pe[8:], m.timestamp)
	put16(pe[22:], m.characteristics)

	optSize, stack := 224, 48
	if m.magic == ImageNtOptionalHdr64Magic {
		optSize, stack = 240, 64
	}
	put16(pe[20:], uint16(optSize))
	opt := pe[24:]
	put16(opt[0:], m.magic)
	put16(opt[68:], m.subsystem)
	put16(opt[70:], m.dllFlags)
	dd := 72 + stack
	put32(opt[dd:], m.relocations.VirtualAddress)
	put32(opt[dd+4:], m.relocations.Size)
	put32(opt[dd+88:], testSectionRVA)
	put32(opt[dd+92:], 72)

	sec := pe[24+optSize:]
	copy(sec, ".text")
	put32(sec[8:], uint32(len(body)))
	put32(sec[12:], testSectionRVA)
	put32(sec[16:], uint32(rawSize))
	put32(sec[20:], testSectionRaw)
	put32(sec[36:], ImageScnCntCode|ImageScnMemExecute|ImageScnMemRead)

	copy(img[testSectionRaw:], body)
	return img
}

// tableStream builds a #~ stream holding the given row counts followed by
// rowData.
func tableStream(heapSizes uint8, rows map[TableID]uint32, rowData []byte) []byte {
	var valid uint64
	ids := make([]int, 0, len(rows))
	for t := range rows {
		valid |= 1 << t
		ids = append(ids, int(t))
	}
	sort.Ints(ids)

	var buf bytes.Buffer
	w := func(v any) { _ = binary.Write(&buf, binary.LittleEndian, v) }
	w(uint32(0))
	w(uint8(2))
	w(uint8(0))
	w(heapSizes)
	w(uint8(1))
	w(valid)
	w(uint64(0))
	for _, id := range ids {
		w(rows[TableID(id)])
	}
	buf.Write(rowData)
	return buf.Bytes()
}

// le concatenates little endian encodings of the given values.
func le(values ...any) []byte {
	var buf bytes.Buffer
	for _, v := range values {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}

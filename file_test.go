package clr

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDecode_MinimalModule(t *testing.T) {
	m := newTestModule()
	m.relocations = DataDirectory{VirtualAddress: 0x3000, Size: 0x0C}
	f, err := NewBytes(m.build(), WithLogger(zap.NewNop()))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	wantHeader := Header{
		AddressOfNewEXEHeader: testLfanew,
		Machine:               ImageFileMachineI386,
		NumberOfSections:      1,
		TimeDateStamp:         time.Unix(1600000000, 0).UTC(),
		Characteristics:       ImageFileExecutableImage | ImageFileDLL,
		Magic:                 ImageNtOptionalHdr32Magic,
		Subsystem:             ImageSubsystemWindowsCUI,
		BaseRelocationTable:   DataDirectory{VirtualAddress: 0x3000, Size: 0x0C},
		RuntimeDirectory:      DataDirectory{VirtualAddress: testSectionRVA, Size: 72},
	}
	if diff := cmp.Diff(wantHeader, f.Header); diff != "" {
		t.Errorf("Header mismatch (-want +got):\n%s", diff)
	}
	if f.Is64() {
		t.Errorf("Is64() = true, want false")
	}

	if len(f.Sections) != 1 {
		t.Fatalf("len(Sections) = %d, want 1", len(f.Sections))
	}
	s := f.Sections[0]
	if s.Name != ".text" || s.VirtualAddress != testSectionRVA || s.PointerToRawData != testSectionRaw {
		t.Errorf("section = %+v", s.SectionHeader)
	}
	if got := s.Flags(); got != "rx" {
		t.Errorf("Section.Flags() = %q, want %q", got, "rx")
	}
	if f.MetadataSection != s {
		t.Errorf("MetadataSection = %v, want the .text section", f.MetadataSection)
	}

	rh := f.RuntimeHeader
	if rh.MajorRuntimeVersion != 2 || rh.MinorRuntimeVersion != 5 || rh.Flags != RuntimeFlagsILOnly {
		t.Errorf("RuntimeHeader = %+v", rh)
	}
	if rh.Metadata.VirtualAddress != testSectionRVA+testMetadataOff {
		t.Errorf("Metadata.VirtualAddress = 0x%x", rh.Metadata.VirtualAddress)
	}
	if rh.Resources.Present() {
		t.Errorf("Resources.Present() = true, want false")
	}

	wantRoot := MetadataRoot{MajorVersion: 1, MinorVersion: 1, Version: "v4.0.30319", Streams: []StreamHeader{}}
	if diff := cmp.Diff(wantRoot, f.Metadata); diff != "" {
		t.Errorf("MetadataRoot mismatch (-want +got):\n%s", diff)
	}

	if f.Kind != ModuleKindLibrary {
		t.Errorf("Kind = %v, want %v", f.Kind, ModuleKindLibrary)
	}
	if f.Tables != nil || f.Strings != nil || f.Blobs != nil || f.GUIDs != nil || f.UserStrings != nil {
		t.Errorf("module without streams decoded heaps or tables")
	}
	if _, err := f.Module(); !errors.Is(err, ErrRowOutOfRange) {
		t.Errorf("Module() error = %v, want %v", err, ErrRowOutOfRange)
	}
}

func TestDecode_PE32Plus(t *testing.T) {
	m := newTestModule()
	m.magic = ImageNtOptionalHdr64Magic
	f, err := NewBytes(m.build())
	if err != nil {
		t.Fatal(err)
	}
	if !f.Is64() {
		t.Errorf("Is64() = false, want true")
	}
	if f.RuntimeDirectory.VirtualAddress != testSectionRVA {
		t.Errorf("RuntimeDirectory = %+v", f.RuntimeDirectory)
	}
	if f.Metadata.Version != "v4.0.30319" {
		t.Errorf("Metadata.Version = %q", f.Metadata.Version)
	}
}

func TestNewFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "module.dll")
	if err := os.WriteFile(name, newTestModule().build(), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := NewFile(name)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	info, err := os.Stat(name)
	if err != nil {
		t.Fatal(err)
	}
	if f.GetSize() != info.Size() {
		t.Errorf("GetSize() = %d, want %d", f.GetSize(), info.Size())
	}

	if _, err := NewFile(filepath.Join(t.TempDir(), "missing.dll")); err == nil {
		t.Errorf("NewFile() on a missing file succeeded")
	}
}

func TestModuleKind(t *testing.T) {
	tests := []struct {
		name            string
		characteristics Characteristics
		subsystem       Subsystem
		want            ModuleKind
	}{
		{"dll", ImageFileExecutableImage | ImageFileDLL, ImageSubsystemWindowsGUI, ModuleKindLibrary},
		{"gui", ImageFileExecutableImage, ImageSubsystemWindowsGUI, ModuleKindWindows},
		{"ce gui", ImageFileExecutableImage, ImageSubsystemWindowsCEGUI, ModuleKindWindows},
		{"cui", ImageFileExecutableImage, ImageSubsystemWindowsCUI, ModuleKindConsole},
		{"native", ImageFileExecutableImage, ImageSubsystemNative, ModuleKindConsole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModule()
			m.characteristics = uint16(tt.characteristics)
			m.subsystem = uint16(tt.subsystem)
			f, err := NewBytes(m.build())
			if err != nil {
				t.Fatal(err)
			}
			if f.Kind != tt.want {
				t.Errorf("Kind = %v, want %v", f.Kind, tt.want)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(img []byte) []byte
		want   error
	}{
		{
			name:   "smaller than tiny PE",
			mutate: func(img []byte) []byte { return img[:MinFileSize-1] },
			want:   ErrMalformedContainer,
		},
		{
			name:   "no MZ",
			mutate: func(img []byte) []byte { img[0] = 'X'; return img },
			want:   ErrMalformedContainer,
		},
		{
			name:   "lfanew beyond file",
			mutate: func(img []byte) []byte { put32(img[lfanewOffset:], 0xFFFFFF); return img },
			want:   ErrMalformedContainer,
		},
		{
			name:   "bad PE signature",
			mutate: func(img []byte) []byte { img[testLfanew+1] = 'X'; return img },
			want:   ErrMalformedContainer,
		},
		{
			name:   "unsupported machine",
			mutate: func(img []byte) []byte { put16(img[testLfanew+4:], 0x8664); return img },
			want:   ErrMalformedContainer,
		},
		{
			name:   "bad optional header magic",
			mutate: func(img []byte) []byte { put16(img[testOptOffset:], 0x107); return img },
			want:   ErrMalformedContainer,
		},
		{
			name:   "reserved value set",
			mutate: func(img []byte) []byte { put32(img[testOptOffset+52:], 1); return img },
			want:   ErrMalformedContainer,
		},
		{
			name:   "no runtime header",
			mutate: func(img []byte) []byte { put32(img[testOptOffset+212:], 0); return img },
			want:   ErrMalformedContainer,
		},
		{
			name:   "runtime header outside sections",
			mutate: func(img []byte) []byte { put32(img[testOptOffset+208:], 0x9000); return img },
			want:   ErrAddressOutOfRange,
		},
		{
			name:   "metadata outside sections",
			mutate: func(img []byte) []byte { put32(img[testSectionRaw+8:], 0x9000); return img },
			want:   ErrAddressOutOfRange,
		},
		{
			name:   "bad metadata signature",
			mutate: func(img []byte) []byte { img[testSectionRaw+testMetadataOff] ^= 0xFF; return img },
			want:   ErrMalformedContainer,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := tt.mutate(newTestModule().build())
			f, err := NewBytes(img)
			if !errors.Is(err, tt.want) {
				t.Fatalf("NewBytes() error = %v, want %v", err, tt.want)
			}
			if f != nil {
				t.Errorf("NewBytes() returned a partial file")
			}
		})
	}
}

func TestDecode_SkipsUnknownStreams(t *testing.T) {
	m := newTestModule()
	m.streams = []testStream{
		{"#Pdb", make([]byte, 20)},
		{"#Strings", []byte("\x00name\x00")},
	}
	core, logs := observer.New(zap.DebugLevel)
	f, err := NewBytes(m.build(), WithLogger(zap.New(core)))
	if err != nil {
		t.Fatal(err)
	}
	skipped := logs.FilterMessage("skipping unsupported metadata stream").All()
	if len(skipped) != 1 || skipped[0].ContextMap()["name"] != "#Pdb" {
		t.Errorf("skipped stream log entries = %v", skipped)
	}

	want := []StreamHeader{
		{Offset: 68, Size: 20, Name: "#Pdb"},
		{Offset: 88, Size: 6, Name: "#Strings"},
	}
	if diff := cmp.Diff(want, f.Metadata.Streams); diff != "" {
		t.Errorf("Streams mismatch (-want +got):\n%s", diff)
	}
	if f.Tables != nil {
		t.Errorf("Tables = %v, want nil", f.Tables)
	}
	got, err := f.Strings.StringAt(1)
	if err != nil || got != "name" {
		t.Errorf("StringAt(1) = %q, %v", got, err)
	}
}

func TestDecode_StreamOutsideFile(t *testing.T) {
	m := newTestModule()
	m.streams = []testStream{{"#Blob", []byte{0}}}
	img := m.build()
	// stream size field of the only stream header
	put32(img[testSectionRaw+testMetadataOff+36:], 0x100000)
	if _, err := NewBytes(img); !errors.Is(err, ErrOutsideBoundary) {
		t.Errorf("NewBytes() error = %v, want %v", err, ErrOutsideBoundary)
	}
}

package clr

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// File is a decoded managed module. It is immutable once returned and may be
// shared between goroutines for reading.
type File struct {
	Header
	Sections []*Section

	RuntimeHeader   RuntimeHeader
	Metadata        MetadataRoot
	MetadataSection *Section

	Strings     *StringHeap
	Blobs       *BlobHeap
	GUIDs       *GUIDHeap
	UserStrings *UserStringHeap
	// Tables is nil when the module carries no #~ or #- stream.
	Tables *TableHeap

	Kind ModuleKind

	size   int64
	f      *os.File
	sr     *io.SectionReader
	c      *cursor
	logger *zap.Logger
}

// Option configures decoding.
type Option func(*File)

// WithLogger sets the logger used while decoding instead of Logger().
func WithLogger(l *zap.Logger) Option {
	return func(f *File) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFile opens and decodes the module stored in filename.
func NewFile(filename string, opts ...Option) (*File, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	file, err := Decode(f, stat.Size(), opts...)
	if err != nil {
		f.Close()
		return nil, errors.WithMessage(err, filename)
	}
	file.f = f
	return file, nil
}

// NewBytes decodes a module held in memory.
func NewBytes(data []byte, opts ...Option) (*File, error) {
	return Decode(bytes.NewReader(data), int64(len(data)), opts...)
}

// Decode decodes the module of the given size read from r. Either the whole
// module decodes or an error is returned.
func Decode(r io.ReaderAt, size int64, opts ...Option) (*File, error) {
	file := &File{size: size, logger: Logger()}
	for _, opt := range opts {
		opt(file)
	}

	if size < MinFileSize {
		return nil, errors.Wrap(ErrMalformedContainer, "not a PE file, smaller than tiny PE")
	}
	file.sr = io.NewSectionReader(r, 0, size)
	file.c = newCursor(file.sr)

	steps := []struct {
		name string
		read func() error
	}{
		{"DOS header", file.readDOSHeader},
		{"NT header", file.readNTHeader},
		{"sections", file.readSections},
		{"runtime header", file.readRuntimeHeader},
		{"metadata", file.readMetadata},
	}
	for _, step := range steps {
		if err := step.read(); err != nil {
			return nil, errors.WithMessagef(err, "failure to read %s", step.name)
		}
	}
	file.Kind = moduleKind(file.Characteristics, file.Subsystem)
	file.c = nil

	file.logger.Debug("decoded module",
		zap.String("kind", file.Kind.String()),
		zap.String("version", file.Metadata.Version),
		zap.Int("sections", len(file.Sections)),
		zap.Int("streams", len(file.Metadata.Streams)))
	return file, nil
}

func (f *File) Close() error {
	if f.f != nil {
		return f.f.Close()
	}
	return nil
}

func (f *File) GetSize() int64 {
	return f.size
}

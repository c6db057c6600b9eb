package clr

import "github.com/pkg/errors"

var (
	ErrMalformedContainer = errors.New("malformed container")
	ErrAddressOutOfRange  = errors.New("address out of range")
	ErrUnsupportedSchema  = errors.New("unsupported metadata schema")
)

var (
	ErrOutsideBoundary = errors.New("reading data outside boundary")
	ErrHeapAbsent      = errors.New("heap not present in image")
	ErrRowOutOfRange   = errors.New("row index out of range")
)

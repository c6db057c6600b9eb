package clr

import (
	"bytes"
	"math"
)

// cString converts ASCII byte sequence b to string.
// It stops once it finds 0 or reaches end of b.
func cString(b []byte) string {
	i := bytes.IndexByte(b, 0)
	if i == -1 {
		i = len(b)
	}
	return string(b[:i])
}

// GetStringFromData returns the NUL-terminated byte run of data starting at
// offset, without the terminator.
func GetStringFromData(offset uint32, data []byte) []byte {
	dataSize := uint32(len(data))
	if dataSize == 0 {
		return nil
	}

	if offset > dataSize {
		return nil
	}

	end := offset
	for end < dataSize {
		if data[end] == 0 {
			break
		}
		end++
	}
	return data[offset:end]
}

// EntropyCalculator accumulates the Shannon entropy of everything written
// to it.
type EntropyCalculator struct {
	size        int
	frequencies [256]uint64
}

func (e *EntropyCalculator) Write(p []byte) (n int, err error) {
	e.size += len(p)
	for _, v := range p {
		e.frequencies[v]++
	}
	return len(p), nil
}

// Sum returns the entropy in bits per byte, between 0 and 8.
func (e *EntropyCalculator) Sum() (entropy float64) {
	if e.size == 0 {
		return
	}
	for _, p := range e.frequencies {
		if p > 0 {
			freq := float64(p) / float64(e.size)
			entropy += freq * math.Log2(freq)
		}
	}
	return -entropy
}

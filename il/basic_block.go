// Package il holds the bytecode representations a compiler front end builds
// over a decoded method body.
package il

import (
	"github.com/pkg/errors"
)

var ErrBlockRange = errors.New("block outside method body")

// Flags is a bitset reserved for the compiler. Its bits carry no meaning here.
type Flags uint64

// BasicBlock is a byte range of one method body, linked to the blocks before
// and after it. Links are only changed through SetPrevious and SetNext, which
// keep both directions consistent.
//
// A block list is not safe for concurrent use.
type BasicBlock struct {
	flags  Flags
	method []byte
	offset int
	length int

	previous *BasicBlock
	next     *BasicBlock
}

// NewBasicBlock creates the block method[offset:offset+length] and links it
// between previous and next; either may be nil.
func NewBasicBlock(previous, next *BasicBlock, method []byte, offset, length int) (*BasicBlock, error) {
	if offset < 0 || length < 0 || offset+length > len(method) {
		return nil, errors.Wrapf(ErrBlockRange, "[%d, %d) of %d bytes", offset, offset+length, len(method))
	}
	b := &BasicBlock{method: method, offset: offset, length: length}
	b.SetPrevious(previous)
	b.SetNext(next)
	return b, nil
}

func (b *BasicBlock) Offset() int { return b.offset }
func (b *BasicBlock) Len() int    { return b.length }

// End is the offset just past the block's last byte.
func (b *BasicBlock) End() int { return b.offset + b.length }

// Code returns the block's bytes. The slice cannot grow into the next block.
func (b *BasicBlock) Code() []byte {
	return b.method[b.offset:b.End():b.End()]
}

// Contains reports whether the method offset off lies inside the block.
func (b *BasicBlock) Contains(off int) bool {
	return off >= b.offset && off < b.End()
}

func (b *BasicBlock) Flags() Flags          { return b.flags }
func (b *BasicBlock) SetFlags(f Flags)      { b.flags = f }
func (b *BasicBlock) AddFlags(f Flags)      { b.flags |= f }
func (b *BasicBlock) ClearFlags(f Flags)    { b.flags &^= f }
func (b *BasicBlock) HasFlags(f Flags) bool { return b.flags&f == f }

func (b *BasicBlock) Previous() *BasicBlock { return b.previous }
func (b *BasicBlock) Next() *BasicBlock     { return b.next }

// SetNext makes n follow b. The block previously after b and the block
// previously before n are unlinked from them, so every link stays mutual.
func (b *BasicBlock) SetNext(n *BasicBlock) {
	if old := b.next; old != nil && old != n && old.previous == b {
		old.previous = nil
	}
	if n != nil {
		if p := n.previous; p != nil && p != b && p.next == n {
			p.next = nil
		}
		n.previous = b
	}
	b.next = n
}

// SetPrevious makes p precede b, with the same unlinking as SetNext.
func (b *BasicBlock) SetPrevious(p *BasicBlock) {
	if p != nil {
		p.SetNext(b)
		return
	}
	if old := b.previous; old != nil && old.next == b {
		old.next = nil
	}
	b.previous = nil
}

// Split cuts b at the method offset off. b keeps [Offset, off) and its flags;
// the returned block covers [off, End) and is linked right after b.
func (b *BasicBlock) Split(off int) (*BasicBlock, error) {
	if off <= b.offset || off >= b.End() {
		return nil, errors.Wrapf(ErrBlockRange, "split at %d outside (%d, %d)", off, b.offset, b.End())
	}
	tail := &BasicBlock{method: b.method, offset: off, length: b.End() - off}
	next := b.next
	b.length = off - b.offset
	b.SetNext(tail)
	tail.SetNext(next)
	return tail, nil
}

// Iter returns an iterator starting at b.
func (b *BasicBlock) Iter() *Iterator {
	return &Iterator{first: b}
}

// Blocks collects b and every block after it.
func (b *BasicBlock) Blocks() []*BasicBlock {
	var blocks []*BasicBlock
	for it := b.Iter(); it.Next(); {
		blocks = append(blocks, it.Block())
	}
	return blocks
}

// Iterator walks a block list forward. The first call to Next positions it
// on the first block; it stops after the block whose next link is nil.
type Iterator struct {
	first   *BasicBlock
	current *BasicBlock
	started bool
}

func (it *Iterator) Next() bool {
	if !it.started {
		it.started = true
		it.current = it.first
	} else if it.current != nil {
		it.current = it.current.next
	}
	return it.current != nil
}

// Block returns the block the iterator is positioned on.
func (it *Iterator) Block() *BasicBlock {
	return it.current
}

// Reset moves the iterator back before the first block.
func (it *Iterator) Reset() {
	it.current = nil
	it.started = false
}

// Package bitmap implements the fixed-capacity allocation bitmaps stored in
// vsfs image blocks. Bit n lives in byte n/8 at position n%8, least
// significant bit first.
package bitmap

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrNoSpace is returned by Alloc when every bit below the capacity is set.
var ErrNoSpace = errors.New("bitmap has no unset bits")

// Bitmap is a view over the bytes backing a bitmap. It does not own the
// memory; writes go straight to the underlying image.
type Bitmap []byte

// Len returns the number of bits the backing bytes can hold.
func (b Bitmap) Len() uint32 {
	return uint32(len(b)) * 8
}

// Init clears the bits in [0, capacity) and sets every bit at or above
// capacity so that Alloc never hands them out.
func (b Bitmap) Init(capacity uint32) {
	b.checkCapacity(capacity)
	full := capacity / 8
	for i := uint32(0); i < full; i++ {
		b[i] = 0
	}
	if full == uint32(len(b)) {
		return
	}
	// Partial byte: low bits are usable, high bits are out of range.
	b[full] = 0xff << (capacity % 8)
	for i := full + 1; i < uint32(len(b)); i++ {
		b[i] = 0xff
	}
}

// Alloc sets the lowest clear bit in [0, capacity) and returns its index.
func (b Bitmap) Alloc(capacity uint32) (uint32, error) {
	b.checkCapacity(capacity)
	limit := (capacity + 7) / 8
	for byt := uint32(0); byt < limit; byt++ {
		if b[byt] == 0xff {
			continue
		}
		bit := uint32(bits.TrailingZeros8(^b[byt]))
		index := byt*8 + bit
		if index >= capacity {
			break
		}
		b[byt] |= 1 << bit
		return index, nil
	}
	return 0, ErrNoSpace
}

// Set sets or clears the bit at index.
func (b Bitmap) Set(capacity, index uint32, value bool) {
	b.checkIndex(capacity, index)
	if value {
		b[index/8] |= 1 << (index % 8)
	} else {
		b[index/8] &^= 1 << (index % 8)
	}
}

// Free clears the bit at index. The bit must be set.
func (b Bitmap) Free(capacity, index uint32) {
	b.Set(capacity, index, false)
}

// IsSet reports whether the bit at index is set.
func (b Bitmap) IsSet(index uint32) bool {
	if index >= b.Len() {
		return false
	}
	return b[index/8]&(1<<(index%8)) != 0
}

// CountClear returns the number of clear bits in [0, capacity).
func (b Bitmap) CountClear(capacity uint32) uint32 {
	b.checkCapacity(capacity)
	var set uint32
	full := capacity / 8
	for i := uint32(0); i < full; i++ {
		set += uint32(bits.OnesCount8(b[i]))
	}
	if rem := capacity % 8; rem != 0 {
		set += uint32(bits.OnesCount8(b[full] & (1<<rem - 1)))
	}
	return capacity - set
}

func (b Bitmap) checkCapacity(capacity uint32) {
	if capacity > b.Len() {
		panic(fmt.Sprintf("bitmap capacity %d exceeds %d bits", capacity, b.Len()))
	}
}

func (b Bitmap) checkIndex(capacity, index uint32) {
	b.checkCapacity(capacity)
	if index >= capacity {
		panic(fmt.Sprintf("bit %d out of range [0, %d)", index, capacity))
	}
}

package cache

import "math/bits"

// AddressDecoder splits an address into tag, set index and block offset.
//
// The same formula serves every associativity, including direct-mapped
// caches.
type AddressDecoder struct {
	offsetBits uint
	indexBits  uint
	setMask    uint64
	offsetMask uint64
}

// NewAddressDecoder creates a decoder for the given block size and set
// count. Both must be powers of two.
func NewAddressDecoder(blockSize, numSets int) (AddressDecoder, error) {
	if !isPowerOfTwo(blockSize) {
		return AddressDecoder{}, &ConfigurationError{
			Field:  "block_size_bytes",
			Value:  blockSize,
			Reason: "must be a power of two >= 1",
		}
	}

	if !isPowerOfTwo(numSets) {
		return AddressDecoder{}, &ConfigurationError{
			Field:  "set_count",
			Value:  numSets,
			Reason: "must be a power of two >= 1",
		}
	}

	return AddressDecoder{
		offsetBits: uint(bits.TrailingZeros(uint(blockSize))),
		indexBits:  uint(bits.TrailingZeros(uint(numSets))),
		setMask:    uint64(numSets - 1),
		offsetMask: uint64(blockSize - 1),
	}, nil
}

// Decode returns the tag and set index of addr.
func (d AddressDecoder) Decode(addr uint64) (tag uint64, setIndex int) {
	setIndex = int((addr >> d.offsetBits) & d.setMask)
	tag = addr >> (d.offsetBits + d.indexBits)

	return tag, setIndex
}

// Offset returns the byte offset of addr within its block.
func (d AddressDecoder) Offset(addr uint64) uint64 {
	return addr & d.offsetMask
}

// BlockAddress rebuilds the block-aligned address that a tag stored in
// setIndex refers to.
func (d AddressDecoder) BlockAddress(tag uint64, setIndex int) uint64 {
	return tag<<(d.offsetBits+d.indexBits) | uint64(setIndex)<<d.offsetBits
}

// OffsetBits returns log2 of the block size.
func (d AddressDecoder) OffsetBits() uint {
	return d.offsetBits
}

// IndexBits returns log2 of the set count.
func (d AddressDecoder) IndexBits() uint {
	return d.indexBits
}

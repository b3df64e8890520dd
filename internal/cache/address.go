package cache

import (
	"fmt"

	"github.com/rv32sim/rv32sim/internal/bitutil"
)

// AddressDecoder splits a 32-bit address into (tag, set-index, block-offset)
// for a given cache shape. Built once from Config and reused for every
// access.
type AddressDecoder struct {
	offsetBits uint
	indexBits  uint
	tagBits    uint
}

// NewAddressDecoder derives bit widths from cfg: offset width = log2(block
// size), index width = log2(number of sets) (0 for fully associative), tag
// width is whatever remains of the 32-bit address.
func NewAddressDecoder(cfg *Config) (*AddressDecoder, error) {
	offsetBits := bitutil.Log2(cfg.BlockSize)
	numSets := cfg.NumSets()
	var indexBits uint
	if numSets > 1 {
		if !bitutil.IsPowerOfTwo(numSets) {
			return nil, fmt.Errorf("address decoder: number of sets %d is not a power of two", numSets)
		}
		indexBits = bitutil.Log2(numSets)
	}
	if offsetBits+indexBits > 32 {
		return nil, fmt.Errorf("address decoder: offset+index bits (%d+%d) exceed 32", offsetBits, indexBits)
	}
	tagBits := 32 - offsetBits - indexBits
	return &AddressDecoder{offsetBits: offsetBits, indexBits: indexBits, tagBits: tagBits}, nil
}

// Offset returns the block-offset bits of addr.
func (d *AddressDecoder) Offset(addr uint32) uint32 {
	return uint32(bitutil.Extract(uint64(addr), 0, d.offsetBits))
}

// Index returns the set-index bits of addr.
func (d *AddressDecoder) Index(addr uint32) uint32 {
	return uint32(bitutil.Extract(uint64(addr), d.offsetBits, d.indexBits))
}

// Tag returns the tag bits of addr.
func (d *AddressDecoder) Tag(addr uint32) uint32 {
	return uint32(bitutil.Extract(uint64(addr), d.offsetBits+d.indexBits, d.tagBits))
}

// BlockBase returns the base address of the block containing addr, i.e.
// addr with its offset bits cleared.
func (d *AddressDecoder) BlockBase(addr uint32) uint32 {
	mask := ^uint32(0) << d.offsetBits
	return addr & mask
}

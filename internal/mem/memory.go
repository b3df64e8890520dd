// Package mem implements the sparse, byte-addressable, little-endian memory
// the interpreter and cache operate on.
package mem

import (
	"fmt"
	"sort"
)

// Memory is a sparse mapping address -> byte. Addresses never written read
// back as zero; the memory is conceptually zero-initialized everywhere.
type Memory struct {
	bytes map[uint64]byte
}

// New returns an empty, all-zero memory.
func New() *Memory {
	return &Memory{bytes: make(map[uint64]byte)}
}

// Reset clears every stored byte.
func (m *Memory) Reset() {
	m.bytes = make(map[uint64]byte)
}

// ReadByte returns the byte at addr, or 0 if never written.
func (m *Memory) ReadByte(addr uint64) byte {
	return m.bytes[addr]
}

// WriteByte stores a single byte at addr.
func (m *Memory) WriteByte(addr uint64, v byte) {
	if v == 0 {
		delete(m.bytes, addr) // keep the sparse map from growing on zero-fills
		return
	}
	m.bytes[addr] = v
}

// Read assembles size bytes (1, 2, 4, or 8) little-endian starting at addr
// and returns the value as a signed 64-bit int, sign-extending unless
// unsigned is requested.
func (m *Memory) Read(addr uint64, size int, unsigned bool) (int64, error) {
	if err := checkSize(size); err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < size; i++ {
		v |= uint64(m.ReadByte(addr+uint64(i))) << (8 * i)
	}
	if unsigned || size == 8 {
		return int64(v), nil
	}
	signBit := uint(size*8 - 1)
	if v&(1<<signBit) != 0 {
		v |= ^uint64(0) << (signBit + 1)
	}
	return int64(v), nil
}

// Write splits value into size little-endian bytes and stores them at addr.
func (m *Memory) Write(addr uint64, size int, value int64) error {
	if err := checkSize(size); err != nil {
		return err
	}
	uv := uint64(value)
	for i := 0; i < size; i++ {
		m.WriteByte(addr+uint64(i), byte(uv>>(8*i)))
	}
	return nil
}

func checkSize(size int) error {
	switch size {
	case 1, 2, 4, 8:
		return nil
	default:
		return fmt.Errorf("memory: unsupported access size %d", size)
	}
}

// Snapshot returns a sorted copy of every non-zero address, for dumps and
// deterministic tests.
func (m *Memory) Snapshot() []uint64 {
	addrs := make([]uint64, 0, len(m.bytes))
	for a := range m.bytes {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

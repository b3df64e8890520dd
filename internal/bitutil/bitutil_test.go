package bitutil

import "testing"

import "github.com/stretchr/testify/require"

func TestExtractPack(t *testing.T) {
	v := uint64(0b1011_0110)
	require.Equal(t, uint64(0b0110), Extract(v, 0, 4))
	require.Equal(t, uint64(0b1011), Extract(v, 4, 4))
	require.Equal(t, v, Pack(0b1011, 4, 4)|Pack(0b0110, 0, 4))
}

func TestExtractZeroLen(t *testing.T) {
	require.Equal(t, uint64(0), Extract(0xffff, 3, 0))
	require.Equal(t, uint64(0), Pack(0xffff, 3, 0))
}

func TestSignExtend(t *testing.T) {
	require.Equal(t, uint64(0x7ff), SignExtend(0x7ff, 11))
	require.Equal(t, ^uint64(0), SignExtend(0xfff, 11))
	require.Equal(t, uint64(0xfffffffffffff800), SignExtend(0x800, 11))
}

func TestLog2(t *testing.T) {
	require.Equal(t, uint(0), Log2(1))
	require.Equal(t, uint(4), Log2(16))
	require.Equal(t, uint(10), Log2(1024))
}

func TestIsPowerOfTwo(t *testing.T) {
	require.True(t, IsPowerOfTwo(1))
	require.True(t, IsPowerOfTwo(1024))
	require.False(t, IsPowerOfTwo(0))
	require.False(t, IsPowerOfTwo(6))
}

func TestFloorPow2(t *testing.T) {
	require.Equal(t, uint64(0), FloorPow2(0))
	require.Equal(t, uint64(1), FloorPow2(1))
	require.Equal(t, uint64(8), FloorPow2(15))
	require.Equal(t, uint64(16), FloorPow2(16))
}

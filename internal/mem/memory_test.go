package mem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadUnmappedIsZero(t *testing.T) {
	m := New()
	v, err := m.Read(0x1000, 4, true)
	require.NoError(t, err)
	require.Equal(t, int64(0), v)
}

func TestWriteReadRoundTrip(t *testing.T) {
	m := New()
	require.NoError(t, m.Write(0x10, 4, 0x11223344))
	v, err := m.Read(0x10, 4, true)
	require.NoError(t, err)
	require.Equal(t, int64(0x11223344), v)

	// little-endian byte layout
	require.Equal(t, byte(0x44), m.ReadByte(0x10))
	require.Equal(t, byte(0x33), m.ReadByte(0x11))
	require.Equal(t, byte(0x22), m.ReadByte(0x12))
	require.Equal(t, byte(0x11), m.ReadByte(0x13))
}

func TestSignedSubWordLoad(t *testing.T) {
	m := New()
	require.NoError(t, m.Write(0x0, 1, -1))
	v, err := m.Read(0x0, 1, false)
	require.NoError(t, err)
	require.Equal(t, int64(-1), v)

	v, err = m.Read(0x0, 1, true)
	require.NoError(t, err)
	require.Equal(t, int64(0xff), v)
}

func TestUnalignedAccessRoundTrips(t *testing.T) {
	m := New()
	require.NoError(t, m.Write(3, 2, 0x1234))
	v, err := m.Read(3, 2, true)
	require.NoError(t, err)
	require.Equal(t, int64(0x1234), v)
}

func TestInvalidSize(t *testing.T) {
	m := New()
	_, err := m.Read(0, 3, true)
	require.Error(t, err)
	require.Error(t, m.Write(0, 3, 0))
}

func TestReset(t *testing.T) {
	m := New()
	require.NoError(t, m.Write(0, 4, 42))
	m.Reset()
	v, _ := m.Read(0, 4, true)
	require.Equal(t, int64(0), v)
}

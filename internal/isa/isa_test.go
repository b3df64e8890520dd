package isa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupMnemonic(t *testing.T) {
	inst, err := Lookup(RV32I, "addi")
	require.NoError(t, err)
	require.Equal(t, FormatI, inst.Format)

	_, err = Lookup(RV32I, "mul")
	require.Error(t, err, "mul requires the M extension")

	inst, err = Lookup(RV32IM, "mul")
	require.NoError(t, err)
	require.Equal(t, CategoryMulDiv, inst.Category)

	_, err = Lookup(RV32I, "addw")
	require.Error(t, err, "addw requires 64-bit mode")

	inst, err = Lookup(RV64I, "addw")
	require.NoError(t, err)
	require.True(t, inst.IsWordOp)
}

func TestLookupEncodedDisambiguatesSyscalls(t *testing.T) {
	matches, err := LookupEncoded(RV32I, 0x73, 0, 0, false)
	require.NoError(t, err)
	require.Len(t, matches, 2)
}

func TestLookupEncodedShiftUsesFunct7(t *testing.T) {
	matches, err := LookupEncoded(RV32I, 0x13, 0x5, 0x20, true)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "srai", matches[0].Mnemonic)
}

func TestWritesRdExcludesJumps(t *testing.T) {
	jal, _ := Lookup(RV32I, "jal")
	require.False(t, jal.WritesRd())
	jalr, _ := Lookup(RV32I, "jalr")
	require.False(t, jalr.WritesRd())
	addi, _ := Lookup(RV32I, "addi")
	require.True(t, addi.WritesRd())
}

func TestParseRegister(t *testing.T) {
	n, err := ParseRegister("x5")
	require.NoError(t, err)
	require.Equal(t, 5, n)

	n, err = ParseRegister("a0")
	require.NoError(t, err)
	require.Equal(t, 10, n)

	n, err = ParseRegister("fp")
	require.NoError(t, err)
	require.Equal(t, 8, n)

	_, err = ParseRegister("x32")
	require.Error(t, err)
}

func TestRegisterABIName(t *testing.T) {
	require.Equal(t, "zero", RegisterABIName(0))
	require.Equal(t, "s0", RegisterABIName(8))
	require.Equal(t, "t6", RegisterABIName(31))
}

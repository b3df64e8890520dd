package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rv32sim/rv32sim/internal/isa"
)

func mustLookup(t *testing.T, mode isa.Mode, mnemonic string) *isa.Instruction {
	t.Helper()
	inst, err := isa.Lookup(mode, mnemonic)
	require.NoError(t, err)
	return inst
}

func TestEncodeDecodeR(t *testing.T) {
	inst := mustLookup(t, isa.RV32I, "add")
	word, err := Encode(Fields{Inst: inst, Rd: 3, Rs1: 1, Rs2: 2})
	require.NoError(t, err)

	decoded, err := Decode(isa.RV32I, word)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	require.Equal(t, "add", decoded[0].Inst.Mnemonic)
	require.Equal(t, 3, decoded[0].Rd)
	require.Equal(t, 1, decoded[0].Rs1)
	require.Equal(t, 2, decoded[0].Rs2)
}

func TestEncodeDecodeIBoundary(t *testing.T) {
	inst := mustLookup(t, isa.RV32I, "addi")
	word, err := Encode(Fields{Inst: inst, Rd: 1, Rs1: 0, Imm: -2048})
	require.NoError(t, err)
	decoded, err := Decode(isa.RV32I, word)
	require.NoError(t, err)
	require.Equal(t, int64(-2048), decoded[0].Imm)
}

func TestEncodeDecodeShift(t *testing.T) {
	srai := mustLookup(t, isa.RV32I, "srai")
	word, err := Encode(Fields{Inst: srai, Rd: 2, Rs1: 2, Imm: 5})
	require.NoError(t, err)
	decoded, err := Decode(isa.RV32I, word)
	require.NoError(t, err)
	require.Equal(t, "srai", decoded[0].Inst.Mnemonic)
	require.Equal(t, int64(5), decoded[0].Imm)

	srli := mustLookup(t, isa.RV32I, "srli")
	word2, err := Encode(Fields{Inst: srli, Rd: 2, Rs1: 2, Imm: 5})
	require.NoError(t, err)
	require.NotEqual(t, word, word2, "srai and srli must differ by funct7")
}

func TestEncodeDecodeSBoundary(t *testing.T) {
	inst := mustLookup(t, isa.RV32I, "sw")
	word, err := Encode(Fields{Inst: inst, Rs1: 2, Rs2: 5, Imm: -2048})
	require.NoError(t, err)
	decoded, err := Decode(isa.RV32I, word)
	require.NoError(t, err)
	require.Equal(t, int64(-2048), decoded[0].Imm)
	require.Equal(t, 2, decoded[0].Rs1)
	require.Equal(t, 5, decoded[0].Rs2)
}

func TestEncodeDecodeBBoundary(t *testing.T) {
	inst := mustLookup(t, isa.RV32I, "bne")
	word, err := Encode(Fields{Inst: inst, Rs1: 1, Rs2: 2, Imm: -4096})
	require.NoError(t, err)
	decoded, err := Decode(isa.RV32I, word)
	require.NoError(t, err)
	require.Equal(t, int64(-4096), decoded[0].Imm)
}

func TestEncodeDecodeU(t *testing.T) {
	inst := mustLookup(t, isa.RV32I, "lui")
	word, err := Encode(Fields{Inst: inst, Rd: 4, Imm: 0xabcde})
	require.NoError(t, err)
	decoded, err := Decode(isa.RV32I, word)
	require.NoError(t, err)
	require.Equal(t, int64(0xabcde), decoded[0].Imm)
	require.Equal(t, 4, decoded[0].Rd)
}

func TestEncodeDecodeJBoundary(t *testing.T) {
	inst := mustLookup(t, isa.RV32I, "jal")
	word, err := Encode(Fields{Inst: inst, Rd: 1, Imm: -(1 << 20)})
	require.NoError(t, err)
	decoded, err := Decode(isa.RV32I, word)
	require.NoError(t, err)
	require.Equal(t, int64(-(1<<20)), decoded[0].Imm)
}

func TestDecodeDisambiguatesSyscall(t *testing.T) {
	ecall := mustLookup(t, isa.RV32I, "ecall")
	word, err := Encode(Fields{Inst: ecall})
	require.NoError(t, err)
	decoded, err := Decode(isa.RV32I, word)
	require.NoError(t, err)
	require.Len(t, decoded, 2)

	var found bool
	for _, f := range decoded {
		if f.Inst.Mnemonic == "ecall" {
			require.Equal(t, int64(0), f.Imm)
			found = true
		}
	}
	require.True(t, found)
}

package asm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rv32sim/rv32sim/internal/codec"
	"github.com/rv32sim/rv32sim/internal/isa"
)

func TestAssembleArithmetic(t *testing.T) {
	a := New(isa.RV32I, nil)
	res, err := a.Assemble([]string{
		"addi x1, x0, 5",
		"addi x2, x0, 7",
		"add x3, x1, x2",
	})
	require.NoError(t, err)
	require.Len(t, res.Code, 3)

	inst, err := isa.Lookup(isa.RV32I, "add")
	require.NoError(t, err)
	want, err := codec.Encode(codec.Fields{Inst: inst, Rd: 3, Rs1: 1, Rs2: 2})
	require.NoError(t, err)
	require.Equal(t, want, res.Code[2])
}

func TestAssembleResolvesBackwardLabel(t *testing.T) {
	a := New(isa.RV32I, nil)
	res, err := a.Assemble([]string{
		"loop:",
		"addi x1, x1, -1",
		"bne x1, x0, loop",
	})
	require.NoError(t, err)
	require.Len(t, res.Code, 2)

	pc, ok := res.Labels.ProgramCounter("loop")
	require.True(t, ok)
	require.Equal(t, uint32(0), pc)

	// bne is at pc=4, targeting pc=0: offset -4
	inst, err := isa.Lookup(isa.RV32I, "bne")
	require.NoError(t, err)
	want, err := codec.Encode(codec.Fields{Inst: inst, Rs1: 1, Rs2: 0, Imm: -4})
	require.NoError(t, err)
	require.Equal(t, want, res.Code[1])
}

func TestAssembleMemoryOperand(t *testing.T) {
	a := New(isa.RV32I, nil)
	res, err := a.Assemble([]string{"lw x5, 8(x6)"})
	require.NoError(t, err)
	require.Len(t, res.Instructions, 1)
	inst := res.Instructions[0]
	require.Equal(t, 5, inst.Rd)
	require.Equal(t, 6, inst.Rs1)
	require.Equal(t, int64(8), inst.Imm)
}

func TestAssembleEcallEbreakTakeNoOperands(t *testing.T) {
	a := New(isa.RV32I, nil)
	res, err := a.Assemble([]string{"ecall", "ebreak"})
	require.NoError(t, err)
	require.Len(t, res.Code, 2)
	require.Equal(t, int64(0), res.Instructions[0].Imm)
	require.Equal(t, int64(1), res.Instructions[1].Imm)
}

func TestAssembleUnknownMnemonicFails(t *testing.T) {
	a := New(isa.RV32I, nil)
	_, err := a.Assemble([]string{"frobnicate x1, x2, x3"})
	require.Error(t, err)
	var aerr *AssembleError
	require.ErrorAs(t, err, &aerr)
	require.Equal(t, 1, aerr.Line)
}

func TestAssembleUndefinedLabelFails(t *testing.T) {
	a := New(isa.RV32I, nil)
	_, err := a.Assemble([]string{"jal x1, nowhere"})
	require.Error(t, err)
	var aerr *AssembleError
	require.ErrorAs(t, err, &aerr)
}

func TestAssemblePartialReturnsCodeBeforeFailure(t *testing.T) {
	a := New(isa.RV32I, nil)
	res, err := a.AssemblePartial([]string{
		"addi x1, x0, 1",
		"bogus x2, x3, x4",
	})
	require.Error(t, err)
	require.Len(t, res.Code, 1)
}

func TestAssembleIgnoresCommentsAndBlankLines(t *testing.T) {
	a := New(isa.RV32I, nil)
	res, err := a.Assemble([]string{
		"# a comment",
		"",
		"addi x1, x0, 1 # trailing comment",
		"; also a comment line",
	})
	require.NoError(t, err)
	require.Len(t, res.Code, 1)
}

func TestAssembleSourceLineToPC(t *testing.T) {
	a := New(isa.RV32I, nil)
	res, err := a.Assemble([]string{
		"start:",
		"addi x1, x0, 1",
		"addi x2, x0, 2",
	})
	require.NoError(t, err)
	require.Equal(t, uint32(0), res.SourceLineToPC[2])
	require.Equal(t, uint32(4), res.SourceLineToPC[3])
}

func TestAssembleLUIUpperImmediate(t *testing.T) {
	a := New(isa.RV32I, nil)
	res, err := a.Assemble([]string{"lui x1, 0xabcde"})
	require.NoError(t, err)
	require.Equal(t, int64(0xabcde), res.Instructions[0].Imm)
}

func TestParseRegisterABINames(t *testing.T) {
	a := New(isa.RV32I, nil)
	res, err := a.Assemble([]string{"add sp, ra, zero"})
	require.NoError(t, err)
	require.Equal(t, 2, res.Instructions[0].Rd)
	require.Equal(t, 1, res.Instructions[0].Rs1)
	require.Equal(t, 0, res.Instructions[0].Rs2)
}

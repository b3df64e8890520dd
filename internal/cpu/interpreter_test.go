package cpu

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rv32sim/rv32sim/internal/asm"
	"github.com/rv32sim/rv32sim/internal/isa"
	"github.com/rv32sim/rv32sim/internal/mem"
)

func load(t *testing.T, source []string) (*Interpreter, *asm.Result) {
	t.Helper()
	a := asm.New(isa.RV32IM, nil)
	res, err := a.Assemble(source)
	require.NoError(t, err)

	in := New(isa.RV32IM, mem.New(), nil)
	in.Load(res)
	return in, res
}

func TestArithmeticAndRun(t *testing.T) {
	in, _ := load(t, []string{
		"addi x1, x0, 5",
		"addi x2, x0, 7",
		"add x3, x1, x2",
		"ecall",
	})
	require.NoError(t, in.Run())
	require.Equal(t, int64(12), in.Regs.Get(3))
}

func TestBranchLoopCountsDown(t *testing.T) {
	in, _ := load(t, []string{
		"addi x1, x0, 3",
		"loop:",
		"addi x1, x1, -1",
		"bne x1, x0, loop",
		"ecall",
	})
	require.NoError(t, in.Run())
	require.Equal(t, int64(0), in.Regs.Get(1))
}

func TestCallReturnPairsCleanly(t *testing.T) {
	in, _ := load(t, []string{
		"jal x1, func",
		"ecall",
		"func:",
		"addi x5, x0, 42",
		"jalr x0, x1, 0",
	})
	require.NoError(t, in.Run())
	require.Equal(t, int64(42), in.Regs.Get(5))
}

func TestLoadStoreRoundTrip(t *testing.T) {
	in, _ := load(t, []string{
		"addi x1, x0, 100",
		"addi x2, x0, 99",
		"sw x2, 0(x1)",
		"lw x3, 0(x1)",
		"ecall",
	})
	require.NoError(t, in.Run())
	require.Equal(t, int64(99), in.Regs.Get(3))
}

func TestDivisionByZero(t *testing.T) {
	in, _ := load(t, []string{
		"addi x1, x0, 10",
		"addi x2, x0, 0",
		"div x3, x1, x2",
		"divu x4, x1, x2",
		"rem x5, x1, x2",
		"ecall",
	})
	require.NoError(t, in.Run())
	require.Equal(t, int64(-1), in.Regs.Get(3))
	require.Equal(t, int64(-1), in.Regs.Get(4)) // all-ones bit pattern == UINT64_MAX
	require.Equal(t, int64(10), in.Regs.Get(5))
}

func TestDivisionOverflow(t *testing.T) {
	in, _ := load(t, []string{
		"addi x1, x0, -1",
		"ecall",
	})
	require.NoError(t, in.Run())

	in.Regs.Set(1, minInt64)
	in.Regs.Set(2, -1)
	require.Equal(t, minInt64, divSigned(in.Regs.Get(1), in.Regs.Get(2)))
	require.Equal(t, int64(0), remSigned(in.Regs.Get(1), in.Regs.Get(2)))
}

func TestBreakpointStopsRunAndSticksOnce(t *testing.T) {
	in, _ := load(t, []string{
		"addi x1, x0, 1",
		"addi x2, x0, 2",
		"addi x3, x0, 3",
		"ecall",
	})
	require.NoError(t, in.SetBreakpoint(2))
	require.NoError(t, in.Run())
	require.Equal(t, int64(1), in.Regs.Get(1))
	require.Equal(t, int64(0), in.Regs.Get(2))

	require.NoError(t, in.Run())
	require.Equal(t, int64(2), in.Regs.Get(2))
	require.Equal(t, int64(3), in.Regs.Get(3))
}

func TestSetBreakpointUnmappedLineFails(t *testing.T) {
	in, _ := load(t, []string{"addi x1, x0, 1", "ecall"})
	err := in.SetBreakpoint(999)
	require.ErrorIs(t, err, ErrBreakpointUnmapped)
}

func TestSetBreakpointCapacity(t *testing.T) {
	in, _ := load(t, []string{
		"addi x1, x0, 1",
		"addi x1, x0, 1",
		"addi x1, x0, 1",
		"addi x1, x0, 1",
		"addi x1, x0, 1",
		"addi x1, x0, 1",
		"ecall",
	})
	for i := 1; i <= MaxBreakpoints; i++ {
		require.NoError(t, in.SetBreakpoint(i))
	}
	require.ErrorIs(t, in.SetBreakpoint(6), ErrBreakpointFull)
}

func TestEbreakPausesExecution(t *testing.T) {
	in, _ := load(t, []string{
		"addi x1, x0, 1",
		"ebreak",
		"addi x2, x0, 2",
		"ecall",
	})
	require.NoError(t, in.Run())
	require.Equal(t, int64(1), in.Regs.Get(1))
	require.Equal(t, int64(0), in.Regs.Get(2))

	require.NoError(t, in.Run())
	require.Equal(t, int64(2), in.Regs.Get(2))
}

func TestEcallReportsExitCode(t *testing.T) {
	in, _ := load(t, []string{
		"addi x10, x0, 7",
		"ecall",
	})
	require.NoError(t, in.Run())
	require.Equal(t, int64(7), in.Regs.Get(10))
}

package hazard

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rv32sim/rv32sim/internal/asm"
	"github.com/rv32sim/rv32sim/internal/isa"
)

func assembleProgram(t *testing.T, source []string) []asm.Instance {
	t.Helper()
	a := asm.New(isa.RV32IM, nil)
	res, err := a.Assemble(source)
	require.NoError(t, err)
	return res.Instructions
}

func TestRAWHazardFiveStageForwardingZeroStall(t *testing.T) {
	program := assembleProgram(t, []string{
		"addi x1, x0, 5",
		"addi x2, x1, 1",
		"addi x3, x2, 1",
	})

	hazards, stats := Analyze(program, Config{Pipeline: Pipeline5Stage, Forwarding: true})

	var raw []Hazard
	for _, h := range hazards {
		if h.Kind == RAW {
			raw = append(raw, h)
		}
	}
	require.Len(t, raw, 2)
	for _, h := range raw {
		require.Equal(t, 0, h.StallCycles)
	}
	require.Equal(t, 0, stats.TotalStalls)
	require.Equal(t, 3, stats.TotalInstructions)
	require.Equal(t, 3, stats.TotalCycles)
}

func TestRAWHazardLoadUseStallsWithoutForwarding(t *testing.T) {
	program := assembleProgram(t, []string{
		"lw x1, 0(x2)",
		"addi x3, x1, 1",
	})

	hazards, _ := Analyze(program, Config{Pipeline: Pipeline5Stage, Forwarding: false})
	require.Len(t, hazards, 1)
	require.Equal(t, RAW, hazards[0].Kind)
	require.Equal(t, 2, hazards[0].StallCycles)
}

func TestControlHazardJalIsFree(t *testing.T) {
	program := assembleProgram(t, []string{
		"jal x0, target",
		"target:",
		"addi x1, x0, 1",
	})
	hazards, stats := Analyze(program, Config{Pipeline: Pipeline5Stage, Forwarding: true})
	require.Len(t, hazards, 1)
	require.Equal(t, Control, hazards[0].Kind)
	require.Equal(t, 0, hazards[0].StallCycles)
	require.Equal(t, 0, stats.ControlStalls)
}

func TestControlHazardConditionalBranchCostsPipelineDepth(t *testing.T) {
	program := assembleProgram(t, []string{
		"addi x1, x0, 3",
		"loop:",
		"addi x1, x1, -1",
		"bne x1, x0, loop",
	})
	hazards, stats := Analyze(program, Config{Pipeline: Pipeline7Stage, Forwarding: true})

	var control []Hazard
	for _, h := range hazards {
		if h.Kind == Control {
			control = append(control, h)
		}
	}
	require.Len(t, control, 1)
	require.Equal(t, 3, control[0].StallCycles)
	require.Equal(t, 3, stats.ControlStalls)
}

func TestCacheMissHazardOnlyWhenCacheEnabled(t *testing.T) {
	program := assembleProgram(t, []string{"lw x1, 0(x2)"})

	hazardsOff, _ := Analyze(program, Config{Pipeline: Pipeline5Stage, Forwarding: true, CacheEnabled: false})
	require.Empty(t, hazardsOff)

	hazardsOn, stats := Analyze(program, Config{Pipeline: Pipeline5Stage, Forwarding: true, CacheEnabled: true})
	require.Len(t, hazardsOn, 1)
	require.Equal(t, CacheMiss, hazardsOn[0].Kind)
	require.Equal(t, 10, hazardsOn[0].StallCycles)
	require.Equal(t, 10, stats.CacheStalls)
}

func TestStructuralHazardMulDivPair(t *testing.T) {
	program := assembleProgram(t, []string{
		"mul x1, x2, x3",
		"div x4, x5, x6",
	})
	hazards, stats := Analyze(program, Config{Pipeline: Pipeline5Stage, Forwarding: true})

	var structural []Hazard
	for _, h := range hazards {
		if h.Kind == Structural {
			structural = append(structural, h)
		}
	}
	require.Len(t, structural, 1)
	require.Equal(t, 2, structural[0].StallCycles)
	require.Equal(t, 2, stats.StructuralStalls)
}

func TestWAWAndWARAreZeroStallButReported(t *testing.T) {
	program := assembleProgram(t, []string{
		"addi x1, x0, 1",
		"addi x2, x1, 1",
		"addi x1, x0, 2",
	})
	hazards, stats := Analyze(program, Config{Pipeline: Pipeline5Stage, Forwarding: true})

	var sawWAW, sawWAR bool
	for _, h := range hazards {
		if h.Kind == WAW {
			sawWAW = true
			require.Equal(t, 0, h.StallCycles)
		}
		if h.Kind == WAR {
			sawWAR = true
			require.Equal(t, 0, h.StallCycles)
		}
	}
	require.True(t, sawWAW)
	require.True(t, sawWAR)
	require.Equal(t, 0, stats.WAWStalls)
	require.Equal(t, 0, stats.WARStalls)
}

func TestStatsReportFormatsCPI(t *testing.T) {
	program := assembleProgram(t, []string{
		"lw x1, 0(x2)",
		"addi x3, x1, 1",
	})
	_, stats := Analyze(program, Config{Pipeline: Pipeline5Stage, Forwarding: false})
	report := stats.Report()
	require.Contains(t, report, "PERFORMANCE ANALYSIS")
	require.Contains(t, report, "Estimated CPI (without hazards): 1.0")
	require.Contains(t, report, "Estimated CPI (with hazards):")
}

// Package hazard performs a static scan over an assembled program,
// reporting RAW/WAW/WAR/control/structural/cache-miss hazards and the
// stall-cycle statistics they imply for a given pipeline configuration.
package hazard

import (
	"fmt"

	"github.com/rv32sim/rv32sim/internal/asm"
	"github.com/rv32sim/rv32sim/internal/isa"
)

// Kind identifies the category of a detected hazard.
type Kind uint8

const (
	RAW Kind = iota
	WAW
	WAR
	Control
	Structural
	CacheMiss
)

func (k Kind) String() string {
	switch k {
	case RAW:
		return "RAW"
	case WAW:
		return "WAW"
	case WAR:
		return "WAR"
	case Control:
		return "Control"
	case Structural:
		return "Structural"
	case CacheMiss:
		return "Cache Miss"
	default:
		return "Unknown"
	}
}

// Pipeline names the depth of the modeled in-order pipeline.
type Pipeline uint8

const (
	Pipeline3Stage Pipeline = iota
	Pipeline5Stage
	Pipeline7Stage
)

func (p Pipeline) String() string {
	switch p {
	case Pipeline3Stage:
		return "3-Stage"
	case Pipeline5Stage:
		return "5-Stage"
	case Pipeline7Stage:
		return "7-Stage"
	default:
		return "Unknown"
	}
}

// Config selects the pipeline model the analyzer scores hazards against.
type Config struct {
	Pipeline     Pipeline
	Forwarding   bool
	CacheEnabled bool
}

// Hazard is one detected hazard record. Consumer is -1 when the hazard
// has no second instruction (control and cache-miss hazards).
type Hazard struct {
	Kind          Kind
	Producer      int
	Consumer      int
	Register      int
	MemoryAddress uint64
	StallCycles   int
	Description   string
	Solution      string
}

func (h Hazard) String() string {
	return fmt.Sprintf("[%s] %s (stall: %d) -- %s", h.Kind, h.Description, h.StallCycles, h.Solution)
}

// Stats aggregates stall cycles by category plus the derived CPI.
type Stats struct {
	TotalStalls       int
	RAWStalls         int
	WAWStalls         int
	WARStalls         int
	ControlStalls     int
	StructuralStalls  int
	CacheStalls       int
	TotalInstructions int
	TotalCycles       int
}

// Report renders the statistics the way the original performance-analysis
// pass printed them: stall cycles per category, only for categories that
// contributed stalls, plus the effective CPI against an ideal CPI of 1.
func (s Stats) Report() string {
	out := "=== PERFORMANCE ANALYSIS ===\n"
	out += fmt.Sprintf("Program instructions: %d\n", s.TotalInstructions)
	out += fmt.Sprintf("Total stall cycles: %d\n", s.TotalStalls)
	if s.RAWStalls > 0 {
		out += fmt.Sprintf("  RAW Hazards: %d\n", s.RAWStalls)
	}
	if s.WAWStalls > 0 {
		out += fmt.Sprintf("  WAW Hazards: %d\n", s.WAWStalls)
	}
	if s.WARStalls > 0 {
		out += fmt.Sprintf("  WAR Hazards: %d\n", s.WARStalls)
	}
	if s.ControlStalls > 0 {
		out += fmt.Sprintf("  Control Hazards: %d\n", s.ControlStalls)
	}
	if s.StructuralStalls > 0 {
		out += fmt.Sprintf("  Structural Hazards: %d\n", s.StructuralStalls)
	}
	if s.CacheStalls > 0 {
		out += fmt.Sprintf("  Cache Misses: %d\n", s.CacheStalls)
	}
	if s.TotalInstructions == 0 {
		out += "No instructions in program, cannot calculate CPI.\n"
		return out
	}
	out += "Estimated CPI (without hazards): 1.0\n"
	out += fmt.Sprintf("Estimated CPI (with hazards): %.3f\n", float64(s.TotalCycles)/float64(s.TotalInstructions))
	return out
}

// Analyze scans program under cfg and returns its hazards in program
// order plus the resulting statistics.
func Analyze(program []asm.Instance, cfg Config) ([]Hazard, Stats) {
	var hazards []Hazard
	var stats Stats

	// writes reports whether inst writes its rd field, counting the jal/jalr
	// link-register write that WritesRd leaves out.
	writes := func(inst asm.Instance) bool {
		return inst.Inst.WritesRd() || inst.Inst.IsJump() || inst.Inst.IsJumpR()
	}

	for i := range program {
		inst1 := program[i]

		if inst1.Inst.IsBranch() || inst1.Inst.IsJump() || inst1.Inst.IsJumpR() {
			stall := controlStallCycles(inst1, cfg.Pipeline)
			reason := "Branch instruction: " + inst1.Inst.Mnemonic
			if inst1.Inst.IsJumpR() {
				reason = "Function return: " + inst1.Inst.Mnemonic
			}
			hazards = append(hazards, Hazard{
				Kind: Control, Producer: i, Consumer: -1,
				StallCycles: stall, Description: reason,
				Solution: "Predict branch direction or delay the fetch until resolved",
			})
			stats.ControlStalls += stall
			stats.TotalStalls += stall
		}

		if cfg.CacheEnabled && (inst1.Inst.IsLoad() || inst1.Inst.IsStore()) {
			stall := cacheStallCycles(cfg.Pipeline)
			hazards = append(hazards, Hazard{
				Kind: CacheMiss, Producer: i, Consumer: -1,
				StallCycles: stall,
				Description: fmt.Sprintf("Estimated cache miss on %s", inst1.Inst.Mnemonic),
				Solution:    "Wait for memory access or prefetch cache lines",
			})
			stats.CacheStalls += stall
			stats.TotalStalls += stall
		}

		for j := i + 1; j < len(program); j++ {
			inst2 := program[j]
			distance := j - i

			if writes(inst1) && inst1.Rd != 0 {
				if (inst2.Inst.ReadsRs1() && inst2.Rs1 == inst1.Rd) || (inst2.Inst.ReadsRs2() && inst2.Rs2 == inst1.Rd) {
					stall := rawStallCycles(inst1, distance, cfg)
					hazards = append(hazards, Hazard{
						Kind: RAW, Producer: i, Consumer: j, Register: inst1.Rd,
						StallCycles: stall,
						Description: fmt.Sprintf("x%d written at %d read at %d", inst1.Rd, i, j),
						Solution:    rawSolution(stall),
					})
					stats.RAWStalls += stall
					stats.TotalStalls += stall
				}
			}

			if writes(inst1) && writes(inst2) && inst1.Rd != 0 && inst1.Rd == inst2.Rd {
				hazards = append(hazards, Hazard{
					Kind: WAW, Producer: i, Consumer: j, Register: inst1.Rd,
					Description: fmt.Sprintf("x%d written at %d and again at %d", inst1.Rd, i, j),
					Solution:    "Reorder or rename so the earlier write is not discarded",
				})
			}

			if writes(inst2) && inst2.Rd != 0 {
				if (inst1.Inst.ReadsRs1() && inst1.Rs1 == inst2.Rd) || (inst1.Inst.ReadsRs2() && inst1.Rs2 == inst2.Rd) {
					hazards = append(hazards, Hazard{
						Kind: WAR, Producer: i, Consumer: j, Register: inst2.Rd,
						Description: fmt.Sprintf("x%d read at %d written at %d", inst2.Rd, i, j),
						Solution:    "Reorder so the write does not race the earlier read",
					})
				}
			}

			if stall := structuralStallCycles(inst1, inst2, distance, cfg.Pipeline); stall > 0 {
				unit := "Functional unit"
				switch {
				case inst1.Inst.IsMulDiv():
					unit = "Mul/Div Unit"
				case inst1.Inst.IsLoad() || inst1.Inst.IsStore():
					unit = "Memory Access Unit"
				case inst1.Inst.Category == isa.CategoryALU:
					unit = "ALU"
				}
				hazards = append(hazards, Hazard{
					Kind: Structural, Producer: i, Consumer: j,
					StallCycles: stall,
					Description: fmt.Sprintf("%s contention between %d and %d", unit, i, j),
					Solution:    "Add a second functional unit or schedule further apart",
				})
				stats.StructuralStalls += stall
				stats.TotalStalls += stall
			}
		}
	}

	stats.TotalInstructions = len(program)
	stats.TotalCycles = stats.TotalInstructions + stats.TotalStalls
	return hazards, stats
}

func rawSolution(stall int) string {
	if stall == 0 {
		return "Resolved by forwarding"
	}
	return "Insert independent instructions or rely on forwarding"
}

// rawStallCycles implements the RAW stall formula table: 3-stage is
// forwarding-independent; 5/7-stage fork on cfg.Forwarding and whether the
// producer is a load.
func rawStallCycles(producer asm.Instance, d int, cfg Config) int {
	isLoad := producer.Inst.IsLoad()
	max0 := func(v int) int {
		if v < 0 {
			return 0
		}
		return v
	}

	switch cfg.Pipeline {
	case Pipeline3Stage:
		if d == 1 {
			return 1
		}
		return 0

	case Pipeline5Stage:
		if cfg.Forwarding {
			if isLoad {
				if d == 1 {
					return 1
				}
				return max0(2 - d)
			}
			return max0(1 - d)
		}
		if isLoad && d == 1 {
			return 2
		}
		if d <= 2 {
			return max0(3 - d)
		}
		return 0

	case Pipeline7Stage:
		if cfg.Forwarding {
			if isLoad {
				return max0(2 - d)
			}
			return max0(3 - d)
		}
		if isLoad && d <= 2 {
			return max0(3 - d)
		}
		if d <= 3 {
			return max0(4 - d)
		}
		return 0
	}
	return 0
}

func controlStallCycles(inst asm.Instance, p Pipeline) int {
	if inst.Inst.IsJump() {
		return 0 // jal: unconditional, resolved in decode
	}
	switch p {
	case Pipeline3Stage:
		return 1
	case Pipeline5Stage:
		return 2
	case Pipeline7Stage:
		return 3
	}
	return 2
}

func cacheStallCycles(p Pipeline) int {
	switch p {
	case Pipeline3Stage:
		return 5
	case Pipeline5Stage:
		return 10
	case Pipeline7Stage:
		return 12
	}
	return 10
}

func structuralStallCycles(inst1, inst2 asm.Instance, distance int, p Pipeline) int {
	alu1 := inst1.Inst.Category == isa.CategoryALU
	alu2 := inst2.Inst.Category == isa.CategoryALU
	memOp1 := inst1.Inst.IsLoad() || inst1.Inst.IsStore()
	memOp2 := inst2.Inst.IsLoad() || inst2.Inst.IsStore()

	if p == Pipeline3Stage {
		if alu1 && alu2 && distance == 0 {
			return 1
		}
		if inst1.Inst.IsLoad() && inst2.Inst.IsLoad() && distance == 0 {
			return 1
		}
		return 0
	}

	if alu1 && alu2 && distance == 0 {
		return 1
	}
	if memOp1 && memOp2 && distance < 2 {
		return 1
	}
	if inst1.Inst.IsMulDiv() && inst2.Inst.IsMulDiv() && distance < 2 {
		return 2
	}
	return 0
}

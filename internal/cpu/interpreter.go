// Package cpu implements the interpreter loop: register file, memory
// dispatch, shadow call stack, breakpoints, and per-instruction execution
// semantics for the admitted RV32I/M and RV64I/M subset.
package cpu

import (
	"fmt"
	"math/bits"

	"github.com/ethereum/go-ethereum/log"

	"github.com/rv32sim/rv32sim/internal/asm"
	"github.com/rv32sim/rv32sim/internal/isa"
)

// Memory is whatever the interpreter reads loads from and writes stores
// to: either internal/mem.Memory directly, or internal/cache.Cache sitting
// in front of it. Both satisfy this interface already.
type Memory interface {
	Read(addr uint64, size int, unsigned bool) (int64, error)
	Write(addr uint64, size int, value int64) error
}

// Interpreter executes an assembled program instruction by instruction.
// It exclusively owns the register file, shadow call stack, and
// breakpoint table; Memory is injected and may be shared (e.g. invalidated
// independently by the caller between runs).
type Interpreter struct {
	mode isa.Mode
	mem  Memory
	log  log.Logger

	Regs        Registers
	CallStack   CallStack
	Breakpoints *Breakpoints

	program        []asm.Instance
	sourceLineToPC map[int]uint32
	labels         *asm.Labels

	pc                    uint32
	running               bool
	pauseRequested        bool
	resumedFromBreakpoint bool
}

// New builds an Interpreter for mode, reading/writing through mem. A nil
// logger discards the `Executed:`/exit/pause/breakpoint trace.
func New(mode isa.Mode, mem Memory, logger log.Logger) *Interpreter {
	if logger == nil {
		logger = log.NewLogger(log.DiscardHandler())
	}
	return &Interpreter{
		mode:        mode,
		mem:         mem,
		log:         logger,
		Breakpoints: NewBreakpoints(),
	}
}

// Load stores the assembled program and resets PC, registers, and the
// shadow call stack. Breakpoints already set are kept. It does not touch
// Memory: callers that want a clean memory image invalidate/reset it
// themselves.
func (in *Interpreter) Load(res *asm.Result) {
	in.program = res.Instructions
	in.sourceLineToPC = res.SourceLineToPC
	in.labels = res.Labels
	in.resetExecutionState()
}

func (in *Interpreter) resetExecutionState() {
	in.pc = 0
	in.Regs.Reset()
	in.CallStack.Reset()
	in.running = true
	in.pauseRequested = false
	in.resumedFromBreakpoint = false
}

// PC returns the interpreter's current program counter.
func (in *Interpreter) PC() uint32 { return in.pc }

// ProgramLoaded reports whether a program is loaded and pc addresses one
// of its instructions.
func (in *Interpreter) ProgramLoaded() bool {
	if len(in.program) == 0 {
		return false
	}
	idx := int(in.pc) / 4
	return idx >= 0 && idx < len(in.program)
}

// SetBreakpoint resolves line to a PC via the loaded source map and
// records a breakpoint there, per the sentinel errors in
// internal/cpu/breakpoints.go.
func (in *Interpreter) SetBreakpoint(line int) error {
	pc, ok := in.sourceLineToPC[line]
	if !ok {
		return ErrBreakpointUnmapped
	}
	return in.Breakpoints.Set(pc, line)
}

// RemoveBreakpoint clears the breakpoint at the given source line.
func (in *Interpreter) RemoveBreakpoint(line int) bool {
	return in.Breakpoints.Remove(line)
}

// Step executes the instruction at pc/4 and returns the source line of
// the instruction that will execute next, or 0 if the program has no more
// instructions.
func (in *Interpreter) Step() (int, error) {
	idx := int(in.pc) / 4
	if len(in.program) == 0 || idx < 0 || idx >= len(in.program) {
		in.log.Info("step: nothing to step, reached end of program")
		return 0, nil
	}

	sourceLine := in.lineForPC(in.pc)
	oldPC := in.pc

	if in.pc == 0 {
		in.CallStack.PushFrame(in.frameName(0), sourceLine, in.pc)
	} else {
		in.CallStack.UpdateTopSourceLine(sourceLine)
	}

	inst := in.program[idx]
	if err := in.execute(inst); err != nil {
		return 0, err
	}

	in.log.Info(fmt.Sprintf("Executed: %s (line: %d) ; PC = hex: 0x%06x", inst.Source, sourceLine, oldPC))

	if in.pc <= uint32(4*len(in.program)-4) {
		in.pc += 4
	}
	in.CallStack.UpdateTopReturnAddress(in.pc)
	return in.lineForPC(in.pc), nil
}

// Run steps until the program ends, a breakpoint is hit at the current
// PC, or EBREAK requests a pause. A breakpoint hit is sticky-resumed: the
// same PC does not re-trigger on the very next Run call.
func (in *Interpreter) Run() error {
	in.running = true
	hitBreakpoint := false

	for in.pc < uint32(4*len(in.program)) {
		if line, ok := in.Breakpoints.LineAt(in.pc); ok && !in.resumedFromBreakpoint {
			in.log.Info(fmt.Sprintf("Execution stopped at breakpoint at line: %d", line))
			hitBreakpoint = true
			in.resumedFromBreakpoint = true
			break
		}
		in.resumedFromBreakpoint = false

		if _, err := in.Step(); err != nil {
			return err
		}
		if in.pauseRequested {
			in.log.Info("Execution paused due to ebreak.")
			break
		}
	}

	if !in.pauseRequested && in.running && !hitBreakpoint {
		in.log.Info("Program completed (possibly reached end of program).")
	}
	in.pauseRequested = false
	return nil
}

func (in *Interpreter) lineForPC(pc uint32) int {
	for line, mapped := range in.sourceLineToPC {
		if mapped == pc {
			return line
		}
	}
	return 0
}

// frameName names a call-stack frame from the label table, falling back
// to the synthetic "* main *" entry-frame name at pc 0.
func (in *Interpreter) frameName(pc uint32) string {
	if in.labels != nil {
		if name, ok := in.labels.Label(pc, true); ok {
			return name
		}
	}
	if pc == 0 {
		return "* main *"
	}
	return ""
}

func pcPlus(pc uint32, delta int64) uint32 {
	return uint32(int32(pc) + int32(delta))
}

func (in *Interpreter) execute(inst asm.Instance) error {
	mnem := inst.Inst.Mnemonic

	switch mnem {
	case "ecall":
		exitCode := in.Regs.Get(10)
		in.log.Info(fmt.Sprintf("Program exited with code: %d", exitCode))
		in.pc = uint32(4 * len(in.program))
		in.running = false
		return nil
	case "ebreak":
		in.pauseRequested = true
		return nil
	}

	rs1 := in.Regs.Get(inst.Rs1)
	rs2 := in.Regs.Get(inst.Rs2)
	imm := inst.Imm

	switch inst.Inst.Category {
	case isa.CategoryBranch:
		return in.executeBranch(mnem, rs1, rs2, imm)
	case isa.CategoryJump:
		return in.executeJal(inst, imm)
	case isa.CategoryJumpR:
		return in.executeJalr(inst, rs1, imm)
	case isa.CategoryLoad:
		return in.executeLoad(inst, rs1, imm)
	case isa.CategoryStore:
		return in.executeStore(mnem, rs1, rs2, imm)
	}

	var rd int64
	switch mnem {
	case "add":
		rd = rs1 + rs2
	case "sub":
		rd = rs1 - rs2
	case "and":
		rd = rs1 & rs2
	case "or":
		rd = rs1 | rs2
	case "xor":
		rd = rs1 ^ rs2
	case "sll":
		rd = rs1 << (rs2 & 0x1f)
	case "srl":
		rd = int64(uint64(rs1) >> (rs2 & 0x1f))
	case "sra":
		rd = int64(int32(rs1)) >> (rs2 & 0x1f)
	case "slt":
		rd = boolInt(rs1 < rs2)
	case "sltu":
		rd = boolInt(uint64(rs1) < uint64(rs2))

	case "mul":
		rd = int64(int32(rs1) * int32(rs2))
	case "mulh":
		rd = mulhSigned(rs1, rs2)
	case "mulhsu":
		rd = mulhSignedUnsigned(rs1, rs2)
	case "mulhu":
		rd = mulhUnsigned(rs1, rs2)
	case "div":
		rd = divSigned(rs1, rs2)
	case "divu":
		rd = divUnsigned(rs1, rs2)
	case "rem":
		rd = remSigned(rs1, rs2)
	case "remu":
		rd = remUnsigned(rs1, rs2)

	case "addw":
		rd = int64(int32(rs1 + rs2))
	case "subw":
		rd = int64(int32(rs1 - rs2))
	case "sllw":
		rd = int64(int32(rs1) << (rs2 & 0x1f))
	case "srlw":
		rd = int64(int32(uint32(rs1) >> (rs2 & 0x1f)))
	case "sraw":
		rd = int64(int32(rs1) >> (rs2 & 0x1f))
	case "mulw":
		rd = int64(int32(rs1 * rs2))
	case "divw":
		rd = int64(divSigned32(int32(rs1), int32(rs2)))
	case "divuw":
		rd = int64(int32(divUnsigned32(uint32(rs1), uint32(rs2))))
	case "remw":
		rd = int64(remSigned32(int32(rs1), int32(rs2)))
	case "remuw":
		rd = int64(int32(remUnsigned32(uint32(rs1), uint32(rs2))))

	case "addi":
		rd = rs1 + imm
	case "andi":
		rd = rs1 & imm
	case "ori":
		rd = rs1 | imm
	case "xori":
		rd = rs1 ^ imm
	case "slti":
		rd = boolInt(rs1 < imm)
	case "sltiu":
		rd = boolInt(uint64(rs1) < uint64(imm))
	case "slli":
		rd = rs1 << (uint64(imm) & 0x3f)
	case "srli":
		rd = int64(uint64(rs1) >> (uint64(imm) & 0x1f))
	case "srai":
		rd = int64(int32(rs1)) >> (uint64(imm) & 0x1f)

	case "addiw":
		rd = int64(int32(rs1 + imm))
	case "slliw":
		rd = int64(int32(uint32(rs1) << (uint(imm) & 0x1f)))
	case "srliw":
		rd = int64(int32(uint32(rs1) >> (uint(imm) & 0x1f)))
	case "sraiw":
		rd = int64(int32(rs1) >> (uint(imm) & 0x1f))

	case "lui":
		rd = imm << 12
	case "auipc":
		rd = int64(in.pc) + (imm << 12)

	default:
		return fmt.Errorf("interpreter: unhandled mnemonic %q", mnem)
	}

	if inst.Inst.WritesRd() && inst.Rd != 0 {
		in.Regs.Set(inst.Rd, rd)
	}
	return nil
}

func (in *Interpreter) executeBranch(mnem string, rs1, rs2 int64, imm int64) error {
	taken := false
	switch mnem {
	case "beq":
		taken = rs1 == rs2
	case "bne":
		taken = rs1 != rs2
	case "blt":
		taken = rs1 < rs2
	case "bge":
		taken = rs1 >= rs2
	case "bltu":
		taken = uint64(rs1) < uint64(rs2)
	case "bgeu":
		taken = uint64(rs1) >= uint64(rs2)
	default:
		return fmt.Errorf("interpreter: unhandled branch %q", mnem)
	}
	if taken {
		in.pc = pcPlus(in.pc, imm-4)
	}
	return nil
}

func (in *Interpreter) executeJal(inst asm.Instance, imm int64) error {
	next := in.pc + 4
	in.pc = pcPlus(in.pc, imm)
	if inst.Rd != 0 {
		in.Regs.Set(inst.Rd, int64(next))
		in.CallStack.UpdateTopReturnAddress(next)
		in.CallStack.PushFrame(in.frameName(in.pc), in.lineForPC(in.pc), in.pc)
	}
	in.pc = pcPlus(in.pc, -4)
	return nil
}

func (in *Interpreter) executeJalr(inst asm.Instance, rs1 int64, imm int64) error {
	target := uint32((rs1 + imm) &^ 1)
	in.pc = target
	if inst.Rd == 0 {
		matched, expected, ok := in.CallStack.PopIfMatchingReturnAddress(target)
		if ok && !matched {
			in.log.Warn(fmt.Sprintf("Warning! Shadow call stack mismatch! Expected: 0x%x but asking to pop 0x%x", expected, target))
		} else if !ok {
			in.log.Warn("Shadow call stack empty on jalr!")
		}
	}
	in.pc = pcPlus(in.pc, -4)
	return nil
}

func (in *Interpreter) executeLoad(inst asm.Instance, rs1 int64, imm int64) error {
	addr := uint64(rs1 + imm)
	var size int
	unsigned := false
	switch inst.Inst.Mnemonic {
	case "lb":
		size = 1
	case "lbu":
		size, unsigned = 1, true
	case "lh":
		size = 2
	case "lhu":
		size, unsigned = 2, true
	case "lw":
		size = 4
	case "lwu":
		size, unsigned = 4, true
	case "ld":
		size, unsigned = 8, true
	default:
		return fmt.Errorf("interpreter: unhandled load %q", inst.Inst.Mnemonic)
	}
	v, err := in.mem.Read(addr, size, unsigned)
	if err != nil {
		return err
	}
	if inst.Rd != 0 {
		in.Regs.Set(inst.Rd, v)
	}
	return nil
}

func (in *Interpreter) executeStore(mnem string, rs1, rs2 int64, imm int64) error {
	addr := uint64(rs1 + imm)
	var size int
	switch mnem {
	case "sb":
		size = 1
	case "sh":
		size = 2
	case "sw":
		size = 4
	case "sd":
		size = 8
	default:
		return fmt.Errorf("interpreter: unhandled store %q", mnem)
	}
	return in.mem.Write(addr, size, rs2)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// mulhSigned/mulhSignedUnsigned/mulhUnsigned compute the high 64 bits of a
// signed/mixed/unsigned 128-bit product via the standard unsigned-multiply
// correction (Go has no native 128-bit integer, unlike the __int128_t the
// original simulator used).
func mulhSigned(a, b int64) int64 {
	hi, _ := bits.Mul64(uint64(a), uint64(b))
	if a < 0 {
		hi -= uint64(b)
	}
	if b < 0 {
		hi -= uint64(a)
	}
	return int64(hi)
}

func mulhSignedUnsigned(a int64, b int64) int64 {
	hi, _ := bits.Mul64(uint64(a), uint64(b))
	if a < 0 {
		hi -= uint64(b)
	}
	return int64(hi)
}

func mulhUnsigned(a, b int64) int64 {
	hi, _ := bits.Mul64(uint64(a), uint64(b))
	return int64(hi)
}

func divSigned(a, b int64) int64 {
	if b == 0 {
		return -1
	}
	if a == minInt64 && b == -1 {
		return minInt64
	}
	return a / b
}

func divUnsigned(a, b int64) int64 {
	if b == 0 {
		return -1 // all-ones bit pattern == UINT64_MAX
	}
	return int64(uint64(a) / uint64(b))
}

func remSigned(a, b int64) int64 {
	if b == 0 {
		return a
	}
	if a == minInt64 && b == -1 {
		return 0
	}
	return a % b
}

func remUnsigned(a, b int64) int64 {
	if b == 0 {
		return a
	}
	return int64(uint64(a) % uint64(b))
}

const minInt64 = int64(-1) << 63

func divSigned32(a, b int32) int32 {
	if b == 0 {
		return -1
	}
	if a == minInt32 && b == -1 {
		return minInt32
	}
	return a / b
}

func divUnsigned32(a, b uint32) uint32 {
	if b == 0 {
		return ^uint32(0)
	}
	return a / b
}

func remSigned32(a, b int32) int32 {
	if b == 0 {
		return a
	}
	if a == minInt32 && b == -1 {
		return 0
	}
	return a % b
}

func remUnsigned32(a, b uint32) uint32 {
	if b == 0 {
		return a
	}
	return a % b
}

const minInt32 = int32(-1) << 31

// Package asm implements the two-pass assembler: label collection followed
// by per-line operand parsing and encoding into machine words.
package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/log"

	"github.com/rv32sim/rv32sim/internal/codec"
	"github.com/rv32sim/rv32sim/internal/isa"
)

// AssembleError wraps a failure with the one-based source line it occurred
// on, so callers can report "line N: ..." without re-deriving the mapping.
type AssembleError struct {
	Line    int
	Message string
	Cause   error
}

func (e *AssembleError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("line %d: %s: %v", e.Line, e.Message, e.Cause)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

func (e *AssembleError) Unwrap() error { return e.Cause }

// Instance is one fully resolved instruction: the decoded operand fields
// plus the PC it was placed at and the source text it came from.
type Instance struct {
	Inst         *isa.Instruction
	Rd, Rs1, Rs2 int
	Imm          int64
	PC           uint32
	Source       string
}

// Result is everything one call to Assemble produces.
type Result struct {
	Code           []uint32
	Instructions   []Instance
	SourceLineToPC map[int]uint32
	Labels         *Labels
}

// Assembler turns assembly source into machine code under a fixed ISA mode.
type Assembler struct {
	mode isa.Mode
	log  log.Logger
}

// New builds an Assembler for mode. A nil logger discards assembler
// diagnostics (same convention as internal/cache and internal/cpu).
func New(mode isa.Mode, logger log.Logger) *Assembler {
	if logger == nil {
		logger = log.NewLogger(log.DiscardHandler())
	}
	return &Assembler{mode: mode, log: logger}
}

// Assemble runs both passes over lines and returns the fully resolved
// program, or the first *AssembleError encountered.
func (a *Assembler) Assemble(lines []string) (*Result, error) {
	res, err := a.assemble(lines)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// AssemblePartial behaves like Assemble but returns whatever machine code
// and instructions were produced before a failure alongside the error, so
// the caller can inspect the partial result.
func (a *Assembler) AssemblePartial(lines []string) (*Result, error) {
	return a.assemble(lines)
}

func (a *Assembler) assemble(lines []string) (*Result, error) {
	labels := NewLabels()
	instructionLines, sourceLineToPC, err := collectLabels(lines, labels)
	if err != nil {
		return nil, err
	}

	res := &Result{SourceLineToPC: sourceLineToPC, Labels: labels}

	for i, line := range instructionLines {
		pc := uint32(i * 4)
		sourceLine := lineForPC(sourceLineToPC, pc)

		fields := strings.Fields(line)
		mnemonic := fields[0]

		inst, err := isa.Lookup(a.mode, mnemonic)
		if err != nil {
			a.log.Error("assemble: unknown instruction", "line", sourceLine, "mnemonic", mnemonic)
			return res, &AssembleError{Line: sourceLine, Message: fmt.Sprintf("unknown instruction %q", mnemonic)}
		}

		rest := strings.TrimSpace(strings.TrimPrefix(line, mnemonic))
		operands := splitOperands(rest)

		f, err := a.parseOperands(inst, operands, pc, labels)
		if err != nil {
			return res, &AssembleError{Line: sourceLine, Message: fmt.Sprintf("instruction %q", mnemonic), Cause: err}
		}

		word, err := codec.Encode(codec.Fields{Inst: inst, Rd: f.Rd, Rs1: f.Rs1, Rs2: f.Rs2, Imm: f.Imm})
		if err != nil {
			return res, &AssembleError{Line: sourceLine, Message: "encode", Cause: err}
		}

		res.Code = append(res.Code, word)
		res.Instructions = append(res.Instructions, Instance{
			Inst: inst, Rd: f.Rd, Rs1: f.Rs1, Rs2: f.Rs2, Imm: f.Imm, PC: pc, Source: line,
		})
	}

	return res, nil
}

// collectLabels is assembly's first pass: it strips comments, records
// "IDENT:" label definitions against the PC they prefix, and returns the
// instruction-only lines (label definitions stripped) plus the source-line
// (one-based) to PC map.
func collectLabels(lines []string, labels *Labels) ([]string, map[int]uint32, error) {
	labels.clear()
	var instructionsOnly []string
	sourceLineToPC := make(map[int]uint32)

	pc := uint32(0)
	for lineNo, raw := range lines {
		trimmed := cleanLine(raw)
		if trimmed == "" {
			continue
		}

		if colon := strings.Index(trimmed, ":"); colon != -1 {
			label := strings.TrimSpace(trimmed[:colon])
			labels.Set(pc, label, true)
			trimmed = cleanLine(trimmed[colon+1:])
		}

		if trimmed == "" {
			continue
		}

		instructionsOnly = append(instructionsOnly, trimmed)
		sourceLineToPC[lineNo+1] = pc
		pc += 4
	}
	return instructionsOnly, sourceLineToPC, nil
}

// cleanLine strips a trailing '#' or ';' comment and surrounding whitespace.
func cleanLine(line string) string {
	if i := strings.IndexAny(line, "#;"); i != -1 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

func splitOperands(rest string) []string {
	if rest == "" {
		return nil
	}
	parts := strings.Split(rest, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

type parsedFields struct {
	Rd, Rs1, Rs2 int
	Imm          int64
}

func (a *Assembler) parseOperands(inst *isa.Instruction, operands []string, pc uint32, labels *Labels) (parsedFields, error) {
	switch inst.Format {
	case isa.FormatR:
		if len(operands) != 3 {
			return parsedFields{}, fmt.Errorf("expected 3 operands, got %d", len(operands))
		}
		rd, err := isa.ParseRegister(operands[0])
		if err != nil {
			return parsedFields{}, err
		}
		rs1, err := isa.ParseRegister(operands[1])
		if err != nil {
			return parsedFields{}, err
		}
		rs2, err := isa.ParseRegister(operands[2])
		if err != nil {
			return parsedFields{}, err
		}
		return parsedFields{Rd: rd, Rs1: rs1, Rs2: rs2}, nil

	case isa.FormatI:
		if inst.IsSyscall {
			if len(operands) != 0 {
				return parsedFields{}, fmt.Errorf("%s takes no operands, got %d", inst.Mnemonic, len(operands))
			}
			return parsedFields{Imm: int64(inst.SyscallImm)}, nil
		}
		if len(operands) != 2 && len(operands) != 3 {
			return parsedFields{}, fmt.Errorf("expected 2 or 3 operands for %q, got %d", inst.Mnemonic, len(operands))
		}
		rd, err := isa.ParseRegister(operands[0])
		if err != nil {
			return parsedFields{}, err
		}
		switch len(operands) {
		case 2:
			if !inst.IsLoad() && !inst.IsJumpR() {
				return parsedFields{}, fmt.Errorf("expected 3 operands for %q, got 2", inst.Mnemonic)
			}
			imm, rs1, err := parseMemoryOperand(operands[1], pc, labels)
			if err != nil {
				return parsedFields{}, err
			}
			return parsedFields{Rd: rd, Rs1: rs1, Imm: imm}, nil
		case 3:
			rs1, err := isa.ParseRegister(operands[1])
			if err != nil {
				return parsedFields{}, err
			}
			imm, err := parseImmediate(operands[2], pc, labels)
			if err != nil {
				return parsedFields{}, err
			}
			return parsedFields{Rd: rd, Rs1: rs1, Imm: imm}, nil
		default:
			return parsedFields{}, fmt.Errorf("expected 2 or 3 operands for %q, got %d", inst.Mnemonic, len(operands))
		}

	case isa.FormatS:
		if len(operands) != 2 {
			return parsedFields{}, fmt.Errorf("expected 2 operands, got %d", len(operands))
		}
		rs2, err := isa.ParseRegister(operands[0])
		if err != nil {
			return parsedFields{}, err
		}
		imm, rs1, err := parseMemoryOperand(operands[1], pc, labels)
		if err != nil {
			return parsedFields{}, err
		}
		return parsedFields{Rs1: rs1, Rs2: rs2, Imm: imm}, nil

	case isa.FormatB:
		if len(operands) != 3 {
			return parsedFields{}, fmt.Errorf("expected 3 operands, got %d", len(operands))
		}
		rs1, err := isa.ParseRegister(operands[0])
		if err != nil {
			return parsedFields{}, err
		}
		rs2, err := isa.ParseRegister(operands[1])
		if err != nil {
			return parsedFields{}, err
		}
		imm, err := parseImmediate(operands[2], pc, labels)
		if err != nil {
			return parsedFields{}, err
		}
		return parsedFields{Rs1: rs1, Rs2: rs2, Imm: imm}, nil

	case isa.FormatU:
		if len(operands) != 2 {
			return parsedFields{}, fmt.Errorf("expected 2 operands, got %d", len(operands))
		}
		rd, err := isa.ParseRegister(operands[0])
		if err != nil {
			return parsedFields{}, err
		}
		imm, err := parseImmediate(operands[1], pc, labels)
		if err != nil {
			return parsedFields{}, err
		}
		return parsedFields{Rd: rd, Imm: imm}, nil

	case isa.FormatJ:
		if len(operands) != 2 {
			return parsedFields{}, fmt.Errorf("expected 2 operands, got %d", len(operands))
		}
		rd, err := isa.ParseRegister(operands[0])
		if err != nil {
			return parsedFields{}, err
		}
		imm, err := parseImmediate(operands[1], pc, labels)
		if err != nil {
			return parsedFields{}, err
		}
		return parsedFields{Rd: rd, Imm: imm}, nil

	default:
		return parsedFields{}, fmt.Errorf("unsupported format %v", inst.Format)
	}
}

// parseMemoryOperand splits "imm(reg)" into its immediate and register.
func parseMemoryOperand(operand string, pc uint32, labels *Labels) (imm int64, rs1 int, err error) {
	open := strings.Index(operand, "(")
	closeParen := strings.Index(operand, ")")
	if open == -1 || closeParen == -1 || closeParen <= open+1 {
		return 0, 0, fmt.Errorf("invalid memory operand %q", operand)
	}
	immPart := operand[:open]
	regPart := operand[open+1 : closeParen]

	imm, err = parseImmediate(immPart, pc, labels)
	if err != nil {
		return 0, 0, err
	}
	rs1, err = isa.ParseRegister(regPart)
	if err != nil {
		return 0, 0, err
	}
	return imm, rs1, nil
}

// parseImmediate resolves token to a label's PC-relative offset if it names
// a known label; otherwise parses it as a signed integer with auto-detected
// base (0x, 0, decimal).
func parseImmediate(token string, pc uint32, labels *Labels) (int64, error) {
	token = strings.TrimSpace(token)
	if target, ok := labels.ProgramCounter(token); ok {
		return int64(int32(target) - int32(pc)), nil
	}
	v, err := strconv.ParseInt(token, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("undefined label or invalid immediate %q", token)
	}
	return v, nil
}

func lineForPC(sourceLineToPC map[int]uint32, pc uint32) int {
	for line, mapped := range sourceLineToPC {
		if mapped == pc {
			return line
		}
	}
	return 0
}

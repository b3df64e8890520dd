// Package disasm converts a sequence of machine words back into assembly
// text, the inverse of internal/asm's encoding pass.
package disasm

import (
	"fmt"
	"strings"

	"github.com/rv32sim/rv32sim/internal/asm"
	"github.com/rv32sim/rv32sim/internal/codec"
	"github.com/rv32sim/rv32sim/internal/isa"
)

// Disassembler formats machine words as assembly text under a fixed ISA
// mode, optionally regenerating "LABEL:" lines from a label table produced
// by a prior assembly pass.
type Disassembler struct {
	mode   isa.Mode
	labels *asm.Labels

	// UseABINames selects ABI register mnemonics (ra, sp, a0, ...) instead
	// of the default x<N> spelling.
	UseABINames bool
}

// New builds a Disassembler for mode. A nil labels table disassembles
// every branch/jump target as a bare signed offset.
func New(mode isa.Mode, labels *asm.Labels) *Disassembler {
	if labels == nil {
		labels = asm.NewLabels()
	}
	return &Disassembler{mode: mode, labels: labels}
}

// SetLabels replaces the label table used for "LABEL:" lines and
// target-as-label formatting.
func (d *Disassembler) SetLabels(labels *asm.Labels) {
	if labels == nil {
		labels = asm.NewLabels()
	}
	d.labels = labels
}

// Disassemble formats each word in code, placed at consecutive PCs
// starting at 0, as one or more lines of assembly text: a standalone
// "LABEL:" line precedes any instruction whose PC is a label definition.
func (d *Disassembler) Disassemble(code []uint32) ([]string, error) {
	var lines []string
	for i, word := range code {
		pc := uint32(i * 4)
		if name, ok := d.labels.Label(pc, true); ok {
			lines = append(lines, name+":")
		}
		line, err := d.disassembleOne(pc, word)
		if err != nil {
			return lines, fmt.Errorf("word %d at pc 0x%x: %w", i, pc, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// disassembleOne formats a single word at pc, disambiguating ECALL/EBREAK
// via the decoded immediate when both candidates match.
func (d *Disassembler) disassembleOne(pc uint32, word uint32) (string, error) {
	matches, err := codec.Decode(d.mode, word)
	if err != nil {
		return "", err
	}
	f := matches[0]
	if len(matches) > 1 {
		for _, m := range matches {
			if m.Inst.IsSyscall && m.Imm == int64(m.Inst.SyscallImm) {
				f = m
			}
		}
	}
	operands, err := d.formatOperands(f.Inst, f.Rd, f.Rs1, f.Rs2, f.Imm, pc)
	if err != nil {
		return "", err
	}
	if operands == "" {
		return f.Inst.Mnemonic, nil
	}
	return f.Inst.Mnemonic + " " + operands, nil
}

func (d *Disassembler) formatOperands(inst *isa.Instruction, rd, rs1, rs2 int, imm int64, pc uint32) (string, error) {
	reg := isa.RegisterXName
	if d.UseABINames {
		reg = isa.RegisterABIName
	}
	targetAddr := uint32(int32(pc) + int32(imm))

	switch inst.Format {
	case isa.FormatR:
		return fmt.Sprintf("%s, %s, %s", reg(rd), reg(rs1), reg(rs2)), nil

	case isa.FormatI:
		if inst.IsSyscall {
			return "", nil
		}
		if inst.IsLoad() || inst.IsJumpR() {
			return fmt.Sprintf("%s, %d(%s)", reg(rd), imm, reg(rs1)), nil
		}
		return fmt.Sprintf("%s, %s, %d", reg(rd), reg(rs1), imm), nil

	case isa.FormatS:
		return fmt.Sprintf("%s, %d(%s)", reg(rs2), imm, reg(rs1)), nil

	case isa.FormatB:
		target := targetOrOffset(d.labels, targetAddr, imm)
		return fmt.Sprintf("%s, %s, %s", reg(rs1), reg(rs2), target), nil

	case isa.FormatU:
		return fmt.Sprintf("%s, 0x%x", reg(rd), imm), nil

	case isa.FormatJ:
		target := targetOrOffset(d.labels, targetAddr, imm)
		return fmt.Sprintf("%s, %s", reg(rd), target), nil

	default:
		return "", fmt.Errorf("unsupported format %v for mnemonic %q", inst.Format, inst.Mnemonic)
	}
}

// targetOrOffset prints the label at targetAddr if one is recorded (a
// reference is enough here, unlike the standalone "LABEL:" line which
// requires a definition), otherwise the raw signed offset.
func targetOrOffset(labels *asm.Labels, targetAddr uint32, imm int64) string {
	if name, ok := labels.Label(targetAddr, false); ok {
		return name
	}
	return fmt.Sprintf("%d", imm)
}

// Format renders lines joined with newlines, matching the common
// "print the program" presentation used by cmd/rvsim's disasm subcommand.
func Format(lines []string) string {
	return strings.Join(lines, "\n")
}

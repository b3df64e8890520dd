// Package codec implements the bit-exact encode/decode between decoded
// operand fields and 32-bit RISC-V machine words, per format.
package codec

import (
	"fmt"

	"github.com/rv32sim/rv32sim/internal/bitutil"
	"github.com/rv32sim/rv32sim/internal/isa"
)

// Fields is the format-agnostic set of decoded operands for one
// instruction. Fields not applicable to a given format are left zero.
type Fields struct {
	Inst *isa.Instruction
	Rd   int
	Rs1  int
	Rs2  int
	// Imm holds the format's immediate. For U-type it is the raw 20-bit
	// field stored verbatim in bits 12-31 (unsigned, pre-shift); for every
	// other format it is sign-extended to a full int64.
	Imm int64
}

// Encode packs f into a 32-bit machine word.
func Encode(f Fields) (uint32, error) {
	if f.Inst == nil {
		return 0, fmt.Errorf("encode: nil instruction")
	}
	inst := f.Inst
	u := func(n int) uint64 { return uint64(uint32(n)) }

	switch inst.Format {
	case isa.FormatR:
		w := bitutil.Pack(uint64(inst.Funct7), 25, 7) |
			bitutil.Pack(u(f.Rs2), 20, 5) |
			bitutil.Pack(u(f.Rs1), 15, 5) |
			bitutil.Pack(uint64(inst.Funct3), 12, 3) |
			bitutil.Pack(u(f.Rd), 7, 5) |
			bitutil.Pack(uint64(inst.Opcode), 0, 7)
		return uint32(w), nil

	case isa.FormatI:
		imm := f.Imm
		if inst.IsSyscall {
			imm = int64(inst.SyscallImm)
		}
		var w uint64
		if inst.IsShift {
			shamt := uint64(imm) & 0x1f
			w = bitutil.Pack(uint64(inst.Funct7), 25, 7) |
				bitutil.Pack(shamt, 20, 5) |
				bitutil.Pack(u(f.Rs1), 15, 5) |
				bitutil.Pack(uint64(inst.Funct3), 12, 3) |
				bitutil.Pack(u(f.Rd), 7, 5) |
				bitutil.Pack(uint64(inst.Opcode), 0, 7)
		} else {
			w = bitutil.Pack(uint64(imm)&0xfff, 20, 12) |
				bitutil.Pack(u(f.Rs1), 15, 5) |
				bitutil.Pack(uint64(inst.Funct3), 12, 3) |
				bitutil.Pack(u(f.Rd), 7, 5) |
				bitutil.Pack(uint64(inst.Opcode), 0, 7)
		}
		return uint32(w), nil

	case isa.FormatS:
		imm := uint64(f.Imm)
		w := bitutil.Pack(bitutil.Extract(imm, 5, 7), 25, 7) |
			bitutil.Pack(u(f.Rs2), 20, 5) |
			bitutil.Pack(u(f.Rs1), 15, 5) |
			bitutil.Pack(uint64(inst.Funct3), 12, 3) |
			bitutil.Pack(bitutil.Extract(imm, 0, 5), 7, 5) |
			bitutil.Pack(uint64(inst.Opcode), 0, 7)
		return uint32(w), nil

	case isa.FormatB:
		imm := uint64(f.Imm)
		w := bitutil.Pack(bitutil.Extract(imm, 12, 1), 31, 1) |
			bitutil.Pack(bitutil.Extract(imm, 5, 6), 25, 6) |
			bitutil.Pack(u(f.Rs2), 20, 5) |
			bitutil.Pack(u(f.Rs1), 15, 5) |
			bitutil.Pack(uint64(inst.Funct3), 12, 3) |
			bitutil.Pack(bitutil.Extract(imm, 1, 4), 8, 4) |
			bitutil.Pack(bitutil.Extract(imm, 11, 1), 7, 1) |
			bitutil.Pack(uint64(inst.Opcode), 0, 7)
		return uint32(w), nil

	case isa.FormatU:
		w := bitutil.Pack(uint64(f.Imm)&0xfffff, 12, 20) |
			bitutil.Pack(u(f.Rd), 7, 5) |
			bitutil.Pack(uint64(inst.Opcode), 0, 7)
		return uint32(w), nil

	case isa.FormatJ:
		imm := uint64(f.Imm)
		w := bitutil.Pack(bitutil.Extract(imm, 20, 1), 31, 1) |
			bitutil.Pack(bitutil.Extract(imm, 1, 10), 21, 10) |
			bitutil.Pack(bitutil.Extract(imm, 11, 1), 20, 1) |
			bitutil.Pack(bitutil.Extract(imm, 12, 8), 12, 8) |
			bitutil.Pack(u(f.Rd), 7, 5) |
			bitutil.Pack(uint64(inst.Opcode), 0, 7)
		return uint32(w), nil

	default:
		return 0, fmt.Errorf("encode: unknown format %v", inst.Format)
	}
}

// Decode is the exact inverse of Encode: given an admitted ISA mode and a
// 32-bit word, it looks up the matching instruction record(s) and unpacks
// the format-specific operand fields. When the word matches both ECALL and
// EBREAK (shared opcode/funct3), both are returned and the caller picks
// using the decoded immediate.
func Decode(mode isa.Mode, word uint32) ([]Fields, error) {
	w := uint64(word)
	opcode := uint32(bitutil.Extract(w, 0, 7))
	funct3 := uint32(bitutil.Extract(w, 12, 3))
	funct7 := uint32(bitutil.Extract(w, 25, 7))

	matches, err := isa.LookupEncoded(mode, opcode, funct3, funct7, true)
	if err != nil {
		return nil, err
	}

	out := make([]Fields, 0, len(matches))
	for _, inst := range matches {
		f := Fields{Inst: inst}
		switch inst.Format {
		case isa.FormatR:
			f.Rd = int(bitutil.Extract(w, 7, 5))
			f.Rs1 = int(bitutil.Extract(w, 15, 5))
			f.Rs2 = int(bitutil.Extract(w, 20, 5))
		case isa.FormatI:
			f.Rd = int(bitutil.Extract(w, 7, 5))
			f.Rs1 = int(bitutil.Extract(w, 15, 5))
			if inst.IsShift {
				f.Imm = int64(bitutil.Extract(w, 20, 5))
			} else {
				raw := bitutil.Extract(w, 20, 12)
				f.Imm = int64(int32(bitutil.SignExtend(raw, 11)))
			}
		case isa.FormatS:
			f.Rs1 = int(bitutil.Extract(w, 15, 5))
			f.Rs2 = int(bitutil.Extract(w, 20, 5))
			raw := bitutil.Pack(bitutil.Extract(w, 25, 7), 5, 7) |
				bitutil.Pack(bitutil.Extract(w, 7, 5), 0, 5)
			f.Imm = int64(int32(bitutil.SignExtend(raw, 11)))
		case isa.FormatB:
			f.Rs1 = int(bitutil.Extract(w, 15, 5))
			f.Rs2 = int(bitutil.Extract(w, 20, 5))
			raw := bitutil.Pack(bitutil.Extract(w, 31, 1), 12, 1) |
				bitutil.Pack(bitutil.Extract(w, 7, 1), 11, 1) |
				bitutil.Pack(bitutil.Extract(w, 25, 6), 5, 6) |
				bitutil.Pack(bitutil.Extract(w, 8, 4), 1, 4)
			f.Imm = int64(int32(bitutil.SignExtend(raw, 12)))
		case isa.FormatU:
			f.Rd = int(bitutil.Extract(w, 7, 5))
			f.Imm = int64(bitutil.Extract(w, 12, 20))
		case isa.FormatJ:
			f.Rd = int(bitutil.Extract(w, 7, 5))
			raw := bitutil.Pack(bitutil.Extract(w, 31, 1), 20, 1) |
				bitutil.Pack(bitutil.Extract(w, 12, 8), 12, 8) |
				bitutil.Pack(bitutil.Extract(w, 20, 1), 11, 1) |
				bitutil.Pack(bitutil.Extract(w, 21, 10), 1, 10)
			f.Imm = int64(int32(bitutil.SignExtend(raw, 20)))
		}
		out = append(out, f)
	}
	return out, nil
}

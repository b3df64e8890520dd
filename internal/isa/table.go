package isa

import "fmt"

// record is one entry of baseTable, which holds every RV32I/RV64I/M record
// this simulator knows about. isWord64 records whether a record is only
// admitted once the ISA mode widens to 64 bits (the *w family plus lwu, ld
// and sd), and needsM records whether it needs the M extension.
type record struct {
	Instruction
	needsM   bool
	isWord64 bool
}

var baseTable = []record{
	// R-type ALU
	{Instruction: Instruction{Mnemonic: "add", Format: FormatR, Opcode: 0x33, Funct3: 0x0, Funct7: 0x00, Category: CategoryALU}},
	{Instruction: Instruction{Mnemonic: "sub", Format: FormatR, Opcode: 0x33, Funct3: 0x0, Funct7: 0x20, Category: CategoryALU}},
	{Instruction: Instruction{Mnemonic: "sll", Format: FormatR, Opcode: 0x33, Funct3: 0x1, Funct7: 0x00, Category: CategoryALU}},
	{Instruction: Instruction{Mnemonic: "slt", Format: FormatR, Opcode: 0x33, Funct3: 0x2, Funct7: 0x00, Category: CategoryALU}},
	{Instruction: Instruction{Mnemonic: "sltu", Format: FormatR, Opcode: 0x33, Funct3: 0x3, Funct7: 0x00, Category: CategoryALU}},
	{Instruction: Instruction{Mnemonic: "xor", Format: FormatR, Opcode: 0x33, Funct3: 0x4, Funct7: 0x00, Category: CategoryALU}},
	{Instruction: Instruction{Mnemonic: "srl", Format: FormatR, Opcode: 0x33, Funct3: 0x5, Funct7: 0x00, Category: CategoryALU}},
	{Instruction: Instruction{Mnemonic: "sra", Format: FormatR, Opcode: 0x33, Funct3: 0x5, Funct7: 0x20, Category: CategoryALU}},
	{Instruction: Instruction{Mnemonic: "or", Format: FormatR, Opcode: 0x33, Funct3: 0x6, Funct7: 0x00, Category: CategoryALU}},
	{Instruction: Instruction{Mnemonic: "and", Format: FormatR, Opcode: 0x33, Funct3: 0x7, Funct7: 0x00, Category: CategoryALU}},

	// RV64 *w R-type ALU
	{Instruction: Instruction{Mnemonic: "addw", Format: FormatR, Opcode: 0x3b, Funct3: 0x0, Funct7: 0x00, Category: CategoryALU, IsWordOp: true}, isWord64: true},
	{Instruction: Instruction{Mnemonic: "subw", Format: FormatR, Opcode: 0x3b, Funct3: 0x0, Funct7: 0x20, Category: CategoryALU, IsWordOp: true}, isWord64: true},
	{Instruction: Instruction{Mnemonic: "sllw", Format: FormatR, Opcode: 0x3b, Funct3: 0x1, Funct7: 0x00, Category: CategoryALU, IsWordOp: true}, isWord64: true},
	{Instruction: Instruction{Mnemonic: "srlw", Format: FormatR, Opcode: 0x3b, Funct3: 0x5, Funct7: 0x00, Category: CategoryALU, IsWordOp: true}, isWord64: true},
	{Instruction: Instruction{Mnemonic: "sraw", Format: FormatR, Opcode: 0x3b, Funct3: 0x5, Funct7: 0x20, Category: CategoryALU, IsWordOp: true}, isWord64: true},

	// M extension, R-type
	{Instruction: Instruction{Mnemonic: "mul", Format: FormatR, Opcode: 0x33, Funct3: 0x0, Funct7: 0x01, Category: CategoryMulDiv}, needsM: true},
	{Instruction: Instruction{Mnemonic: "mulh", Format: FormatR, Opcode: 0x33, Funct3: 0x1, Funct7: 0x01, Category: CategoryMulDiv}, needsM: true},
	{Instruction: Instruction{Mnemonic: "mulhsu", Format: FormatR, Opcode: 0x33, Funct3: 0x2, Funct7: 0x01, Category: CategoryMulDiv}, needsM: true},
	{Instruction: Instruction{Mnemonic: "mulhu", Format: FormatR, Opcode: 0x33, Funct3: 0x3, Funct7: 0x01, Category: CategoryMulDiv}, needsM: true},
	{Instruction: Instruction{Mnemonic: "div", Format: FormatR, Opcode: 0x33, Funct3: 0x4, Funct7: 0x01, Category: CategoryMulDiv}, needsM: true},
	{Instruction: Instruction{Mnemonic: "divu", Format: FormatR, Opcode: 0x33, Funct3: 0x5, Funct7: 0x01, Category: CategoryMulDiv}, needsM: true},
	{Instruction: Instruction{Mnemonic: "rem", Format: FormatR, Opcode: 0x33, Funct3: 0x6, Funct7: 0x01, Category: CategoryMulDiv}, needsM: true},
	{Instruction: Instruction{Mnemonic: "remu", Format: FormatR, Opcode: 0x33, Funct3: 0x7, Funct7: 0x01, Category: CategoryMulDiv}, needsM: true},

	{Instruction: Instruction{Mnemonic: "mulw", Format: FormatR, Opcode: 0x3b, Funct3: 0x0, Funct7: 0x01, Category: CategoryMulDiv, IsWordOp: true}, needsM: true, isWord64: true},
	{Instruction: Instruction{Mnemonic: "divw", Format: FormatR, Opcode: 0x3b, Funct3: 0x4, Funct7: 0x01, Category: CategoryMulDiv, IsWordOp: true}, needsM: true, isWord64: true},
	{Instruction: Instruction{Mnemonic: "divuw", Format: FormatR, Opcode: 0x3b, Funct3: 0x5, Funct7: 0x01, Category: CategoryMulDiv, IsWordOp: true}, needsM: true, isWord64: true},
	{Instruction: Instruction{Mnemonic: "remw", Format: FormatR, Opcode: 0x3b, Funct3: 0x6, Funct7: 0x01, Category: CategoryMulDiv, IsWordOp: true}, needsM: true, isWord64: true},
	{Instruction: Instruction{Mnemonic: "remuw", Format: FormatR, Opcode: 0x3b, Funct3: 0x7, Funct7: 0x01, Category: CategoryMulDiv, IsWordOp: true}, needsM: true, isWord64: true},

	// I-type ALU
	{Instruction: Instruction{Mnemonic: "addi", Format: FormatI, Opcode: 0x13, Funct3: 0x0, Category: CategoryALU}},
	{Instruction: Instruction{Mnemonic: "slti", Format: FormatI, Opcode: 0x13, Funct3: 0x2, Category: CategoryALU}},
	{Instruction: Instruction{Mnemonic: "sltiu", Format: FormatI, Opcode: 0x13, Funct3: 0x3, Category: CategoryALU}},
	{Instruction: Instruction{Mnemonic: "xori", Format: FormatI, Opcode: 0x13, Funct3: 0x4, Category: CategoryALU}},
	{Instruction: Instruction{Mnemonic: "ori", Format: FormatI, Opcode: 0x13, Funct3: 0x6, Category: CategoryALU}},
	{Instruction: Instruction{Mnemonic: "andi", Format: FormatI, Opcode: 0x13, Funct3: 0x7, Category: CategoryALU}},
	{Instruction: Instruction{Mnemonic: "slli", Format: FormatI, Opcode: 0x13, Funct3: 0x1, Funct7: 0x00, Category: CategoryALU, IsShift: true}},
	{Instruction: Instruction{Mnemonic: "srli", Format: FormatI, Opcode: 0x13, Funct3: 0x5, Funct7: 0x00, Category: CategoryALU, IsShift: true}},
	{Instruction: Instruction{Mnemonic: "srai", Format: FormatI, Opcode: 0x13, Funct3: 0x5, Funct7: 0x20, Category: CategoryALU, IsShift: true}},

	{Instruction: Instruction{Mnemonic: "addiw", Format: FormatI, Opcode: 0x1b, Funct3: 0x0, Category: CategoryALU, IsWordOp: true}, isWord64: true},
	{Instruction: Instruction{Mnemonic: "slliw", Format: FormatI, Opcode: 0x1b, Funct3: 0x1, Funct7: 0x00, Category: CategoryALU, IsShift: true, IsWordOp: true}, isWord64: true},
	{Instruction: Instruction{Mnemonic: "srliw", Format: FormatI, Opcode: 0x1b, Funct3: 0x5, Funct7: 0x00, Category: CategoryALU, IsShift: true, IsWordOp: true}, isWord64: true},
	{Instruction: Instruction{Mnemonic: "sraiw", Format: FormatI, Opcode: 0x1b, Funct3: 0x5, Funct7: 0x20, Category: CategoryALU, IsShift: true, IsWordOp: true}, isWord64: true},

	// Loads (I-type)
	{Instruction: Instruction{Mnemonic: "lb", Format: FormatI, Opcode: 0x03, Funct3: 0x0, Category: CategoryLoad}},
	{Instruction: Instruction{Mnemonic: "lh", Format: FormatI, Opcode: 0x03, Funct3: 0x1, Category: CategoryLoad}},
	{Instruction: Instruction{Mnemonic: "lw", Format: FormatI, Opcode: 0x03, Funct3: 0x2, Category: CategoryLoad}},
	{Instruction: Instruction{Mnemonic: "lbu", Format: FormatI, Opcode: 0x03, Funct3: 0x4, Category: CategoryLoad}},
	{Instruction: Instruction{Mnemonic: "lhu", Format: FormatI, Opcode: 0x03, Funct3: 0x5, Category: CategoryLoad}},
	{Instruction: Instruction{Mnemonic: "lwu", Format: FormatI, Opcode: 0x03, Funct3: 0x6, Category: CategoryLoad}, isWord64: true},
	{Instruction: Instruction{Mnemonic: "ld", Format: FormatI, Opcode: 0x03, Funct3: 0x3, Category: CategoryLoad}, isWord64: true},

	// jalr (I-type)
	{Instruction: Instruction{Mnemonic: "jalr", Format: FormatI, Opcode: 0x67, Funct3: 0x0, Category: CategoryJumpR}},

	// ecall/ebreak (I-type, sentinel opcode 0x73)
	{Instruction: Instruction{Mnemonic: "ecall", Format: FormatI, Opcode: 0x73, Funct3: 0x0, Category: CategorySystem, IsSyscall: true, SyscallImm: 0}},
	{Instruction: Instruction{Mnemonic: "ebreak", Format: FormatI, Opcode: 0x73, Funct3: 0x0, Category: CategorySystem, IsSyscall: true, SyscallImm: 1}},

	// S-type stores
	{Instruction: Instruction{Mnemonic: "sb", Format: FormatS, Opcode: 0x23, Funct3: 0x0, Category: CategoryStore}},
	{Instruction: Instruction{Mnemonic: "sh", Format: FormatS, Opcode: 0x23, Funct3: 0x1, Category: CategoryStore}},
	{Instruction: Instruction{Mnemonic: "sw", Format: FormatS, Opcode: 0x23, Funct3: 0x2, Category: CategoryStore}},
	{Instruction: Instruction{Mnemonic: "sd", Format: FormatS, Opcode: 0x23, Funct3: 0x3, Category: CategoryStore}, isWord64: true},

	// B-type branches
	{Instruction: Instruction{Mnemonic: "beq", Format: FormatB, Opcode: 0x63, Funct3: 0x0, Category: CategoryBranch}},
	{Instruction: Instruction{Mnemonic: "bne", Format: FormatB, Opcode: 0x63, Funct3: 0x1, Category: CategoryBranch}},
	{Instruction: Instruction{Mnemonic: "blt", Format: FormatB, Opcode: 0x63, Funct3: 0x4, Category: CategoryBranch}},
	{Instruction: Instruction{Mnemonic: "bge", Format: FormatB, Opcode: 0x63, Funct3: 0x5, Category: CategoryBranch}},
	{Instruction: Instruction{Mnemonic: "bltu", Format: FormatB, Opcode: 0x63, Funct3: 0x6, Category: CategoryBranch}},
	{Instruction: Instruction{Mnemonic: "bgeu", Format: FormatB, Opcode: 0x63, Funct3: 0x7, Category: CategoryBranch}},

	// U-type
	{Instruction: Instruction{Mnemonic: "lui", Format: FormatU, Opcode: 0x37, Category: CategoryLUIAUIPC}},
	{Instruction: Instruction{Mnemonic: "auipc", Format: FormatU, Opcode: 0x17, Category: CategoryLUIAUIPC}},

	// J-type
	{Instruction: Instruction{Mnemonic: "jal", Format: FormatJ, Opcode: 0x6f, Category: CategoryJump}},
}

// table collects, for a given Mode, the admitted mnemonic -> record and
// opcode -> records maps built once at package init; LookupEncoded narrows
// an opcode's records by funct3/funct7.
type table struct {
	byMnemonic map[string]*Instruction
	byOpcode   map[uint32][]*Instruction
}

var tables = make(map[Mode]*table)

func init() {
	for _, m := range []Mode{RV32I, RV32IM, RV64I, RV64IM} {
		tables[m] = buildTable(m)
	}
}

func buildTable(m Mode) *table {
	t := &table{
		byMnemonic: make(map[string]*Instruction),
		byOpcode:   make(map[uint32][]*Instruction),
	}
	for i := range baseTable {
		r := &baseTable[i]
		if r.needsM && !m.hasM() {
			continue
		}
		if r.isWord64 && !m.is64() {
			continue
		}
		inst := r.Instruction
		t.byMnemonic[inst.Mnemonic] = &inst
		t.byOpcode[inst.Opcode] = append(t.byOpcode[inst.Opcode], &inst)
	}
	return t
}

// Lookup finds an instruction record by mnemonic, admitted under mode.
func Lookup(mode Mode, mnemonic string) (*Instruction, error) {
	inst, ok := tables[mode].byMnemonic[mnemonic]
	if !ok {
		return nil, fmt.Errorf("unknown mnemonic %q for %s", mnemonic, mode)
	}
	return inst, nil
}

// LookupEncoded finds the instruction record matching an encoded word's
// opcode/funct3/funct7 fields. For ECALL/EBREAK (sharing opcode and funct3)
// both candidates are returned; the caller disambiguates using the decoded
// immediate, per spec.
func LookupEncoded(mode Mode, opcode, funct3, funct7 uint32, isShiftCandidate bool) ([]*Instruction, error) {
	candidates := tables[mode].byOpcode[opcode]
	var matches []*Instruction
	for _, inst := range candidates {
		switch inst.Format {
		case FormatU, FormatJ:
			matches = append(matches, inst)
		case FormatR:
			if inst.Funct3 == funct3 && inst.Funct7 == funct7 {
				matches = append(matches, inst)
			}
		case FormatI:
			if inst.IsSyscall {
				matches = append(matches, inst)
				continue
			}
			if inst.Funct3 != funct3 {
				continue
			}
			if inst.IsShift {
				if inst.Funct7 == funct7 {
					matches = append(matches, inst)
				}
			} else {
				matches = append(matches, inst)
			}
		case FormatS, FormatB:
			if inst.Funct3 == funct3 {
				matches = append(matches, inst)
			}
		}
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no instruction for opcode=0x%02x funct3=0x%x funct7=0x%x under %s", opcode, funct3, funct7, mode)
	}
	return matches, nil
}

// regABINames maps ABI register mnemonics to their x<N> number.
var regABINames = map[string]int{
	"zero": 0, "ra": 1, "sp": 2, "gp": 3, "tp": 4,
	"t0": 5, "t1": 6, "t2": 7,
	"s0": 8, "fp": 8, "s1": 9,
	"a0": 10, "a1": 11, "a2": 12, "a3": 13, "a4": 14, "a5": 15, "a6": 16, "a7": 17,
	"s2": 18, "s3": 19, "s4": 20, "s5": 21, "s6": 22, "s7": 23, "s8": 24, "s9": 25, "s10": 26, "s11": 27,
	"t3": 28, "t4": 29, "t5": 30, "t6": 31,
}

// regABIByNumber is the canonical ABI name printed by the disassembler for
// each register number (picking "s0" over the "fp" alias, "zero" over "x0").
var regABIByNumber = [32]string{
	"zero", "ra", "sp", "gp", "tp",
	"t0", "t1", "t2",
	"s0", "s1",
	"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7",
	"s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9", "s10", "s11",
	"t3", "t4", "t5", "t6",
}

// ParseRegister resolves "x0".."x31" or an ABI alias to a register number.
func ParseRegister(tok string) (int, error) {
	if len(tok) >= 2 && tok[0] == 'x' {
		n := 0
		for _, c := range tok[1:] {
			if c < '0' || c > '9' {
				n = -1
				break
			}
			n = n*10 + int(c-'0')
		}
		if n >= 0 && n <= 31 {
			return n, nil
		}
	}
	if n, ok := regABINames[tok]; ok {
		return n, nil
	}
	return 0, fmt.Errorf("invalid register %q", tok)
}

// RegisterABIName returns the canonical ABI mnemonic for register n.
func RegisterABIName(n int) string {
	if n < 0 || n > 31 {
		return fmt.Sprintf("x%d", n)
	}
	return regABIByNumber[n]
}

// RegisterXName returns the "x<N>" spelling for register n.
func RegisterXName(n int) string {
	return fmt.Sprintf("x%d", n)
}

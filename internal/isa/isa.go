/*
 * M65832 - instruction set tables.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package isa is the single source of truth for the M65832 instruction set:
// mnemonic/addressing-mode to opcode, the $02 extended-prefix family, and the
// extended-ALU descriptor table that the two-byte ALU encoding (`$02 $opcode
// $mode-byte ...`) is built from. The assembler, disassembler and CPU
// dispatch table are all built from these tables so the three never drift.
package isa

import "strings"

// Mode identifies an M65832 addressing mode. The M65832 extends the 65816's
// addressing modes with 32-bit immediate/absolute forms and FPU-specific
// variants; there is no operator precedence implied by declaration order.
type Mode int

const (
	Implied       Mode = iota
	Accumulator        // A
	Immediate          // #const, width driven by M or X
	DP                 // dp
	DPX                // dp,X
	DPY                // dp,Y
	Absolute           // addr
	AbsX               // addr,X
	AbsY               // addr,Y
	DPInd              // (dp)
	DPIndX             // (dp,X)
	DPIndY             // (dp),Y
	DPIndLong          // [dp]
	DPIndLongY         // [dp],Y
	Long               // long (24-bit)
	LongX              // long,X
	Rel8               // 8-bit relative
	Rel16              // 16-bit relative (BRL and PER)
	StackRel           // sr,S
	StackRelIndY       // (sr,S),Y
	BlockMove          // MVN/MVP src,dest
	AbsInd             // (addr)
	AbsIndX            // (addr,X)
	AbsIndLong         // [addr]
	Imm32              // 32-bit immediate, forced by $42 WID
	Abs32              // 32-bit absolute, forced by $42 WID
	FPUTwoReg          // Fa,Fb
	FPUOneReg          // Fa
	FPUDP              // Fa,dp
	FPUAbsolute        // Fa,addr
	FPUIndirect        // Fa,(dp)
	FPULong            // Fa,long

	ModeCount
)

// Width is an operand/register width in bits, the decoded form of the P.M
// and P.X width-field pairs (00->8, 01->16, 10->32).
type Width int

const (
	Width8  Width = 8
	Width16 Width = 16
	Width32 Width = 32
)

// DecodeWidth turns the 2-bit M or X field into a Width. The 2-bit field
// value 11 is reserved and decodes the same as 10 (32-bit); callers should
// not produce it.
func DecodeWidth(field byte) Width {
	switch field & 3 {
	case 0:
		return Width8
	case 1:
		return Width16
	default:
		return Width32
	}
}

// IllegalOpcode is the sentinel stored in Entry.Opcode for a (mnemonic,
// mode) pair that has no encoding.
const IllegalOpcode = 0xFF

// Entry is one (mnemonic, mode) row of the primary opcode table.
type Entry struct {
	Opcode byte
	Length int // total encoded bytes including the opcode, for fixed-width modes
	Cycles int // base cycle count
}

var illegalEntry = Entry{Opcode: IllegalOpcode}

type row struct {
	mnemonic string
	mode     Mode
	opcode   byte
	length   int
	cycles   int
}

// primary is the flat table-literal list every (mnemonic, mode) encoding is
// built from, in the style of the pack's beevik-go6502 instructions.go
// opcodeData table. Grounded on the standard WDC 65816 opcode map with the
// M65832 deviations spec.md Sec.6 calls out: $02 is the extended prefix (not
// COP), $42 is WID (not WDM), $44/$54 are MVN/MVP swapped from the 65816,
// and $AB is repointed at LDA long. LDA [dp],Y keeps $B7 and PLB takes
// $B3; see DESIGN.md for the $B3/$B7 resolution.
var primary = []row{
	// ---- ADC ----
	{"ADC", Immediate, 0x69, 2, 2},
	{"ADC", DP, 0x65, 2, 3},
	{"ADC", DPX, 0x75, 2, 4},
	{"ADC", Absolute, 0x6D, 3, 4},
	{"ADC", AbsX, 0x7D, 3, 4},
	{"ADC", AbsY, 0x79, 3, 4},
	{"ADC", DPIndX, 0x61, 2, 6},
	{"ADC", DPIndY, 0x71, 2, 5},
	{"ADC", DPInd, 0x72, 2, 5},
	{"ADC", DPIndLong, 0x67, 2, 6},
	{"ADC", DPIndLongY, 0x77, 2, 6},
	{"ADC", StackRel, 0x63, 2, 4},
	{"ADC", StackRelIndY, 0x73, 2, 7},
	{"ADC", Long, 0x6F, 4, 5},
	{"ADC", LongX, 0x7F, 4, 5},

	// ---- AND ----
	{"AND", Immediate, 0x29, 2, 2},
	{"AND", DP, 0x25, 2, 3},
	{"AND", DPX, 0x35, 2, 4},
	{"AND", Absolute, 0x2D, 3, 4},
	{"AND", AbsX, 0x3D, 3, 4},
	{"AND", AbsY, 0x39, 3, 4},
	{"AND", DPIndX, 0x21, 2, 6},
	{"AND", DPIndY, 0x31, 2, 5},
	{"AND", DPInd, 0x32, 2, 5},
	{"AND", DPIndLong, 0x27, 2, 6},
	{"AND", DPIndLongY, 0x37, 2, 6},
	{"AND", StackRel, 0x23, 2, 4},
	{"AND", StackRelIndY, 0x33, 2, 7},
	{"AND", Long, 0x2F, 4, 5},
	{"AND", LongX, 0x3F, 4, 5},

	// ---- ASL ----
	{"ASL", Accumulator, 0x0A, 1, 2},
	{"ASL", DP, 0x06, 2, 5},
	{"ASL", DPX, 0x16, 2, 6},
	{"ASL", Absolute, 0x0E, 3, 6},
	{"ASL", AbsX, 0x1E, 3, 7},

	// ---- LSR / ROL / ROR share ASL's shape ----
	{"LSR", Accumulator, 0x4A, 1, 2},
	{"LSR", DP, 0x46, 2, 5},
	{"LSR", DPX, 0x56, 2, 6},
	{"LSR", Absolute, 0x4E, 3, 6},
	{"LSR", AbsX, 0x5E, 3, 7},

	{"ROL", Accumulator, 0x2A, 1, 2},
	{"ROL", DP, 0x26, 2, 5},
	{"ROL", DPX, 0x36, 2, 6},
	{"ROL", Absolute, 0x2E, 3, 6},
	{"ROL", AbsX, 0x3E, 3, 7},

	{"ROR", Accumulator, 0x6A, 1, 2},
	{"ROR", DP, 0x66, 2, 5},
	{"ROR", DPX, 0x76, 2, 6},
	{"ROR", Absolute, 0x6E, 3, 6},
	{"ROR", AbsX, 0x7E, 3, 7},

	// ---- branches (Rel8, long form Rel16 where defined) ----
	{"BPL", Rel8, 0x10, 2, 2},
	{"BMI", Rel8, 0x30, 2, 2},
	{"BVC", Rel8, 0x50, 2, 2},
	{"BVS", Rel8, 0x70, 2, 2},
	{"BCC", Rel8, 0x90, 2, 2},
	{"BCS", Rel8, 0xB0, 2, 2},
	{"BNE", Rel8, 0xD0, 2, 2},
	{"BEQ", Rel8, 0xF0, 2, 2},
	{"BRA", Rel8, 0x80, 2, 3},
	{"BRL", Rel16, 0x82, 3, 4},

	{"BIT", Immediate, 0x89, 2, 2},
	{"BIT", DP, 0x24, 2, 3},
	{"BIT", DPX, 0x34, 2, 4},
	{"BIT", Absolute, 0x2C, 3, 4},
	{"BIT", AbsX, 0x3C, 3, 4},

	{"BRK", Implied, 0x00, 2, 7},

	// ---- flag clear/set ----
	{"CLC", Implied, 0x18, 1, 2},
	{"CLD", Implied, 0xD8, 1, 2},
	{"CLI", Implied, 0x58, 1, 2},
	{"CLV", Implied, 0xB8, 1, 2},
	{"SEC", Implied, 0x38, 1, 2},
	{"SED", Implied, 0xF8, 1, 2},
	{"SEI", Implied, 0x78, 1, 2},

	// ---- CMP ----
	{"CMP", Immediate, 0xC9, 2, 2},
	{"CMP", DP, 0xC5, 2, 3},
	{"CMP", DPX, 0xD5, 2, 4},
	{"CMP", Absolute, 0xCD, 3, 4},
	{"CMP", AbsX, 0xDD, 3, 4},
	{"CMP", AbsY, 0xD9, 3, 4},
	{"CMP", DPIndX, 0xC1, 2, 6},
	{"CMP", DPIndY, 0xD1, 2, 5},
	{"CMP", DPInd, 0xD2, 2, 5},
	{"CMP", DPIndLong, 0xC7, 2, 6},
	{"CMP", DPIndLongY, 0xD7, 2, 6},
	{"CMP", StackRel, 0xC3, 2, 4},
	{"CMP", StackRelIndY, 0xD3, 2, 7},
	{"CMP", Long, 0xCF, 4, 5},
	{"CMP", LongX, 0xDF, 4, 5},

	{"CPX", Immediate, 0xE0, 2, 2},
	{"CPX", DP, 0xE4, 2, 3},
	{"CPX", Absolute, 0xEC, 3, 4},
	{"CPY", Immediate, 0xC0, 2, 2},
	{"CPY", DP, 0xC4, 2, 3},
	{"CPY", Absolute, 0xCC, 3, 4},

	// ---- DEC/INC ----
	{"DEC", Accumulator, 0x3A, 1, 2},
	{"DEC", DP, 0xC6, 2, 5},
	{"DEC", DPX, 0xD6, 2, 6},
	{"DEC", Absolute, 0xCE, 3, 6},
	{"DEC", AbsX, 0xDE, 3, 7},
	{"DEX", Implied, 0xCA, 1, 2},
	{"DEY", Implied, 0x88, 1, 2},

	{"INC", Accumulator, 0x1A, 1, 2},
	{"INC", DP, 0xE6, 2, 5},
	{"INC", DPX, 0xF6, 2, 6},
	{"INC", Absolute, 0xEE, 3, 6},
	{"INC", AbsX, 0xFE, 3, 7},
	{"INX", Implied, 0xE8, 1, 2},
	{"INY", Implied, 0xC8, 1, 2},

	// ---- EOR/ORA ----
	{"EOR", Immediate, 0x49, 2, 2},
	{"EOR", DP, 0x45, 2, 3},
	{"EOR", DPX, 0x55, 2, 4},
	{"EOR", Absolute, 0x4D, 3, 4},
	{"EOR", AbsX, 0x5D, 3, 4},
	{"EOR", AbsY, 0x59, 3, 4},
	{"EOR", DPIndX, 0x41, 2, 6},
	{"EOR", DPIndY, 0x51, 2, 5},
	{"EOR", DPInd, 0x52, 2, 5},
	{"EOR", DPIndLong, 0x47, 2, 6},
	{"EOR", DPIndLongY, 0x57, 2, 6},
	{"EOR", StackRel, 0x43, 2, 4},
	{"EOR", StackRelIndY, 0x53, 2, 7},
	{"EOR", Long, 0x4F, 4, 5},
	{"EOR", LongX, 0x5F, 4, 5},

	{"ORA", Immediate, 0x09, 2, 2},
	{"ORA", DP, 0x05, 2, 3},
	{"ORA", DPX, 0x15, 2, 4},
	{"ORA", Absolute, 0x0D, 3, 4},
	{"ORA", AbsX, 0x1D, 3, 4},
	{"ORA", AbsY, 0x19, 3, 4},
	{"ORA", DPIndX, 0x01, 2, 6},
	{"ORA", DPIndY, 0x11, 2, 5},
	{"ORA", DPInd, 0x12, 2, 5},
	{"ORA", DPIndLong, 0x07, 2, 6},
	{"ORA", DPIndLongY, 0x17, 2, 6},
	{"ORA", StackRel, 0x03, 2, 4},
	{"ORA", StackRelIndY, 0x13, 2, 7},
	{"ORA", Long, 0x0F, 4, 5},
	{"ORA", LongX, 0x1F, 4, 5},

	// ---- JMP/JSR family ----
	{"JMP", Absolute, 0x4C, 3, 3},
	{"JMP", AbsInd, 0x6C, 3, 5},
	{"JMP", AbsIndX, 0x7C, 3, 6},
	{"JML", Long, 0x5C, 4, 4},
	{"JML", AbsIndLong, 0xDC, 3, 6},
	{"JSR", Absolute, 0x20, 3, 6},
	{"JSR", AbsIndX, 0xFC, 3, 8},
	{"JSL", Long, 0x22, 4, 8},
	{"RTI", Implied, 0x40, 1, 6},
	{"RTL", Implied, 0x6B, 1, 6},
	{"RTS", Implied, 0x60, 1, 6},

	// ---- LDA/LDX/LDY ----
	{"LDA", Immediate, 0xA9, 2, 2},
	{"LDA", DP, 0xA5, 2, 3},
	{"LDA", DPX, 0xB5, 2, 4},
	{"LDA", Absolute, 0xAD, 3, 4},
	{"LDA", AbsX, 0xBD, 3, 4},
	{"LDA", AbsY, 0xB9, 3, 4},
	{"LDA", DPIndX, 0xA1, 2, 6},
	{"LDA", DPIndY, 0xB1, 2, 5},
	{"LDA", DPInd, 0xB2, 2, 5},
	{"LDA", DPIndLong, 0xA7, 2, 6},
	{"LDA", DPIndLongY, 0xB7, 2, 6},
	{"LDA", StackRel, 0xA3, 2, 4},
	{"LDA", Long, 0xAB, 4, 5},
	{"LDA", LongX, 0xBF, 4, 5},

	{"LDX", Immediate, 0xA2, 2, 2},
	{"LDX", DP, 0xA6, 2, 3},
	{"LDX", DPY, 0xB6, 2, 4},
	{"LDX", Absolute, 0xAE, 3, 4},
	{"LDX", AbsY, 0xBE, 3, 4},

	{"LDY", Immediate, 0xA0, 2, 2},
	{"LDY", DP, 0xA4, 2, 3},
	{"LDY", DPX, 0xB4, 2, 4},
	{"LDY", Absolute, 0xAC, 3, 4},
	{"LDY", AbsX, 0xBC, 3, 4},

	// ---- STA/STX/STY/STZ ----
	{"STA", DP, 0x85, 2, 3},
	{"STA", DPX, 0x95, 2, 4},
	{"STA", Absolute, 0x8D, 3, 4},
	{"STA", AbsX, 0x9D, 3, 5},
	{"STA", AbsY, 0x99, 3, 5},
	{"STA", DPIndX, 0x81, 2, 6},
	{"STA", DPIndY, 0x91, 2, 6},
	{"STA", DPInd, 0x92, 2, 5},
	{"STA", DPIndLong, 0x87, 2, 6},
	{"STA", DPIndLongY, 0x97, 2, 6},
	{"STA", StackRel, 0x83, 2, 4},
	{"STA", StackRelIndY, 0x93, 2, 7},
	{"STA", Long, 0x8F, 4, 5},
	{"STA", LongX, 0x9F, 4, 5},

	{"STX", DP, 0x86, 2, 3},
	{"STX", DPY, 0x96, 2, 4},
	{"STX", Absolute, 0x8E, 3, 4},
	{"STY", DP, 0x84, 2, 3},
	{"STY", DPX, 0x94, 2, 4},
	{"STY", Absolute, 0x8C, 3, 4},
	{"STZ", DP, 0x64, 2, 3},
	{"STZ", DPX, 0x74, 2, 4},
	{"STZ", Absolute, 0x9C, 3, 4},
	{"STZ", AbsX, 0x9E, 3, 5},

	// ---- SBC ----
	{"SBC", Immediate, 0xE9, 2, 2},
	{"SBC", DP, 0xE5, 2, 3},
	{"SBC", DPX, 0xF5, 2, 4},
	{"SBC", Absolute, 0xED, 3, 4},
	{"SBC", AbsX, 0xFD, 3, 4},
	{"SBC", AbsY, 0xF9, 3, 4},
	{"SBC", DPIndX, 0xE1, 2, 6},
	{"SBC", DPIndY, 0xF1, 2, 5},
	{"SBC", DPInd, 0xF2, 2, 5},
	{"SBC", DPIndLong, 0xE7, 2, 6},
	{"SBC", DPIndLongY, 0xF7, 2, 6},
	{"SBC", StackRel, 0xE3, 2, 4},
	{"SBC", StackRelIndY, 0xF3, 2, 7},
	{"SBC", Long, 0xEF, 4, 5},
	{"SBC", LongX, 0xFF, 4, 5},

	// ---- TSB/TRB ----
	{"TSB", DP, 0x04, 2, 5},
	{"TSB", Absolute, 0x0C, 3, 6},
	{"TRB", DP, 0x14, 2, 5},
	{"TRB", Absolute, 0x1C, 3, 6},

	// ---- transfer/stack ----
	{"TAX", Implied, 0xAA, 1, 2},
	{"TAY", Implied, 0xA8, 1, 2},
	{"TXA", Implied, 0x8A, 1, 2},
	{"TYA", Implied, 0x98, 1, 2},
	{"TSX", Implied, 0xBA, 1, 2},
	{"TXS", Implied, 0x9A, 1, 2},
	{"TXY", Implied, 0x9B, 1, 2},
	{"TYX", Implied, 0xBB, 1, 2},
	{"TCD", Implied, 0x5B, 1, 2},
	{"TDC", Implied, 0x7B, 1, 2},
	{"TCS", Implied, 0x1B, 1, 2},
	{"TSC", Implied, 0x3B, 1, 2},

	{"PHA", Implied, 0x48, 1, 3},
	{"PHB", Implied, 0x8B, 1, 3},
	{"PHD", Implied, 0x0B, 1, 4},
	{"PHK", Implied, 0x4B, 1, 3},
	{"PHP", Implied, 0x08, 1, 3},
	{"PHX", Implied, 0xDA, 1, 3},
	{"PHY", Implied, 0x5A, 1, 3},
	{"PLA", Implied, 0x68, 1, 4},
	{"PLB", Implied, 0xB3, 1, 4}, // 65816 gave PLB $AB; that byte now decodes LDA long (spec.md Sec.6), so PLB moves into the slot $B3 vacated when LDA [dp],Y resolved to $B7 (see DESIGN.md)
	{"PLD", Implied, 0x2B, 1, 5},
	{"PLP", Implied, 0x28, 1, 4},
	{"PLX", Implied, 0xFA, 1, 4},
	{"PLY", Implied, 0x7A, 1, 4},
	{"PEA", Absolute, 0xF4, 3, 5},
	{"PEI", DPInd, 0xD4, 2, 6},
	{"PER", Rel16, 0x62, 3, 6},

	// ---- misc/system ----
	{"NOP", Implied, 0xEA, 1, 2},
	{"WAI", Implied, 0xCB, 1, 3},
	{"STP", Implied, 0xDB, 1, 3},
	{"XBA", Implied, 0xEB, 1, 3},
	{"XCE", Implied, 0xFB, 1, 2},
	{"REP", Immediate, 0xC2, 2, 3},
	{"SEP", Immediate, 0xE2, 2, 3},

	// ---- block move ----
	{"MVN", BlockMove, 0x44, 3, 7},
	{"MVP", BlockMove, 0x54, 3, 7},
}

type extRow struct {
	mnemonic string
	mode     Mode
	opcode   byte
}

// extended is the $02-prefix family: (mnemonic, mode) -> second opcode
// byte, per spec.md Sec.4.7.
var extended = []extRow{
	{"MUL", DP, 0x00}, {"MUL", Absolute, 0x01},
	{"MULU", DP, 0x02}, {"MULU", Absolute, 0x03},
	{"DIV", DP, 0x04}, {"DIV", Absolute, 0x05},
	{"DIVU", DP, 0x06}, {"DIVU", Absolute, 0x07},

	{"CAS", DP, 0x10}, {"CAS", Absolute, 0x11},
	{"LL", DP, 0x12}, {"LL", Absolute, 0x13},
	{"SC", DP, 0x14}, {"SC", Absolute, 0x15},

	{"SETD", Imm32, 0x20}, {"SETD", DP, 0x21},
	{"SETB", Imm32, 0x24}, {"SETB", DP, 0x25},

	{"RWEN", Implied, 0x30}, {"RWDIS", Implied, 0x31},

	{"TRAP", Immediate, 0x40},

	{"FENCE", Implied, 0x50}, {"FENCER", Implied, 0x51}, {"FENCEW", Implied, 0x52},

	{"TTA", Implied, 0x86}, {"TAT", Implied, 0x87},

	{"LDQ", Implied, 0x88}, {"LDQ", DP, 0x89},
	{"STQ", Implied, 0x8A}, {"STQ", DP, 0x8B},

	{"LEA", DP, 0xA0}, {"LEA", DPX, 0xA1}, {"LEA", Absolute, 0xA2}, {"LEA", AbsX, 0xA3},

	{"FLD", FPUDP, 0xB0}, {"FLD", FPUAbsolute, 0xB1}, {"FLD", FPULong, 0xB2}, {"FLD", FPUIndirect, 0xB3},
	{"FST", FPUDP, 0xB8}, {"FST", FPUAbsolute, 0xB9}, {"FST", FPULong, 0xBA}, {"FST", FPUIndirect, 0xBB},

	{"ALUR", Implied, 0xE8}, // register-targeted ALU, see FindExtendedALU/spec Sec.4.7
	{"SHIFT", Implied, 0xE9},
	{"EXTOP", Implied, 0xEA},
}

// ALUEntry describes an extended-ALU mnemonic's encoding inputs for the
// `$02 $opcode $mode-byte [dest_dp] [operand]` form spec.md Sec.4.4/4.7
// requires for size-suffixed, Rn-destination, or otherwise
// non-standard-opcode-expressible operations.
type ALUEntry struct {
	Primary       byte
	Unary         bool // single-operand op (e.g. INC/DEC, shifts)
	AllowsMemDest bool // destination may be a memory operand, not only Rn
}

var extendedALU = map[string]ALUEntry{
	"LD":  {Primary: 0x00, Unary: false, AllowsMemDest: false},
	"ST":  {Primary: 0x01, Unary: false, AllowsMemDest: true},
	"ADC": {Primary: 0x02, Unary: false, AllowsMemDest: true},
	"SBC": {Primary: 0x03, Unary: false, AllowsMemDest: true},
	"AND": {Primary: 0x04, Unary: false, AllowsMemDest: true},
	"ORA": {Primary: 0x05, Unary: false, AllowsMemDest: true},
	"EOR": {Primary: 0x06, Unary: false, AllowsMemDest: true},
	"CMP": {Primary: 0x07, Unary: false, AllowsMemDest: false},
	"BIT": {Primary: 0x08, Unary: false, AllowsMemDest: false},
	"TSB": {Primary: 0x09, Unary: false, AllowsMemDest: true},
	"TRB": {Primary: 0x0A, Unary: false, AllowsMemDest: true},
	"STZ": {Primary: 0x0B, Unary: true, AllowsMemDest: true},
	"INC": {Primary: 0x0C, Unary: true, AllowsMemDest: true},
	"DEC": {Primary: 0x0D, Unary: true, AllowsMemDest: true},
	"ASL": {Primary: 0x0E, Unary: true, AllowsMemDest: true},
	"LSR": {Primary: 0x0F, Unary: true, AllowsMemDest: true},
	"ROL": {Primary: 0x10, Unary: true, AllowsMemDest: true},
	"ROR": {Primary: 0x11, Unary: true, AllowsMemDest: true},
}

// ShiftOp/ExtendOp identify the $E9 barrel-shifter and $EA extend-op
// sub-opcodes, keyed the same way.
type ShiftOp byte

const (
	ShiftSHL ShiftOp = iota
	ShiftSHR
	ShiftSAR
	ShiftROL
	ShiftROR
)

var shiftMnemonics = map[string]ShiftOp{
	"SHL": ShiftSHL, "SHR": ShiftSHR, "SAR": ShiftSAR, "ROL": ShiftROL, "ROR": ShiftROR,
}

type ExtendOp byte

const (
	ExtSEXT8 ExtendOp = iota
	ExtSEXT16
	ExtZEXT8
	ExtZEXT16
	ExtCLZ
	ExtCTZ
	ExtPOPCNT
)

var extendMnemonics = map[string]ExtendOp{
	"SEXT8": ExtSEXT8, "SEXT16": ExtSEXT16, "ZEXT8": ExtZEXT8, "ZEXT16": ExtZEXT16,
	"CLZ": ExtCLZ, "CTZ": ExtCTZ, "POPCNT": ExtPOPCNT,
}

type table struct {
	rows  map[string]*[ModeCount]Entry
	ext   map[string]*[ModeCount]byte
	extOK map[string]*[ModeCount]bool
}

// Decoded is the reverse mapping from an opcode byte back to the
// mnemonic/mode that produced it, used by the disassembler (C5) and by
// the CPU's Step, which decodes each opcode through it (C8), per spec.md Sec.9's note that
// implementers may table-drive the standard opcodes with an
// addressing-mode helper keyed off the same tables as the encoder.
type Decoded struct {
	Mnemonic string
	Mode     Mode
	Entry    Entry
}

var decodeIndex [256]Decoded
var decodeValid [256]bool

var extDecodeIndex [256]Decoded
var extDecodeValid [256]bool

var t = buildTable()

func buildTable() table {
	tb := table{
		rows:  make(map[string]*[ModeCount]Entry),
		ext:   make(map[string]*[ModeCount]byte),
		extOK: make(map[string]*[ModeCount]bool),
	}
	for _, r := range primary {
		row, ok := tb.rows[r.mnemonic]
		if !ok {
			fresh := [ModeCount]Entry{}
			for i := range fresh {
				fresh[i] = illegalEntry
			}
			tb.rows[r.mnemonic] = &fresh
			row = &fresh
		}
		e := Entry{Opcode: r.opcode, Length: r.length, Cycles: r.cycles}
		row[r.mode] = e
		if !decodeValid[r.opcode] {
			decodeIndex[r.opcode] = Decoded{Mnemonic: r.mnemonic, Mode: r.mode, Entry: e}
			decodeValid[r.opcode] = true
		}
	}
	for _, r := range extended {
		opRow, ok := tb.ext[r.mnemonic]
		okRow := tb.extOK[r.mnemonic]
		if !ok {
			opRow = &[ModeCount]byte{}
			okRow = &[ModeCount]bool{}
			tb.ext[r.mnemonic] = opRow
			tb.extOK[r.mnemonic] = okRow
		}
		opRow[r.mode] = r.opcode
		okRow[r.mode] = true
		if !extDecodeValid[r.opcode] {
			extDecodeIndex[r.opcode] = Decoded{Mnemonic: r.mnemonic, Mode: r.mode}
			extDecodeValid[r.opcode] = true
		}
	}
	return tb
}

// Decode returns the mnemonic/mode/entry a standard opcode byte decodes
// to, if any.
func Decode(opcode byte) (Decoded, bool) {
	return decodeIndex[opcode], decodeValid[opcode]
}

// DecodeExtended returns the mnemonic/mode a $02-prefix second opcode
// byte decodes to, if any.
func DecodeExtended(opcode byte) (Decoded, bool) {
	return extDecodeIndex[opcode], extDecodeValid[opcode]
}

func fold(mnemonic string) string {
	return strings.ToUpper(strings.TrimSpace(mnemonic))
}

// Find returns the full addressing-mode row for mnemonic, or ok=false if
// the mnemonic is not a standard-opcode mnemonic at all (it may still be
// an extended-only or extended-ALU-only mnemonic).
func Find(mnemonic string) (row [ModeCount]Entry, ok bool) {
	r, found := t.rows[fold(mnemonic)]
	if !found {
		for i := range row {
			row[i] = illegalEntry
		}
		return row, false
	}
	return *r, true
}

// FindMode looks up a single (mnemonic, mode) pair.
func FindMode(mnemonic string, mode Mode) (Entry, bool) {
	row, ok := Find(mnemonic)
	if !ok || mode < 0 || mode >= ModeCount {
		return illegalEntry, false
	}
	e := row[mode]
	return e, e.Opcode != IllegalOpcode
}

// FindExtended looks up a ($02-family mnemonic, mode) pair's second opcode
// byte.
func FindExtended(mnemonic string, mode Mode) (ext byte, ok bool) {
	m := fold(mnemonic)
	opRow, found := t.ext[m]
	if !found || mode < 0 || mode >= ModeCount {
		return 0, false
	}
	okRow := t.extOK[m]
	return opRow[mode], okRow[mode]
}

// FindExtendedALU looks up the extended-ALU descriptor for mnemonic.
func FindExtendedALU(mnemonic string) (primary byte, unary bool, allowsMemDest bool, ok bool) {
	e, found := extendedALU[fold(mnemonic)]
	if !found {
		return 0, false, false, false
	}
	return e.Primary, e.Unary, e.AllowsMemDest, true
}

// FindShift looks up a barrel-shifter sub-opcode mnemonic.
func FindShift(mnemonic string) (ShiftOp, bool) {
	op, ok := shiftMnemonics[fold(mnemonic)]
	return op, ok
}

// FindExtendOp looks up an $EA extend-operation sub-opcode mnemonic.
func FindExtendOp(mnemonic string) (ExtendOp, bool) {
	op, ok := extendMnemonics[fold(mnemonic)]
	return op, ok
}

// IsExtendedALUMnemonic reports whether mnemonic participates in the
// extended-ALU family at all (used by the assembler to decide whether a
// size suffix or Rn destination should route through $02 instead of
// failing to find a standard-opcode encoding).
func IsExtendedALUMnemonic(mnemonic string) bool {
	_, ok := extendedALU[fold(mnemonic)]
	return ok
}

// IsKnownMnemonic reports whether mnemonic names any instruction at all —
// standard, extended, or extended-ALU — used by the assembler's label
// detection (spec.md Sec.4.4 point 1: a leading identifier is a label
// unless it is a known mnemonic).
func IsKnownMnemonic(mnemonic string) bool {
	m := fold(mnemonic)
	if _, ok := t.rows[m]; ok {
		return true
	}
	if _, ok := t.ext[m]; ok {
		return true
	}
	if _, ok := extendedALU[m]; ok {
		return true
	}
	if _, ok := shiftMnemonics[m]; ok {
		return true
	}
	if _, ok := extendMnemonics[m]; ok {
		return true
	}
	return false
}

// ExtendedPrefix and WidPrefix are the two M65832 prefix bytes; spec.md
// Sec.6 calls them out as the key divergence from the 65816, where these
// opcodes were COP and WDM.
const (
	ExtendedPrefix byte = 0x02
	WidPrefix      byte = 0x42
)

// RegisterALUOpcode, BarrelShifterOpcode and ExtendOpsOpcode are the three
// $02-family second bytes with their own internal sub-opcode byte, per
// spec.md Sec.4.7 ($E8/$E9/$EA).
const (
	RegisterALUOpcode   byte = 0xE8
	BarrelShifterOpcode byte = 0xE9
	ExtendOpsOpcode     byte = 0xEA
)

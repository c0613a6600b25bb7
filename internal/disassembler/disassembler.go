/*
 * M65832 - Disassembler
 *
 * Copyright (c) 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a
 * copy of this software and associated documentation files (the "Software"),
 * to deal in the Software without restriction, including without limitation
 * the rights to use, copy, modify, merge, publish, distribute, sublicense,
 * and/or sell copies of the Software, and to permit persons to whom the
 * Software is furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
 * RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
 * IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
 * CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 */

// Package disassembler turns a byte buffer back into M65832 assembly
// text, keyed off internal/isa's tables rather than a hardcoded
// opcode-type switch (the teacher's emu/disassemble has five 370
// instruction formats; M65832 has closer to thirty addressing modes, so
// the per-mode formatting lives in a table-driven function here instead
// of a five-case switch).
package disassembler

import (
	"fmt"

	"github.com/benjcooley/m65832-sub008/internal/isa"
)

// SymbolResolver renders addr as a symbolic label, if one is known,
// purely for display — it never changes the byte-for-byte instruction
// length or opcode bytes.
type SymbolResolver func(addr uint32) (name string, ok bool)

// Disassemble decodes exactly one instruction starting at bytes[0]
// (which sits at address pc), returning its text and its length in
// bytes. m/x give the operand widths for Immediate-mode operands that
// don't encode their own width (spec.md Sec.3). emulation does not
// change the output: no mode's formatting depends on it, and PER/relative
// branches use PC after the full instruction in either mode.
func Disassemble(bytes []byte, pc uint32, m, x isa.Width, emulation bool) (string, int) {
	return disassembleSym(bytes, pc, m, x, emulation, nil)
}

// DisassembleSymbolic is Disassemble plus an optional SymbolResolver for
// branch/jump/absolute targets (spec.md's distillation never specifies
// symbolic output; this is additive and never changes the raw contract
// above).
func DisassembleSymbolic(bytes []byte, pc uint32, m, x isa.Width, emulation bool, sym SymbolResolver) (string, int) {
	return disassembleSym(bytes, pc, m, x, emulation, sym)
}

func disassembleSym(data []byte, pc uint32, m, x isa.Width, emulation bool, sym SymbolResolver) (string, int) {
	if len(data) == 0 {
		return "", 0
	}
	opcode := data[0]

	switch opcode {
	case isa.ExtendedPrefix:
		return disassembleExtended(data, pc, m, sym)
	case isa.WidPrefix:
		return disassembleWid(data, pc, sym)
	}

	d, ok := isa.Decode(opcode)
	if !ok {
		return fmt.Sprintf(".byte $%02X", opcode), 1
	}

	width := m
	switch {
	case usesStatusWidth(d.Mnemonic):
		width = isa.Width8
	case usesIndexWidth(d.Mnemonic):
		width = x
	}
	operand, length := formatOperand(d.Mode, data[1:], pc, width, sym)
	return pad(d.Mnemonic) + operand, 1 + length
}

// usesIndexWidth reports whether mnemonic's Immediate operand is
// X-width rather than M-width (spec.md Sec.3: CPX/CPY/LDX/LDY use X).
func usesIndexWidth(mnemonic string) bool {
	switch mnemonic {
	case "LDX", "LDY", "CPX", "CPY":
		return true
	default:
		return false
	}
}

// usesStatusWidth reports whether mnemonic's Immediate operand is always a
// single byte regardless of the active M width — REP/SEP's mask sizes the
// status register, not an accumulator-width value, matching
// internal/cpu/exec.go's hardcoded isa.Width8 resolve for both.
func usesStatusWidth(mnemonic string) bool {
	switch mnemonic {
	case "REP", "SEP":
		return true
	default:
		return false
	}
}

func pad(mnemonic string) string {
	s := mnemonic + "        "
	return s[:8]
}

// formatOperand renders operand text and returns the number of operand
// bytes consumed (not counting the opcode byte itself).
func formatOperand(mode isa.Mode, rest []byte, pc uint32, width isa.Width, sym SymbolResolver) (string, int) {
	b := func(i int) byte {
		if i < len(rest) {
			return rest[i]
		}
		return 0
	}
	hex := func(v uint32, digits int) string {
		return fmt.Sprintf("$%0*X", digits, v)
	}
	resolved := func(addr uint32, digits int) string {
		if sym != nil {
			if name, ok := sym(addr); ok {
				return name
			}
		}
		return hex(addr, digits)
	}

	switch mode {
	case isa.Implied:
		return "", 0
	case isa.Accumulator:
		return "A", 0
	case isa.Immediate:
		switch width {
		case isa.Width8:
			return "#" + hex(uint32(b(0)), 2), 1
		case isa.Width16:
			v := uint32(b(0)) | uint32(b(1))<<8
			return "#" + hex(v, 4), 2
		default:
			v := uint32(b(0)) | uint32(b(1))<<8 | uint32(b(2))<<16 | uint32(b(3))<<24
			return "#" + hex(v, 8), 4
		}
	case isa.Imm32:
		v := uint32(b(0)) | uint32(b(1))<<8 | uint32(b(2))<<16 | uint32(b(3))<<24
		return "#" + hex(v, 8), 4
	case isa.DP:
		return hex(uint32(b(0)), 2), 1
	case isa.DPX:
		return hex(uint32(b(0)), 2) + ",X", 1
	case isa.DPY:
		return hex(uint32(b(0)), 2) + ",Y", 1
	case isa.Absolute:
		return resolved(uint32(b(0))|uint32(b(1))<<8, 4), 2
	case isa.Abs32:
		return resolved(uint32(b(0))|uint32(b(1))<<8|uint32(b(2))<<16|uint32(b(3))<<24, 8), 4
	case isa.AbsX:
		return hex(uint32(b(0))|uint32(b(1))<<8, 4) + ",X", 2
	case isa.AbsY:
		return hex(uint32(b(0))|uint32(b(1))<<8, 4) + ",Y", 2
	case isa.DPInd:
		return "(" + hex(uint32(b(0)), 2) + ")", 1
	case isa.DPIndX:
		return "(" + hex(uint32(b(0)), 2) + ",X)", 1
	case isa.DPIndY:
		return "(" + hex(uint32(b(0)), 2) + "),Y", 1
	case isa.DPIndLong:
		return "[" + hex(uint32(b(0)), 2) + "]", 1
	case isa.DPIndLongY:
		return "[" + hex(uint32(b(0)), 2) + "],Y", 1
	case isa.Long:
		return resolved(uint32(b(0))|uint32(b(1))<<8|uint32(b(2))<<16, 6), 3
	case isa.LongX:
		return hex(uint32(b(0))|uint32(b(1))<<8|uint32(b(2))<<16, 6) + ",X", 3
	case isa.StackRel:
		return hex(uint32(b(0)), 2) + ",S", 1
	case isa.StackRelIndY:
		return "(" + hex(uint32(b(0)), 2) + ",S),Y", 1
	case isa.AbsInd:
		return "(" + hex(uint32(b(0))|uint32(b(1))<<8, 4) + ")", 2
	case isa.AbsIndX:
		return "(" + hex(uint32(b(0))|uint32(b(1))<<8, 4) + ",X)", 2
	case isa.AbsIndLong:
		return "[" + hex(uint32(b(0))|uint32(b(1))<<8, 4) + "]", 2
	case isa.Rel8:
		target := uint32(int64(pc) + 2 + int64(int8(b(0))))
		return resolved(target, 8), 1
	case isa.Rel16:
		disp := int16(uint16(b(0)) | uint16(b(1))<<8)
		target := uint32(int64(pc) + 3 + int64(disp))
		return resolved(target, 8), 2
	case isa.BlockMove:
		return hex(uint32(b(0)), 2) + "," + hex(uint32(b(1)), 2), 2
	case isa.FPUDP:
		return hex(uint32(b(0)), 2), 1
	case isa.FPUAbsolute:
		return hex(uint32(b(0))|uint32(b(1))<<8, 4), 2
	case isa.FPULong:
		return hex(uint32(b(0))|uint32(b(1))<<8|uint32(b(2))<<16, 6), 3
	case isa.FPUIndirect:
		return "(" + hex(uint32(b(0)), 2) + ")", 1
	default:
		return "", 0
	}
}

// disassembleExtended renders a $02-prefixed instruction. $E8/$E9/$EA
// each have their own fixed descriptor shape (see internal/cpu/ext.go,
// which this mirrors); every other second byte is a plain
// (mnemonic, mode) pair from isa.DecodeExtended.
func disassembleExtended(data []byte, pc uint32, m isa.Width, sym SymbolResolver) (string, int) {
	if len(data) < 2 {
		return ".byte $02", 1
	}
	sub := data[1]

	switch sub {
	case isa.RegisterALUOpcode:
		if len(data) < 4 {
			return "ALUR     ?", 2
		}
		descriptor := data[2]
		destDP := data[3]
		op := (descriptor >> 5) & 0x7
		size := (descriptor >> 3) & 0x3
		modeIdx := descriptor & 0x7
		names := [8]string{"LD", "ADC", "SBC", "AND", "ORA", "EOR", "CMP", "?"}
		modes := [8]isa.Mode{isa.Immediate, isa.DP, isa.Accumulator, isa.DPIndX,
			isa.DPIndY, isa.Absolute, isa.StackRel, isa.DPInd}
		operand, n := formatOperand(modes[modeIdx], data[4:], pc, isa.DecodeWidth(size), sym)
		return fmt.Sprintf("%s.R      $%02X,%s", pad(names[op]), destDP, operand), 4 + n

	case isa.BarrelShifterOpcode:
		if len(data) < 5 {
			return "SHIFT    ?", 2
		}
		descriptor := data[2]
		destDP, srcDP := data[3], data[4]
		opField := (descriptor >> 5) & 0x7
		count := descriptor & 0x1F
		names := [5]string{"SHL", "SHR", "SAR", "ROL", "ROR"}
		name := "?"
		if int(opField) < len(names) {
			name = names[opField]
		}
		countText := fmt.Sprintf("#%d", count)
		if count == 0x1F {
			countText = "A"
		}
		return fmt.Sprintf("%s$%02X,$%02X,%s", pad(name), destDP, srcDP, countText), 5

	case isa.ExtendOpsOpcode:
		if len(data) < 5 {
			return "EXTOP    ?", 2
		}
		op, destDP, srcDP := data[2], data[3], data[4]
		names := []string{"SEXT8", "SEXT16", "ZEXT8", "ZEXT16", "CLZ", "CTZ", "POPCNT"}
		name := "?"
		if int(op) < len(names) {
			name = names[op]
		}
		return fmt.Sprintf("%s$%02X,$%02X", pad(name), destDP, srcDP), 5
	}

	d, ok := isa.DecodeExtended(sub)
	if !ok {
		return fmt.Sprintf(".byte $02,$%02X", sub), 2
	}
	width := m
	if d.Mnemonic == "SETD" || d.Mnemonic == "SETB" || d.Mnemonic == "LDQ" || d.Mnemonic == "STQ" {
		width = isa.Width32
	}
	if d.Mnemonic == "FLD" || d.Mnemonic == "FST" {
		if len(data) < 3 {
			return pad(d.Mnemonic) + "?", 2
		}
		fr := data[2] & 3
		operand, n := formatOperand(d.Mode, data[3:], pc, isa.Width32, nil)
		return fmt.Sprintf("%sF%d,%s", pad(d.Mnemonic), fr, operand), 2 + 1 + n
	}
	operand, n := formatOperand(d.Mode, data[2:], pc, width, sym)
	return pad(d.Mnemonic) + operand, 2 + n
}

// disassembleWid renders a $42-prefixed instruction: the following
// standard opcode, forced to its 32-bit Immediate/Absolute form.
func disassembleWid(data []byte, pc uint32, sym SymbolResolver) (string, int) {
	if len(data) < 2 {
		return ".byte $42", 1
	}
	opcode := data[1]
	d, ok := isa.Decode(opcode)
	if !ok {
		return fmt.Sprintf(".byte $42,$%02X", opcode), 2
	}
	mode := d.Mode
	switch mode {
	case isa.Immediate:
		mode = isa.Imm32
	case isa.Absolute:
		mode = isa.Abs32
	}
	operand, n := formatOperand(mode, data[2:], pc, isa.Width32, sym)
	return pad(d.Mnemonic) + operand, 2 + n
}

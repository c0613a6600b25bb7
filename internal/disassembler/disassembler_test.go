package disassembler

import (
	"strings"
	"testing"

	"github.com/benjcooley/m65832-sub008/internal/isa"
)

func TestDisassembleImmediateByWidth(t *testing.T) {
	text, n := Disassemble([]byte{0xA9, 0x42}, 0x0200, isa.Width8, isa.Width8, true)
	if n != 2 || !strings.Contains(text, "LDA") || !strings.Contains(text, "$42") {
		t.Errorf("8-bit LDA # = %q, %d, want LDA #$42 length 2", text, n)
	}

	text, n = Disassemble([]byte{0xA9, 0x34, 0x12}, 0x0200, isa.Width16, isa.Width8, true)
	if n != 3 || !strings.Contains(text, "$1234") {
		t.Errorf("16-bit LDA # = %q, %d, want LDA #$1234 length 3", text, n)
	}
}

func TestDisassembleRepSepIgnoresMWidth(t *testing.T) {
	// REP's mask is always 1 byte even with M=32, unlike a plain Immediate.
	text, n := Disassemble([]byte{0xC2, 0x30, 0xEA}, 0x0200, isa.Width32, isa.Width8, true)
	if n != 2 || !strings.Contains(text, "REP") || !strings.Contains(text, "$30") {
		t.Errorf("REP # with M=32 = %q, %d, want REP #$30 length 2", text, n)
	}
}

func TestDisassembleIndexRegisterUsesXWidth(t *testing.T) {
	// LDX # should use the X width even when M differs.
	text, n := Disassemble([]byte{0xA2, 0x34, 0x12}, 0x0200, isa.Width8, isa.Width16, true)
	if n != 3 || !strings.Contains(text, "$1234") {
		t.Errorf("LDX # with X=16 = %q, %d, want LDX #$1234 length 3", text, n)
	}
}

func TestDisassembleAbsoluteAndIndexed(t *testing.T) {
	text, n := Disassemble([]byte{0x8D, 0x34, 0x12}, 0x0200, isa.Width8, isa.Width8, true)
	if n != 3 || !strings.Contains(text, "STA") || !strings.Contains(text, "$1234") {
		t.Errorf("STA abs = %q, %d, want STA $1234 length 3", text, n)
	}
}

func TestDisassembleUnknownOpcodeFallsBackToByteDirective(t *testing.T) {
	// $FF is taken (SBC LongX), so probe $AF, which no primary-table
	// entry uses.
	text, n := Disassemble([]byte{0xAF}, 0x0200, isa.Width8, isa.Width8, true)
	if n != 1 || !strings.Contains(text, ".byte") {
		t.Errorf("unused opcode $AF = %q, %d, want a .byte directive of length 1", text, n)
	}
}

func TestDisassembleRelativeBranchTarget(t *testing.T) {
	// BEQ with a +5 displacement from PC=0x0200: target = pc + 2 + 5.
	text, _ := Disassemble([]byte{0xF0, 0x05}, 0x0200, isa.Width8, isa.Width8, true)
	if !strings.Contains(text, "00000207") {
		t.Errorf("BEQ +5 = %q, want target 00000207 (pc+2+5)", text)
	}
}

func TestDisassembleSymbolicResolvesLabel(t *testing.T) {
	resolver := func(addr uint32) (string, bool) {
		if addr == 0x1234 {
			return "LOOP", true
		}
		return "", false
	}
	text, _ := DisassembleSymbolic([]byte{0x4C, 0x34, 0x12}, 0x0200, isa.Width8, isa.Width8, true, resolver)
	if !strings.Contains(text, "LOOP") {
		t.Errorf("JMP with a resolver = %q, want the LOOP label substituted", text)
	}
}

func TestDisassembleExtendedLLSC(t *testing.T) {
	text, n := Disassemble([]byte{0x02, 0x12, 0x10}, 0x0200, isa.Width8, isa.Width8, true)
	if n != 3 || !strings.Contains(text, "LL") || !strings.Contains(text, "$10") {
		t.Errorf("$02 $12 $10 = %q, %d, want LL $10 length 3", text, n)
	}
}

func TestDisassembleExtendedRegisterALU(t *testing.T) {
	// $02 $E8 descriptor destDP source: op=0 (LD) in bits 7:5, size=0
	// (8-bit) in 4:3, mode=0 (Immediate) in 2:0, so one immediate byte follows.
	text, n := Disassemble([]byte{0x02, isa.RegisterALUOpcode, 0x00, 0x20, 0x7F}, 0x0200, isa.Width8, isa.Width8, true)
	if n != 5 || !strings.Contains(text, "LD") || !strings.Contains(text, "$20") {
		t.Errorf("$02 $E8 LD descriptor = %q, %d, want LD.R $20,#$7F length 5", text, n)
	}
}

func TestDisassembleWidPrefixForcesAbs32(t *testing.T) {
	// $42 $AD <4-byte absolute32 operand> forces LDA Absolute into Abs32.
	text, n := Disassemble([]byte{0x42, 0xAD, 0x78, 0x56, 0x34, 0x12}, 0x0200, isa.Width8, isa.Width8, true)
	if n != 6 || !strings.Contains(text, "LDA") || !strings.Contains(text, "$12345678") {
		t.Errorf("$42 LDA abs = %q, %d, want LDA $12345678 length 6", text, n)
	}
}

func TestDisassembleEmptyBufferReturnsZeroLength(t *testing.T) {
	text, n := Disassemble(nil, 0, isa.Width8, isa.Width8, true)
	if text != "" || n != 0 {
		t.Errorf("Disassemble(nil) = %q, %d, want empty/0", text, n)
	}
}

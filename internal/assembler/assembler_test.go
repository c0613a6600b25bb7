package assembler

import (
	"fmt"
	"testing"
)

func printBytes(b []byte) string {
	text := ""
	for _, by := range b {
		text += fmt.Sprintf("%02x, ", by)
	}
	if text != "" {
		text = text[:len(text)-2]
	}
	return text
}

func firstSection(t *testing.T, r Result) *Section {
	t.Helper()
	if len(r.Sections) == 0 {
		t.Fatal("no sections emitted")
	}
	return r.Sections[0]
}

func checkNoDiags(t *testing.T, r Result) {
	t.Helper()
	for _, d := range r.Diagnostics {
		t.Errorf("unexpected diagnostic: %s", d)
	}
}

func TestAssembleImpliedAndImmediate(t *testing.T) {
	r := Assemble("t.s", "NOP\nLDA #$10\n")
	checkNoDiags(t, r)
	sect := firstSection(t, r)
	want := []byte{0xEA, 0xA9, 0x10}
	if string(sect.Data) != string(want) {
		t.Errorf("got %s want %s", printBytes(sect.Data), printBytes(want))
	}
}

func TestAssembleHexLiteralModeSelection(t *testing.T) {
	// $10 -> DP, $1000 -> Absolute, $100000 -> Long.
	r := Assemble("t.s", "LDA $10\nLDA $1000\nLDA $100000\n")
	checkNoDiags(t, r)
	sect := firstSection(t, r)
	want := []byte{0xA5, 0x10, 0xAD, 0x00, 0x10, 0xAB, 0x00, 0x00, 0x10}
	if string(sect.Data) != string(want) {
		t.Errorf("got %s want %s", printBytes(sect.Data), printBytes(want))
	}
}

func TestAssembleLabelsAndForwardReference(t *testing.T) {
	src := "START:\n" +
		"  JMP DONE\n" +
		"  NOP\n" +
		"DONE:\n" +
		"  NOP\n"
	r := Assemble("t.s", src)
	checkNoDiags(t, r)
	if v, ok := r.Symbols["START"]; !ok || v != 0 {
		t.Errorf("START = %d, want 0", v)
	}
	if v, ok := r.Symbols["DONE"]; !ok || v != 4 {
		t.Errorf("DONE = %d, want 4", v)
	}
	sect := firstSection(t, r)
	want := []byte{0x4C, 0x04, 0x00, 0xEA, 0xEA}
	if string(sect.Data) != string(want) {
		t.Errorf("got %s want %s", printBytes(sect.Data), printBytes(want))
	}
}

func TestAssembleBranchRange(t *testing.T) {
	src := "LOOP:\n  NOP\n  BRA LOOP\n"
	r := Assemble("t.s", src)
	checkNoDiags(t, r)
	sect := firstSection(t, r)
	// BRA at pc=1, target=0, disp = 0 - (1+2) = -3 = 0xFD
	want := []byte{0xEA, 0x80, 0xFD}
	if string(sect.Data) != string(want) {
		t.Errorf("got %s want %s", printBytes(sect.Data), printBytes(want))
	}
}

func TestAssembleBranchOutOfRange(t *testing.T) {
	var b []byte
	b = append(b, []byte(".ORG $0000\nBEQ TARGET\n")...)
	// Pad far enough that an 8-bit branch can't reach.
	for i := 0; i < 200; i++ {
		b = append(b, []byte("NOP\n")...)
	}
	b = append(b, []byte("TARGET: NOP\n")...)
	r := Assemble("t.s", string(b))
	if len(r.Diagnostics) == 0 {
		t.Error("expected an out-of-range branch diagnostic")
	}
}

func TestAssembleEquAndOrg(t *testing.T) {
	src := "FOO EQU $20\n.ORG $0100\nLDA FOO\n"
	r := Assemble("t.s", src)
	checkNoDiags(t, r)
	if v, ok := r.Symbols["FOO"]; !ok || v != 0x20 {
		t.Errorf("FOO = %#x, want 0x20", v)
	}
	sect := firstSection(t, r)
	if sect.Org != 0x0100 {
		t.Errorf("section org = %#x, want 0x100", sect.Org)
	}
	want := []byte{0xA5, 0x20}
	if string(sect.Data) != string(want) {
		t.Errorf("got %s want %s", printBytes(sect.Data), printBytes(want))
	}
}

func TestAssembleDataDirectives(t *testing.T) {
	src := ".BYTE $01, $02\n.WORD $1234\n.ASCIZ \"hi\"\n"
	r := Assemble("t.s", src)
	checkNoDiags(t, r)
	sect := firstSection(t, r)
	want := []byte{0x01, 0x02, 0x34, 0x12, 'h', 'i', 0x00}
	if string(sect.Data) != string(want) {
		t.Errorf("got %s want %s", printBytes(sect.Data), printBytes(want))
	}
}

func TestAssembleAlign(t *testing.T) {
	src := ".BYTE $01\n.ALIGN 4\n.BYTE $02\n"
	r := Assemble("t.s", src)
	checkNoDiags(t, r)
	sect := firstSection(t, r)
	want := []byte{0x01, 0x00, 0x00, 0x00, 0x02}
	if string(sect.Data) != string(want) {
		t.Errorf("got %s want %s", printBytes(sect.Data), printBytes(want))
	}
}

func TestAssembleWidth32Immediate(t *testing.T) {
	src := ".M32\nLDA #$12345678\n"
	r := Assemble("t.s", src)
	checkNoDiags(t, r)
	sect := firstSection(t, r)
	want := []byte{0xA9, 0x78, 0x56, 0x34, 0x12}
	if string(sect.Data) != string(want) {
		t.Errorf("got %s want %s", printBytes(sect.Data), printBytes(want))
	}
}

func TestAssembleStarEqualsSetsOrigin(t *testing.T) {
	src := "*= $8000\nNOP\n"
	r := Assemble("t.s", src)
	checkNoDiags(t, r)
	sect := firstSection(t, r)
	if sect.Org != 0x8000 {
		t.Fatalf("section Org = %#x, want 0x8000", sect.Org)
	}
	want := []byte{0xEA}
	if string(sect.Data) != string(want) {
		t.Errorf("got %s want %s", printBytes(sect.Data), printBytes(want))
	}
}

func TestAssembleRepSepAlwaysOneByteRegardlessOfWidth(t *testing.T) {
	src := ".M32\nREP #$30\nSEP #$20\n"
	r := Assemble("t.s", src)
	checkNoDiags(t, r)
	sect := firstSection(t, r)
	want := []byte{0xC2, 0x30, 0xE2, 0x20}
	if string(sect.Data) != string(want) {
		t.Errorf("got %s want %s (REP/SEP must stay 1-byte immediates even under .M32)", printBytes(sect.Data), printBytes(want))
	}
}

func TestAssembleAbs32AutoWid(t *testing.T) {
	src := "LDA $12345678\n"
	r := Assemble("t.s", src)
	checkNoDiags(t, r)
	sect := firstSection(t, r)
	want := []byte{0x42, 0xAD, 0x78, 0x56, 0x34, 0x12}
	if string(sect.Data) != string(want) {
		t.Errorf("got %s want %s", printBytes(sect.Data), printBytes(want))
	}
}

func TestAssembleRegisterALUSuffix(t *testing.T) {
	// ADC.R R5,$10 -> $02 $E8 <descriptor> <destDP=20> $10
	src := "ADC.R R5,$10\n"
	r := Assemble("t.s", src)
	checkNoDiags(t, r)
	sect := firstSection(t, r)
	// op=ADC(1)<<5 | size(Width8=0)<<3 | mode(DP=1) = 0b00100001 = 0x21
	want := []byte{0x02, 0xE8, 0x21, 20, 0x10}
	if string(sect.Data) != string(want) {
		t.Errorf("got %s want %s", printBytes(sect.Data), printBytes(want))
	}
}

func TestAssembleRegisterALURejectsUnary(t *testing.T) {
	r := Assemble("t.s", "INC.R R5,$10\n")
	if len(r.Diagnostics) == 0 {
		t.Error("expected a diagnostic for INC.R (unary, no register-ALU form)")
	}
}

func TestAssembleBarrelShift(t *testing.T) {
	src := "SHL $10,$20,4\n"
	r := Assemble("t.s", src)
	checkNoDiags(t, r)
	sect := firstSection(t, r)
	want := []byte{0x02, 0xE9, 0x04, 0x10, 0x20}
	if string(sect.Data) != string(want) {
		t.Errorf("got %s want %s", printBytes(sect.Data), printBytes(want))
	}
}

func TestAssembleBarrelShiftCountFromA(t *testing.T) {
	src := "SHR $10,$20,A\n"
	r := Assemble("t.s", src)
	checkNoDiags(t, r)
	sect := firstSection(t, r)
	// SHR op field = 1<<5 = 0x20, count = 0x1F -> descriptor 0x3F
	want := []byte{0x02, 0xE9, 0x3F, 0x10, 0x20}
	if string(sect.Data) != string(want) {
		t.Errorf("got %s want %s", printBytes(sect.Data), printBytes(want))
	}
}

func TestAssembleRotateStillStandard(t *testing.T) {
	// Plain ROL with no count argument must still hit the standard
	// Accumulator-mode opcode, not the barrel-shift path.
	r := Assemble("t.s", "ROL A\n")
	checkNoDiags(t, r)
	sect := firstSection(t, r)
	if len(sect.Data) != 1 {
		t.Fatalf("got %s, want a single-byte standard ROL A", printBytes(sect.Data))
	}
}

func TestAssembleExtendOp(t *testing.T) {
	src := "SEXT8 $10,$20\n"
	r := Assemble("t.s", src)
	checkNoDiags(t, r)
	sect := firstSection(t, r)
	want := []byte{0x02, 0xEA, 0x00, 0x10, 0x20}
	if string(sect.Data) != string(want) {
		t.Errorf("got %s want %s", printBytes(sect.Data), printBytes(want))
	}
}

func TestAssembleBlockMoveByteOrder(t *testing.T) {
	// Operand syntax is srcbank,destbank; the encoded order is destbank
	// then srcbank, matching internal/cpu's fetch order.
	src := "MVN $01,$02\n"
	r := Assemble("t.s", src)
	checkNoDiags(t, r)
	sect := firstSection(t, r)
	if len(sect.Data) < 3 {
		t.Fatalf("got %s, too short", printBytes(sect.Data))
	}
	if sect.Data[1] != 0x02 || sect.Data[2] != 0x01 {
		t.Errorf("got dest=%#x src=%#x, want dest=0x02 src=0x01", sect.Data[1], sect.Data[2])
	}
}

func TestAssembleUnknownMnemonicDiagnostic(t *testing.T) {
	r := Assemble("t.s", "FROB $10\n")
	if len(r.Diagnostics) == 0 {
		t.Error("expected a diagnostic for an unknown mnemonic")
	}
}

func TestAssembleDuplicateSymbolDiagnostic(t *testing.T) {
	r := Assemble("t.s", "FOO:\n  NOP\nFOO:\n  NOP\n")
	if len(r.Diagnostics) == 0 {
		t.Error("expected a diagnostic for a redefined symbol")
	}
}

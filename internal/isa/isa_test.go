package isa

import "testing"

func TestFindModeKnownEncoding(t *testing.T) {
	e, ok := FindMode("LDA", Immediate)
	if !ok || e.Opcode != 0xA9 || e.Length != 2 {
		t.Errorf("FindMode(LDA, Immediate) = %+v, %v, want opcode 0xA9 length 2", e, ok)
	}
}

func TestFindModeUnencodedCombination(t *testing.T) {
	if _, ok := FindMode("LDA", AbsInd); ok {
		t.Error("FindMode(LDA, AbsInd) should not be a legal encoding")
	}
}

func TestFindUnknownMnemonic(t *testing.T) {
	if _, ok := Find("NOSUCH"); ok {
		t.Error("Find(NOSUCH) should report not found")
	}
}

func TestDecodeRoundTripsFindMode(t *testing.T) {
	e, ok := FindMode("STA", Absolute)
	if !ok {
		t.Fatal("FindMode(STA, Absolute) not found")
	}
	dec, ok := Decode(e.Opcode)
	if !ok || dec.Mnemonic != "STA" || dec.Mode != Absolute {
		t.Errorf("Decode(%#x) = %+v, %v, want STA/Absolute", e.Opcode, dec, ok)
	}
}

func TestDecodeExtendedRoundTrip(t *testing.T) {
	op, ok := FindExtended("LL", DP)
	if !ok || op != 0x12 {
		t.Fatalf("FindExtended(LL, DP) = %#x, %v, want 0x12", op, ok)
	}
	dec, ok := DecodeExtended(op)
	if !ok || dec.Mnemonic != "LL" || dec.Mode != DP {
		t.Errorf("DecodeExtended(%#x) = %+v, %v, want LL/DP", op, dec, ok)
	}
}

func TestMnemonicCaseInsensitivity(t *testing.T) {
	upper, ok1 := FindMode("LDA", Immediate)
	lower, ok2 := FindMode("lda", Immediate)
	if !ok1 || !ok2 || upper != lower {
		t.Errorf("FindMode is case-sensitive: %+v/%v vs %+v/%v", upper, ok1, lower, ok2)
	}
}

func TestIsKnownMnemonicCoversAllFamilies(t *testing.T) {
	cases := []string{"LDA", "CAS", "ADC", "SHL", "CLZ"}
	for _, m := range cases {
		if !IsKnownMnemonic(m) {
			t.Errorf("IsKnownMnemonic(%s) = false, want true", m)
		}
	}
	if IsKnownMnemonic("NOTAMNEMONIC") {
		t.Error("IsKnownMnemonic(NOTAMNEMONIC) = true, want false")
	}
}

func TestFindExtendedALU(t *testing.T) {
	primary, unary, allowsMemDest, ok := FindExtendedALU("INC")
	if !ok || primary != 0x0C || !unary || !allowsMemDest {
		t.Errorf("FindExtendedALU(INC) = %#x,%v,%v,%v, want 0x0C,true,true,true", primary, unary, allowsMemDest, ok)
	}
	if _, _, _, ok := FindExtendedALU("NOSUCH"); ok {
		t.Error("FindExtendedALU(NOSUCH) should report not found")
	}
}

func TestFindShiftAndExtendOp(t *testing.T) {
	if op, ok := FindShift("SAR"); !ok || op != ShiftSAR {
		t.Errorf("FindShift(SAR) = %v, %v, want ShiftSAR/true", op, ok)
	}
	if op, ok := FindExtendOp("POPCNT"); !ok || op != ExtPOPCNT {
		t.Errorf("FindExtendOp(POPCNT) = %v, %v, want ExtPOPCNT/true", op, ok)
	}
}

func TestDecodeWidth(t *testing.T) {
	cases := map[byte]Width{0: Width8, 1: Width16, 2: Width32, 3: Width32}
	for field, want := range cases {
		if got := DecodeWidth(field); got != want {
			t.Errorf("DecodeWidth(%d) = %v, want %v", field, got, want)
		}
	}
}

func TestNoOpcodeCollisionsInPrimaryTable(t *testing.T) {
	// Every standard opcode byte that decodes at all must decode back to
	// a (mnemonic, mode) pair that the table-builder resolved the primary
	// pass's first encounter of that byte -- Decode must never silently
	// prefer a later duplicate.
	seen := make(map[byte]string)
	for _, r := range primary {
		if prev, ok := seen[r.opcode]; ok {
			dec, _ := Decode(r.opcode)
			if dec.Mnemonic != prev {
				t.Errorf("opcode %#x ambiguous between %s and %s, Decode resolved to %s", r.opcode, prev, r.mnemonic, dec.Mnemonic)
			}
			continue
		}
		seen[r.opcode] = r.mnemonic
	}
}

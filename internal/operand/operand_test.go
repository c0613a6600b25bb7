package operand

import (
	"testing"

	"github.com/benjcooley/m65832-sub008/internal/isa"
)

func parseOK(t *testing.T, field string, width32 bool) Operand {
	t.Helper()
	op, err := Parse(field, width32)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", field, err)
	}
	return op
}

func TestImpliedAndAccumulator(t *testing.T) {
	if op := parseOK(t, "", false); op.Mode != isa.Implied {
		t.Errorf("Parse(\"\") mode = %v, want Implied", op.Mode)
	}
	op := parseOK(t, "A", false)
	if op.Mode != isa.Accumulator || !op.Accumulator {
		t.Errorf("Parse(A) = %+v, want Accumulator", op)
	}
}

func TestImmediate(t *testing.T) {
	op := parseOK(t, "#$12", false)
	if op.Mode != isa.Immediate || op.Expr != "$12" {
		t.Errorf("Parse(#$12) = %+v, want Immediate/$12", op)
	}
}

func TestBankRelativeEncodesAsAbsolute(t *testing.T) {
	op := parseOK(t, "B+$1234", false)
	if op.Mode != isa.Absolute || op.Expr != "$1234" {
		t.Errorf("Parse(B+$1234) = %+v, want Absolute/$1234", op)
	}
}

func TestDirectHexLiteralModeSelection(t *testing.T) {
	cases := []struct {
		field string
		mode  isa.Mode
	}{
		{"$12", isa.DP},
		{"$1234", isa.Absolute},
		{"$123456", isa.Long},
		{"$12345678", isa.Abs32},
	}
	for _, c := range cases {
		op := parseOK(t, c.field, false)
		if op.Mode != c.mode {
			t.Errorf("Parse(%q) mode = %v, want %v", c.field, op.Mode, c.mode)
		}
	}
}

func TestNonLiteralDefaultsAbsolute(t *testing.T) {
	op := parseOK(t, "LABEL", false)
	if op.Mode != isa.Absolute || op.Expr != "LABEL" {
		t.Errorf("Parse(LABEL) = %+v, want Absolute/LABEL", op)
	}
}

func Test32BitModeRequiresEightDigits(t *testing.T) {
	if _, err := Parse("$1234", true); err == nil {
		t.Error("Parse($1234, width32=true) should reject a non-8-digit literal")
	}
	if op, err := Parse("$12345678", true); err != nil || op.Mode != isa.Abs32 {
		t.Errorf("Parse($12345678, width32=true) = %+v, %v, want Abs32/nil", op, err)
	}
}

func TestIndexedAbsolute(t *testing.T) {
	op := parseOK(t, "$1234,X", false)
	if op.Mode != isa.AbsX || op.Expr != "$1234" {
		t.Errorf("Parse($1234,X) = %+v, want AbsX/$1234", op)
	}
	op = parseOK(t, "$1234,Y", false)
	if op.Mode != isa.AbsY {
		t.Errorf("Parse($1234,Y) mode = %v, want AbsY", op.Mode)
	}
}

func TestStackRelative(t *testing.T) {
	op := parseOK(t, "$12,S", false)
	if op.Mode != isa.StackRel || op.Expr != "$12" {
		t.Errorf("Parse($12,S) = %+v, want StackRel/$12", op)
	}
}

func TestBlockMove(t *testing.T) {
	op := parseOK(t, "$01,$02", false)
	if op.Mode != isa.BlockMove || op.Expr != "$01" || op.Expr2 != "$02" {
		t.Errorf("Parse($01,$02) = %+v, want BlockMove/$01/$02", op)
	}
}

func TestDirectPageIndirect(t *testing.T) {
	op := parseOK(t, "($10)", false)
	if op.Mode != isa.DPInd || op.Expr != "$10" {
		t.Errorf("Parse(($10)) = %+v, want DPInd/$10", op)
	}
	op = parseOK(t, "($10),Y", false)
	if op.Mode != isa.DPIndY {
		t.Errorf("Parse(($10),Y) mode = %v, want DPIndY", op.Mode)
	}
	op = parseOK(t, "($10,X)", false)
	if op.Mode != isa.DPIndX {
		t.Errorf("Parse(($10,X)) mode = %v, want DPIndX", op.Mode)
	}
	op = parseOK(t, "($10,S)", false)
	if op.Mode != isa.StackRel {
		t.Errorf("Parse(($10,S)) mode = %v, want StackRel", op.Mode)
	}
}

func TestAbsoluteIndexedIndirect(t *testing.T) {
	op := parseOK(t, "($1234,X)", false)
	if op.Mode != isa.AbsIndX || op.Expr != "$1234" {
		t.Errorf("Parse(($1234,X)) = %+v, want AbsIndX/$1234", op)
	}
}

func TestLongIndirect(t *testing.T) {
	op := parseOK(t, "[$10]", false)
	if op.Mode != isa.DPIndLong || op.Expr != "$10" {
		t.Errorf("Parse([$10]) = %+v, want DPIndLong/$10", op)
	}
	op = parseOK(t, "[$10],Y", false)
	if op.Mode != isa.DPIndLongY {
		t.Errorf("Parse([$10],Y) mode = %v, want DPIndLongY", op.Mode)
	}
	op = parseOK(t, "[$1234]", false)
	if op.Mode != isa.AbsIndLong {
		t.Errorf("Parse([$1234]) mode = %v, want AbsIndLong", op.Mode)
	}
}

func TestMalformedOperandsError(t *testing.T) {
	if _, err := Parse("($10", false); err == nil {
		t.Error("missing ')' should error")
	}
	if _, err := Parse("[$10", false); err == nil {
		t.Error("missing ']' should error")
	}
	if _, err := Parse("($10,Z)", false); err == nil {
		t.Error("unknown indirect suffix should error")
	}
	if _, err := Parse("($10) extra", false); err == nil {
		t.Error("unexpected trailer after indirect operand should error")
	}
}

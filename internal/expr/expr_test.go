package expr

import "testing"

type testCtx struct {
	syms map[string]uint32
	pc   uint32
}

func (c *testCtx) Lookup(name string) (uint32, bool) {
	v, ok := c.syms[name]
	return v, ok
}

func (c *testCtx) PC() uint32 { return c.pc }

func eval(t *testing.T, text string, ctx Context) uint32 {
	t.Helper()
	v, rest, err := Evaluate(text, ctx)
	if err != nil {
		t.Fatalf("Evaluate(%q) error: %v", text, err)
	}
	if rest != "" {
		t.Fatalf("Evaluate(%q) left unconsumed remainder %q", text, rest)
	}
	return v
}

func TestLeftToRightNoPrecedence(t *testing.T) {
	ctx := &testCtx{syms: map[string]uint32{}}
	// A C-like precedence table would give 2+3*4=14; strictly left-to-right
	// gives (2+3)*4=20, per spec.md Sec.4.2's Open Question resolution.
	if v := eval(t, "2+3*4", ctx); v != 20 {
		t.Errorf("2+3*4 = %d, want 20 (left-to-right, no precedence)", v)
	}
}

func TestParenOverridesGrouping(t *testing.T) {
	ctx := &testCtx{syms: map[string]uint32{}}
	if v := eval(t, "2*(3+4)", ctx); v != 14 {
		t.Errorf("2*(3+4) = %d, want 14", v)
	}
}

func TestNumericLiterals(t *testing.T) {
	ctx := &testCtx{syms: map[string]uint32{}}
	cases := map[string]uint32{
		"$FF":   0xFF,
		"0xFF":  0xFF,
		"%1010": 0b1010,
		"42":    42,
		"'A'":   'A',
		"'\\n'": '\n',
	}
	for text, want := range cases {
		if v := eval(t, text, ctx); v != want {
			t.Errorf("eval(%q) = %#x, want %#x", text, v, want)
		}
	}
}

func TestPCLiteralAndSymbolLookup(t *testing.T) {
	ctx := &testCtx{syms: map[string]uint32{"FOO": 0x1234}, pc: 0x0300}
	if v := eval(t, "*", ctx); v != 0x0300 {
		t.Errorf("* = %#x, want PC 0x300", v)
	}
	if v := eval(t, "FOO", ctx); v != 0x1234 {
		t.Errorf("FOO = %#x, want 0x1234", v)
	}
	if v := eval(t, "FOO+1", ctx); v != 0x1235 {
		t.Errorf("FOO+1 = %#x, want 0x1235", v)
	}
}

func TestUndefinedSymbolDefaultsZero(t *testing.T) {
	ctx := &testCtx{syms: map[string]uint32{}}
	if v := eval(t, "UNDEFINED", ctx); v != 0 {
		t.Errorf("undefined symbol = %#x, want 0", v)
	}
}

func TestRegisterAlias(t *testing.T) {
	ctx := &testCtx{syms: map[string]uint32{}}
	if v := eval(t, "R0", ctx); v != 0 {
		t.Errorf("R0 = %#x, want 0", v)
	}
	if v := eval(t, "R4", ctx); v != 16 {
		t.Errorf("R4 = %#x, want 16 (register window offset = n*4)", v)
	}
}

func TestByteBankSelectors(t *testing.T) {
	ctx := &testCtx{syms: map[string]uint32{}}
	if v := eval(t, "<$12345678", ctx); v != 0x78 {
		t.Errorf("<$12345678 = %#x, want 0x78", v)
	}
	if v := eval(t, ">$12345678", ctx); v != 0x56 {
		t.Errorf(">$12345678 = %#x, want 0x56", v)
	}
	if v := eval(t, "^$12345678", ctx); v != 0x34 {
		t.Errorf("^$12345678 = %#x, want 0x34", v)
	}
}

func TestUnaryMinus(t *testing.T) {
	ctx := &testCtx{syms: map[string]uint32{}}
	if v := eval(t, "-1", ctx); v != 0xFFFFFFFF {
		t.Errorf("-1 = %#x, want 0xFFFFFFFF", v)
	}
}

func TestDivisionAndModuloByZero(t *testing.T) {
	ctx := &testCtx{syms: map[string]uint32{}}
	if _, _, err := Evaluate("1/0", ctx); err == nil {
		t.Error("1/0 should error")
	}
	if _, _, err := Evaluate("1%0", ctx); err == nil {
		t.Error("1%0 should error")
	}
}

func TestUnconsumedRemainderStopsAtUnknownOperator(t *testing.T) {
	ctx := &testCtx{syms: map[string]uint32{}}
	v, rest, err := Evaluate("1,2", ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 1 || rest != ",2" {
		t.Errorf("Evaluate(1,2) = %d, %q, want 1, \",2\"", v, rest)
	}
}

func TestMissingClosingParen(t *testing.T) {
	ctx := &testCtx{syms: map[string]uint32{}}
	if _, _, err := Evaluate("(1+2", ctx); err == nil {
		t.Error("expected an error for a missing ')'")
	}
}

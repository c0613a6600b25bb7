// Package operand decodes one M65832 assembler operand field into an
// addressing mode plus the expression text still needing evaluation, per
// spec.md Sec.4.3. Evaluation of the expression is deferred to the
// assembler's pass logic (internal/expr), since forward references are
// legal and the numeric magnitude of the result can affect mode choice.
package operand

import (
	"fmt"
	"strings"

	"github.com/benjcooley/m65832-sub008/internal/isa"
)

// Operand is the decoded shape of one operand field.
type Operand struct {
	Mode         isa.Mode
	Expr         string // expression text, not yet evaluated
	Expr2        string // block-move destination, or the ,expr indexed form
	IsHexLiteral bool
	HexDigits    int
	Accumulator  bool
}

// Parse decodes field (already trimmed of surrounding whitespace and any
// trailing comment) into an Operand. width32 is true when the active
// M/X mode selects 32-bit data, which affects how a bare hex literal is
// interpreted (spec.md Sec.4.3: 32-bit mode requires exactly 8 hex digits
// for an absolute-context literal).
func Parse(field string, width32 bool) (Operand, error) {
	f := strings.TrimSpace(field)
	if f == "" {
		return Operand{Mode: isa.Implied}, nil
	}

	if f == "A" || f == "a" {
		return Operand{Mode: isa.Accumulator, Accumulator: true}, nil
	}

	if strings.HasPrefix(f, "#") {
		return Operand{Mode: isa.Immediate, Expr: strings.TrimSpace(f[1:])}, nil
	}

	if strings.HasPrefix(f, "B+") || strings.HasPrefix(f, "b+") {
		// data-bank-relative absolute: same encoding as plain Absolute, the
		// "B+" spelling only makes the bank-relative intent explicit in source.
		expr := strings.TrimSpace(f[2:])
		return Operand{Mode: isa.Absolute, Expr: expr}, nil
	}

	if strings.HasPrefix(f, "[") {
		return parseLongIndirect(f)
	}
	if strings.HasPrefix(f, "(") {
		return parseIndirect(f)
	}

	return parseDirect(f, width32)
}

func parseLongIndirect(f string) (Operand, error) {
	close := strings.IndexByte(f, ']')
	if close < 0 {
		return Operand{}, fmt.Errorf("missing closing ']' in operand %q", f)
	}
	inner := strings.TrimSpace(f[1:close])
	rest := strings.TrimSpace(f[close+1:])
	switch {
	case rest == "":
		// [addr] for a hex literal wider than two digits, else [dp]
		if isHex, digits := hexLiteralInfo(inner); isHex && digits > 2 {
			return Operand{Mode: isa.AbsIndLong, Expr: inner}, nil
		}
		return Operand{Mode: isa.DPIndLong, Expr: inner}, nil
	case strings.EqualFold(rest, ",Y"):
		return Operand{Mode: isa.DPIndLongY, Expr: inner}, nil
	default:
		return Operand{}, fmt.Errorf("unexpected trailer %q after long-indirect operand", rest)
	}
}

func parseIndirect(f string) (Operand, error) {
	close := strings.IndexByte(f, ')')
	if close < 0 {
		return Operand{}, fmt.Errorf("missing closing ')' in operand %q", f)
	}
	inner := strings.TrimSpace(f[1:close])
	rest := strings.TrimSpace(f[close+1:])

	// interior ",X" => indexed-indirect (dp,X); interior ",S" => (sr,S)
	if idx := indexOfComma(inner); idx >= 0 {
		base := strings.TrimSpace(inner[:idx])
		suffix := strings.ToUpper(strings.TrimSpace(inner[idx+1:]))
		switch suffix {
		case "X":
			if rest != "" {
				return Operand{}, fmt.Errorf("unexpected trailer %q after indirect operand", rest)
			}
			// (addr,X) for a hex literal wider than two digits, else (dp,X)
			if isHex, digits := hexLiteralInfo(base); isHex && digits > 2 {
				return Operand{Mode: isa.AbsIndX, Expr: base}, nil
			}
			return Operand{Mode: isa.DPIndX, Expr: base}, nil
		case "S":
			return Operand{Mode: isa.StackRel, Expr: base}, nil
		default:
			return Operand{}, fmt.Errorf("unknown indirect suffix %q in operand %q", suffix, f)
		}
	}

	switch {
	case rest == "":
		return Operand{Mode: isa.DPInd, Expr: inner}, nil
	case strings.EqualFold(rest, ",Y"):
		return Operand{Mode: isa.DPIndY, Expr: inner}, nil
	default:
		return Operand{}, fmt.Errorf("unexpected trailer %q after indirect operand", rest)
	}
}

// indexOfComma finds a top-level comma in s, ignoring none (indirect
// interiors never nest parens in this ISA).
func indexOfComma(s string) int {
	return strings.IndexByte(s, ',')
}

func parseDirect(f string, width32 bool) (Operand, error) {
	// Block-move: "srcbank,dstbank" both bare expressions, no other suffix.
	if strings.Count(f, ",") == 1 && !strings.ContainsAny(f, "([") {
		parts := strings.SplitN(f, ",", 2)
		left := strings.TrimSpace(parts[0])
		right := strings.TrimSpace(parts[1])
		rightUpper := strings.ToUpper(right)
		if rightUpper != "X" && rightUpper != "Y" && rightUpper != "S" {
			return Operand{Mode: isa.BlockMove, Expr: left, Expr2: right}, nil
		}
		isHex, digits := hexLiteralInfo(left)
		switch rightUpper {
		case "X":
			return Operand{Mode: isa.AbsX, Expr: left, IsHexLiteral: isHex, HexDigits: digits}, nil
		case "Y":
			return Operand{Mode: isa.AbsY, Expr: left, IsHexLiteral: isHex, HexDigits: digits}, nil
		case "S":
			return Operand{Mode: isa.StackRel, Expr: left, IsHexLiteral: isHex, HexDigits: digits}, nil
		}
	}

	isHex, digits := hexLiteralInfo(f)
	if width32 && isHex && digits != 0 && digits != 8 {
		return Operand{}, fmt.Errorf("32-bit mode requires an 8-digit hex literal, got %d digits in %q", digits, f)
	}
	mode := isa.Absolute
	if isHex {
		switch {
		case digits <= 2:
			mode = isa.DP
		case digits <= 4:
			mode = isa.Absolute
		case digits <= 6:
			mode = isa.Long
		default:
			mode = isa.Abs32
		}
	}
	return Operand{Mode: mode, Expr: f, IsHexLiteral: isHex, HexDigits: digits}, nil
}

// hexLiteralInfo reports whether f is a bare "$xxxx"-style hex literal and
// how many hex digits it has, used to pick the narrowest addressing mode
// per spec.md Sec.4.3 ("DP <= 0xFF, ABS <= 0xFFFF, ABSL <= 0xFFFFFF, ABS32
// above").
func hexLiteralInfo(f string) (bool, int) {
	s := strings.TrimSpace(f)
	if !strings.HasPrefix(s, "$") {
		return false, 0
	}
	digits := s[1:]
	if digits == "" {
		return false, 0
	}
	for i := 0; i < len(digits); i++ {
		c := digits[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false, 0
		}
	}
	return true, len(digits)
}

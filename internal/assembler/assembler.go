/*
 * M65832 - Two-pass assembler
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

// Package assembler implements the M65832 two-pass assembler: source lines
// in, a flat byte image plus a symbol table and diagnostics out. Pass one
// walks every line computing addresses and instruction lengths, evaluating
// EQU values and origins as it goes and ignoring errors from references
// not yet defined (internal/operand already commits to an
// addressing mode from syntax alone, so no value-dependent sizing ambiguity
// survives into this package); pass two resolves every internal/expr
// expression against the now-complete symbol table and emits real bytes.
//
// Diagnostics accumulate rather than abort, the same discipline
// internal/sysconfig uses for a config file: one bad line should not hide
// every other line's errors from the programmer in a single run.
package assembler

import (
	"fmt"
	"strings"

	"github.com/benjcooley/m65832-sub008/internal/expr"
	"github.com/benjcooley/m65832-sub008/internal/isa"
)

// Diagnostic is one assembly error or warning, tagged with the source line
// it came from.
type Diagnostic struct {
	File    string
	Line    int
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: %s", d.File, d.Line, d.Message)
}

// Section is one contiguous emitted region, starting at Org.
type Section struct {
	Name string
	Org  uint32
	Data []byte
}

// ListLine is one line of the optional assembly listing: the address and
// encoded bytes a source line produced, alongside the source text itself.
type ListLine struct {
	Address uint32
	Bytes   []byte
	Source  string
}

// Result is everything Assemble produces.
type Result struct {
	Sections    []*Section
	Symbols     map[string]uint32
	Listing     []ListLine
	Diagnostics []Diagnostic
}

// symbolState tracks a symbol's value and whether it has actually been
// defined yet (vs. only referenced, per expr.Context's "0 if undefined"
// contract).
type symbolState struct {
	value   uint32
	defined bool
}

type assembler struct {
	file string

	mWidth isa.Width
	xWidth isa.Width

	pc      uint32
	section *Section
	sects   []*Section
	sectIdx map[string]int

	symbols map[string]*symbolState

	diags     []Diagnostic
	lineNo    int
	lastLabel string

	listing []ListLine
	pass    int
}

// Assemble runs both passes over src's lines and returns the assembled
// image, symbol table, listing and diagnostics. file is used only to tag
// diagnostics (e.g. the path the caller read src from).
func Assemble(file string, src string) Result {
	a := &assembler{
		file:    file,
		mWidth:  isa.Width8,
		xWidth:  isa.Width8,
		symbols: make(map[string]*symbolState),
		sectIdx: make(map[string]int),
	}
	lines := strings.Split(src, "\n")

	a.pass = 1
	a.runPass(lines)

	a.pass = 2
	a.pc = 0
	a.section = nil
	a.sects = nil
	a.sectIdx = make(map[string]int)
	a.mWidth, a.xWidth = isa.Width8, isa.Width8
	a.runPass(lines)

	symbols := make(map[string]uint32, len(a.symbols))
	for name, s := range a.symbols {
		if s.defined {
			symbols[name] = s.value
		}
	}

	return Result{
		Sections:    a.sects,
		Symbols:     symbols,
		Listing:     a.listing,
		Diagnostics: a.diags,
	}
}

func (a *assembler) runPass(lines []string) {
	a.ensureSection("CODE", 0)
	for i, raw := range lines {
		a.lineNo = i + 1
		a.processLine(raw)
	}
}

// lineNo is tracked as a field (rather than threaded through every helper)
// since diagnostics need it from deep inside operand/expression handling.
func (a *assembler) errorf(format string, args ...any) {
	a.diags = append(a.diags, Diagnostic{File: a.file, Line: a.lineNo, Message: fmt.Sprintf(format, args...)})
}

func (a *assembler) ensureSection(name string, org uint32) {
	if idx, ok := a.sectIdx[name]; ok {
		a.section = a.sects[idx]
		a.pc = a.section.Org + uint32(len(a.section.Data))
		return
	}
	s := &Section{Name: name, Org: org}
	a.sectIdx[name] = len(a.sects)
	a.sects = append(a.sects, s)
	a.section = s
	a.pc = org
}

// emit appends bytes to the current section in pass 2 only; pass 1 only
// advances a.pc, since the section slice itself is rebuilt from scratch on
// pass 2 (symbol values captured on pass 1 are authoritative by the time
// pass 2 runs).
func (a *assembler) emit(bytes []byte) {
	if a.pass == 2 && a.pc >= a.section.Org {
		// pad if a directive (e.g. .ORG) jumped the pc forward of the
		// section's current length
		if want := a.pc - a.section.Org; uint32(len(a.section.Data)) < want {
			a.section.Data = append(a.section.Data, make([]byte, want-uint32(len(a.section.Data)))...)
		}
		a.section.Data = append(a.section.Data, bytes...)
	}
	a.pc += uint32(len(bytes))
}

func (a *assembler) define(name string, value uint32) {
	name = strings.ToUpper(name)
	s, ok := a.symbols[name]
	if !ok {
		s = &symbolState{}
		a.symbols[name] = s
	}
	if a.pass == 1 && s.defined {
		a.errorf("symbol %q redefined", name)
		return
	}
	s.value = value
	s.defined = true
}

// Lookup implements expr.Context.
func (a *assembler) Lookup(name string) (uint32, bool) {
	s, ok := a.symbols[name]
	if !ok {
		s = &symbolState{}
		a.symbols[name] = s
	}
	return s.value, s.defined
}

// PC implements expr.Context.
func (a *assembler) PC() uint32 { return a.pc }

func (a *assembler) eval(text string) (uint32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("missing expression")
	}
	v, rest, err := expr.Evaluate(text, a)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(rest) != "" {
		return 0, fmt.Errorf("unexpected trailing text %q", rest)
	}
	return v, nil
}

func (a *assembler) processLine(raw string) {
	line := stripComment(raw)
	trimmed := strings.TrimRight(line, " \t\r")
	if strings.TrimSpace(trimmed) == "" {
		return
	}

	label, rest := splitLabel(trimmed)
	if label != "" {
		a.define(label, a.pc)
		a.lastLabel = label
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return
	}

	if strings.HasPrefix(rest, "*=") {
		a.directive("ORG", strings.TrimSpace(rest[2:]), trimmed)
		return
	}

	mnemonic, operandField := splitMnemonic(rest)
	upper := strings.ToUpper(mnemonic)

	if strings.HasPrefix(upper, ".") || isBareDirective(upper) {
		a.directive(upper, operandField, trimmed)
		return
	}

	a.instruction(mnemonic, operandField, trimmed)
}

// stripComment cuts at the first ';' not inside a single-quoted character
// literal, since "'”'" style comments-that-look-like-quotes never occur in
// this grammar but a branch target named with a stray ';' should still be
// possible to diagnose cleanly rather than silently truncated mid-string.
func stripComment(line string) string {
	inQuote := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\'':
			inQuote = !inQuote
		case ';':
			if !inQuote {
				return line[:i]
			}
		}
	}
	return line
}

// splitLabel recognizes a leading identifier as a label if it is not a
// known mnemonic (including a ".R" register-ALU form) or directive, per
// spec.md Sec.4.4 point 1. A trailing ':' always makes an unindented
// identifier a label; an indented line never carries a label.
func splitLabel(line string) (label, rest string) {
	trimmedLeft := strings.TrimLeft(line, " \t")
	indent := len(line) - len(trimmedLeft)
	if indent > 0 {
		// indented line: never a label, even if it starts with an identifier
		return "", line
	}
	i := 0
	for i < len(line) && isIdentCont(line[i]) {
		i++
	}
	if i == 0 {
		return "", line
	}
	name := line[:i]
	remainder := line[i:]
	if strings.HasPrefix(remainder, ":") {
		return name, remainder[1:]
	}
	upper := strings.ToUpper(name)
	if isa.IsKnownMnemonic(upper) || strings.HasPrefix(upper, ".") || isBareDirective(upper) || isBranchMnemonic(upper) {
		return "", line
	}
	if _, ok := splitRegisterALUSuffix(upper); ok {
		return "", line
	}
	return name, remainder
}

func isIdentCont(c byte) bool {
	return c == '_' || c == '.' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func splitMnemonic(line string) (mnemonic, rest string) {
	line = strings.TrimLeft(line, " \t")
	i := 0
	for i < len(line) && !isSpace(line[i]) {
		i++
	}
	return line[:i], strings.TrimSpace(line[i:])
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' }

func isBareDirective(upper string) bool {
	switch upper {
	case "MEMSIZE", "RESETVECTOR", "ORG", "EQU", "SET":
		return true
	default:
		return false
	}
}

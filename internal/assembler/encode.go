package assembler

import (
	"fmt"
	"strings"

	"github.com/benjcooley/m65832-sub008/internal/isa"
	"github.com/benjcooley/m65832-sub008/internal/operand"
)

// branchMnemonics are the Rel8 conditional/unconditional branches, plus the
// two Rel16 forms (BRL, PER) — these read their operand field as a bare
// expression rather than through operand.Parse's generic mode dispatch,
// since a branch target is never written with "#"/"("/"[" syntax.
var branchMnemonics = map[string]bool{
	"BPL": true, "BMI": true, "BVC": true, "BVS": true,
	"BCC": true, "BCS": true, "BNE": true, "BEQ": true,
	"BRA": true, "BRL": true, "PER": true,
}

func isBranchMnemonic(upper string) bool { return branchMnemonics[upper] }

// usesIndexWidth reports whether mnemonic's Immediate operand size follows
// X width instead of M width (LDX/LDY/CPX/CPY), matching the
// internal/disassembler's rule of the same name.
func usesIndexWidth(mnemonic string) bool {
	switch mnemonic {
	case "LDX", "LDY", "CPX", "CPY":
		return true
	default:
		return false
	}
}

func (a *assembler) instruction(mnemonic, operandField, raw string) {
	upper := strings.ToUpper(mnemonic)

	if base, ok := splitRegisterALUSuffix(upper); ok {
		a.registerALUInstruction(base, operandField, raw)
		return
	}

	// ROL/ROR name both a standard one-operand rotate and a three-operand
	// $E9 barrel-shift form; SHL/SHR/SAR only ever exist as the latter.
	// The comma count disambiguates ROL/ROR without needing operand.Parse
	// (which would otherwise happily mis-parse "dest,src,count" as a
	// single garbage Absolute expression, per operand.Parse's permissive
	// block-move/plain-expression fallback).
	if shiftOp, ok := isa.FindShift(upper); ok && strings.Count(operandField, ",") == 2 {
		a.shiftInstruction(upper, shiftOp, operandField, raw)
		return
	}
	if extOp, ok := isa.FindExtendOp(upper); ok {
		a.extendOpInstruction(upper, extOp, operandField, raw)
		return
	}

	if isBranchMnemonic(upper) {
		a.branchInstruction(upper, operandField, raw)
		return
	}

	if upper == "FLD" || upper == "FST" {
		a.fpuInstruction(upper, operandField, raw)
		return
	}

	op, err := operand.Parse(operandField, a.mWidth == isa.Width32)
	if err != nil {
		a.errorf("%s: %s", upper, err)
		return
	}

	if entry, ok := isa.FindMode(upper, op.Mode); ok {
		a.emitStandard(upper, entry, op, raw)
		return
	}

	// An 8-digit hex literal resolves to Abs32 in operand.Parse, which has
	// no standard-table row of its own (Abs32 only exists as the $42-WID
	// widened form of Absolute) — emit $42 plus the Absolute encoding.
	if op.Mode == isa.Abs32 {
		if entry, ok := isa.FindMode(upper, isa.Absolute); ok {
			a.emitWid(upper, entry, op, raw, 4)
			return
		}
	}

	if isa.IsExtendedALUMnemonic(upper) {
		a.errorf("%s has no standard encoding for this operand; use %s.R Rn,operand for a register-targeted form", upper, upper)
		return
	}

	if ext, ok := isa.FindExtended(upper, op.Mode); ok {
		a.emitExtended(upper, ext, op, raw)
		return
	}

	a.errorf("no addressing mode matches %s %s", upper, operandField)
}

func (a *assembler) currentWidth(mnemonic string) isa.Width {
	if usesStatusWidth(mnemonic) {
		return isa.Width8
	}
	if usesIndexWidth(mnemonic) {
		return a.xWidth
	}
	return a.mWidth
}

// usesStatusWidth reports whether mnemonic's Immediate operand is always a
// single byte regardless of the active M width — REP/SEP's mask operand
// sizes the status register itself, not an accumulator-width value, matching
// internal/cpu/exec.go's hardcoded isa.Width8 resolve for both.
func usesStatusWidth(mnemonic string) bool {
	switch mnemonic {
	case "REP", "SEP":
		return true
	default:
		return false
	}
}

// splitRegisterALUSuffix recognizes the "MNEMONIC.R" form the assembler
// uses to reach the $02 $E8 register-targeted ALU encoding (see
// SPEC_FULL.md Open Question 9 / internal/cpu/ext.go's regALU), since none
// of these mnemonics has a standard opcode of its own — LD/ADC/SBC/AND/
// ORA/EOR/CMP only exist as extendedALU table entries. The runtime
// descriptor byte only has room for a 3-bit op selector (see ext.go's
// regALU doc comment), so only the binary (non-Unary) extendedALU
// entries — the ones isa.FindExtendedALU reports as such — are reachable
// through this form; BIT/TSB/TRB/STZ/INC/DEC/ASL/LSR/ROL/ROR keep their
// standard-opcode encodings at whatever width the current M state gives
// them instead.
func splitRegisterALUSuffix(upper string) (base string, ok bool) {
	base, suffix, found := strings.Cut(upper, ".")
	if !found || suffix != "R" {
		return "", false
	}
	_, unary, _, known := isa.FindExtendedALU(base)
	if !known || unary {
		return "", false
	}
	if _, hasEncoding := regALUOpField[base]; !hasEncoding {
		return "", false
	}
	return base, true
}

// regALUOpField mirrors internal/cpu/ext.go's regALU op:3 encoding — the
// subset of isa.FindExtendedALU's binary entries this descriptor byte has
// room to select among.
var regALUOpField = map[string]byte{
	"LD": 0, "ADC": 1, "SBC": 2, "AND": 3, "ORA": 4, "EOR": 5, "CMP": 6,
}

// regALUModeField mirrors internal/cpu/ext.go's regALUModes table, mapping
// an addressing mode back to its 3-bit selector.
var regALUModeField = map[isa.Mode]byte{
	isa.Immediate: 0, isa.DP: 1, isa.Accumulator: 2, isa.DPIndX: 3,
	isa.DPIndY: 4, isa.Absolute: 5, isa.StackRel: 6, isa.DPInd: 7,
}

// registerALUInstruction assembles "MNEMONIC.R Rn,srcOperand" into
// $02 $E8 <op:3|size:2|mode:3> <destDP> <source operand bytes...>.
func (a *assembler) registerALUInstruction(base string, operandField string, raw string) {
	left, right, found := strings.Cut(operandField, ",")
	if !found {
		a.errorf("%s.R requires Rn,operand", base)
		return
	}
	regNum, regOK := parseRegisterOperand(strings.TrimSpace(left))
	if !regOK {
		a.errorf("%s.R: %q is not a register (expected R0-R63)", base, left)
		return
	}

	op, err := operand.Parse(strings.TrimSpace(right), a.mWidth == isa.Width32)
	if err != nil {
		a.errorf("%s.R: %s", base, err)
		return
	}
	modeField, ok := regALUModeField[op.Mode]
	if !ok {
		a.errorf("%s.R: addressing mode not valid as a register-ALU source", base)
		return
	}

	sizeField := byte(0)
	switch a.mWidth {
	case isa.Width16:
		sizeField = 1
	case isa.Width32:
		sizeField = 2
	}

	descriptor := (regALUOpField[base] << 5) | (sizeField << 3) | modeField
	bytes := []byte{isa.ExtendedPrefix, isa.RegisterALUOpcode, descriptor, byte(regNum * 4)}
	operandBytes, err := a.encodeOperandBytes(op, a.mWidth)
	if err != nil {
		a.errorf("%s.R: %s", base, err)
	}
	bytes = append(bytes, operandBytes...)
	a.record(raw, bytes)
}

// parseRegisterOperand parses "Rn" (n in 0..63), matching
// internal/expr's registerNumber alias, for the destination slot only
// (the register window's general-purpose registers address as DP offsets
// n*4, per internal/cpu/addressing.go's register-window mapping).
func parseRegisterOperand(s string) (int, bool) {
	upper := strings.ToUpper(s)
	if len(upper) < 2 || upper[0] != 'R' {
		return 0, false
	}
	n := 0
	for i := 1; i < len(upper); i++ {
		if upper[i] < '0' || upper[i] > '9' {
			return 0, false
		}
		n = n*10 + int(upper[i]-'0')
	}
	if n > 63 {
		return 0, false
	}
	return n, true
}

// shiftInstruction assembles "SHL dest,src,count" (or "SHL dest,src,A" to
// take the count from the accumulator) into $02 $E9 <op:3|count:5> destDP
// srcDP, matching internal/cpu/ext.go's barrelShift.
func (a *assembler) shiftInstruction(mnemonic string, op isa.ShiftOp, operandField, raw string) {
	parts := splitArgs(operandField)
	if len(parts) != 3 {
		a.errorf("%s requires dest,src,count", mnemonic)
		return
	}
	destDP, ok := a.evalDPOffset(parts[0])
	if !ok {
		return
	}
	srcDP, ok := a.evalDPOffset(parts[1])
	if !ok {
		return
	}
	var count byte
	if strings.EqualFold(strings.TrimSpace(parts[2]), "A") {
		count = 0x1F
	} else {
		v, err := a.eval(parts[2])
		if err != nil {
			a.errorf("%s: %s", mnemonic, err)
			return
		}
		if v > 0x1E {
			a.errorf("%s: count %d out of range (0-30, or A)", mnemonic, v)
			return
		}
		count = byte(v)
	}
	descriptor := (byte(op) << 5) | count
	a.record(raw, []byte{isa.ExtendedPrefix, isa.BarrelShifterOpcode, descriptor, destDP, srcDP})
}

// extendOpInstruction assembles "SEXT8 dest,src" into
// $02 $EA <subop> destDP srcDP, matching internal/cpu/ext.go's extendOp.
func (a *assembler) extendOpInstruction(mnemonic string, op isa.ExtendOp, operandField, raw string) {
	parts := splitArgs(operandField)
	if len(parts) != 2 {
		a.errorf("%s requires dest,src", mnemonic)
		return
	}
	destDP, ok := a.evalDPOffset(parts[0])
	if !ok {
		return
	}
	srcDP, ok := a.evalDPOffset(parts[1])
	if !ok {
		return
	}
	a.record(raw, []byte{isa.ExtendedPrefix, isa.ExtendOpsOpcode, byte(op), destDP, srcDP})
}

func (a *assembler) evalDPOffset(expr string) (byte, bool) {
	v, err := a.eval(expr)
	if err != nil {
		a.errorf("%s", err)
		return 0, false
	}
	if v > 0xFF {
		a.errorf("direct-page offset %d out of range", v)
		return 0, false
	}
	return byte(v), true
}

func (a *assembler) branchInstruction(mnemonic, operandField, raw string) {
	entry, ok := isa.FindMode(mnemonic, isa.Rel8)
	rel16 := false
	if !ok {
		entry, ok = isa.FindMode(mnemonic, isa.Rel16)
		rel16 = true
	}
	if !ok {
		a.errorf("%s has no encoding", mnemonic)
		return
	}
	target, err := a.eval(operandField)
	if err != nil {
		a.errorf("%s: %s", mnemonic, err)
		return
	}
	instrLen := uint32(entry.Length)
	disp := int64(target) - int64(a.pc+instrLen)

	bytes := make([]byte, 0, entry.Length)
	bytes = append(bytes, entry.Opcode)
	if rel16 {
		if disp < -32768 || disp > 32767 {
			if a.pass == 2 {
				a.errorf("%s: branch target out of 16-bit range", mnemonic)
			}
			disp = 0
		}
		bytes = append(bytes, byte(disp), byte(disp>>8))
	} else {
		if disp < -128 || disp > 127 {
			if a.pass == 2 {
				a.errorf("%s: branch target out of 8-bit range, use BRL/long form", mnemonic)
			}
			disp = 0
		}
		bytes = append(bytes, byte(disp))
	}
	a.record(raw, bytes)
}

// emitStandard encodes a plain (mnemonic, mode) standard-table hit.
func (a *assembler) emitStandard(mnemonic string, entry isa.Entry, op operand.Operand, raw string) {
	bytes := []byte{entry.Opcode}
	width := a.currentWidth(mnemonic)
	operandBytes, err := a.encodeOperandBytes(op, width)
	if err != nil {
		a.errorf("%s: %s", mnemonic, err)
		return
	}
	bytes = append(bytes, operandBytes...)
	a.record(raw, bytes)
}

// emitWid wraps a standard entry in the $42 WID prefix, forcing a
// widthOverride-byte-wide operand regardless of the assembler's current
// M/X width state.
func (a *assembler) emitWid(mnemonic string, entry isa.Entry, op operand.Operand, raw string, widthOverrideBytes int) {
	bytes := []byte{isa.WidPrefix, entry.Opcode}
	operandBytes, err := a.encodeOperandBytesFixed(op, widthOverrideBytes)
	if err != nil {
		a.errorf("%s: %s", mnemonic, err)
		return
	}
	bytes = append(bytes, operandBytes...)
	a.record(raw, bytes)
}

func (a *assembler) emitExtended(mnemonic string, ext byte, op operand.Operand, raw string) {
	bytes := []byte{isa.ExtendedPrefix, ext}
	// Immediate width only matters for TRAP among the $02-family mnemonics
	// (every other Immediate-capable entry here is SETD's Imm32, which
	// encodeOperandBytes already sizes from the mode, not from width); TRAP's
	// syscall number is always a single byte (internal/cpu/ext.go's TRAP
	// case does one c.fetchByte(), not a width-dependent fetch).
	operandBytes, err := a.encodeOperandBytes(op, isa.Width8)
	if err != nil {
		a.errorf("%s: %s", mnemonic, err)
		return
	}
	bytes = append(bytes, operandBytes...)
	a.record(raw, bytes)
}

// fpuMode maps a standard addressing mode (as parsed from the operand
// text that follows "Fn,") to its FPU-specific counterpart, per
// internal/cpu/addressing.go's FPUDP/FPUAbsolute/FPULong/FPUIndirect cases.
var fpuMode = map[isa.Mode]isa.Mode{
	isa.DP:       isa.FPUDP,
	isa.Absolute: isa.FPUAbsolute,
	isa.Long:     isa.FPULong,
	isa.DPInd:    isa.FPUIndirect,
}

// fpuInstruction assembles "FLD Fn,operand" / "FST Fn,operand". FLD/FST
// take an explicit register index ahead of the usual addressing bytes, a
// shape operand.Parse's generic comma handling cannot express (it would
// otherwise read "Fn,operand" as a block-move pair), so the register is
// split off before handing the remainder to operand.Parse.
func (a *assembler) fpuInstruction(mnemonic, operandField, raw string) {
	left, rest, found := strings.Cut(operandField, ",")
	if !found {
		a.errorf("%s requires Fn,operand", mnemonic)
		return
	}
	fr, ok := parseFPURegister(strings.TrimSpace(left))
	if !ok {
		a.errorf("%s: %q is not a register (expected F0-F3)", mnemonic, left)
		return
	}
	op, err := operand.Parse(strings.TrimSpace(rest), a.mWidth == isa.Width32)
	if err != nil {
		a.errorf("%s: %s", mnemonic, err)
		return
	}
	fm, ok := fpuMode[op.Mode]
	if !ok {
		a.errorf("%s: addressing mode not valid for an FPU operand", mnemonic)
		return
	}
	ext, ok := isa.FindExtended(mnemonic, fm)
	if !ok {
		a.errorf("%s has no encoding for this addressing mode", mnemonic)
		return
	}
	bytes := []byte{isa.ExtendedPrefix, ext, fr}
	operandBytes, err := a.encodeOperandBytes(op, isa.Width8)
	if err != nil {
		a.errorf("%s: %s", mnemonic, err)
		return
	}
	bytes = append(bytes, operandBytes...)
	a.record(raw, bytes)
}

func parseFPURegister(s string) (byte, bool) {
	if len(s) != 2 || (s[0] != 'F' && s[0] != 'f') || s[1] < '0' || s[1] > '3' {
		return 0, false
	}
	return s[1] - '0', true
}

// encodeOperandBytes evaluates op's expression(s) and renders them as the
// byte sequence appropriate to op.Mode, with Immediate sized by width.
func (a *assembler) encodeOperandBytes(op operand.Operand, width isa.Width) ([]byte, error) {
	switch op.Mode {
	case isa.Implied, isa.Accumulator:
		return nil, nil
	case isa.Immediate:
		return a.encodeOperandBytesFixed(op, int(width)/8)
	case isa.DP, isa.DPX, isa.DPY, isa.DPInd, isa.DPIndX, isa.DPIndY,
		isa.DPIndLong, isa.DPIndLongY, isa.StackRel, isa.StackRelIndY:
		return a.exprBytes(op.Expr, 1)
	case isa.Absolute, isa.AbsX, isa.AbsY, isa.AbsInd, isa.AbsIndX, isa.AbsIndLong:
		return a.exprBytes(op.Expr, 2)
	case isa.Long, isa.LongX:
		return a.exprBytes(op.Expr, 3)
	case isa.Abs32, isa.Imm32:
		return a.exprBytes(op.Expr, 4)
	case isa.FPUDP, isa.FPUIndirect:
		return a.exprBytes(op.Expr, 1)
	case isa.FPUAbsolute:
		return a.exprBytes(op.Expr, 2)
	case isa.FPULong:
		return a.exprBytes(op.Expr, 3)
	case isa.BlockMove:
		// spec.md Sec.4.3: the operand is written "srcbank,destbank", but
		// internal/cpu/exec.go's blockMove (and addressing.go's resolve)
		// fetch destBank before srcBank, so the encoded byte order is
		// reversed from the source syntax order.
		dst, err := a.exprBytes(op.Expr2, 1)
		if err != nil {
			return nil, err
		}
		src, err := a.exprBytes(op.Expr, 1)
		if err != nil {
			return nil, err
		}
		return append(dst, src...), nil
	default:
		return nil, fmt.Errorf("unsupported addressing mode in encoder")
	}
}

func (a *assembler) encodeOperandBytesFixed(op operand.Operand, numBytes int) ([]byte, error) {
	return a.exprBytes(op.Expr, numBytes)
}

func (a *assembler) exprBytes(text string, numBytes int) ([]byte, error) {
	v, err := a.eval(text)
	if err != nil {
		if a.pass != 2 {
			return make([]byte, numBytes), nil
		}
		return nil, err
	}
	buf := make([]byte, numBytes)
	for i := 0; i < numBytes; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	return buf, nil
}

// record appends one instruction's encoded bytes to the current section
// (pass 2) or just advances the pc (pass 1), and, on pass 2, appends a
// listing line.
func (a *assembler) record(raw string, bytes []byte) {
	addr := a.pc
	a.emit(bytes)
	if a.pass == 2 {
		a.listing = append(a.listing, ListLine{Address: addr, Bytes: bytes, Source: raw})
	}
}

package cpu

import "github.com/benjcooley/m65832-sub008/internal/isa"

// execExtendedPrefix executes the second byte of a $02-prefixed
// instruction, per spec.md Sec.4.7. $E8/$E9/$EA route to their own
// descriptor-byte sub-decoders (regALU, barrelShift, extendOp); every
// other second byte is looked up in isa.DecodeExtended and dispatched by
// mnemonic, mirroring execStandard's shape one level down.
func (c *CPU) execExtendedPrefix() (Trap, int) {
	sub := c.fetchByte()

	switch sub {
	case isa.RegisterALUOpcode:
		return c.regALU()
	case isa.BarrelShifterOpcode:
		return c.barrelShift()
	case isa.ExtendOpsOpcode:
		return c.extendOp()
	}

	d, ok := isa.DecodeExtended(sub)
	if !ok {
		if c.compatMode() {
			return TrapNone, 2
		}
		return c.raiseIllegalOp(), 2
	}

	mw := c.MWidth()

	switch d.Mnemonic {
	case "MUL", "MULU":
		o := c.resolve(d.Mode, mw)
		rhs := c.loadOperand(o, mw)
		var lo, hi uint32
		if d.Mnemonic == "MUL" {
			prod := int64(int32(signExtend(c.A, mw))) * int64(int32(signExtend(rhs, mw)))
			lo, hi = uint32(prod), uint32(prod>>32)
		} else {
			prod := uint64(c.A) * uint64(rhs)
			lo, hi = uint32(prod), uint32(prod>>32)
		}
		c.A, c.T = lo, hi
		c.setNZ(c.A, isa.Width32)
		return TrapNone, 6

	case "DIV", "DIVU":
		o := c.resolve(d.Mode, mw)
		rhs := c.loadOperand(o, mw)
		if rhs == 0 {
			return c.raiseIllegalOp(), 6
		}
		if d.Mnemonic == "DIV" {
			q := int32(signExtend(c.A, mw)) / int32(signExtend(rhs, mw))
			r := int32(signExtend(c.A, mw)) % int32(signExtend(rhs, mw))
			c.A, c.T = uint32(q), uint32(r)
		} else {
			c.A, c.T = c.A/rhs, c.A%rhs
		}
		c.setNZ(c.A, isa.Width32)
		return TrapNone, 14

	case "CAS":
		o := c.resolve(d.Mode, mw)
		cur := c.loadOperand(o, mw)
		if cur == maskWidth(c.X, mw) {
			c.storeOperand(o, mw, c.A)
			c.SetZero(true)
		} else {
			c.X = c.X&^widthMask(mw) | cur
			c.SetZero(false)
		}
		return TrapNone, 5

	case "LL":
		o := c.resolve(d.Mode, mw)
		v := c.loadOperand(o, mw)
		c.A = c.A&^widthMask(mw) | v
		c.LL = reservation{addr: o.addr, valid: true}
		return TrapNone, 4

	case "SC":
		o := c.resolve(d.Mode, mw)
		if c.LL.valid && c.LL.addr == o.addr {
			c.storeOperand(o, mw, c.A)
			c.SetZero(true)
		} else {
			c.SetZero(false)
		}
		c.LL.valid = false
		return TrapNone, 5

	case "SETD":
		o := c.resolve(d.Mode, isa.Width32)
		c.D = c.loadOperand(o, isa.Width32)
		return TrapNone, 4

	case "SETB":
		o := c.resolve(d.Mode, isa.Width32)
		c.B = c.loadOperand(o, isa.Width32)
		return TrapNone, 4

	case "RWEN":
		c.SetRegWindow(true)
		return TrapNone, 2

	case "RWDIS":
		c.SetRegWindow(false)
		return TrapNone, 2

	case "TRAP":
		imm := c.fetchByte()
		return c.trapSyscall(imm), 8

	case "FENCE", "FENCER", "FENCEW":
		return TrapNone, 2

	case "TTA":
		c.T = c.A
		return TrapNone, 2

	case "TAT":
		c.A = c.T
		return TrapNone, 2

	case "LDQ":
		if d.Mode == isa.Implied {
			return TrapNone, 2
		}
		o := c.resolve(d.Mode, isa.Width32)
		c.A = c.ReadWord32(o.addr)
		c.T = c.ReadWord32(o.addr + 4)
		return TrapNone, 7

	case "STQ":
		if d.Mode == isa.Implied {
			return TrapNone, 2
		}
		o := c.resolve(d.Mode, isa.Width32)
		c.WriteWord32(o.addr, c.A)
		c.WriteWord32(o.addr+4, c.T)
		return TrapNone, 7

	case "LEA":
		o := c.resolve(d.Mode, mw)
		c.A = o.addr
		return TrapNone, 3

	case "FLD":
		fr := c.fetchByte() & 3
		o := c.resolve(d.Mode, isa.Width32)
		lo := c.ReadWord32(o.addr)
		hi := c.ReadWord32(o.addr + 4)
		c.F[fr] = uint64(lo) | uint64(hi)<<32
		return TrapNone, 6

	case "FST":
		fr := c.fetchByte() & 3
		o := c.resolve(d.Mode, isa.Width32)
		c.WriteWord32(o.addr, uint32(c.F[fr]))
		c.WriteWord32(o.addr+4, uint32(c.F[fr]>>32))
		return TrapNone, 6
	}

	if c.compatMode() {
		return TrapNone, 2
	}
	return c.raiseIllegalOp(), 2
}

// signExtend widens v, read at width w, to a full 32-bit two's-complement
// value, for the signed MUL/DIV variants.
func signExtend(v uint32, w isaWidth) uint32 {
	v = maskWidth(v, w)
	if v&signBit(w) == 0 {
		return v
	}
	return v | ^widthMask(w)
}

// regALUModes lists the eight addressing modes the $E8 register-ALU
// descriptor byte's mode field selects among — the subset of standard
// modes that make sense as an ALU source operand.
var regALUModes = [8]isa.Mode{
	isa.Immediate, isa.DP, isa.Accumulator, isa.DPIndX,
	isa.DPIndY, isa.Absolute, isa.StackRel, isa.DPInd,
}

// regALU executes a $02 $E8 register-targeted ALU instruction. The byte
// following $E8 packs (op:3 | size:2 | mode:3); a destination DP offset
// byte always follows, since $E8 specifically targets a register
// (spec.md Sec.4.7). This folds the "byte after the opcode" descriptor
// and the `$02 $opcode $mode-byte` extended-ALU shape from Sec.4.4 into
// one encoding, since the literal op/size/target/mode bit widths Sec.4.7
// lists do not leave room for a 7-way op selector alongside a 32-entry
// mode field; see DESIGN.md.
func (c *CPU) regALU() (Trap, int) {
	descriptor := c.fetchByte()
	op := (descriptor >> 5) & 0x7
	sizeField := (descriptor >> 3) & 0x3
	modeIdx := descriptor & 0x7
	destDP := c.fetchByte()

	w := isa.DecodeWidth(sizeField)
	mode := regALUModes[modeIdx]
	o := c.resolve(mode, w)
	src := c.loadOperand(o, w)

	destAddr := c.dpAddr(destDP)
	destOperand := operand{addr: destAddr, isMem: true}
	dest := c.loadOperand(destOperand, w)

	var result uint32
	write := true
	switch op {
	case 0: // LD
		result = src
	case 1: // ADC
		result = c.adc(dest, src, w)
	case 2: // SBC
		result = c.sbc(dest, src, w)
	case 3: // AND
		result = dest & src
	case 4: // ORA
		result = dest | src
	case 5: // EOR
		result = dest ^ src
	case 6: // CMP
		c.compare(dest, src, w)
		write = false
	default:
		write = false
	}
	if write {
		c.storeOperand(destOperand, w, result)
		c.setNZ(result, w)
	}
	return TrapNone, 6
}

// barrelShift executes a $02 $E9 instruction. The descriptor byte packs
// (op:3 | count:5); count==0x1F means "take the shift count from A"
// instead of an immediate count. dest_dp and src_dp follow, per the
// (dest, src, count|A) operand shape spec.md Sec.4.4 describes for the
// shifter sub-opcodes.
func (c *CPU) barrelShift() (Trap, int) {
	descriptor := c.fetchByte()
	opField := (descriptor >> 5) & 0x7
	count := descriptor & 0x1F
	destDP := c.fetchByte()
	srcDP := c.fetchByte()

	w := c.MWidth()
	srcAddr := c.dpAddr(srcDP)
	v := c.loadOperand(operand{addr: srcAddr, isMem: true}, w)

	var n uint32
	if count == 0x1F {
		n = c.A & 0x1F
	} else {
		n = uint32(count)
	}

	var result uint32
	var carryOut bool
	bits := uint32(w)
	switch isa.ShiftOp(opField) {
	case isa.ShiftSHL:
		wide := uint64(v) << (n % 32)
		result = uint32(wide) & widthMask(w)
		carryOut = n > 0 && n <= bits && wide&(1<<bits) != 0
	case isa.ShiftSHR:
		result = v >> (n % 32)
		carryOut = n > 0 && n <= bits && (v>>(n-1))&1 != 0
	case isa.ShiftSAR:
		sv := int32(signExtend(v, w))
		result = uint32(sv>>(n%32)) & widthMask(w)
		carryOut = n > 0 && (v>>(n-1))&1 != 0
	case isa.ShiftROL:
		nn := n % bits
		result = ((v << nn) | (v >> (bits - nn))) & widthMask(w)
		carryOut = result&1 != 0
	case isa.ShiftROR:
		nn := n % bits
		result = ((v >> nn) | (v << (bits - nn))) & widthMask(w)
		carryOut = result&signBit(w) != 0
	}

	c.SetCarry(carryOut)
	c.storeOperand(operand{addr: c.dpAddr(destDP), isMem: true}, w, result)
	c.setNZ(result, w)
	return TrapNone, 6
}

// extendOp executes a $02 $EA instruction: a sub-opcode byte selects
// SEXT8/16, ZEXT8/16, CLZ, CTZ or POPCNT, applied from src_dp to
// dest_dp (spec.md Sec.4.7).
func (c *CPU) extendOp() (Trap, int) {
	sub := c.fetchByte()
	destDP := c.fetchByte()
	srcDP := c.fetchByte()

	w := c.MWidth()
	v := c.loadOperand(operand{addr: c.dpAddr(srcDP), isMem: true}, w)

	var result uint32
	switch isa.ExtendOp(sub) {
	case isa.ExtSEXT8:
		result = signExtend(v, isa.Width8)
	case isa.ExtSEXT16:
		result = signExtend(v, isa.Width16)
	case isa.ExtZEXT8:
		result = v & 0xFF
	case isa.ExtZEXT16:
		result = v & 0xFFFF
	case isa.ExtCLZ:
		result = uint32(clz32(v, w))
	case isa.ExtCTZ:
		result = uint32(ctz32(v, w))
	case isa.ExtPOPCNT:
		result = uint32(popcount32(v))
	default:
		if c.compatMode() {
			return TrapNone, 2
		}
		return c.raiseIllegalOp(), 2
	}

	c.storeOperand(operand{addr: c.dpAddr(destDP), isMem: true}, w, result)
	c.setNZ(result, w)
	return TrapNone, 4
}

func clz32(v uint32, w isaWidth) int {
	bits := int(w)
	v &= widthMask(w)
	n := 0
	for i := bits - 1; i >= 0; i-- {
		if v&(1<<uint(i)) != 0 {
			break
		}
		n++
	}
	return n
}

func ctz32(v uint32, w isaWidth) int {
	bits := int(w)
	v &= widthMask(w)
	if v == 0 {
		return bits
	}
	n := 0
	for v&1 == 0 {
		v >>= 1
		n++
	}
	return n
}

func popcount32(v uint32) int {
	n := 0
	for v != 0 {
		v &= v - 1
		n++
	}
	return n
}

// execWidPrefix executes the $42 WID prefix: it forces the next
// instruction's Immediate/Absolute operand to 32 bits regardless of the
// current M width (spec.md Sec.4.7). Only opcodes whose mode admits a
// widened form are legal after $42; anything else follows the same
// compat/trap split as an unknown $02 tail.
func (c *CPU) execWidPrefix() (Trap, int) {
	opcode := c.fetchByte()
	d, ok := isa.Decode(opcode)
	if !ok || !widensUnder42(d.Mode) {
		if c.compatMode() {
			return TrapNone, 2
		}
		return c.raiseIllegalOp(), 2
	}

	widened := d
	switch d.Mode {
	case isa.Immediate:
		widened.Mode = isa.Imm32
	case isa.Absolute:
		widened.Mode = isa.Abs32
	}

	// execStandard reads operand/register width from P.M/P.X, not from
	// the addressing mode, so WID also has to force those widths for the
	// one instruction it prefixes, then restore them.
	savedM, savedX := c.MWidth(), c.XWidth()
	c.setMWidth(isa.Width32)
	c.setXWidth(isa.Width32)
	trap := c.execStandard(widened)
	c.setMWidth(savedM)
	c.setXWidth(savedX)

	return trap, d.Entry.Cycles + 1
}

// widensUnder42 reports whether mode has a defined 32-bit counterpart
// reachable through the $42 prefix.
func widensUnder42(mode isa.Mode) bool {
	switch mode {
	case isa.Immediate, isa.Absolute:
		return true
	default:
		return false
	}
}

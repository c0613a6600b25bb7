package cpu

import "github.com/benjcooley/m65832-sub008/internal/isa"

// fetchByte reads the byte at PC and advances PC, going through the full
// access-layer pipeline (instruction fetches are still subject to MMU
// translation and MMIO, per spec.md Sec.4.6).
func (c *CPU) fetchByte() byte {
	v := c.ReadByte(c.PC)
	c.PC++
	return v
}

func (c *CPU) fetchWord16() uint16 {
	lo := uint16(c.fetchByte())
	hi := uint16(c.fetchByte())
	return lo | hi<<8
}

func (c *CPU) fetchWord24() uint32 {
	b0 := uint32(c.fetchByte())
	b1 := uint32(c.fetchByte())
	b2 := uint32(c.fetchByte())
	return b0 | b1<<8 | b2<<16
}

func (c *CPU) fetchWord32() uint32 {
	b0 := uint32(c.fetchByte())
	b1 := uint32(c.fetchByte())
	b2 := uint32(c.fetchByte())
	b3 := uint32(c.fetchByte())
	return b0 | b1<<8 | b2<<16 | b3<<24
}

func maskWidth(v uint32, w isaWidth) uint32 {
	switch w {
	case isa.Width8:
		return v & 0xFF
	case isa.Width16:
		return v & 0xFFFF
	default:
		return v
	}
}

func signBit(w isaWidth) uint32 {
	switch w {
	case isa.Width8:
		return 0x80
	case isa.Width16:
		return 0x8000
	default:
		return 0x80000000
	}
}

// dpAddr resolves a direct-page operand byte to a physical address,
// honoring the register-window redirect: when P.R is set, DP offsets
// 0..0xFC access the register file R0..R63 instead of physical memory
// (spec.md Sec.4.7's "register-window" paragraph). The register file is
// modeled as a reserved address window just below the system-register
// aperture so ordinary byte accesses pick it up with no extra branch in
// the hot path; see registerWindowBase.
func (c *CPU) dpAddr(offset byte) uint32 {
	if c.RegWindow() && offset <= 0xFC {
		return registerWindowBase + uint32(offset)
	}
	return c.D + uint32(offset)
}

// registerWindowBase is an address range reserved for R0..R63 when the
// register window is active; it is never reachable by ordinary DP
// arithmetic (D is a 32-bit register, but DP encodes only a one-byte
// offset, so a window placed above all 32-bit physical addresses a real
// program could compute keeps the two address spaces from colliding).
const registerWindowBase uint32 = 0xFFFF0000

// operand describes the decoded effective-address/immediate for one
// instruction, produced by resolve and consumed by the mnemonic
// executors in exec.go.
type operand struct {
	addr        uint32
	imm         uint32
	isMem       bool
	isAcc       bool
	isImplied   bool
	mvSrcBank   byte
	mvDstBank   byte
}

// resolve computes the effective address or immediate value for mode,
// advancing PC past the operand bytes. dataWidth selects the immediate
// size for Immediate (M-width) vs index-register contexts (X-width);
// callers pass whichever is appropriate for the instruction class.
func (c *CPU) resolve(mode isa.Mode, dataWidth isaWidth) operand {
	switch mode {
	case isa.Implied:
		return operand{isImplied: true}
	case isa.Accumulator:
		return operand{isAcc: true}
	case isa.Immediate:
		return operand{imm: c.fetchImmediate(dataWidth), isImplied: false}
	case isa.DP:
		return operand{addr: c.dpAddr(c.fetchByte()), isMem: true}
	case isa.DPX:
		return operand{addr: c.dpAddr(c.fetchByte()) + c.X, isMem: true}
	case isa.DPY:
		return operand{addr: c.dpAddr(c.fetchByte()) + c.Y, isMem: true}
	case isa.Absolute:
		return operand{addr: c.B + uint32(c.fetchWord16()), isMem: true}
	case isa.AbsX:
		return operand{addr: c.B + uint32(c.fetchWord16()) + c.X, isMem: true}
	case isa.AbsY:
		return operand{addr: c.B + uint32(c.fetchWord16()) + c.Y, isMem: true}
	case isa.DPInd:
		ptr := c.dpAddr(c.fetchByte())
		return operand{addr: c.B + uint32(c.ReadWord16(ptr)), isMem: true}
	case isa.DPIndX:
		ptr := c.dpAddr(c.fetchByte()) + c.X
		return operand{addr: c.B + uint32(c.ReadWord16(ptr)), isMem: true}
	case isa.DPIndY:
		ptr := c.dpAddr(c.fetchByte())
		return operand{addr: c.B + uint32(c.ReadWord16(ptr)) + c.Y, isMem: true}
	case isa.DPIndLong:
		ptr := c.dpAddr(c.fetchByte())
		return operand{addr: c.ReadWord24(ptr), isMem: true}
	case isa.DPIndLongY:
		ptr := c.dpAddr(c.fetchByte())
		return operand{addr: c.ReadWord24(ptr) + c.Y, isMem: true}
	case isa.Long:
		return operand{addr: c.fetchWord24(), isMem: true}
	case isa.LongX:
		return operand{addr: c.fetchWord24() + c.X, isMem: true}
	case isa.StackRel:
		off := c.fetchByte()
		return operand{addr: c.S + uint32(off), isMem: true}
	case isa.StackRelIndY:
		off := c.fetchByte()
		ptr := c.S + uint32(off)
		return operand{addr: c.B + uint32(c.ReadWord16(ptr)) + c.Y, isMem: true}
	case isa.AbsInd:
		ptr := uint32(c.fetchWord16())
		return operand{addr: uint32(c.ReadWord16(ptr)), isMem: true}
	case isa.AbsIndX:
		ptr := uint32(c.fetchWord16()) + c.X
		return operand{addr: c.B + uint32(c.ReadWord16(ptr)), isMem: true}
	case isa.AbsIndLong:
		ptr := uint32(c.fetchWord16())
		return operand{addr: c.ReadWord24(ptr), isMem: true}
	case isa.Rel8:
		disp := int8(c.fetchByte())
		return operand{addr: uint32(int64(c.PC) + int64(disp)), isMem: false}
	case isa.Rel16:
		disp := int16(c.fetchWord16())
		return operand{addr: uint32(int64(c.PC) + int64(disp)), isMem: false}
	case isa.Abs32:
		return operand{addr: c.fetchWord32(), isMem: true}
	case isa.Imm32:
		return operand{imm: c.fetchWord32()}
	case isa.BlockMove:
		return operand{mvDstBank: c.fetchByte(), mvSrcBank: c.fetchByte()}
	case isa.FPUDP:
		return operand{addr: c.dpAddr(c.fetchByte()), isMem: true}
	case isa.FPUAbsolute:
		return operand{addr: c.B + uint32(c.fetchWord16()), isMem: true}
	case isa.FPULong:
		return operand{addr: c.fetchWord24(), isMem: true}
	case isa.FPUIndirect:
		ptr := c.dpAddr(c.fetchByte())
		return operand{addr: c.B + uint32(c.ReadWord16(ptr)), isMem: true}
	default:
		return operand{isImplied: true}
	}
}

func (c *CPU) fetchImmediate(w isaWidth) uint32 {
	switch w {
	case isa.Width8:
		return uint32(c.fetchByte())
	case isa.Width16:
		return uint32(c.fetchWord16())
	default:
		return c.fetchWord32()
	}
}

// load/store through the resolved operand, at width w.
func (c *CPU) loadOperand(o operand, w isaWidth) uint32 {
	if o.isAcc {
		return maskWidth(c.A, w)
	}
	if !o.isMem {
		return maskWidth(o.imm, w)
	}
	switch w {
	case isa.Width8:
		return uint32(c.ReadByte(o.addr))
	case isa.Width16:
		return uint32(c.ReadWord16(o.addr))
	default:
		return c.ReadWord32(o.addr)
	}
}

func (c *CPU) storeOperand(o operand, w isaWidth, v uint32) {
	v = maskWidth(v, w)
	if o.isAcc {
		c.A = c.A&^widthMask(w) | v
		return
	}
	switch w {
	case isa.Width8:
		c.WriteByte(o.addr, byte(v))
	case isa.Width16:
		c.WriteWord16(o.addr, uint16(v))
	default:
		c.WriteWord32(o.addr, v)
	}
}

func widthMask(w isaWidth) uint32 {
	switch w {
	case isa.Width8:
		return 0xFF
	case isa.Width16:
		return 0xFFFF
	default:
		return 0xFFFFFFFF
	}
}

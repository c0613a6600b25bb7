package cpu

// Trap is the emulator's single error/event return type, per spec.md
// Sec.7 — never a Go error, so the hot dispatch loop stays allocation
// free (mirrored on the teacher's uint16 irc return convention in
// emu/cpu/cpu.go).
type Trap int

const (
	TrapNone Trap = iota
	TrapBRK
	TrapCOP
	TrapIRQ
	TrapNMI
	TrapABORT
	TrapPageFault
	TrapSyscall
	TrapIllegalOp
	TrapPrivilege
	TrapBreakpoint
	TrapWatchpoint
)

func (t Trap) String() string {
	switch t {
	case TrapNone:
		return "None"
	case TrapBRK:
		return "BRK"
	case TrapCOP:
		return "COP"
	case TrapIRQ:
		return "IRQ"
	case TrapNMI:
		return "NMI"
	case TrapABORT:
		return "ABORT"
	case TrapPageFault:
		return "PageFault"
	case TrapSyscall:
		return "Syscall"
	case TrapIllegalOp:
		return "IllegalOp"
	case TrapPrivilege:
		return "Privilege"
	case TrapBreakpoint:
		return "Breakpoint"
	case TrapWatchpoint:
		return "Watchpoint"
	default:
		return "Unknown"
	}
}

// Fatal reports whether the run loop should stop on this trap, per
// spec.md Sec.7: PageFault (no handler installed — here, always fatal
// since there's no host-supplied fault handler hook), IllegalOp in
// strict (non-compat) mode, Privilege, Watchpoint and Breakpoint stop
// the loop; BRK/COP/Syscall/IRQ/NMI/ABORT continue through their
// vectored handlers.
func (t Trap) Fatal() bool {
	switch t {
	case TrapPageFault, TrapIllegalOp, TrapPrivilege, TrapWatchpoint, TrapBreakpoint:
		return true
	default:
		return false
	}
}

// deliver pushes the 4-byte PC and 2-byte P, sets P.I and P.S, and loads
// PC from vector, per spec.md Sec.4.8 — unconditionally, regardless of E,
// which is what lets RTI switch modes on return.
func (c *CPU) deliver(vector uint32) {
	c.pushWord32(c.PC)
	c.pushWord16(c.P)
	c.SetIRQDisable(true)
	c.SetSupervisor(true)
	lo := uint32(c.ReadByte(vector))
	b1 := uint32(c.ReadByte(vector + 1))
	b2 := uint32(c.ReadByte(vector + 2))
	b3 := uint32(c.ReadByte(vector + 3))
	if c.Emulation() {
		c.PC = lo | b1<<8
	} else {
		c.PC = lo | b1<<8 | b2<<16 | b3<<24
	}
}

// checkPendingInterrupts implements spec.md Sec.4.8's priority: ABORT >
// NMI > IRQ (IRQ only if P.I==0). Called once per step before fetch.
func (c *CPU) checkPendingInterrupts() Trap {
	if c.abortPending {
		c.abortPending = false
		c.deliver(VecABORT)
		return TrapABORT
	}
	if c.nmiPending {
		c.nmiPending = false
		c.deliver(VecNMI)
		return TrapNMI
	}
	if c.irqPending && !c.IRQDisable() {
		c.deliver(VecIRQ)
		return TrapIRQ
	}
	return TrapNone
}

// raisePageFault records FAULTVA/MMUCR fault type and delivers the
// page-fault vector, per spec.md Sec.4.6.
func (c *CPU) raisePageFault(va uint32, fault MMUFault) Trap {
	c.FaultVA = va
	c.MMUCR = (c.MMUCR &^ 0xFF00) | uint32(fault)<<8
	c.deliver(VecPageFault)
	return TrapPageFault
}

// raisePrivilege delivers the illegal-op vector's sibling: there is no
// separate privilege vector in spec.md's table, so privilege violations
// vector through illegal-op, matching the "stop but leave state
// inspectable" contract.
func (c *CPU) raisePrivilege() Trap {
	c.deliver(VecIllegal)
	return TrapPrivilege
}

func (c *CPU) raiseIllegalOp() Trap {
	c.deliver(VecIllegal)
	return TrapIllegalOp
}

// brk implements the BRK opcode: pushes the address after the opcode (no
// signature byte, diverging from the 65816), sets P.I, clears P.D,
// enters supervisor mode, then vectors.
func (c *CPU) brk() Trap {
	c.SetDecimal(false)
	c.deliver(VecBRK)
	return TrapBRK
}

func (c *CPU) cop() Trap {
	c.deliver(VecCOP)
	return TrapCOP
}

// trapSyscall implements the $02 $40 TRAP #imm8 extended instruction:
// vectors to VEC_SYSCALL + 4*imm.
func (c *CPU) trapSyscall(imm byte) Trap {
	c.deliver(VecSyscall + 4*uint32(imm))
	return TrapSyscall
}

// rti always pulls a 16-bit P followed by a 32-bit PC, regardless of E,
// per spec.md Sec.4.8.
func (c *CPU) rti() Trap {
	c.P = c.popWord16()
	c.PC = c.popWord32()
	return TrapNone
}

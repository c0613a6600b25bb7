package cpu

import "github.com/benjcooley/m65832-sub008/internal/isa"

// Step runs exactly one fetch-decode-execute cycle, or one interrupt
// delivery if a higher-priority line is pending, per spec.md Sec.4.8's
// per-step priority check (ABORT > NMI > IRQ) and Sec.4.7's fetch-decode
// contract. It returns the Trap raised, if any, and accumulates cycles
// on the CPU's Cycles counter either way.
func (c *CPU) Step() Trap {
	if !c.StoppedByStp {
		if trap := c.checkPendingInterrupts(); trap != TrapNone {
			c.Stopped = false
			c.tick(7)
			return trap
		}
	}

	// WAI leaves the CPU parked with PC sitting just past the WAI opcode;
	// until an interrupt actually arrives there is nothing to fetch, so
	// each Step just spends a cycle polling rather than re-executing
	// whatever instruction comes next in memory. STP also sets Stopped,
	// and the pending-interrupt check above is skipped while
	// StoppedByStp is set, so it never clears — matching its "halted
	// until Reset" contract. An IRQ masked by P.I still ends a WAI park,
	// without being delivered: execution continues after the WAI.
	if c.Stopped {
		if !c.StoppedByStp && c.irqPending {
			c.Stopped = false
		} else {
			c.tick(1)
			return TrapNone
		}
	}

	startPC := c.PC
	opcode := c.fetchByte()

	var trap Trap
	var cycles int

	switch opcode {
	case isa.ExtendedPrefix:
		trap, cycles = c.execExtendedPrefix()
	case isa.WidPrefix:
		trap, cycles = c.execWidPrefix()
	default:
		d, ok := isa.Decode(opcode)
		if !ok {
			trap = c.raiseIllegalOp()
			cycles = 2
		} else {
			trap = c.execStandard(d)
			cycles = d.Entry.Cycles
		}
	}

	if c.pendingTrap != TrapNone {
		trap = c.pendingTrap
		c.pendingTrap = TrapNone
	}

	if c.Trace != nil {
		// Step reports only the retired instruction's start address and
		// cost; the text argument is always empty, and cmd/m65832emu's
		// verbose callback prints it as is, without disassembling.
		c.Trace(startPC, "", cycles)
	}

	c.tick(cycles)
	return trap
}

// tick advances the cycle counter and runs the timer, per spec.md
// Sec.4.9: TIMER_CNT increments by the instruction's cycle count, and
// crossing TIMER_CMP with the enable bits set raises IRQ.
func (c *CPU) tick(cycles int) {
	c.Cycles += uint64(cycles)
	if cycles <= 0 {
		return
	}
	const (
		timerEnable    = 1 << 0
		timerIRQEnable = 1 << 1
	)
	before := c.TimerCnt
	c.TimerCnt += uint32(cycles)
	if c.TimerCtrl&timerEnable != 0 && before < c.TimerCmp && c.TimerCnt >= c.TimerCmp {
		if c.TimerCtrl&timerIRQEnable != 0 {
			c.AssertIRQ()
		}
	}
}

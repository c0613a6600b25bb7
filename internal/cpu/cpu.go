/*
   CPU state for the M65832 simulator

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   ROBERT M SUPNIK BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

// Package cpu implements the M65832 instruction interpreter: fetch-decode-
// execute, the memory access layer (MMIO/MMU/watchpoints), the exception
// model, and the cycle-counting run loop. There is no package-level CPU
// singleton — spec.md Sec.9's cyclic-ownership note and Sec.5's
// concurrency model both require the owner of a *CPU to be explicit, a
// deliberate departure from the teacher's emu/cpu sysCPU/memory globals.
package cpu

import (
	"log/slog"

	"github.com/benjcooley/m65832-sub008/internal/memory"
)

// P status-register bit positions, low to high, per spec.md Sec.3.
const (
	PC_ byte = 1 << iota // Carry
	PZ                   // Zero
	PI                   // IRQ disable
	PD                   // Decimal
	PX0                  // X width bit 0
	PX1                  // X width bit 1
	PM0                  // M width bit 0
	PM1                  // M width bit 1
)

const (
	PV byte = 1 << iota // Overflow (high byte, bit 0 here == bit 8 overall)
	PN                  // Negative
	PE                  // Emulation mode
	PS                  // Supervisor
	PR                  // Register-window enable
	PK                  // Compatibility flag
)

// Reset-vector and system-register aperture addresses, per spec.md Sec.6.
const (
	ResetVectorAddr uint32 = 0xFFFC
	SysRegBase      uint32 = 0xFFFFF000
	SysRegEnd       uint32 = 0xFFFFF0FF

	SysMMUCR      uint32 = 0x00
	SysTLBInval   uint32 = 0x04
	SysASID       uint32 = 0x08
	SysASIDInval  uint32 = 0x0C
	SysFaultVA    uint32 = 0x10
	SysPTBRLo     uint32 = 0x14
	SysPTBRHi     uint32 = 0x18
	SysTLBFlush   uint32 = 0x1C
	SysTimerCtrl  uint32 = 0x40
	SysTimerCmp   uint32 = 0x44
	SysTimerCnt   uint32 = 0x48
)

// Vector table entries, per spec.md Sec.4.8; the table lives at the top
// of the 32-bit address space.
const (
	VecReset     uint32 = 0xFFFFFFE0
	VecBRK       uint32 = 0xFFFFFFE4
	VecCOP       uint32 = 0xFFFFFFE8
	VecIRQ       uint32 = 0xFFFFFFEC
	VecNMI       uint32 = 0xFFFFFFF0
	VecABORT     uint32 = 0xFFFFFFF4
	VecPageFault uint32 = 0xFFFFFFF8
	VecIllegal   uint32 = 0xFFFFFFFC
	VecSyscall   uint32 = 0xFFFFF800 // 256 slots of 4 bytes below the fixed vectors
)

// reservation is the single LL/SC reservation, per spec.md Sec.3.
type reservation struct {
	addr  uint32
	valid bool
}

// tlbEntry is one of the 16 round-robin TLB slots, per spec.md Sec.4.6.
type tlbEntry struct {
	vpn, ppn uint32
	asid     byte
	flags    byte
	valid    bool
}

// Region is one MMIO device's address-range registration, per spec.md
// Sec.3/Sec.9: devices are values with a stable index into CPU.MMIO, not
// back-pointers into the CPU.
type Region struct {
	Base, Size uint32
	ReadFn     func(ctx any, off uint32, width int) uint32
	WriteFn    func(ctx any, off uint32, width int, val uint32)
	Ctx        any
	Active     bool
}

// Watchpoint is a host-side debug range, checked on every access per
// spec.md Sec.4.6 point 1.
type Watchpoint struct {
	Base, Size uint32
	OnRead     bool
	OnWrite    bool
}

// Config configures a new CPU instance.
type Config struct {
	MemSize     uint32          // flat RAM size, ignored if Callback is set
	Callback    memory.ReadWriteByte
	ResetVector uint32 // if 0, read from the 16-bit vector at 0xFFFC
	Logger      *slog.Logger
}

// CPU is one M65832 processor instance: registers, MMU, MMIO table and
// memory, all owned directly — never a package-level global (spec.md
// Sec.9).
type CPU struct {
	A, X, Y, D, B, T, S, PC uint32
	P                       uint16 // status word, low byte then high byte per the PC_/PV_ consts above

	// F holds the four 64-bit FPU registers the $02 $B0-$BB FLD/FST
	// extended opcodes address; spec.md Sec.4.7 does not define any FPU
	// arithmetic opcodes, only load/store, so there is no execution unit
	// behind these beyond the move.
	F [4]uint64

	Mem  *memory.Memory
	MMIO []Region
	Wps  []Watchpoint

	TLB     [16]tlbEntry
	tlbNext int

	MMUCR       uint32
	ASID        byte
	PTBR        uint64
	FaultVA     uint32
	TLBInvalReg uint32

	LL reservation

	// pendingTrap records the most recent trap raised by an access-layer
	// call (watchpoint hit, page fault, privilege violation) so the
	// interpreter can check it once after each memory operation rather
	// than threading an error return through every addressing-mode
	// helper.
	pendingTrap Trap

	TimerCtrl, TimerCmp, TimerCnt uint32

	irqPending, nmiPending, abortPending bool

	Cycles  uint64
	Stopped bool

	// StoppedByStp distinguishes a STP-halted CPU (Stopped true, never
	// resumes on its own) from a WAI-parked one (Stopped true, resumes as
	// soon as an interrupt line asserts) — both share Stopped since both
	// poll rather than fetch, but only WAI's parking should be cleared by
	// checkPendingInterrupts.
	StoppedByStp bool

	Trace func(pc uint32, text string, cycles int)
	log   *slog.Logger
}

// New constructs a CPU instance. Call Reset before stepping.
func New(cfg Config) *CPU {
	var mem *memory.Memory
	if cfg.Callback != nil {
		mem = memory.NewCallback(cfg.Callback)
	} else {
		mem = memory.New(cfg.MemSize)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &CPU{Mem: mem, log: logger}
	c.Reset(cfg.ResetVector)
	return c
}

// Reset restores architectural defaults, per spec.md Sec.3's Lifecycle
// note: emulation mode, supervisor, IRQ disabled, decimal flag set, PC
// loaded from the reset vector (or the override in resetVector, if
// nonzero).
func (c *CPU) Reset(resetVector uint32) {
	c.A, c.X, c.Y, c.D, c.B, c.T, c.S = 0, 0, 0, 0, 0, 0, 0
	c.P = uint16(PD) | uint16(PI) | uint16(PE)<<8 | uint16(PS)<<8
	c.MMUCR = 0
	c.ASID = 0
	c.PTBR = 0
	c.FaultVA = 0
	c.TLBInvalReg = 0
	c.pendingTrap = TrapNone
	c.LL = reservation{}
	c.TimerCtrl, c.TimerCmp, c.TimerCnt = 0, 0, 0
	c.irqPending, c.nmiPending, c.abortPending = false, false, false
	c.Cycles = 0
	c.Stopped = false
	c.StoppedByStp = false
	for i := range c.TLB {
		c.TLB[i] = tlbEntry{}
	}
	c.tlbNext = 0

	if resetVector != 0 {
		c.PC = resetVector
		return
	}
	lo := uint32(c.readByteRaw(ResetVectorAddr))
	hi := uint32(c.readByteRaw(ResetVectorAddr + 1))
	c.PC = lo | hi<<8
}

// RegisterMMIO appends an MMIO region and returns its stable index.
func (c *CPU) RegisterMMIO(r Region) int {
	r.Active = true
	c.MMIO = append(c.MMIO, r)
	return len(c.MMIO) - 1
}

// RegisterWatchpoint appends a watchpoint and returns its index.
func (c *CPU) RegisterWatchpoint(w Watchpoint) int {
	c.Wps = append(c.Wps, w)
	return len(c.Wps) - 1
}

// AssertIRQ, AssertNMI, AssertAbort raise the corresponding interrupt
// line. IRQ is level-sensitive (masked by P.I); NMI/ABORT are edge-style
// per spec.md Sec.3.
func (c *CPU) AssertIRQ()   { c.irqPending = true }
func (c *CPU) AssertNMI()   { c.nmiPending = true }
func (c *CPU) AssertAbort() { c.abortPending = true }

// --- P status-word field accessors ---

func (c *CPU) flagLo(bit byte) bool { return byte(c.P)&bit != 0 }
func (c *CPU) flagHi(bit byte) bool { return byte(c.P>>8)&bit != 0 }

func (c *CPU) setFlagLo(bit byte, v bool) {
	lo := byte(c.P)
	if v {
		lo |= bit
	} else {
		lo &^= bit
	}
	c.P = uint16(lo) | c.P&0xFF00
}

func (c *CPU) setFlagHi(bit byte, v bool) {
	hi := byte(c.P >> 8)
	if v {
		hi |= bit
	} else {
		hi &^= bit
	}
	c.P = uint16(hi)<<8 | c.P&0x00FF
}

func (c *CPU) Carry() bool      { return c.flagLo(PC_) }
func (c *CPU) Zero() bool       { return c.flagLo(PZ) }
func (c *CPU) IRQDisable() bool { return c.flagLo(PI) }
func (c *CPU) Decimal() bool    { return c.flagLo(PD) }
func (c *CPU) Overflow() bool   { return c.flagHi(PV) }
func (c *CPU) Negative() bool   { return c.flagHi(PN) }
func (c *CPU) Emulation() bool  { return c.flagHi(PE) }
func (c *CPU) Supervisor() bool { return c.flagHi(PS) }
func (c *CPU) RegWindow() bool  { return c.flagHi(PR) }
func (c *CPU) Compat() bool     { return c.flagHi(PK) }

func (c *CPU) SetCarry(v bool)      { c.setFlagLo(PC_, v) }
func (c *CPU) SetZero(v bool)       { c.setFlagLo(PZ, v) }
func (c *CPU) SetIRQDisable(v bool) { c.setFlagLo(PI, v) }
func (c *CPU) SetDecimal(v bool)    { c.setFlagLo(PD, v) }
func (c *CPU) SetOverflow(v bool)   { c.setFlagHi(PV, v) }
func (c *CPU) SetNegative(v bool)   { c.setFlagHi(PN, v) }
func (c *CPU) SetEmulation(v bool)  { c.setFlagHi(PE, v) }
func (c *CPU) SetSupervisor(v bool) { c.setFlagHi(PS, v) }
func (c *CPU) SetRegWindow(v bool)  { c.setFlagHi(PR, v) }

// MWidth and XWidth decode the two-bit M/X width fields, per spec.md
// Sec.3/Sec.6 — honored even in emulation mode, unlike the real 65816.
func (c *CPU) MWidth() isaWidth {
	return decodeWidthBits(c.flagLo(PM1), c.flagLo(PM0))
}

func (c *CPU) XWidth() isaWidth {
	return decodeWidthBits(c.flagLo(PX1), c.flagLo(PX0))
}

func (c *CPU) setMWidth(w isaWidth) {
	b1, b0 := encodeWidthBits(w)
	c.setFlagLo(PM1, b1)
	c.setFlagLo(PM0, b0)
}

func (c *CPU) setXWidth(w isaWidth) {
	b1, b0 := encodeWidthBits(w)
	c.setFlagLo(PX1, b1)
	c.setFlagLo(PX0, b0)
}

// compatMode implements spec.md Sec.4.7's "compat := (M_width == 32) OR
// K_flag", which governs whether unknown $02/$42 tails are NOPs or traps.
func (c *CPU) compatMode() bool {
	return c.MWidth() == 32 || c.Compat()
}

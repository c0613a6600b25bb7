package cpu

// MMUFault enumerates the page-table-walk failure kinds, per spec.md
// Sec.4.6.
type MMUFault byte

const (
	FaultNone MMUFault = iota
	FaultL1NotPresent
	FaultNotPresent
	FaultUserSuper
	FaultWriteProtect
	FaultNoExecute
)

const (
	mmucrEnablePaging = 1 << 0

	pteFlagPresent  = 1 << 0
	pteFlagWritable = 1 << 1
	pteFlagUser     = 1 << 2
	pteFlagGlobal   = 1 << 3
	pteFlagNoExec   = 1 << 4
)

// accessDirection distinguishes read/write/execute for watchpoint and
// permission checks.
type accessDirection int

const (
	accessRead accessDirection = iota
	accessWrite
	accessExecute
)

// readByteRaw bypasses every policy layer: used only during Reset to
// fetch the boot vector before any MMIO/MMU state exists.
func (c *CPU) readByteRaw(addr uint32) byte {
	return c.Mem.ReadByte(addr)
}

// checkWatchpoints records (but never blocks) a matching access, per
// spec.md Sec.4.6 point 1: "If a match occurs, record a watchpoint trap
// but still complete the access."
func (c *CPU) checkWatchpoints(addr uint32, dir accessDirection) bool {
	hit := false
	for _, w := range c.Wps {
		if addr < w.Base || addr >= w.Base+w.Size {
			continue
		}
		if (dir == accessRead && w.OnRead) || (dir == accessWrite && w.OnWrite) {
			hit = true
		}
	}
	return hit
}

// ReadByte runs the full C7 access policy: watchpoint check, system-
// register aperture, MMIO table, MMU translation, flat array — in that
// order, per spec.md Sec.4.6.
func (c *CPU) ReadByte(addr uint32) byte {
	v, _ := c.accessByte(addr, 0, accessRead)
	return v
}

// WriteByte runs the same policy for a write, and invalidates the LL/SC
// reservation if addr matches it.
func (c *CPU) WriteByte(addr uint32, v byte) {
	c.accessByte(addr, v, accessWrite)
	if c.LL.valid && c.LL.addr == addr {
		c.LL.valid = false
	}
}

// accessByte applies the access policy to one byte and records any fault
// it raises in pendingTrap, which the interpreter checks after every
// memory operation it performs.
func (c *CPU) accessByte(addr uint32, writeVal byte, dir accessDirection) (byte, Trap) {
	dirForWP := dir
	if c.checkWatchpoints(addr, dirForWP) {
		c.pendingTrap = TrapWatchpoint
	}

	if addr >= SysRegBase && addr <= SysRegEnd {
		if !c.Supervisor() {
			c.pendingTrap = TrapPrivilege
			return 0, TrapPrivilege
		}
		if dir == accessWrite {
			c.sysRegWrite(addr-SysRegBase, writeVal)
			return 0, TrapNone
		}
		return c.sysRegRead(addr - SysRegBase), TrapNone
	}

	if idx, off, ok := c.findMMIO(addr); ok {
		r := &c.MMIO[idx]
		if dir == accessWrite {
			if r.WriteFn != nil {
				r.WriteFn(r.Ctx, off, 8, uint32(writeVal))
			}
			return 0, TrapNone
		}
		if r.ReadFn != nil {
			return byte(r.ReadFn(r.Ctx, off, 8)), TrapNone
		}
		return 0, TrapNone
	}

	if c.MMUCR&mmucrEnablePaging != 0 {
		phys, fault := c.translate(addr, dir)
		if fault != FaultNone {
			trap := c.raisePageFault(addr, fault)
			c.pendingTrap = trap
			return 0, trap
		}
		addr = phys
	}

	if dir == accessWrite {
		c.Mem.WriteByte(addr, writeVal)
		return 0, TrapNone
	}
	return c.Mem.ReadByte(addr), TrapNone
}

func (c *CPU) findMMIO(addr uint32) (idx int, offset uint32, ok bool) {
	for i := range c.MMIO {
		r := &c.MMIO[i]
		if !r.Active {
			continue
		}
		if addr >= r.Base && addr < r.Base+r.Size {
			return i, addr - r.Base, true
		}
	}
	return 0, 0, false
}

// ReadWord16/ReadWord32/WriteWord16/WriteWord32 compose little-endian
// byte accesses through the same ReadByte/WriteByte pipeline, per
// spec.md Sec.4.6's last paragraph.
func (c *CPU) ReadWord16(addr uint32) uint16 {
	lo := uint16(c.ReadByte(addr))
	hi := uint16(c.ReadByte(addr + 1))
	return lo | hi<<8
}

func (c *CPU) WriteWord16(addr uint32, v uint16) {
	c.WriteByte(addr, byte(v))
	c.WriteByte(addr+1, byte(v>>8))
}

func (c *CPU) ReadWord32(addr uint32) uint32 {
	b0 := uint32(c.ReadByte(addr))
	b1 := uint32(c.ReadByte(addr + 1))
	b2 := uint32(c.ReadByte(addr + 2))
	b3 := uint32(c.ReadByte(addr + 3))
	return b0 | b1<<8 | b2<<16 | b3<<24
}

func (c *CPU) WriteWord32(addr uint32, v uint32) {
	c.WriteByte(addr, byte(v))
	c.WriteByte(addr+1, byte(v>>8))
	c.WriteByte(addr+2, byte(v>>16))
	c.WriteByte(addr+3, byte(v>>24))
}

// ReadWord24 reads a 24-bit long address operand (little-endian).
func (c *CPU) ReadWord24(addr uint32) uint32 {
	b0 := uint32(c.ReadByte(addr))
	b1 := uint32(c.ReadByte(addr + 1))
	b2 := uint32(c.ReadByte(addr + 2))
	return b0 | b1<<8 | b2<<16
}

// --- system register bank, 0xFFFFF000..0xFFFFF0FF ---

func (c *CPU) sysRegRead(off uint32) byte {
	switch {
	case off == SysMMUCR:
		return byte(c.MMUCR)
	case off == SysMMUCR+1:
		return byte(c.MMUCR >> 8)
	case off == SysMMUCR+2:
		return byte(c.MMUCR >> 16)
	case off == SysMMUCR+3:
		return byte(c.MMUCR >> 24)
	case off == SysASID:
		return c.ASID
	case off == SysFaultVA, off == SysFaultVA+1, off == SysFaultVA+2, off == SysFaultVA+3:
		return byte(c.FaultVA >> (8 * (off - SysFaultVA)))
	case off == SysPTBRLo, off == SysPTBRLo+1, off == SysPTBRLo+2, off == SysPTBRLo+3:
		return byte(c.PTBR >> (8 * (off - SysPTBRLo)))
	case off == SysPTBRHi, off == SysPTBRHi+1, off == SysPTBRHi+2, off == SysPTBRHi+3:
		return byte(c.PTBR >> (32 + 8*(off-SysPTBRHi)))
	case off == SysTimerCtrl:
		return byte(c.TimerCtrl)
	case off >= SysTimerCmp && off < SysTimerCmp+4:
		return byte(c.TimerCmp >> (8 * (off - SysTimerCmp)))
	case off >= SysTimerCnt && off < SysTimerCnt+4:
		return byte(c.TimerCnt >> (8 * (off - SysTimerCnt)))
	default:
		return 0
	}
}

func (c *CPU) sysRegWrite(off uint32, v byte) {
	shiftSet := func(cur uint32, idx uint32) uint32 {
		shift := 8 * idx
		mask := uint32(0xFF) << shift
		return (cur &^ mask) | uint32(v)<<shift
	}
	switch {
	case off < 4:
		c.MMUCR = shiftSet(c.MMUCR, off)
	case off >= SysTLBInval && off < SysTLBInval+4:
		c.TLBInvalReg = shiftSet(c.TLBInvalReg, off-SysTLBInval)
		if off == SysTLBInval+3 {
			c.tlbInvalidate(c.TLBInvalReg, false)
		}
	case off == SysASID:
		c.ASID = v
	case off == SysASIDInval:
		c.tlbInvalidateASID(c.ASID)
	case off >= SysFaultVA && off < SysFaultVA+4:
		c.FaultVA = shiftSet(c.FaultVA, off-SysFaultVA)
	case off >= SysPTBRLo && off < SysPTBRLo+4:
		lo := uint32(c.PTBR)
		lo = shiftSet(lo, off-SysPTBRLo)
		c.PTBR = c.PTBR&0xFFFFFFFF00000000 | uint64(lo)
	case off >= SysPTBRHi && off < SysPTBRHi+4:
		hi := uint32(c.PTBR >> 32)
		hi = shiftSet(hi, off-SysPTBRHi)
		c.PTBR = c.PTBR&0x00000000FFFFFFFF | uint64(hi)<<32
	case off == SysTLBFlush:
		c.tlbFlush()
	case off == SysTimerCtrl:
		c.TimerCtrl = uint32(v)
	case off >= SysTimerCmp && off < SysTimerCmp+4:
		c.TimerCmp = shiftSet(c.TimerCmp, off-SysTimerCmp)
	case off >= SysTimerCnt && off < SysTimerCnt+4:
		c.TimerCnt = shiftSet(c.TimerCnt, off-SysTimerCnt)
	}
}

// --- TLB and two-level page table walk ---

const (
	pageOffsetBits = 12
	l2IndexBits    = 10
	l1IndexBits    = 10
	pteSize        = 8
)

func splitVA(va uint32) (l1, l2, offset uint32) {
	offset = va & (1<<pageOffsetBits - 1)
	l2 = (va >> pageOffsetBits) & (1<<l2IndexBits - 1)
	l1 = (va >> (pageOffsetBits + l2IndexBits)) & (1<<l1IndexBits - 1)
	return
}

// translate resolves va to a physical address via the TLB, walking the
// page tables on a miss, per spec.md Sec.4.6's "Page-table walk"
// paragraph.
func (c *CPU) translate(va uint32, dir accessDirection) (uint32, MMUFault) {
	vpn := va >> pageOffsetBits
	for i := range c.TLB {
		e := &c.TLB[i]
		if e.valid && e.vpn == vpn && (e.flags&pteFlagGlobal != 0 || e.asid == c.ASID) {
			if fault := c.checkPermission(e.flags, dir); fault != FaultNone {
				return 0, fault
			}
			return e.ppn<<pageOffsetBits | (va & (1<<pageOffsetBits - 1)), FaultNone
		}
	}

	l1, l2, offset := splitVA(va)
	l1Base := uint32(c.PTBR) // physical base of the L1 table
	l1Entry := c.readPTERaw(l1Base + l1*pteSize)
	if l1Entry&pteFlagPresent == 0 {
		return 0, FaultL1NotPresent
	}
	l2Base := (l1Entry >> pageOffsetBits) << pageOffsetBits
	l2Entry := c.readPTERaw(l2Base + l2*pteSize)
	if l2Entry&pteFlagPresent == 0 {
		return 0, FaultNotPresent
	}
	if fault := c.checkPermission(byte(l2Entry), dir); fault != FaultNone {
		return 0, fault
	}

	ppn := l2Entry >> pageOffsetBits
	c.tlbInsert(vpn, ppn, byte(l2Entry))
	return ppn<<pageOffsetBits | offset, FaultNone
}

func (c *CPU) checkPermission(flags byte, dir accessDirection) MMUFault {
	if flags&pteFlagUser == 0 && !c.Supervisor() {
		return FaultUserSuper
	}
	if dir == accessWrite && flags&pteFlagWritable == 0 {
		return FaultWriteProtect
	}
	if dir == accessExecute && flags&pteFlagNoExec != 0 {
		return FaultNoExecute
	}
	return FaultNone
}

// readPTERaw reads one 8-byte page-table entry directly from physical
// memory (page-table walks are never themselves subject to MMU
// translation).
func (c *CPU) readPTERaw(addr uint32) uint32 {
	b0 := uint32(c.Mem.ReadByte(addr))
	b1 := uint32(c.Mem.ReadByte(addr + 1))
	b2 := uint32(c.Mem.ReadByte(addr + 2))
	b3 := uint32(c.Mem.ReadByte(addr + 3))
	return b0 | b1<<8 | b2<<16 | b3<<24
}

func (c *CPU) tlbInsert(vpn, ppn uint32, flags byte) {
	e := &c.TLB[c.tlbNext]
	*e = tlbEntry{vpn: vpn, ppn: ppn, asid: c.ASID, flags: flags, valid: true}
	c.tlbNext = (c.tlbNext + 1) % len(c.TLB)
}

func (c *CPU) tlbFlush() {
	for i := range c.TLB {
		c.TLB[i] = tlbEntry{}
	}
}

func (c *CPU) tlbInvalidate(va uint32, _ bool) {
	vpn := va >> pageOffsetBits
	for i := range c.TLB {
		if c.TLB[i].valid && c.TLB[i].vpn == vpn {
			c.TLB[i] = tlbEntry{}
		}
	}
}

// tlbInvalidateASID drops every non-global entry for asid, per spec.md
// Sec.4.6's ASIDINVAL ("per-ASID, skips global entries").
func (c *CPU) tlbInvalidateASID(asid byte) {
	for i := range c.TLB {
		e := &c.TLB[i]
		if e.valid && e.asid == asid && e.flags&pteFlagGlobal == 0 {
			*e = tlbEntry{}
		}
	}
}

// --- stack helpers ---

// stackAddr forces the high bytes to 0x01 in emulation mode, per
// spec.md Sec.3's invariant.
func (c *CPU) stackAddr() uint32 {
	if c.Emulation() {
		return 0x100 | (c.S & 0xFF)
	}
	return c.S
}

func (c *CPU) pushByte(v byte) {
	c.WriteByte(c.stackAddr(), v)
	c.S--
}

func (c *CPU) popByte() byte {
	c.S++
	return c.ReadByte(c.stackAddr())
}

func (c *CPU) pushWord16(v uint16) {
	c.pushByte(byte(v >> 8))
	c.pushByte(byte(v))
}

func (c *CPU) popWord16() uint16 {
	lo := uint16(c.popByte())
	hi := uint16(c.popByte())
	return lo | hi<<8
}

func (c *CPU) pushWord32(v uint32) {
	c.pushByte(byte(v >> 24))
	c.pushByte(byte(v >> 16))
	c.pushByte(byte(v >> 8))
	c.pushByte(byte(v))
}

func (c *CPU) popWord32() uint32 {
	b0 := uint32(c.popByte())
	b1 := uint32(c.popByte())
	b2 := uint32(c.popByte())
	b3 := uint32(c.popByte())
	return b0 | b1<<8 | b2<<16 | b3<<24
}

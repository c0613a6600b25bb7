package cpu

import "testing"

func newTestCPU(t *testing.T, memSize uint32) *CPU {
	t.Helper()
	c := New(Config{MemSize: memSize, ResetVector: 0x0200})
	return c
}

// sparseMem is a map-backed ReadWriteByte, standing in for a flat array
// when a test needs to address the register window (0xFFFF0000..), which
// sits far above any realistically-sized flat RAM array.
type sparseMem map[uint32]byte

func (s sparseMem) ReadByte(addr uint32) byte     { return s[addr] }
func (s sparseMem) WriteByte(addr uint32, v byte) { s[addr] = v }

func TestBRKRTIRoundTrip(t *testing.T) {
	c := newTestCPU(t, 0x10000)
	c.WriteByte(0x0200, 0x00) // BRK
	c.WriteByte(0x0000, 0x40) // RTI, at the (zeroed, unmapped) BRK vector target
	c.SetCarry(true)
	c.SetNegative(true)
	c.SetDecimal(true)

	trap := c.Step()
	if trap != TrapBRK {
		t.Fatalf("Step() after BRK = %s, want BRK", trap)
	}
	pushedP := c.P // P immediately after delivery, before RTI
	if c.PC != 0 {
		t.Fatalf("PC after BRK = %#x, want 0 (unmapped vector)", c.PC)
	}
	if c.Decimal() {
		t.Error("BRK did not clear P.D on entry")
	}

	trap = c.Step()
	if trap != TrapNone {
		t.Fatalf("Step() for RTI = %s, want None", trap)
	}
	if c.PC != 0x0201 {
		t.Errorf("PC after RTI = %#x, want 0x201 (address after BRK)", c.PC)
	}
	if c.P != pushedP {
		t.Errorf("P after RTI = %#04x, want %#04x (the pushed value)", c.P, pushedP)
	}
}

// writeExt encodes a $02-prefixed extended instruction (prefix, second
// byte, operand bytes) at addr and returns the address after it.
func writeExt(c *CPU, addr uint32, sub byte, operand ...byte) uint32 {
	c.WriteByte(addr, 0x02)
	c.WriteByte(addr+1, sub)
	for i, b := range operand {
		c.WriteByte(addr+2+uint32(i), b)
	}
	return addr + 2 + uint32(len(operand))
}

func TestLLSCStoreBetweenInvalidatesReservation(t *testing.T) {
	c := newTestCPU(t, 0x10000)
	c.D = 0x1000
	c.WriteByte(0x1010, 0x55) // sentinel the plain store will overwrite

	pc := uint32(0x0200)
	pc = writeExt(c, pc, 0x12, 0x10) // LL $10 (DP)
	c.WriteByte(pc, 0x85)            // STA $10 (DP) -- the intervening plain store
	c.WriteByte(pc+1, 0x10)
	pc += 2
	writeExt(c, pc, 0x14, 0x10) // SC $10 (DP)

	if trap := c.Step(); trap != TrapNone { // LL
		t.Fatalf("LL step: %s", trap)
	}
	if !c.LL.valid {
		t.Fatal("LL did not set a reservation")
	}
	c.A = 0xAA // LL loaded the 0x55 sentinel into A; store a distinct value
	if trap := c.Step(); trap != TrapNone { // STA, same address
		t.Fatalf("STA step: %s", trap)
	}
	if c.LL.valid {
		t.Error("a plain store to the reserved address did not clear the reservation")
	}
	if v := c.ReadByte(0x1010); v != 0xAA {
		t.Errorf("STA did not take effect: ReadByte(0x1010) = %#x, want 0xAA", v)
	}

	before := c.ReadByte(0x1010)
	c.SetZero(true) // force a starting value so we can observe SC actually clears it
	if trap := c.Step(); trap != TrapNone {
		t.Fatalf("SC step: %s", trap)
	}
	if c.Zero() {
		t.Error("SC after an intervening store should clear Z")
	}
	if after := c.ReadByte(0x1010); after != before {
		t.Errorf("SC after a broken reservation modified memory: %#x -> %#x", before, after)
	}
}

func TestCASMatchAndMismatch(t *testing.T) {
	c := newTestCPU(t, 0x10000)
	c.D = 0x1000
	c.WriteByte(0x1020, 0x10)

	writeExt(c, 0x0200, 0x10, 0x20) // CAS $20 (DP)
	c.A = 0x99
	c.X = 0x10 // matches memory at $20
	if trap := c.Step(); trap != TrapNone {
		t.Fatalf("CAS step: %s", trap)
	}
	if !c.Zero() {
		t.Error("CAS match should set Z")
	}
	if v := c.ReadByte(0x1020); v != 0x99 {
		t.Errorf("CAS match should store A: ReadByte = %#x, want 0x99", v)
	}

	c.WriteByte(0x1021, 0x55)
	writeExt(c, 0x0210, 0x10, 0x21) // CAS $21 (DP)
	c.PC = 0x0210
	c.A = 0x77
	c.X = 0xFF // does not match memory at $21
	if trap := c.Step(); trap != TrapNone {
		t.Fatalf("CAS step: %s", trap)
	}
	if c.Zero() {
		t.Error("CAS mismatch should clear Z")
	}
	if v := c.ReadByte(0x1021); v != 0x55 {
		t.Errorf("CAS mismatch must not modify memory: ReadByte = %#x, want 0x55", v)
	}
	if c.X != 0x55 {
		t.Errorf("CAS mismatch should load the current value into X: X = %#x, want 0x55", c.X)
	}
}

func TestMMUTranslateTwoLevel(t *testing.T) {
	c := newTestCPU(t, 0x10000)
	const (
		ptbr    = 0x5000
		l1Entry = ptbr + 0x200*8 // l1 index 0x200, per splitVA(0x80001080)
		l2Base  = 0x7000
		l2Entry = l2Base + 1*8 // l2 index 1
		target  = 0x1080       // ppn=1 (phys page 0x1000) + offset 0x80
	)
	c.WriteWord32(l1Entry, l2Base|pteFlagPresent)
	c.WriteWord32(l2Entry, (1<<pageOffsetBits)|pteFlagPresent|pteFlagWritable|pteFlagUser)
	c.WriteByte(target, 0x42)

	c.PTBR = ptbr
	c.MMUCR = mmucrEnablePaging

	if v := c.ReadByte(0x80001080); v != 0x42 {
		t.Errorf("ReadByte(0x80001080) = %#x, want 0x42 (physical 0x1080 via the page walk)", v)
	}
}

func TestMMUPageFaultL1NotPresent(t *testing.T) {
	c := newTestCPU(t, 0x10000)
	c.PTBR = 0x9000 // an all-zero table: every L1 entry is "not present"
	c.MMUCR = mmucrEnablePaging

	probeVA := uint32(0x80001080)
	c.ReadByte(probeVA)

	if c.FaultVA != probeVA {
		t.Errorf("FaultVA = %#x, want %#x", c.FaultVA, probeVA)
	}
	if fault := MMUFault(c.MMUCR >> 8); fault != FaultL1NotPresent {
		t.Errorf("fault code = %v, want FaultL1NotPresent", fault)
	}
}

func TestWidthIndependentStoreIn32BitMode(t *testing.T) {
	c := newTestCPU(t, 0x10000)
	c.P |= uint16(PM1) // M = 10b = 32-bit, per spec.md Sec.3's width encoding

	c.WriteByte(0x0200, 0xA9) // LDA #$12345678
	c.WriteByte(0x0201, 0x78)
	c.WriteByte(0x0202, 0x56)
	c.WriteByte(0x0203, 0x34)
	c.WriteByte(0x0204, 0x12)
	c.WriteByte(0x0205, 0x8D) // STA $1234
	c.WriteByte(0x0206, 0x34)
	c.WriteByte(0x0207, 0x12)

	if trap := c.Step(); trap != TrapNone { // LDA
		t.Fatalf("LDA step: %s", trap)
	}
	if c.A != 0x12345678 {
		t.Fatalf("A = %#x, want 0x12345678", c.A)
	}
	if trap := c.Step(); trap != TrapNone { // STA
		t.Fatalf("STA step: %s", trap)
	}

	want := []byte{0x78, 0x56, 0x34, 0x12}
	for i, w := range want {
		if got := c.ReadByte(0x1234 + uint32(i)); got != w {
			t.Errorf("byte %d at $1234 = %#x, want %#x", i, got, w)
		}
	}
}

func TestRegisterWindowRedirectsDPAccess(t *testing.T) {
	mem := make(sparseMem)
	c := New(Config{Callback: mem, ResetVector: 0x0200})
	c.D = 0x2000
	c.WriteByte(0x2010, 0xCC) // RAM sentinel at the physical DP address, window disabled

	c.SetRegWindow(true)
	c.WriteByte(0x0200, 0xA9) // LDA #$AB
	c.WriteByte(0x0201, 0xAB)
	c.WriteByte(0x0202, 0x85) // STA $10 (DP)
	c.WriteByte(0x0203, 0x10)

	if trap := c.Step(); trap != TrapNone { // LDA
		t.Fatalf("LDA step: %s", trap)
	}
	if trap := c.Step(); trap != TrapNone { // STA
		t.Fatalf("STA step: %s", trap)
	}

	if v := c.ReadByte(registerWindowBase + 0x10); v != 0xAB {
		t.Errorf("register window R4 = %#x, want 0xAB", v)
	}
	if v := c.ReadByte(0x2010); v != 0xCC {
		t.Errorf("physical RAM at D+0x10 changed to %#x, want unchanged sentinel 0xCC", v)
	}

	c.SetRegWindow(false)
	if v := c.ReadByte(0x2010); v != 0xCC {
		t.Errorf("physical RAM at D+0x10 = %#x after disabling the window, want unchanged sentinel 0xCC", v)
	}
}

func TestWAIResumesOnIRQ(t *testing.T) {
	c := newTestCPU(t, 0x10000)
	c.SetIRQDisable(false) // Reset leaves P.I set; unmask so the IRQ is delivered
	c.WriteByte(0x0200, 0xCB) // WAI

	if trap := c.Step(); trap != TrapNone {
		t.Fatalf("WAI step: %s", trap)
	}
	if !c.Stopped {
		t.Fatal("WAI did not park the CPU")
	}

	if trap := c.Step(); trap != TrapNone {
		t.Fatalf("polling step while parked: %s", trap)
	}
	if !c.Stopped {
		t.Fatal("WAI un-parked with no interrupt pending")
	}

	c.AssertIRQ()
	if trap := c.Step(); trap != TrapIRQ {
		t.Fatalf("Step after AssertIRQ = %s, want TrapIRQ", trap)
	}
	if c.Stopped {
		t.Fatal("WAI-parked CPU did not un-park on IRQ")
	}
}

func TestSTPIgnoresInterruptsUntilReset(t *testing.T) {
	c := newTestCPU(t, 0x10000)
	c.WriteByte(0x0200, 0xDB) // STP

	if trap := c.Step(); trap != TrapNone {
		t.Fatalf("STP step: %s", trap)
	}
	if !c.Stopped || !c.StoppedByStp {
		t.Fatal("STP did not halt the CPU")
	}

	c.AssertIRQ()
	if trap := c.Step(); trap != TrapNone {
		t.Fatalf("Step after AssertIRQ on a STP-halted CPU = %s, want TrapNone", trap)
	}
	if !c.Stopped {
		t.Fatal("STP-halted CPU resumed on an asserted IRQ, want it to stay halted")
	}

	c.AssertNMI()
	if trap := c.Step(); trap != TrapNone {
		t.Fatalf("Step after AssertNMI on a STP-halted CPU = %s, want TrapNone", trap)
	}
	if !c.Stopped {
		t.Fatal("STP-halted CPU resumed on an asserted NMI, want it to stay halted")
	}

	c.Reset(0x0200)
	if c.Stopped || c.StoppedByStp {
		t.Fatal("Reset did not clear STP-halted state")
	}
}

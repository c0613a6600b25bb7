package cpu

// Run steps the CPU until cycleBudget is exhausted, a breakpoint address
// is reached, or a fatal Trap is raised (spec.md Sec.7/Sec.9's run-loop
// contract), mirroring the teacher's CycleCPU return-cycles-and-continue
// shape at the granularity of a whole run rather than one cycle. A
// WAI-parked CPU keeps "stepping" at one cycle per Step until an
// interrupt un-parks it or the budget runs out; a STP-halted one never
// un-parks on its own and so simply drains the remaining budget.
func (c *CPU) Run(cycleBudget uint64, breakpoints map[uint32]bool) (Trap, uint64) {
	var spent uint64
	for spent < cycleBudget {
		if !c.Stopped && breakpoints != nil && breakpoints[c.PC] {
			return TrapBreakpoint, spent
		}
		before := c.Cycles
		trap := c.Step()
		spent += c.Cycles - before
		if trap.Fatal() {
			return trap, spent
		}
	}
	return TrapNone, spent
}

// StepN runs exactly n Steps (park-polling counts as a step) or until a
// fatal trap stops it early, and reports how many actually ran.
func (c *CPU) StepN(n int) (Trap, int) {
	for i := 0; i < n; i++ {
		trap := c.Step()
		if trap.Fatal() {
			return trap, i + 1
		}
	}
	return TrapNone, n
}

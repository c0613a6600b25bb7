package console

import (
	"testing"

	"github.com/benjcooley/m65832-sub008/internal/cpu"
)

func newTestConsole(t *testing.T) *Console {
	t.Helper()
	c := cpu.New(cpu.Config{MemSize: 0x10000, ResetVector: 0x0200})
	c.Reset(0x0200)
	return New(c, nil)
}

func TestMatchListAbbreviation(t *testing.T) {
	m := matchList("br")
	if len(m) != 1 || m[0].name != "break" {
		t.Errorf("matchList(br) = %v, want [break]", m)
	}
	m = matchList("de")
	if len(m) != 0 {
		t.Errorf("matchList(de) = %v, want none (below min length for delete/deposit)", m)
	}
	m = matchList("del")
	if len(m) != 1 || m[0].name != "delete" {
		t.Errorf("matchList(del) = %v, want [delete]", m)
	}
	m = matchList("dep")
	if len(m) != 1 || m[0].name != "deposit" {
		t.Errorf("matchList(dep) = %v, want [deposit]", m)
	}
	m = matchList("zz")
	if len(m) != 0 {
		t.Errorf("matchList(zz) = %v, want none", m)
	}
}

func TestConsoleBreakAndDelete(t *testing.T) {
	con := newTestConsole(t)
	if quit, err := con.process("break $0210"); err != nil || quit {
		t.Fatalf("break failed: quit=%v err=%v", quit, err)
	}
	if !con.Breakpoints[0x0210] {
		t.Error("breakpoint was not recorded")
	}
	if _, err := con.process("delete $0210"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if con.Breakpoints[0x0210] {
		t.Error("breakpoint was not cleared")
	}
}

func TestConsoleDepositAndExamine(t *testing.T) {
	con := newTestConsole(t)
	if _, err := con.process("deposit $0300 $42"); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if v := con.CPU.ReadByte(0x0300); v != 0x42 {
		t.Errorf("ReadByte(0x300) = %#x, want 0x42", v)
	}
	if _, err := con.process("examine $0300 1"); err != nil {
		t.Fatalf("examine failed: %v", err)
	}
}

func TestConsoleStepAdvancesPC(t *testing.T) {
	con := newTestConsole(t)
	con.CPU.WriteByte(0x0200, 0xEA) // NOP
	con.CPU.WriteByte(0x0201, 0xEA) // NOP
	if _, err := con.process("step 2"); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	if con.CPU.PC != 0x0202 {
		t.Errorf("PC = %#x, want 0x202", con.CPU.PC)
	}
}

func TestConsoleUnknownCommand(t *testing.T) {
	con := newTestConsole(t)
	if _, err := con.process("frobnicate"); err == nil {
		t.Error("expected an error for an unknown command")
	}
}

func TestConsoleQuit(t *testing.T) {
	con := newTestConsole(t)
	quit, err := con.process("quit")
	if err != nil || !quit {
		t.Errorf("quit = %v, %v, want true, nil", quit, err)
	}
}

package console

import (
	"errors"
	"fmt"
	"strings"

	"github.com/benjcooley/m65832-sub008/internal/disassembler"
)

type cmdFunc func(con *Console, line *cmdLine) (quit bool, err error)

type cmd struct {
	name    string
	min     int // minimum abbreviation length, per command/parser's matchCommand
	help    string
	process cmdFunc
}

// cmdList mirrors command/parser's cmdList table: name, minimum-match
// length, and a process function taking the remainder of the line.
var cmdList = []cmd{
	{name: "step", min: 1, help: "step [n] -- execute n instructions (default 1)", process: cmdStep},
	{name: "go", min: 1, help: "go [cycles] -- run until a breakpoint or fatal trap", process: cmdGo},
	{name: "break", min: 2, help: "break addr -- set a breakpoint at addr", process: cmdBreak},
	{name: "delete", min: 3, help: "delete addr -- clear the breakpoint at addr", process: cmdDelete},
	{name: "examine", min: 2, help: "examine addr [len] -- dump len bytes (default 16) starting at addr", process: cmdExamine},
	{name: "deposit", min: 3, help: "deposit addr value -- write one byte at addr", process: cmdDeposit},
	{name: "disassemble", min: 4, help: "disassemble addr [n] -- disassemble n instructions (default 1) at addr", process: cmdDisassemble},
	{name: "regs", min: 2, help: "regs -- show register state", process: cmdRegs},
	{name: "reset", min: 3, help: "reset [vector] -- reset the CPU, optionally overriding the reset vector", process: cmdReset},
	{name: "help", min: 1, help: "help -- list commands", process: cmdHelp},
	{name: "quit", min: 1, help: "quit -- leave the console", process: cmdQuit},
}

// matchList returns every cmdList entry whose name is at least as long as
// name and shares name's prefix, honoring each entry's minimum match
// length — the same abbreviation rule command/parser.matchCommand
// implements for the S370 console.
func matchList(name string) []cmd {
	if name == "" {
		return nil
	}
	var out []cmd
	for _, c := range cmdList {
		if len(name) < c.min || len(name) > len(c.name) {
			continue
		}
		if strings.HasPrefix(c.name, name) {
			out = append(out, c)
		}
	}
	return out
}

func (con *Console) process(text string) (bool, error) {
	line := &cmdLine{line: text}
	name := strings.ToLower(line.getWord())
	if name == "" {
		return false, nil
	}

	matches := matchList(name)
	if len(matches) == 0 {
		return false, fmt.Errorf("unknown command: %s", name)
	}
	if len(matches) > 1 {
		return false, fmt.Errorf("ambiguous command: %s", name)
	}
	return matches[0].process(con, line)
}

func completeCmd(text string) []string {
	line := &cmdLine{line: text}
	name := strings.ToLower(line.getWord())
	matches := matchList(name)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out
}

func cmdHelp(_ *Console, _ *cmdLine) (bool, error) {
	for _, c := range cmdList {
		fmt.Println(" " + c.help)
	}
	return false, nil
}

func cmdQuit(_ *Console, _ *cmdLine) (bool, error) {
	return true, nil
}

func cmdStep(con *Console, line *cmdLine) (bool, error) {
	n := 1
	if tok := line.getWord(); tok != "" {
		v, ok := parseCount(tok)
		if !ok {
			return false, fmt.Errorf("bad step count %q", tok)
		}
		n = v
	}
	trap, ran := con.CPU.StepN(n)
	con.printPC()
	if trap.Fatal() {
		return false, fmt.Errorf("stopped after %d step(s): %s at PC=%08X", ran, trap, con.CPU.PC)
	}
	return false, nil
}

func cmdGo(con *Console, line *cmdLine) (bool, error) {
	budget := uint64(1) << 40 // effectively unbounded, per spec.md Sec.9's run-to-breakpoint contract
	if tok := line.getWord(); tok != "" {
		v, ok := parseCount(tok)
		if !ok {
			return false, fmt.Errorf("bad cycle count %q", tok)
		}
		budget = uint64(v)
	}
	trap, spent := con.CPU.Run(budget, con.Breakpoints)
	fmt.Printf("ran %d cycle(s), stopped: %s\n", spent, trap)
	con.printPC()
	return false, nil
}

func cmdBreak(con *Console, line *cmdLine) (bool, error) {
	tok := line.getWord()
	addr, ok := parseAddress(tok)
	if !ok {
		return false, fmt.Errorf("bad address %q", tok)
	}
	con.Breakpoints[addr] = true
	fmt.Printf("breakpoint set at %08X\n", addr)
	return false, nil
}

func cmdDelete(con *Console, line *cmdLine) (bool, error) {
	tok := line.getWord()
	addr, ok := parseAddress(tok)
	if !ok {
		return false, fmt.Errorf("bad address %q", tok)
	}
	delete(con.Breakpoints, addr)
	return false, nil
}

func cmdExamine(con *Console, line *cmdLine) (bool, error) {
	tok := line.getWord()
	var addr uint32
	if tok == "" {
		// bare "examine" continues from wherever the previous one left off,
		// the same convenience command/parser/mem_commands.go's examine
		// offers for paging through a region one screenful at a time.
		addr = con.lastExamine
	} else {
		a, ok := parseAddress(tok)
		if !ok {
			return false, fmt.Errorf("bad address %q", tok)
		}
		addr = a
	}
	length := 16
	if ltok := line.getWord(); ltok != "" {
		v, ok := parseCount(ltok)
		if !ok {
			return false, fmt.Errorf("bad length %q", ltok)
		}
		length = v
	}
	con.dumpMemory(addr, length)
	con.lastExamine = addr + uint32(length)
	return false, nil
}

func cmdDeposit(con *Console, line *cmdLine) (bool, error) {
	atok := line.getWord()
	addr, ok := parseAddress(atok)
	if !ok {
		return false, fmt.Errorf("bad address %q", atok)
	}
	vtok := line.getWord()
	if vtok == "" {
		return false, errors.New("deposit requires a value")
	}
	v, ok := parseAddress(vtok)
	if !ok || v > 0xFF {
		return false, fmt.Errorf("bad byte value %q", vtok)
	}
	con.CPU.WriteByte(addr, byte(v))
	return false, nil
}

func cmdDisassemble(con *Console, line *cmdLine) (bool, error) {
	tok := line.getWord()
	addr := con.CPU.PC
	if tok != "" {
		a, ok := parseAddress(tok)
		if !ok {
			return false, fmt.Errorf("bad address %q", tok)
		}
		addr = a
	}
	count := 1
	if ctok := line.getWord(); ctok != "" {
		v, ok := parseCount(ctok)
		if !ok {
			return false, fmt.Errorf("bad instruction count %q", ctok)
		}
		count = v
	}
	con.disassembleRange(addr, count)
	return false, nil
}

func cmdRegs(con *Console, _ *cmdLine) (bool, error) {
	con.printRegs()
	return false, nil
}

func cmdReset(con *Console, line *cmdLine) (bool, error) {
	vector := uint32(0)
	if tok := line.getWord(); tok != "" {
		v, ok := parseAddress(tok)
		if !ok {
			return false, fmt.Errorf("bad reset vector %q", tok)
		}
		vector = v
	}
	con.CPU.Reset(vector)
	con.printPC()
	return false, nil
}

// dumpMemory prints length bytes starting at addr, 16 per line with an
// ASCII gutter, the same shape command/parser/mem_commands.go's
// dumpMemory produces for the S370 console.
func (con *Console) dumpMemory(addr uint32, length int) {
	for i := 0; i < length; i += 16 {
		rowLen := 16
		if length-i < rowLen {
			rowLen = length - i
		}
		fmt.Printf("%08X: ", addr+uint32(i))
		ascii := make([]byte, rowLen)
		for j := 0; j < rowLen; j++ {
			b := con.CPU.ReadByte(addr + uint32(i+j))
			fmt.Printf("%02X ", b)
			if b >= 0x20 && b < 0x7F {
				ascii[j] = b
			} else {
				ascii[j] = '.'
			}
		}
		for j := rowLen; j < 16; j++ {
			fmt.Print("   ")
		}
		fmt.Printf(" %s\n", string(ascii))
	}
}

func (con *Console) disassembleRange(addr uint32, count int) {
	for i := 0; i < count; i++ {
		buf := make([]byte, 8)
		for j := range buf {
			buf[j] = con.CPU.ReadByte(addr + uint32(j))
		}
		var text string
		var n int
		if con.Symbols != nil {
			text, n = disassembler.DisassembleSymbolic(buf, addr, con.CPU.MWidth(), con.CPU.XWidth(), con.CPU.Emulation(), disassembler.SymbolResolver(con.Symbols))
		} else {
			text, n = disassembler.Disassemble(buf, addr, con.CPU.MWidth(), con.CPU.XWidth(), con.CPU.Emulation())
		}
		if n <= 0 {
			n = 1
		}
		fmt.Printf("%08X: %s\n", addr, text)
		addr += uint32(n)
	}
}

func (con *Console) printPC() {
	fmt.Printf("PC=%08X\n", con.CPU.PC)
}

func (con *Console) printRegs() {
	c := con.CPU
	fmt.Printf("PC=%08X A=%08X X=%08X Y=%08X D=%08X B=%08X T=%08X S=%08X P=%04X\n",
		c.PC, c.A, c.X, c.Y, c.D, c.B, c.T, c.S, c.P)
	fmt.Printf("flags: C=%v Z=%v I=%v D=%v V=%v N=%v E=%v S=%v R=%v K=%v\n",
		c.Carry(), c.Zero(), c.IRQDisable(), c.Decimal(), c.Overflow(),
		c.Negative(), c.Emulation(), c.Supervisor(), c.RegWindow(), c.Compat())
	fmt.Printf("cycles=%d stopped=%v\n", c.Cycles, c.Stopped)
}

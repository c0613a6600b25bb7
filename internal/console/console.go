/*
 * M65832 - Interactive debug console
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package console implements the M65832 debug REPL: step/break/examine/
// regs/go/reset over a running *cpu.CPU, in the same liner-backed
// line-editing shell as the teacher's command/reader.ConsoleReader, with
// the command table and abbreviation matching of command/parser.
package console

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/peterh/liner"

	"github.com/benjcooley/m65832-sub008/internal/cpu"
)

// SymbolResolver is consulted by the disassemble command to annotate
// addresses with symbol names (examine does not use it), typically backed by an
// internal/assembler.Result's Symbols map.
type SymbolResolver func(addr uint32) (name string, ok bool)

// Console owns the interactive debug session state: the CPU being
// inspected, the breakpoint set, and an optional symbol table — mirroring
// the teacher's *core.Core being threaded through every command/parser
// function, generalized to this module's single-CPU-instance model
// (spec.md Sec.9 forbids a package-level CPU singleton).
type Console struct {
	CPU         *cpu.CPU
	Breakpoints map[uint32]bool
	Symbols     SymbolResolver
	Log         *slog.Logger

	lastExamine uint32
}

// New builds a Console around an already-Reset CPU.
func New(c *cpu.CPU, log *slog.Logger) *Console {
	return &Console{
		CPU:         c,
		Breakpoints: make(map[uint32]bool),
		Log:         log,
	}
}

// Run drives the liner prompt loop until the user quits or aborts with
// Ctrl-D, mirroring command/reader.ConsoleReader's shape exactly.
func (con *Console) Run() {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(l string) []string {
		return completeCmd(l)
	})

	for {
		command, err := line.Prompt("m65832> ")
		if err == nil {
			line.AppendHistory(command)
			quit, procErr := con.process(command)
			if procErr != nil {
				fmt.Println("Error: " + procErr.Error())
			}
			if quit {
				return
			}
			continue
		}

		if errors.Is(err, liner.ErrPromptAborted) {
			return
		}
		if con.Log != nil {
			con.Log.Error("error reading console line: " + err.Error())
		}
		return
	}
}

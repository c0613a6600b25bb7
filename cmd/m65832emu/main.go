// Command m65832emu loads a flat binary image and runs it on an
// internal/cpu.CPU instance, either headless to a cycle budget/breakpoint
// set or interactively through internal/console's debug REPL.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benjcooley/m65832-sub008/internal/console"
	"github.com/benjcooley/m65832-sub008/internal/cpu"
	"github.com/benjcooley/m65832-sub008/internal/logger"
	"github.com/benjcooley/m65832-sub008/internal/sysconfig"
)

const defaultMemSize = 1 << 20 // 1 MiB, used when no -d config sets MEMSIZE

func main() {
	var (
		configPath  string
		loadAddr    uint32
		breakpoints []string
		cycles      uint64
		verbose     bool
		logPath     string
	)

	newCPU := func(imagePath string) (*cpu.CPU, *slog.Logger, error) {
		cfg := sysconfig.Config{MemSize: defaultMemSize}
		if configPath != "" {
			if err := sysconfig.LoadFile(configPath, &cfg); err != nil {
				return nil, nil, fmt.Errorf("loading -d config: %w", err)
			}
		}

		log, closeLog, err := logger.Open(logPath, verbose)
		if err != nil {
			return nil, nil, err
		}
		_ = closeLog // left open for the process lifetime; the OS reclaims it on exit

		c := cpu.New(cpu.Config{MemSize: cfg.MemSize, Logger: log})

		image, err := os.ReadFile(imagePath)
		if err != nil {
			return nil, nil, err
		}
		c.Mem.LoadImage(loadAddr, image)
		c.Reset(cfg.ResetVector)

		if verbose {
			c.Trace = func(pc uint32, text string, cyc int) {
				fmt.Printf("%08X: %-24s cycles=%d\n", pc, text, cyc)
			}
		}
		return c, log, nil
	}

	parseBreakpoints := func() (map[uint32]bool, error) {
		bps := make(map[uint32]bool, len(breakpoints))
		for _, tok := range breakpoints {
			tok = strings.TrimPrefix(tok, "$")
			tok = strings.TrimPrefix(tok, "0x")
			v, err := strconv.ParseUint(tok, 16, 32)
			if err != nil {
				return nil, fmt.Errorf("bad --breakpoint address %q", tok)
			}
			bps[uint32(v)] = true
		}
		return bps, nil
	}

	rootCmd := &cobra.Command{
		Use:   "m65832emu <image>",
		Short: "M65832 emulator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newCPU(args[0])
			if err != nil {
				return err
			}
			bps, err := parseBreakpoints()
			if err != nil {
				return err
			}
			budget := cycles
			if budget == 0 {
				budget = 1 << 40 // effectively unbounded, per spec.md Sec.9's run-to-completion contract
			}
			trap, spent := c.Run(budget, bps)
			fmt.Printf("stopped: %s (ran %d cycle(s))\n", trap, spent)
			fmt.Printf("PC=%08X A=%08X X=%08X Y=%08X S=%08X\n", c.PC, c.A, c.X, c.Y, c.S)
			if trap.Fatal() {
				return fmt.Errorf("fatal trap: %s", trap)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "device-config", "d", "", "system configuration file (MEMSIZE/RESETVECTOR/device directives)")
	rootCmd.PersistentFlags().Uint32Var(&loadAddr, "load-addr", 0, "address to load the image at")
	rootCmd.PersistentFlags().StringArrayVar(&breakpoints, "breakpoint", nil, "stop when PC reaches this address (repeatable)")
	rootCmd.PersistentFlags().Uint64Var(&cycles, "cycles", 0, "cycle budget (0 = unbounded)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "trace each retired instruction")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "write emulator log output to this file")

	debugCmd := &cobra.Command{
		Use:   "debug <image>",
		Short: "load an image and drop into the interactive debug console",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, log, err := newCPU(args[0])
			if err != nil {
				return err
			}
			bps, err := parseBreakpoints()
			if err != nil {
				return err
			}
			con := console.New(c, log)
			for addr := range bps {
				con.Breakpoints[addr] = true
			}
			con.Run()
			return nil
		},
	}
	rootCmd.AddCommand(debugCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "m65832emu: "+err.Error())
		os.Exit(1)
	}
}

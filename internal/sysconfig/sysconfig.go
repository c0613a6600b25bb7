/*
 * M65832 - Configuration file parser
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

// Package sysconfig parses the emulator's system-configuration file: a
// hand-rolled line-oriented format (never viper/toml — the teacher's own
// config/configparser doesn't reach for one either, see DESIGN.md)
// registering device factories through a RegisterModel callback table,
// the same shape as the teacher's config/configparser adapted from 370
// channel-attached devices to M65832 MMIO regions.
//
// Grammar, one directive per line:
//
//	'#' starts a comment, rest of line ignored
//	<line> := <directive> <whitespace> <args>
//	<directive> := 'MEMSIZE' | 'RESETVECTOR' | <registered model name>
//	<args> := <address> *(<whitespace> <option>)
//	<address> := '0x' <hex> | <decimal> ['K' | 'M']
//	<option> := <name> ['=' <value>]
package sysconfig

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Option is a bare or name=value token following a directive's address.
type Option struct {
	Name  string
	Value string
}

// ModelFactory constructs (or configures) one MMIO device/region from a
// config line. addr is the parsed base address; opts are the line's
// remaining tokens.
type ModelFactory func(addr uint32, opts []Option) error

var models = map[string]ModelFactory{}

// RegisterModel registers a device factory under name (case-insensitive),
// meant to be called from cmd/m65832emu's device-wiring setup before
// LoadFile runs.
func RegisterModel(name string, fn ModelFactory) {
	models[strings.ToUpper(name)] = fn
}

// Config accumulates the directives a config file's non-device lines set
// directly, since MEMSIZE/RESETVECTOR have no device behind them to
// delegate to.
type Config struct {
	MemSize     uint32
	ResetVector uint32
}

// LoadFile opens path and parses it into cfg, calling any registered
// model factories for device lines as they're encountered.
func LoadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Load(f, cfg)
}

// Load parses r's lines into cfg. Parsing does not stop at the first
// error — every line is attempted, and the first error encountered (if
// any) is returned after processing the whole file, mirroring the
// teacher's accumulate-then-report discipline for a config file read
// once at startup.
func Load(r io.Reader, cfg *Config) error {
	scanner := bufio.NewScanner(r)
	lineNumber := 0
	var firstErr error
	for scanner.Scan() {
		lineNumber++
		line := stripComment(scanner.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := parseLine(line, cfg); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("line %d: %w", lineNumber, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return firstErr
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

func parseLine(line string, cfg *Config) error {
	fields := strings.Fields(line)
	directive := strings.ToUpper(fields[0])

	switch directive {
	case "MEMSIZE":
		if len(fields) < 2 {
			return fmt.Errorf("MEMSIZE requires a size")
		}
		v, err := parseAddress(fields[1])
		if err != nil {
			return err
		}
		cfg.MemSize = v
		return nil

	case "RESETVECTOR":
		if len(fields) < 2 {
			return fmt.Errorf("RESETVECTOR requires an address")
		}
		v, err := parseAddress(fields[1])
		if err != nil {
			return err
		}
		cfg.ResetVector = v
		return nil
	}

	factory, ok := models[directive]
	if !ok {
		return fmt.Errorf("unknown directive %q", fields[0])
	}
	if len(fields) < 2 {
		return fmt.Errorf("%s requires an address", fields[0])
	}
	addr, err := parseAddress(fields[1])
	if err != nil {
		return err
	}
	opts := make([]Option, 0, len(fields)-2)
	for _, tok := range fields[2:] {
		if name, val, found := strings.Cut(tok, "="); found {
			opts = append(opts, Option{Name: name, Value: val})
		} else {
			opts = append(opts, Option{Name: tok})
		}
	}
	return factory(addr, opts)
}

// parseAddress accepts "0x"-prefixed hex, or a decimal literal with an
// optional trailing K (*1024) or M (*1024*1024) scale suffix.
func parseAddress(tok string) (uint32, error) {
	if strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X") {
		v, err := strconv.ParseUint(tok[2:], 16, 32)
		if err != nil {
			return 0, fmt.Errorf("bad hex address %q: %w", tok, err)
		}
		return uint32(v), nil
	}
	scale := uint64(1)
	switch {
	case strings.HasSuffix(tok, "K") || strings.HasSuffix(tok, "k"):
		scale = 1024
		tok = tok[:len(tok)-1]
	case strings.HasSuffix(tok, "M") || strings.HasSuffix(tok, "m"):
		scale = 1024 * 1024
		tok = tok[:len(tok)-1]
	}
	v, err := strconv.ParseUint(tok, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad address %q: %w", tok, err)
	}
	return uint32(v * scale), nil
}

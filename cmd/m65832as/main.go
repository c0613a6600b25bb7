// Command m65832as assembles M65832 source into a flat binary or
// Intel-HEX image, per spec.md Sec.6's CLI surface. Flag parsing and all
// file I/O live here; internal/assembler itself only ever sees strings
// and returns a Result, never a path (spec.md Sec.9).
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benjcooley/m65832-sub008/internal/assembler"
	"github.com/benjcooley/m65832-sub008/internal/hexfmt"
)

func main() {
	var (
		outPath   string
		mapPath   string
		includes  []string
		hexOutput bool
		listing   bool
		verbose   bool
	)

	rootCmd := &cobra.Command{
		Use:   "m65832as <file>",
		Short: "M65832 two-pass assembler",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], outPath, mapPath, includes, hexOutput, listing, verbose)
		},
	}

	rootCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default: input name with .bin/.hex extension)")
	rootCmd.Flags().StringVarP(&mapPath, "map", "m", "", "write a symbol map to this file")
	rootCmd.Flags().StringArrayVarP(&includes, "include", "I", nil, "include directory (repeatable, up to 8; accepted but not searched, since .INCLUDE is ignored)")
	rootCmd.Flags().BoolVarP(&hexOutput, "hex", "h", false, "write Intel-HEX instead of a flat binary")
	rootCmd.Flags().BoolVarP(&listing, "listing", "l", false, "print a per-line assembly listing to stdout")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print section/symbol summary after assembly")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "m65832as: "+err.Error())
		os.Exit(1)
	}
}

func run(inPath, outPath, mapPath string, includes []string, hexOutput, listing, verbose bool) error {
	if len(includes) > 8 {
		return fmt.Errorf("too many -I include paths (%d, max 8)", len(includes))
	}

	src, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}

	result := assembler.Assemble(inPath, string(src))

	for _, d := range result.Diagnostics {
		fmt.Fprintln(os.Stderr, d.String())
	}
	if len(result.Diagnostics) > 0 {
		return fmt.Errorf("%d error(s)", len(result.Diagnostics))
	}

	if outPath == "" {
		outPath = defaultOutputPath(inPath, hexOutput)
	}
	if err := writeImage(outPath, result, hexOutput); err != nil {
		return err
	}

	if mapPath != "" {
		if err := writeSymbolMap(mapPath, result); err != nil {
			return err
		}
	}

	if listing {
		printListing(result)
	}
	if verbose {
		printSummary(result, outPath)
	}
	return nil
}

func defaultOutputPath(inPath string, hexOutput bool) string {
	ext := ".bin"
	if hexOutput {
		ext = ".hex"
	}
	base := inPath
	for i := len(base) - 1; i >= 0 && base[i] != '/'; i-- {
		if base[i] == '.' {
			base = base[:i]
			break
		}
	}
	return base + ext
}

// writeImage flattens every section into the lowest-origin-to-highest
// contiguous image spec.md Sec.6's "flat image of the combined section
// bytes" calls for, gap-filling with zero, then writes either that raw
// buffer or its Intel-HEX encoding.
func writeImage(path string, result assembler.Result, hexOutput bool) error {
	if len(result.Sections) == 0 {
		return os.WriteFile(path, nil, 0o644)
	}

	sects := append([]*assembler.Section(nil), result.Sections...)
	sort.Slice(sects, func(i, j int) bool { return sects[i].Org < sects[j].Org })

	lo := sects[0].Org
	hi := lo
	for _, s := range sects {
		end := s.Org + uint32(len(s.Data))
		if end > hi {
			hi = end
		}
	}
	image := make([]byte, hi-lo)
	for _, s := range sects {
		copy(image[s.Org-lo:], s.Data)
	}

	if !hexOutput {
		return os.WriteFile(path, image, 0o644)
	}
	return os.WriteFile(path, []byte(encodeIntelHex(image, lo)), 0o644)
}

// encodeIntelHex emits record type 00 (data, 16 bytes/line), type 04
// (extended linear address, once the running address crosses 64 KiB) and
// a trailing type 01 EOF record, per spec.md Sec.6.
func encodeIntelHex(data []byte, base uint32) string {
	var out []byte
	const lineLen = 16
	currentUpper := uint32(0)

	for i := 0; i < len(data); i += lineLen {
		n := lineLen
		if len(data)-i < n {
			n = len(data) - i
		}
		addr := base + uint32(i)
		upper := addr >> 16
		if upper != currentUpper {
			rec := []byte{2, 0, 0, 4, byte(upper >> 8), byte(upper)}
			out = append(out, hexRecord(rec)...)
			currentUpper = upper
		}
		low := uint16(addr)
		rec := make([]byte, 0, 4+n)
		rec = append(rec, byte(n), byte(low>>8), byte(low), 0x00)
		rec = append(rec, data[i:i+n]...)
		out = append(out, hexRecord(rec)...)
	}
	out = append(out, hexRecord([]byte{0, 0, 0, 1})...)
	return string(out)
}

// hexRecord formats one Intel-HEX line: ':' + 2-hex-digit fields for
// byteCount/addrHi/addrLo/recType/data + a standard two's-complement
// checksum byte, per spec.md Sec.6.
func hexRecord(fields []byte) []byte {
	var sum byte
	for _, b := range fields {
		sum += b
	}
	checksum := byte(-sum)

	var b strings.Builder
	b.WriteByte(':')
	hexfmt.FormatBytes(&b, false, fields)
	hexfmt.FormatByte(&b, checksum)
	b.WriteByte('\n')
	return []byte(b.String())
}

// writeSymbolMap emits spec.md Sec.6's `HHHHHHHH T NAME` line-oriented
// format; every assembler symbol is classified as a label (L) since
// internal/assembler does not yet distinguish EQU constants or sections
// in its exported Symbols map.
func writeSymbolMap(path string, result assembler.Result) error {
	names := make([]string, 0, len(result.Symbols))
	for name := range result.Symbols {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []byte
	out = append(out, "# symbol map\n"...)
	for _, name := range names {
		out = append(out, fmt.Sprintf("%08X L %s\n", result.Symbols[name], name)...)
	}
	for _, s := range result.Sections {
		out = append(out, fmt.Sprintf("%08X S %s\n", s.Org, s.Name)...)
	}
	return os.WriteFile(path, out, 0o644)
}

func printListing(result assembler.Result) {
	for _, l := range result.Listing {
		fmt.Printf("%08X  %-16s  %s\n", l.Address, hexBytes(l.Bytes), l.Source)
	}
}

func hexBytes(b []byte) string {
	var s strings.Builder
	hexfmt.FormatBytes(&s, true, b)
	return s.String()
}

func printSummary(result assembler.Result, outPath string) {
	fmt.Printf("wrote %s\n", outPath)
	for _, s := range result.Sections {
		fmt.Printf("  section %-8s org=%08X size=%d\n", s.Name, s.Org, len(s.Data))
	}
	fmt.Printf("  %d symbol(s)\n", len(result.Symbols))
}

/*
 * M65832 - Convert bytes to hex strings.
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

// Package hexfmt writes byte values as uppercase hex digits straight into a
// strings.Builder using a nibble lookup table, trimmed to the byte-oriented
// formatters cmd/m65832as's Intel-HEX writer and listing/symbol-map output
// actually need.
package hexfmt

import "strings"

var hexMap = "0123456789ABCDEF"

// FormatByte appends data as two uppercase hex digits.
func FormatByte(str *strings.Builder, data byte) {
	str.WriteByte(hexMap[(data>>4)&0xf])
	str.WriteByte(hexMap[data&0xf])
}

// FormatBytes appends each byte in data as two hex digits, optionally
// space-separated.
func FormatBytes(str *strings.Builder, space bool, data []byte) {
	for _, by := range data {
		FormatByte(str, by)
		if space {
			str.WriteByte(' ')
		}
	}
}

// FormatWord32 appends v as 8 uppercase hex digits, most significant first.
func FormatWord32(str *strings.Builder, v uint32) {
	FormatByte(str, byte(v>>24))
	FormatByte(str, byte(v>>16))
	FormatByte(str, byte(v>>8))
	FormatByte(str, byte(v))
}

// FormatWord16 appends v as 4 uppercase hex digits, most significant first.
func FormatWord16(str *strings.Builder, v uint16) {
	FormatByte(str, byte(v>>8))
	FormatByte(str, byte(v))
}

/*
 * M65832 - flat memory array.
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

// Package memory is the bottom of the M65832 memory access layer: a flat
// byte array, or a pluggable read/write-byte callback standing in for it.
// It owns no MMIO, MMU or watchpoint policy — that lives in internal/cpu,
// which owns this as one field among several (spec.md Sec.9's "pluggable
// memory... one-time configuration per instance" note). Unlike the
// teacher's emu/memory, which is a single package-level array, every
// Memory here is instance-owned so more than one CPU can exist at once.
package memory

// ReadWriteByte is the pluggable-memory callback interface. A Memory
// configured with one of these never touches its flat array.
type ReadWriteByte interface {
	ReadByte(addr uint32) byte
	WriteByte(addr uint32, v byte)
}

// Memory is a flat physical address space backing a single CPU instance.
type Memory struct {
	ram []byte
	cb  ReadWriteByte
}

// New creates a flat-array memory of the given size in bytes.
func New(size uint32) *Memory {
	return &Memory{ram: make([]byte, size)}
}

// NewCallback creates a memory instance entirely backed by cb, per
// spec.md Sec.3's "optional custom memory callback supplanting the flat
// array".
func NewCallback(cb ReadWriteByte) *Memory {
	return &Memory{cb: cb}
}

// Size reports the flat array's size, or 0 for a callback-backed memory.
func (m *Memory) Size() uint32 {
	return uint32(len(m.ram))
}

// ReadByte reads one byte with no MMIO/MMU/watchpoint policy applied —
// callers needing that policy go through internal/cpu's access-layer
// methods instead.
func (m *Memory) ReadByte(addr uint32) byte {
	if m.cb != nil {
		return m.cb.ReadByte(addr)
	}
	if int(addr) >= len(m.ram) {
		return 0
	}
	return m.ram[addr]
}

// WriteByte writes one byte with no MMIO/MMU/watchpoint policy applied.
func (m *Memory) WriteByte(addr uint32, v byte) {
	if m.cb != nil {
		m.cb.WriteByte(addr, v)
		return
	}
	if int(addr) >= len(m.ram) {
		return
	}
	m.ram[addr] = v
}

// LoadImage copies data into the flat array starting at base. It is a
// no-op for callback-backed memory.
func (m *Memory) LoadImage(base uint32, data []byte) {
	if m.cb != nil {
		return
	}
	for i, b := range data {
		addr := int(base) + i
		if addr >= len(m.ram) {
			break
		}
		m.ram[addr] = b
	}
}

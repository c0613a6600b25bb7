package memory

import "testing"

func TestFlatArrayReadWrite(t *testing.T) {
	m := New(16)
	m.WriteByte(4, 0x42)
	if v := m.ReadByte(4); v != 0x42 {
		t.Errorf("ReadByte(4) = %#x, want 0x42", v)
	}
	if v := m.ReadByte(5); v != 0 {
		t.Errorf("ReadByte(5) = %#x, want 0 (never written)", v)
	}
}

func TestOutOfRangeReadReturnsZero(t *testing.T) {
	m := New(4)
	if v := m.ReadByte(100); v != 0 {
		t.Errorf("ReadByte(100) = %#x, want 0", v)
	}
}

func TestOutOfRangeWriteIsSilentNoOp(t *testing.T) {
	m := New(4)
	m.WriteByte(100, 0xFF) // must not panic
	if v := m.ReadByte(100); v != 0 {
		t.Errorf("ReadByte(100) after out-of-range write = %#x, want 0", v)
	}
}

func TestSizeReportsFlatArrayLength(t *testing.T) {
	m := New(1024)
	if m.Size() != 1024 {
		t.Errorf("Size() = %d, want 1024", m.Size())
	}
}

func TestCallbackBackedMemoryHasZeroSize(t *testing.T) {
	m := NewCallback(make(mapCallback))
	if m.Size() != 0 {
		t.Errorf("Size() on callback-backed memory = %d, want 0", m.Size())
	}
}

func TestCallbackBackedMemoryDelegates(t *testing.T) {
	cb := make(mapCallback)
	m := NewCallback(cb)
	m.WriteByte(0xFFFF0010, 0x7E)
	if v := m.ReadByte(0xFFFF0010); v != 0x7E {
		t.Errorf("ReadByte(0xFFFF0010) = %#x, want 0x7E", v)
	}
	if cb[0xFFFF0010] != 0x7E {
		t.Errorf("underlying callback map was not written through")
	}
}

func TestLoadImagePlacesBytesAtBase(t *testing.T) {
	m := New(16)
	m.LoadImage(4, []byte{1, 2, 3})
	for i, want := range []byte{1, 2, 3} {
		if v := m.ReadByte(uint32(4 + i)); v != want {
			t.Errorf("ReadByte(%d) = %#x, want %#x", 4+i, v, want)
		}
	}
}

func TestLoadImageTruncatesAtArrayEnd(t *testing.T) {
	m := New(4)
	m.LoadImage(2, []byte{1, 2, 3, 4}) // overruns the 4-byte array from offset 2
	if v := m.ReadByte(2); v != 1 {
		t.Errorf("ReadByte(2) = %#x, want 1", v)
	}
	if v := m.ReadByte(3); v != 2 {
		t.Errorf("ReadByte(3) = %#x, want 2", v)
	}
}

func TestLoadImageIsNoOpOnCallbackBackedMemory(t *testing.T) {
	cb := make(mapCallback)
	m := NewCallback(cb)
	m.LoadImage(0, []byte{1, 2, 3}) // must not touch cb or panic
	if len(cb) != 0 {
		t.Errorf("LoadImage on callback-backed memory wrote %d byte(s), want 0", len(cb))
	}
}

type mapCallback map[uint32]byte

func (c mapCallback) ReadByte(addr uint32) byte     { return c[addr] }
func (c mapCallback) WriteByte(addr uint32, v byte) { c[addr] = v }

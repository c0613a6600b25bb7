package hexfmt

import (
	"strings"
	"testing"
)

func TestFormatByte(t *testing.T) {
	var b strings.Builder
	FormatByte(&b, 0xA5)
	if b.String() != "A5" {
		t.Errorf("FormatByte(0xA5) = %q, want A5", b.String())
	}
}

func TestFormatBytesSpacing(t *testing.T) {
	var b strings.Builder
	FormatBytes(&b, true, []byte{0x01, 0xFF})
	if b.String() != "01 FF " {
		t.Errorf("FormatBytes(space=true) = %q, want \"01 FF \"", b.String())
	}

	b.Reset()
	FormatBytes(&b, false, []byte{0x01, 0xFF})
	if b.String() != "01FF" {
		t.Errorf("FormatBytes(space=false) = %q, want 01FF", b.String())
	}
}

func TestFormatWord32(t *testing.T) {
	var b strings.Builder
	FormatWord32(&b, 0x12345678)
	if b.String() != "12345678" {
		t.Errorf("FormatWord32 = %q, want 12345678", b.String())
	}
}

func TestFormatWord16(t *testing.T) {
	var b strings.Builder
	FormatWord16(&b, 0xBEEF)
	if b.String() != "BEEF" {
		t.Errorf("FormatWord16 = %q, want BEEF", b.String())
	}
}

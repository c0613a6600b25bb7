package cpu

import "github.com/benjcooley/m65832-sub008/internal/isa"

type isaWidth = isa.Width

// decodeWidthBits turns the (bit1, bit0) pair of a width field into a
// Width, per spec.md Sec.3 (00->8, 01->16, 10->32; 11 reserved, treated
// as 32).
func decodeWidthBits(bit1, bit0 bool) isaWidth {
	var field byte
	if bit1 {
		field |= 2
	}
	if bit0 {
		field |= 1
	}
	return isa.DecodeWidth(field)
}

// encodeWidthBits is decodeWidthBits's inverse.
func encodeWidthBits(w isaWidth) (bit1, bit0 bool) {
	switch w {
	case isa.Width8:
		return false, false
	case isa.Width16:
		return false, true
	default:
		return true, false
	}
}

package device

import "fmt"

// Segment bits of a 7-segment digit, TM1637 layout.
const (
	segA   byte = 1 << 0
	segB   byte = 1 << 1
	segC   byte = 1 << 2
	segD   byte = 1 << 3
	segE   byte = 1 << 4
	segF   byte = 1 << 5
	segG   byte = 1 << 6
	segDot byte = 1 << 7

	// SegDegree draws a ° sign.
	SegDegree = segA | segB | segG | segF
	// SegC draws a capital C.
	SegC = segA | segD | segE | segF
	// SegMinus draws a minus sign.
	SegMinus = segG

	segmentDigits = 4
	// The colon of a 4-digit clock module is wired to the dot bit of the second digit.
	colonPos = 1
)

var digitSegments = [10]byte{
	segA | segB | segC | segD | segE | segF,        // 0
	segB | segC,                                    // 1
	segA | segB | segD | segE | segG,               // 2
	segA | segB | segC | segD | segG,               // 3
	segB | segC | segF | segG,                      // 4
	segA | segC | segD | segF | segG,               // 5
	segA | segC | segD | segE | segF | segG,        // 6
	segA | segB | segC,                             // 7
	segA | segB | segC | segD | segE | segF | segG, // 8
	segA | segB | segC | segD | segF | segG,        // 9
}

// SegmentWriter writes raw segment bytes starting at the first digit,
// as periph.io's tm1637.Dev does.
type SegmentWriter interface {
	Write(seg []byte) (int, error)
}

// SegmentDisplay renders numbers on a 4-digit 7-segment module.
type SegmentDisplay struct {
	w   SegmentWriter
	buf [segmentDigits]byte
}

// NewSegmentDisplay wraps a segment writer.
func NewSegmentDisplay(w SegmentWriter) *SegmentDisplay {
	return &SegmentDisplay{w: w}
}

// ShowNumber renders value right-aligned in the first digits positions.
// Partial-width numbers keep leading zeros; full-width numbers blank them.
// Positions past digits are left untouched. dot lights the colon.
func (d *SegmentDisplay) ShowNumber(value int, dot bool, digits int) error {
	if digits <= 0 || digits > segmentDigits {
		digits = segmentDigits
	}
	encodeNumber(d.buf[:digits], value, digits < segmentDigits)

	if dot {
		d.buf[colonPos] |= segDot
	} else {
		d.buf[colonPos] &^= segDot
	}

	return d.flush()
}

// ShowDegreeCelsius draws "°C" in the last two positions.
func (d *SegmentDisplay) ShowDegreeCelsius() error {
	d.buf[2] = SegDegree | d.buf[2]&segDot
	d.buf[3] = SegC
	return d.flush()
}

// Segments returns the current segment buffer.
func (d *SegmentDisplay) Segments() [segmentDigits]byte {
	return d.buf
}

func (d *SegmentDisplay) flush() error {
	if _, err := d.w.Write(d.buf[:]); err != nil {
		return fmt.Errorf("failed to write segments: %w", err)
	}
	return nil
}

// encodeNumber fills dst with value, right-aligned. Values that do not fit
// are truncated to their lowest digits.
func encodeNumber(dst []byte, value int, leadingZero bool) {
	negative := value < 0
	if negative {
		value = -value
		leadingZero = false
	}

	for i := len(dst) - 1; i >= 0; i-- {
		switch {
		case value > 0 || i == len(dst)-1:
			dst[i] = digitSegments[value%10]
			value /= 10
		case negative:
			dst[i] = SegMinus
			negative = false
		case leadingZero:
			dst[i] = digitSegments[0]
		default:
			dst[i] = 0
		}
	}
}

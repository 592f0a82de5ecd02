package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/funktionpi/pacs/pkg/device"
)

var (
	_ device.StatusScreen   = (*Terminal)(nil)
	_ device.NumericDisplay = (*Digits)(nil)
	_ Flusher               = (*Terminal)(nil)
)

const (
	digitCells = 4
	clearHome  = "\x1b[H\x1b[2J"
)

var (
	colorBorder = lipgloss.Color("62")
	colorTitle  = lipgloss.Color("51")
	colorDigits = lipgloss.Color("196")
	colorLabel  = lipgloss.Color("243")
	colorText   = lipgloss.Color("252")

	screenStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1).
			Width(24)

	digitsStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorBorder).
			Foreground(colorDigits).
			Bold(true).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().Foreground(colorTitle).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(colorLabel)
	textStyle  = lipgloss.NewStyle().Foreground(colorText)
)

// Digits emulates a 4-digit 7-segment module with a center colon.
type Digits struct {
	label string
	cells [digitCells]string
	colon bool
}

func newDigits(label string) *Digits {
	d := &Digits{label: label}
	for i := range d.cells {
		d.cells[i] = " "
	}
	return d
}

// ShowNumber implements device.NumericDisplay with the same layout rules
// as the segment driver: partial widths keep leading zeros.
func (d *Digits) ShowNumber(value int, dot bool, digits int) error {
	if digits <= 0 || digits > digitCells {
		digits = digitCells
	}

	var s string
	if digits < digitCells && value >= 0 {
		s = fmt.Sprintf("%0*d", digits, value)
	} else {
		s = fmt.Sprintf("%*d", digits, value)
	}
	s = s[len(s)-digits:]

	for i := range digits {
		d.cells[i] = string(s[i])
	}
	d.colon = dot
	return nil
}

// ShowDegreeCelsius implements device.NumericDisplay.
func (d *Digits) ShowDegreeCelsius() error {
	d.cells[2] = "°"
	d.cells[3] = "C"
	return nil
}

// String returns the digits as shown, colon between the second and third cell.
func (d *Digits) String() string {
	sep := " "
	if d.colon {
		sep = ":"
	}
	return d.cells[0] + d.cells[1] + sep + d.cells[2] + d.cells[3]
}

// Terminal renders the status screen and both numeric displays as one
// lipgloss frame, redrawn on every Flush.
type Terminal struct {
	w           io.Writer
	rows        [Rows]string
	temperature *Digits
	power       *Digits
}

// NewTerminal creates a Terminal drawing to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{
		w:           w,
		temperature: newDigits("TEMP"),
		power:       newDigits("WATT"),
	}
}

// Temperature returns the emulated temperature display.
func (t *Terminal) Temperature() *Digits {
	return t.temperature
}

// Power returns the emulated power display.
func (t *Terminal) Power() *Digits {
	return t.power
}

// WriteLine implements device.StatusScreen.
func (t *Terminal) WriteLine(row int, text string) error {
	if row < 0 || row >= len(t.rows) {
		return fmt.Errorf("row %d out of range [0,%d)", row, len(t.rows))
	}
	t.rows[row] = text
	return nil
}

// Clear implements device.StatusScreen.
func (t *Terminal) Clear() error {
	t.rows = [Rows]string{}
	_, err := io.WriteString(t.w, clearHome)
	return err
}

// Flush redraws the frame.
func (t *Terminal) Flush() error {
	_, err := io.WriteString(t.w, clearHome+t.Render()+"\n")
	return err
}

// Render returns the frame without terminal control sequences.
func (t *Terminal) Render() string {
	lines := make([]string, 0, len(t.rows))
	for i, row := range t.rows {
		switch {
		case i == RowTitle:
			lines = append(lines, titleStyle.Render(row))
		case strings.Contains(row, ":"):
			label, value, _ := strings.Cut(row, ":")
			lines = append(lines, labelStyle.Render(label+":")+textStyle.Render(value))
		default:
			lines = append(lines, textStyle.Render(row))
		}
	}
	screen := screenStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))

	digits := lipgloss.JoinVertical(lipgloss.Left,
		renderDigits(t.temperature),
		renderDigits(t.power),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, screen, " ", digits)
}

func renderDigits(d *Digits) string {
	return lipgloss.JoinVertical(lipgloss.Center,
		labelStyle.Render(d.label),
		digitsStyle.Render(d.String()),
	)
}


package display

import "github.com/funktionpi/pacs/pkg/device"

var (
	_ device.NumericDisplay = Discard{}
	_ device.StatusScreen   = Discard{}
)

// Discard is a headless display that accepts and drops all output.
type Discard struct{}

func (Discard) ShowNumber(int, bool, int) error { return nil }
func (Discard) ShowDegreeCelsius() error        { return nil }
func (Discard) WriteLine(int, string) error     { return nil }
func (Discard) Clear() error                    { return nil }

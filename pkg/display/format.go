// Package display renders controller state on the numeric displays and
// the status screen.
package display

import (
	"fmt"

	"github.com/funktionpi/pacs/pkg/state"
)

// Title is the first status screen row.
const Title = "   -= PACS =-"

// Status screen rows.
const (
	RowTitle = iota
	RowFan
	RowTemperature
	RowHumidity
	RowDust
	RowBusVoltage
	RowCurrent
	RowPower

	Rows
)

// Lines formats the status screen rows for a snapshot.
func Lines(s state.Snapshot) []string {
	return []string{
		RowTitle:       Title,
		RowFan:         fmt.Sprintf("Fan Speed: %3d%%", int(s.FanRatio*100)),
		RowTemperature: fmt.Sprintf("Temp: %sC", formatFloat(s.Temperature)),
		RowHumidity:    fmt.Sprintf("Humi: %s%%", formatFloat(s.Humidity)),
		RowDust:        fmt.Sprintf("Dust LPO: %s", formatFloat(s.DustConcentration)),
		RowBusVoltage:  fmt.Sprintf("Pin: %sv ", formatFloat(s.BusVoltage)),
		RowCurrent:     fmt.Sprintf("Irms: %s ", formatFloat(s.CurrentRMS)),
		RowPower:       fmt.Sprintf("Power: %dw", int(s.PowerWatts)),
	}
}

// formatFloat renders v with two decimals in at least four columns.
func formatFloat(v float32) string {
	return fmt.Sprintf("%4.2f", v)
}

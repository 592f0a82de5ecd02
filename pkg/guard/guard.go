// Package guard substitutes safe values for failed temperature/humidity reads.
package guard

import (
	"log"

	"github.com/chewxy/math32"
)

// Reading is a guarded sensor reading. A failed value is reported as 0,
// which downstream code treats as "unknown, assume worst case".
type Reading struct {
	Temperature      float32
	Humidity         float32
	TemperatureValid bool
	HumidityValid    bool
}

// Guard checks raw readings and logs each fault once per occurrence.
type Guard struct {
	log *log.Logger
}

// New creates a Guard logging to logger. A nil logger discards fault lines.
func New(logger *log.Logger) *Guard {
	return &Guard{log: logger}
}

// Check validates a raw humidity h and temperature t.
// NaN humidity becomes 0. NaN or exactly 0 temperature becomes 0 and is
// flagged invalid.
func (g *Guard) Check(h, t float32) Reading {
	r := Reading{
		Temperature:      t,
		Humidity:         h,
		TemperatureValid: true,
		HumidityValid:    true,
	}

	if math32.IsNaN(h) {
		r.Humidity = 0
		r.HumidityValid = false
		g.logf("Failed to read humidity!")
	}

	// 0°C is indistinguishable from the failure sentinel.
	if math32.IsNaN(t) || t == 0 {
		r.Temperature = 0
		r.TemperatureValid = false
		g.logf("Failed to read temperature!")
	}

	return r
}

func (g *Guard) logf(format string, args ...any) {
	if g.log == nil {
		return
	}
	g.log.Printf(format, args...)
}

// Package fan maps temperature to a fan duty command with a thermal deadband.
package fan

import (
	"github.com/chewxy/math32"

	"github.com/funktionpi/pacs/pkg/config"
)

// Controller implements the fan control law. It holds no state of its own;
// the latch lives in the shared state record and is passed in.
type Controller struct {
	cfg config.FanConfig
}

// New creates a Controller for the given parameters.
func New(cfg config.FanConfig) *Controller {
	return &Controller{cfg: cfg}
}

// Ratio returns the duty ratio for a reading, clamped to [SpeedMin, 1].
// Unknown and sub-zero readings run the fan at full speed.
func (c *Controller) Ratio(temperature float32, valid bool) float32 {
	if !valid || temperature <= 0 {
		return 1
	}

	ratio := (math32.Round(temperature) - c.cfg.TemperatureMin) / c.cfg.TemperatureMax
	return clamp(ratio, c.cfg.SpeedMin, 1)
}

// Latch returns the next activation state.
//
// An active fan switches off only on a known reading at or below
// TemperatureMin-PowerOffset. An idle fan switches on above TemperatureMin
// or whenever the reading is unknown. A failed read therefore never turns
// the fan off.
func (c *Controller) Latch(temperature float32, valid, activated bool) bool {
	if activated {
		if known(temperature, valid) && temperature <= c.OffThreshold() {
			return false
		}
		return true
	}

	return !known(temperature, valid) || temperature > c.cfg.TemperatureMin
}

// Update computes ratio and latch together.
func (c *Controller) Update(temperature float32, valid, activated bool) (ratio float32, active bool) {
	return c.Ratio(temperature, valid), c.Latch(temperature, valid, activated)
}

// Duty converts the command to a PWM value. The latch gates the output
// regardless of the ratio.
func (c *Controller) Duty(ratio float32, activated bool) int {
	if !activated {
		return 0
	}
	return int(ratio * float32(c.cfg.FullScale))
}

// OffThreshold is the temperature at or below which an active fan stops.
func (c *Controller) OffThreshold() float32 {
	return c.cfg.TemperatureMin - c.cfg.PowerOffset
}

// known treats both the validity flag and the 0 sentinel as unknown.
func known(temperature float32, valid bool) bool {
	return valid && temperature != 0
}

func clamp(v, lo, hi float32) float32 {
	if v > hi {
		return hi
	}
	if v < lo {
		return lo
	}
	return v
}

package fan

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"

	"github.com/funktionpi/pacs/pkg/config"
)

func newController() *Controller {
	return New(config.Default().Fan)
}

func TestController_RatioFormula(t *testing.T) {
	c := newController()
	cfg := config.Default().Fan

	// Every temperature in (min, min+max], including fractional ones.
	for temp := cfg.TemperatureMin + 0.25; temp <= cfg.TemperatureMin+cfg.TemperatureMax; temp += 0.25 {
		want := (math32.Round(temp) - cfg.TemperatureMin) / cfg.TemperatureMax
		if want < cfg.SpeedMin {
			want = cfg.SpeedMin
		}
		if want > 1 {
			want = 1
		}
		assert.InDelta(t, want, c.Ratio(temp, true), 1e-6, "temperature %v", temp)
	}
}

func TestController_Ratio(t *testing.T) {
	c := newController()

	tests := []struct {
		name  string
		temp  float32
		valid bool
		want  float32
	}{
		{name: "cold clamps to minimum", temp: 20, valid: true, want: 0.2},
		{name: "at threshold clamps to minimum", temp: 43, valid: true, want: 0.2},
		{name: "mid range", temp: 71, valid: true, want: 28.0 / 70.0},
		{name: "rounds half up", temp: 70.5, valid: true, want: 28.0 / 70.0},
		{name: "full span", temp: 113, valid: true, want: 1},
		{name: "above span clamps to one", temp: 150, valid: true, want: 1},
		{name: "sentinel forces full speed", temp: 0, valid: true, want: 1},
		{name: "invalid flag forces full speed", temp: 25, valid: false, want: 1},
		{name: "below zero forces full speed", temp: -5, valid: true, want: 1},
		{name: "just below zero forces full speed", temp: -0.1, valid: true, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, c.Ratio(tt.temp, tt.valid), 1e-6)
		})
	}
}

func TestController_Hysteresis(t *testing.T) {
	c := newController()
	assert.Equal(t, float32(40), c.OffThreshold())

	tests := []struct {
		name      string
		temp      float32
		activated bool
		want      bool
	}{
		{name: "idle below threshold stays idle", temp: 42, activated: false, want: false},
		{name: "idle at threshold stays idle", temp: 43, activated: false, want: false},
		{name: "idle above threshold activates", temp: 43.1, activated: false, want: true},
		{name: "active in deadband stays active", temp: 41, activated: true, want: true},
		{name: "active just above off point stays active", temp: 40.1, activated: true, want: true},
		{name: "active at off point deactivates", temp: 40, activated: true, want: false},
		{name: "active below off point deactivates", temp: 35, activated: true, want: false},
		{name: "idle with sentinel activates", temp: 0, activated: false, want: true},
		{name: "idle below zero stays idle", temp: -5, activated: false, want: false},
		{name: "active below zero deactivates", temp: -5, activated: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Latch(tt.temp, tt.temp != 0, tt.activated))
		})
	}
}

func TestController_HysteresisSequence(t *testing.T) {
	c := newController()

	activated := false
	var got []bool
	for _, temp := range []float32{30, 44, 42, 41, 40.5, 40, 42, 43, 44} {
		_, activated = c.Update(temp, true, activated)
		got = append(got, activated)
	}

	assert.Equal(t, []bool{false, true, true, true, true, false, false, false, true}, got)
}

// A failed read while running hot keeps the fan on at full speed; the
// substituted 0 never satisfies the switch-off comparison.
func TestController_FaultWhileActive(t *testing.T) {
	c := newController()

	ratio, activated := c.Update(50, true, false)
	assert.True(t, activated)
	assert.InDelta(t, 0.2, ratio, 1e-6) // 7/70 clamps to speed_min

	ratio, activated = c.Update(0, false, activated)
	assert.Equal(t, float32(1), ratio)
	assert.True(t, activated)
	assert.Equal(t, 255, c.Duty(ratio, activated))
}

func TestController_Duty(t *testing.T) {
	c := newController()

	assert.Equal(t, 0, c.Duty(1, false), "latch gates the output")
	assert.Equal(t, 0, c.Duty(0.2, false))
	assert.Equal(t, 51, c.Duty(0.2, true))
	assert.Equal(t, 255, c.Duty(1, true))
	assert.Equal(t, 127, c.Duty(0.5, true))
}

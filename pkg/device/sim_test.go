package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funktionpi/pacs/pkg/config"
)

type simClock struct {
	t time.Time
}

func (c *simClock) now() time.Time { return c.t }

func (c *simClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestSim(cfg config.SimConfig) (*Sim, *simClock) {
	clk := &simClock{t: time.Unix(1000, 0)}
	s := NewSim(&cfg, 255)
	s.now = clk.now
	return s, clk
}

func TestSim_Defaults(t *testing.T) {
	s := NewSim(nil, 0)
	def := config.Default().Sim

	assert.Equal(t, 255, s.fullScale)
	assert.InDelta(t, float64(def.Ambient+def.HeatLoad), s.Temperature(), 1e-9)
}

func TestSim_FanCools(t *testing.T) {
	cfg := config.Default().Sim
	cfg.FaultRate = 0

	hot, hotClk := newTestSim(cfg)
	cooled, coolClk := newTestSim(cfg)
	require.NoError(t, cooled.SetDuty(255))
	require.NoError(t, hot.SetDuty(0))

	for range 300 {
		hotClk.advance(time.Second)
		coolClk.advance(time.Second)
		hot.ReadTemperature()
		cooled.ReadTemperature()
	}

	start := float64(cfg.Ambient + cfg.HeatLoad)
	assert.InDelta(t, start, hot.Temperature(), 0.01, "no fan, no cooling")
	assert.Less(t, cooled.Temperature(), start-20)
	assert.Greater(t, cooled.Temperature(), float64(cfg.Ambient))
}

func TestSim_Faults(t *testing.T) {
	cfg := config.Default().Sim
	cfg.FaultRate = 1

	s, _ := newTestSim(cfg)
	assert.True(t, isNaN(s.ReadTemperature()))
	assert.True(t, isNaN(s.ReadHumidity()))

	cfg.FaultRate = 0
	s, _ = newTestSim(cfg)
	for range 100 {
		assert.False(t, isNaN(s.ReadTemperature()))
		h := s.ReadHumidity()
		assert.False(t, isNaN(h))
		assert.GreaterOrEqual(t, h, float32(5))
		assert.LessOrEqual(t, h, float32(95))
	}
}

func TestSim_Current(t *testing.T) {
	cfg := config.Default().Sim
	cfg.CurrentAmps = 2

	s, _ := newTestSim(cfg)
	assert.InDelta(t, 2.0, s.CalcIrms(5588), 0.05)
	assert.Zero(t, s.CalcIrms(0))
	assert.InDelta(t, simBusCounts, int(s.SampleAnalog()), 2)

	cfg.CurrentAmps = 0
	s, _ = newTestSim(cfg)
	assert.Zero(t, s.CalcIrms(5588))
}

func TestSim_Pulses(t *testing.T) {
	cfg := config.Default().Sim
	cfg.DustOccupancy = 0.05

	s, clk := newTestSim(cfg)
	assert.Zero(t, s.MeasureLowPulse(), "first call starts the window")

	clk.advance(time.Second)
	assert.Equal(t, 50*time.Millisecond, s.MeasureLowPulse())

	clk.advance(10 * time.Millisecond)
	assert.Equal(t, 500*time.Microsecond, s.MeasureLowPulse())
}

func TestSim_SetDutyClamps(t *testing.T) {
	s, _ := newTestSim(config.Default().Sim)

	require.NoError(t, s.SetDuty(400))
	assert.Equal(t, 255, s.Duty())
	require.NoError(t, s.SetDuty(-1))
	assert.Equal(t, 0, s.Duty())
}

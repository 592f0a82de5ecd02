package device

import (
	"math"
	"math/rand"
	"time"

	"github.com/chewxy/math32"

	"github.com/funktionpi/pacs/pkg/config"
)

const (
	// simThermalTau is the time constant of the simulated enclosure.
	simThermalTau = 60 * time.Second
	// simFanCooling is the fraction of the heat load a full-speed fan removes.
	simFanCooling = 0.8
	// simBusCounts is the raw ADC reading of the simulated bus voltage pin (~2.5V).
	simBusCounts = 512
)

// Sim simulates the sensors and fan of a cooled enclosure for development
// without hardware. Fan duty feeds back into the simulated temperature.
// It is not safe for concurrent use; the control loop is its only caller.
type Sim struct {
	cfg       config.SimConfig
	fullScale int
	rng       *rand.Rand
	now       func() time.Time

	last        time.Time
	lastPulse   time.Time
	temperature float64
	duty        int
}

// NewSim creates a simulator. A nil cfg uses the default simulation parameters.
func NewSim(cfg *config.SimConfig, fullScale int) *Sim {
	if cfg == nil {
		def := config.Default().Sim
		cfg = &def
	}
	if fullScale <= 0 {
		fullScale = 255
	}

	return &Sim{
		cfg:         *cfg,
		fullScale:   fullScale,
		rng:         rand.New(rand.NewSource(cfg.Seed)),
		now:         time.Now,
		temperature: float64(cfg.Ambient + cfg.HeatLoad),
	}
}

// ReadTemperature implements Thermometer.
func (s *Sim) ReadTemperature() float32 {
	s.step()
	if s.rng.Float64() < s.cfg.FaultRate {
		return math32.NaN()
	}
	return float32(s.temperature + s.noise(0.1))
}

// ReadHumidity implements Thermometer.
func (s *Sim) ReadHumidity() float32 {
	if s.rng.Float64() < s.cfg.FaultRate {
		return math32.NaN()
	}
	// Warmer air holds the same water at lower relative humidity.
	rh := 60 - (s.temperature-float64(s.cfg.Ambient))*0.5 + s.noise(0.5)
	return float32(math.Max(5, math.Min(95, rh)))
}

// SampleAnalog implements CurrentSensor.
func (s *Sim) SampleAnalog() uint16 {
	return uint16(simBusCounts + s.rng.Intn(5) - 2)
}

// CalcIrms implements CurrentSensor.
func (s *Sim) CalcIrms(samples int) float64 {
	if samples <= 0 || s.cfg.CurrentAmps == 0 {
		return 0
	}
	return math.Max(0, s.cfg.CurrentAmps+s.noise(s.cfg.CurrentAmps*0.02))
}

// MeasureLowPulse implements PulseSensor. It reports the configured
// occupancy of the time elapsed since the previous call.
func (s *Sim) MeasureLowPulse() time.Duration {
	now := s.now()
	if s.lastPulse.IsZero() {
		s.lastPulse = now
		return 0
	}
	elapsed := now.Sub(s.lastPulse)
	s.lastPulse = now
	return time.Duration(float64(elapsed) * s.cfg.DustOccupancy)
}

// SetDuty implements FanOutput.
func (s *Sim) SetDuty(value int) error {
	s.step()
	s.duty = max(0, min(value, s.fullScale))
	return nil
}

// Duty returns the last fan duty written.
func (s *Sim) Duty() int {
	return s.duty
}

// Temperature returns the noiseless simulated temperature.
func (s *Sim) Temperature() float64 {
	return s.temperature
}

// step advances the thermal model to now: first-order approach to
// ambient plus the heat load left over after fan cooling.
func (s *Sim) step() {
	now := s.now()
	if s.last.IsZero() {
		s.last = now
		return
	}
	dt := now.Sub(s.last)
	s.last = now
	if dt <= 0 {
		return
	}

	cooling := simFanCooling * float64(s.duty) / float64(s.fullScale)
	target := float64(s.cfg.Ambient) + float64(s.cfg.HeatLoad)*(1-cooling)
	alpha := 1 - math.Exp(-dt.Seconds()/simThermalTau.Seconds())
	s.temperature += alpha * (target - s.temperature)
}

func (s *Sim) noise(level float64) float64 {
	return (s.rng.Float64()*2 - 1) * level
}

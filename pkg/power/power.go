package power

import (
	"time"

	"github.com/funktionpi/pacs/pkg/config"
	"github.com/funktionpi/pacs/pkg/device"
)

// Reading is the result of one power measurement.
type Reading struct {
	CurrentRMS float32       // RMS current (A)
	BusVoltage float32       // Voltage on the sensor pin (V)
	Watts      float32       // Apparent power (W)
	Took       time.Duration // Time spent sampling
}

// Meter estimates power draw from a current transformer.
type Meter struct {
	cfg    config.PowerConfig
	sensor device.CurrentSensor
	now    func() time.Time
}

// New creates a Meter reading from sensor.
func New(cfg config.PowerConfig, sensor device.CurrentSensor) *Meter {
	return &Meter{
		cfg:    cfg,
		sensor: sensor,
		now:    time.Now,
	}
}

// Measure samples the sensor pin and computes RMS current and power.
// It blocks for SampleCount samples.
func (m *Meter) Measure() Reading {
	start := m.now()

	volts := adcToVoltage(m.sensor.SampleAnalog(), m.cfg.ADCVolts)
	irms := float32(m.sensor.CalcIrms(m.cfg.SampleCount))

	return Reading{
		CurrentRMS: irms,
		BusVoltage: volts,
		Watts:      Watts(irms, float32(m.cfg.LineVoltage)),
		Took:       m.now().Sub(start),
	}
}

// Watts returns apparent power for an RMS current at the given line voltage.
// No power factor correction is applied.
func Watts(irms, lineVoltage float32) float32 {
	return irms * lineVoltage
}

// adcToVoltage converts a raw ADC reading to volts.
func adcToVoltage(adc uint16, voltsPerCount float64) float32 {
	return float32(float64(adc) * voltsPerCount)
}

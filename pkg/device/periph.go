package device

import (
	"fmt"
	"log"
	"time"

	"github.com/chewxy/math32"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// EnvSense is implemented by periph.io environmental sensors (bmxx80, aht20, sht4x, ...).
type EnvSense interface {
	Sense(e *physic.Env) error
}

// DefaultSenseMaxAge is how long one Sense result serves both readings.
const DefaultSenseMaxAge = 200 * time.Millisecond

// EnvSensor adapts a periph.io environmental sensor to Thermometer.
// One Sense call serves a humidity read followed by a temperature read.
type EnvSensor struct {
	dev    EnvSense
	maxAge time.Duration
	now    func() time.Time

	env physic.Env
	at  time.Time
	err error
}

// NewEnvSensor wraps dev. maxAge of 0 uses DefaultSenseMaxAge.
func NewEnvSensor(dev EnvSense, maxAge time.Duration) *EnvSensor {
	if maxAge == 0 {
		maxAge = DefaultSenseMaxAge
	}
	return &EnvSensor{dev: dev, maxAge: maxAge, now: time.Now}
}

// ReadHumidity returns relative humidity in %, NaN on failure.
func (s *EnvSensor) ReadHumidity() float32 {
	if err := s.sense(); err != nil {
		return math32.NaN()
	}
	return float32(float64(s.env.Humidity) / float64(physic.PercentRH))
}

// ReadTemperature returns the temperature in °C, NaN on failure.
func (s *EnvSensor) ReadTemperature() float32 {
	if err := s.sense(); err != nil {
		return math32.NaN()
	}
	return float32(s.env.Temperature.Celsius())
}

func (s *EnvSensor) sense() error {
	now := s.now()
	if !s.at.IsZero() && now.Sub(s.at) < s.maxAge {
		return s.err
	}

	var e physic.Env
	s.err = s.dev.Sense(&e)
	s.at = now
	if s.err != nil {
		log.Printf("Failed to sense environment: %v", s.err)
		return s.err
	}
	s.env = e
	return nil
}

// PWMFan drives the fan MOSFET with hardware PWM on a periph.io pin.
type PWMFan struct {
	pin       gpio.PinOut
	fullScale int
	freq      physic.Frequency
}

// NewPWMFan creates a fan output. Duty values are 0..fullScale.
func NewPWMFan(pin gpio.PinOut, fullScale int, freq physic.Frequency) *PWMFan {
	return &PWMFan{pin: pin, fullScale: fullScale, freq: freq}
}

// SetDuty implements FanOutput. Zero drives the pin low instead of a 0% PWM.
func (f *PWMFan) SetDuty(value int) error {
	if value <= 0 {
		if err := f.pin.Out(gpio.Low); err != nil {
			return fmt.Errorf("failed to stop fan on %s: %w", f.pin, err)
		}
		return nil
	}
	if value > f.fullScale {
		value = f.fullScale
	}

	duty := gpio.Duty(int64(value) * int64(gpio.DutyMax) / int64(f.fullScale))
	if err := f.pin.PWM(duty, f.freq); err != nil {
		return fmt.Errorf("failed to set fan duty %s on %s: %w", duty, f.pin, err)
	}
	return nil
}

// PulsePin times low pulses on a particulate sensor output line.
type PulsePin struct {
	pin     gpio.PinIn
	timeout time.Duration
	now     func() time.Time
}

// NewPulsePin configures pin as a pulled-up input with edge detection.
// Each edge wait is bounded by timeout.
func NewPulsePin(pin gpio.PinIn, timeout time.Duration) (*PulsePin, error) {
	if err := pin.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("failed to configure %s as input: %w", pin, err)
	}
	return &PulsePin{pin: pin, timeout: timeout, now: time.Now}, nil
}

// MeasureLowPulse waits for the line to fall, then returns how long it
// stayed low. It returns 0 if any edge does not arrive within the timeout.
func (p *PulsePin) MeasureLowPulse() time.Duration {
	// A pulse already in progress is skipped so only whole pulses are timed.
	if !p.waitFor(gpio.High) {
		return 0
	}
	if !p.waitFor(gpio.Low) {
		return 0
	}
	start := p.now()
	if !p.waitFor(gpio.High) {
		return 0
	}
	return p.now().Sub(start)
}

func (p *PulsePin) waitFor(l gpio.Level) bool {
	for p.pin.Read() != l {
		if !p.pin.WaitForEdge(p.timeout) {
			return false
		}
	}
	return true
}

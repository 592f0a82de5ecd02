package device

import "time"

// Thermometer reads ambient temperature (°C) and relative humidity (%).
// A failed read returns NaN.
type Thermometer interface {
	ReadTemperature() float32
	ReadHumidity() float32
}

// ADC returns one raw analog sample.
type ADC interface {
	Sample() uint16
}

// CurrentSensor samples a current transformer input.
type CurrentSensor interface {
	// SampleAnalog returns one raw reading of the sensor pin.
	SampleAnalog() uint16
	// CalcIrms returns the RMS current over the given number of samples.
	CalcIrms(samples int) float64
}

// PulseSensor measures how long the particulate sensor output is held low.
// Implementations bound the wait with their own timeout.
type PulseSensor interface {
	MeasureLowPulse() time.Duration
}

// NumericDisplay is a small multi-digit segment display.
type NumericDisplay interface {
	ShowNumber(value int, dot bool, digits int) error
	ShowDegreeCelsius() error
}

// StatusScreen is a line-addressed character screen.
type StatusScreen interface {
	WriteLine(row int, text string) error
	Clear() error
}

// FanOutput is the PWM actuator driving the fan, 0..full scale.
type FanOutput interface {
	SetDuty(value int) error
}

// Ensure implementations satisfy the interfaces.
var (
	_ Thermometer   = (*EnvSensor)(nil)
	_ FanOutput     = (*PWMFan)(nil)
	_ PulseSensor   = (*PulsePin)(nil)
	_ ADC           = (*SerialADC)(nil)
	_ Thermometer   = (*Sim)(nil)
	_ CurrentSensor = (*Sim)(nil)
	_ PulseSensor   = (*Sim)(nil)
	_ FanOutput     = (*Sim)(nil)
)

package main

import (
	"errors"
	"fmt"
	"log"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/aht20"
	"periph.io/x/devices/v3/tm1637"
	"periph.io/x/host/v3"

	"github.com/funktionpi/pacs/pkg/config"
	"github.com/funktionpi/pacs/pkg/controller"
	"github.com/funktionpi/pacs/pkg/device"
	"github.com/funktionpi/pacs/pkg/display"
	"github.com/funktionpi/pacs/pkg/power"
)

// closers releases opened hardware in reverse order.
type closers []func() error

func (c *closers) add(f func() error) {
	*c = append(*c, f)
}

func (c closers) Close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// openHardware initializes the host and opens every device named in cfg.Pins.
// Displays without pins are replaced by display.Discard.
func openHardware(cfg *config.Config, logger *log.Logger) (controller.Devices, closers, error) {
	var (
		dev controller.Devices
		cl  closers
	)

	if _, err := host.Init(); err != nil {
		return dev, cl, fmt.Errorf("failed to initialize host: %w", err)
	}

	bus, err := i2creg.Open(cfg.Pins.I2C)
	if err != nil {
		return dev, cl, fmt.Errorf("failed to open I²C bus %q: %w", cfg.Pins.I2C, err)
	}
	cl.add(bus.Close)

	env, err := aht20.NewI2C(bus, nil)
	if err != nil {
		return dev, cl, fmt.Errorf("failed to open temperature sensor: %w", err)
	}
	dev.Thermometer = device.NewEnvSensor(env, 0)

	fanPin, err := pinByName("fan", cfg.Pins.Fan)
	if err != nil {
		return dev, cl, err
	}
	cl.add(fanPin.Halt)
	dev.Fan = device.NewPWMFan(fanPin, cfg.Fan.FullScale, physic.Frequency(cfg.Fan.PWMFrequency)*physic.Hertz)

	dustPin, err := pinByName("dust", cfg.Pins.Dust)
	if err != nil {
		return dev, cl, err
	}
	pulse, err := device.NewPulsePin(dustPin, cfg.Dust.PulseTimeout)
	if err != nil {
		return dev, cl, err
	}
	dev.Dust = pulse

	adc := device.NewSerialADC(cfg.Pins.ADC, 0, 0)
	if err := adc.Connect(); err != nil {
		return dev, cl, fmt.Errorf("failed to open current sensor: %w", err)
	}
	cl.add(adc.Close)
	dev.Current = power.NewRMS(adc, cfg.Power)

	dev.TemperatureDisplay, err = openSegments("temperature", cfg.Pins.TemperatureClk, cfg.Pins.TemperatureDio, &cl, logger)
	if err != nil {
		return dev, cl, err
	}
	dev.PowerDisplay, err = openSegments("power", cfg.Pins.PowerClk, cfg.Pins.PowerDio, &cl, logger)
	if err != nil {
		return dev, cl, err
	}
	dev.Screen = display.Discard{}

	return dev, cl, nil
}

func pinByName(role, name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("failed to find %s pin %q", role, name)
	}
	return p, nil
}

// openSegments opens a TM1637 module on clk/dio, or returns display.Discard
// when either pin is unset.
func openSegments(role, clk, dio string, cl *closers, logger *log.Logger) (device.NumericDisplay, error) {
	if clk == "" || dio == "" {
		logger.Printf("No %s display configured", role)
		return display.Discard{}, nil
	}

	clkPin, err := pinByName(role+" display clock", clk)
	if err != nil {
		return nil, err
	}
	dioPin, err := pinByName(role+" display data", dio)
	if err != nil {
		return nil, err
	}

	d, err := tm1637.New(clkPin, dioPin)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s display: %w", role, err)
	}
	if err := d.SetBrightness(tm1637.Brightness14); err != nil {
		return nil, fmt.Errorf("failed to set %s display brightness: %w", role, err)
	}
	cl.add(d.Halt)

	return device.NewSegmentDisplay(d), nil
}

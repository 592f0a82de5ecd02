// Package controller wires the sensors, control laws and displays into
// the periodic tasks of the cooling controller.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/funktionpi/pacs/pkg/config"
	"github.com/funktionpi/pacs/pkg/device"
	"github.com/funktionpi/pacs/pkg/display"
	"github.com/funktionpi/pacs/pkg/dust"
	"github.com/funktionpi/pacs/pkg/fan"
	"github.com/funktionpi/pacs/pkg/guard"
	"github.com/funktionpi/pacs/pkg/power"
	"github.com/funktionpi/pacs/pkg/scheduler"
	"github.com/funktionpi/pacs/pkg/state"
)

// Task names in execution order.
const (
	TaskTemperature = "temperature"
	TaskPower       = "power"
	TaskBlink       = "blink"
	TaskScreen      = "screen"
	TaskDust        = "dust"
	TaskTelemetry   = "telemetry"
)

// Devices groups the hardware the controller drives.
type Devices struct {
	Thermometer        device.Thermometer
	Current            device.CurrentSensor
	Dust               device.PulseSensor
	Fan                device.FanOutput
	TemperatureDisplay device.NumericDisplay
	PowerDisplay       device.NumericDisplay
	Screen             device.StatusScreen
}

func (d Devices) validate() error {
	var errs []error
	if d.Thermometer == nil {
		errs = append(errs, errors.New("thermometer is required"))
	}
	if d.Current == nil {
		errs = append(errs, errors.New("current sensor is required"))
	}
	if d.Dust == nil {
		errs = append(errs, errors.New("dust sensor is required"))
	}
	if d.Fan == nil {
		errs = append(errs, errors.New("fan output is required"))
	}
	if d.TemperatureDisplay == nil || d.PowerDisplay == nil || d.Screen == nil {
		errs = append(errs, errors.New("displays are required"))
	}
	return errors.Join(errs...)
}

// Publisher receives a snapshot on every telemetry tick.
type Publisher interface {
	Publish(s state.Snapshot) error
}

// Controller owns the shared state and the tasks that update it.
type Controller struct {
	cfg   *config.Config
	state *state.State
	dev   Devices
	log   *log.Logger

	guard      *guard.Guard
	fan        *fan.Controller
	meter      *power.Meter
	dust       *dust.Estimator
	view       *display.Presenter
	publisher  Publisher
	dispatcher *scheduler.Dispatcher
}

// New validates cfg and dev and registers the tasks, with their first
// windows starting at start. pub may be nil to disable telemetry.
func New(cfg *config.Config, st *state.State, dev Devices, pub Publisher, logger *log.Logger, start time.Time) (*Controller, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := dev.validate(); err != nil {
		return nil, fmt.Errorf("invalid devices: %w", err)
	}
	if st == nil {
		st = state.New()
	}
	if logger == nil {
		logger = log.Default()
	}

	c := &Controller{
		cfg:        cfg,
		state:      st,
		dev:        dev,
		log:        logger,
		guard:      guard.New(logger),
		fan:        fan.New(cfg.Fan),
		meter:      power.New(cfg.Power, dev.Current),
		dust:       dust.New(cfg.Dust.Window, start),
		view:       display.NewPresenter(dev.TemperatureDisplay, dev.PowerDisplay, dev.Screen, logger),
		publisher:  pub,
		dispatcher: scheduler.New(cfg.Schedule.Idle, logger),
	}

	sched := cfg.Schedule
	d := c.dispatcher
	d.Every(TaskTemperature, sched.Temperature, start, c.updateTemperature)
	d.Every(TaskPower, sched.Power, start, c.updatePower)
	d.Every(TaskBlink, sched.Blink, start, c.toggleBlink)
	d.Every(TaskScreen, sched.Screen, start, c.refreshScreen)
	d.Always(TaskDust, c.updateDust)
	if pub != nil {
		d.Every(TaskTelemetry, cfg.Telemetry.Interval, start, c.publish)
	}

	c.view.Init()
	return c, nil
}

// Run drives the tasks until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	return c.dispatcher.Run(ctx)
}

// Pass runs one dispatcher pass at now.
func (c *Controller) Pass(now time.Time) int {
	return c.dispatcher.Pass(now)
}

// Tasks returns the task names in execution order.
func (c *Controller) Tasks() []string {
	return c.dispatcher.Tasks()
}

// State returns the shared record. It must only be read from the control goroutine.
func (c *Controller) State() *state.State {
	return c.state
}

// updateTemperature applies the previous fan command, then reads the
// thermometer and computes the next command.
func (c *Controller) updateTemperature(now time.Time) {
	st := c.state

	duty := c.fan.Duty(st.FanRatio, st.FanActivated)
	if err := c.dev.Fan.SetDuty(duty); err != nil {
		c.log.Printf("Failed to set fan duty: %v", err)
	} else {
		st.FanDuty = duty
	}

	r := c.guard.Check(c.dev.Thermometer.ReadHumidity(), c.dev.Thermometer.ReadTemperature())
	st.Humidity = r.Humidity
	st.Temperature = r.Temperature
	st.TemperatureValid = r.TemperatureValid
	st.FanRatio, st.FanActivated = c.fan.Update(r.Temperature, r.TemperatureValid, st.FanActivated)
	st.UpdatedAt = now

	c.log.Printf("temp: %dc", int(st.Temperature))
	c.view.ShowTemperature(st.Snapshot())
}

func (c *Controller) updatePower(now time.Time) {
	r := c.meter.Measure()

	st := c.state
	st.BusVoltage = r.BusVoltage
	st.CurrentRMS = r.CurrentRMS
	st.PowerWatts = r.Watts
	st.UpdatedAt = now

	c.view.ShowPower(st.Snapshot())
	c.log.Printf("power: %.2fw, took %dms", r.Watts, r.Took.Milliseconds())
}

func (c *Controller) toggleBlink(time.Time) {
	c.state.BlinkPhase = !c.state.BlinkPhase
	c.view.Blink(c.state.Snapshot())
}

func (c *Controller) refreshScreen(time.Time) {
	c.view.Refresh(c.state.Snapshot())
}

func (c *Controller) updateDust(now time.Time) {
	c.dust.Accumulate(c.dev.Dust.MeasureLowPulse())

	r, ok := c.dust.Update(now)
	if !ok {
		return
	}
	c.state.DustRatio = r.Ratio
	c.state.DustConcentration = r.Concentration
	c.state.UpdatedAt = now
	c.log.Printf("concentration: %.2f", r.Concentration)
}

func (c *Controller) publish(time.Time) {
	if err := c.publisher.Publish(c.state.Snapshot()); err != nil {
		c.log.Printf("Failed to publish telemetry: %v", err)
	}
}

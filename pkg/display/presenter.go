package display

import (
	"log"

	"github.com/funktionpi/pacs/pkg/device"
	"github.com/funktionpi/pacs/pkg/state"
)

// Flusher is implemented by screens that buffer rows until a full frame is written.
type Flusher interface {
	Flush() error
}

// temperatureDigits is the width of the temperature readout; the last two
// positions hold the °C unit.
const temperatureDigits = 2

// Presenter draws snapshots on the two numeric displays and the status
// screen. Driver errors are logged and never returned.
type Presenter struct {
	temperature device.NumericDisplay
	power       device.NumericDisplay
	screen      device.StatusScreen
	log         *log.Logger
}

// NewPresenter creates a Presenter. A nil logger uses the standard logger.
func NewPresenter(temperature, power device.NumericDisplay, screen device.StatusScreen, logger *log.Logger) *Presenter {
	if logger == nil {
		logger = log.Default()
	}
	return &Presenter{
		temperature: temperature,
		power:       power,
		screen:      screen,
		log:         logger,
	}
}

// Init clears the status screen.
func (p *Presenter) Init() {
	if err := p.screen.Clear(); err != nil {
		p.log.Printf("Failed to clear screen: %v", err)
	}
}

// ShowTemperature draws the whole degrees and the °C unit.
func (p *Presenter) ShowTemperature(s state.Snapshot) {
	p.showTemperatureDigits(s)
	if err := p.temperature.ShowDegreeCelsius(); err != nil {
		p.log.Printf("Failed to update temperature display: %v", err)
	}
}

// Blink redraws the temperature digits with the current blink phase.
func (p *Presenter) Blink(s state.Snapshot) {
	p.showTemperatureDigits(s)
}

// ShowPower draws whole watts on the power display.
func (p *Presenter) ShowPower(s state.Snapshot) {
	if err := p.power.ShowNumber(int(s.PowerWatts), s.BlinkPhase, 0); err != nil {
		p.log.Printf("Failed to update power display: %v", err)
	}
}

// Refresh rewrites every status screen row.
func (p *Presenter) Refresh(s state.Snapshot) {
	for row, line := range Lines(s) {
		if err := p.screen.WriteLine(row, line); err != nil {
			p.log.Printf("Failed to write screen row %d: %v", row, err)
			return
		}
	}
	if f, ok := p.screen.(Flusher); ok {
		if err := f.Flush(); err != nil {
			p.log.Printf("Failed to flush screen: %v", err)
		}
	}
}

func (p *Presenter) showTemperatureDigits(s state.Snapshot) {
	if err := p.temperature.ShowNumber(int(s.Temperature), s.BlinkPhase, temperatureDigits); err != nil {
		p.log.Printf("Failed to update temperature display: %v", err)
	}
}

// Package state holds the single record of latest readings and derived
// outputs shared between the control tasks and presentation.
//
// Field groups are written only by the task that computes them:
//
//	temperature task: Temperature, Humidity, TemperatureValid, FanRatio, FanActivated, FanDuty
//	power task:       CurrentRMS, BusVoltage, PowerWatts
//	dust task:        DustRatio, DustConcentration
//	blink task:       BlinkPhase
//
// UpdatedAt is shared: the temperature, power and dust tasks each stamp it
// when they store a new reading.
//
// All tasks run on one goroutine, so the record needs no locking.
// Readers outside the control loop get a Snapshot copy.
package state

import "time"

// State is the canonical controller record.
type State struct {
	// Temperature is the last reading in °C. 0 means unknown.
	Temperature float32
	// Humidity is the last reading in %. 0 means unknown.
	Humidity         float32
	TemperatureValid bool

	FanRatio     float32 // Commanded duty ratio in [speed_min, 1]
	FanActivated bool    // Hysteresis latch
	FanDuty      int     // Last value written to the fan output

	DustRatio         float32
	DustConcentration float32

	CurrentRMS float32
	BusVoltage float32
	PowerWatts float32

	BlinkPhase bool

	UpdatedAt time.Time
}

// Snapshot is a read-only copy of State for presentation and telemetry.
type Snapshot struct {
	Temperature       float32   `json:"temperature_c"`
	Humidity          float32   `json:"humidity_pct"`
	TemperatureValid  bool      `json:"temperature_valid"`
	FanRatio          float32   `json:"fan_ratio"`
	FanActivated      bool      `json:"fan_activated"`
	FanDuty           int       `json:"fan_duty"`
	DustRatio         float32   `json:"dust_ratio"`
	DustConcentration float32   `json:"dust_concentration"`
	CurrentRMS        float32   `json:"current_rms"`
	BusVoltage        float32   `json:"bus_voltage"`
	PowerWatts        float32   `json:"power_watts"`
	BlinkPhase        bool      `json:"-"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// New returns the power-on state: fan ratio at full scale, latch open.
func New() *State {
	return &State{
		FanRatio: 1,
	}
}

// Snapshot copies the record.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Temperature:       s.Temperature,
		Humidity:          s.Humidity,
		TemperatureValid:  s.TemperatureValid,
		FanRatio:          s.FanRatio,
		FanActivated:      s.FanActivated,
		FanDuty:           s.FanDuty,
		DustRatio:         s.DustRatio,
		DustConcentration: s.DustConcentration,
		CurrentRMS:        s.CurrentRMS,
		BusVoltage:        s.BusVoltage,
		PowerWatts:        s.PowerWatts,
		BlinkPhase:        s.BlinkPhase,
		UpdatedAt:         s.UpdatedAt,
	}
}

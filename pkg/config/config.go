package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the controller configuration.
type Config struct {
	Fan       FanConfig       `yaml:"fan"`
	Power     PowerConfig     `yaml:"power"`
	Dust      DustConfig      `yaml:"dust"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Pins      PinsConfig      `yaml:"pins"`
	Serial    SerialConfig    `yaml:"serial"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Sim       SimConfig       `yaml:"sim"`
}

// FanConfig contains the fan control law parameters.
type FanConfig struct {
	TemperatureMin float32 `yaml:"temperature_min"` // Temperature the fan starts spinning (°C)
	TemperatureMax float32 `yaml:"temperature_max"` // Span over which the ratio reaches full speed (°C)
	PowerOffset    float32 `yaml:"power_offset"`    // Cooldown margin below TemperatureMin before switching off (°C)
	SpeedMin       float32 `yaml:"speed_min"`       // Lowest useful duty ratio (0..1)
	FullScale      int     `yaml:"full_scale"`      // PWM value for 100% duty
	PWMFrequency   int     `yaml:"pwm_frequency"`   // PWM carrier frequency (Hz)
}

// PowerConfig contains current transformer and ADC calibration.
type PowerConfig struct {
	CTRatio     float64 `yaml:"ct_ratio"`     // Current transformer primary amps per unit
	Sensitivity float64 `yaml:"sensitivity"`  // Secondary amps at CTRatio
	Burden      float64 `yaml:"burden"`       // Burden resistor (Ohm)
	SampleCount int     `yaml:"sample_count"` // ADC samples per RMS computation
	LineVoltage float64 `yaml:"line_voltage"` // Assumed mains voltage (V)
	ADCVolts    float64 `yaml:"adc_volts"`    // Volts per ADC count for the bus voltage proxy
	SupplyVolts float64 `yaml:"supply_volts"` // ADC reference voltage (V)
	ADCBits     int     `yaml:"adc_bits"`     // ADC resolution in bits
}

// DustConfig contains particulate sampling parameters.
type DustConfig struct {
	Window       time.Duration `yaml:"window"`        // Sampling window length
	PulseTimeout time.Duration `yaml:"pulse_timeout"` // Upper bound for a single low-pulse measurement
}

// ScheduleConfig contains task cadences.
type ScheduleConfig struct {
	Temperature time.Duration `yaml:"temperature"`
	Power       time.Duration `yaml:"power"`
	Blink       time.Duration `yaml:"blink"`
	Screen      time.Duration `yaml:"screen"`
	Idle        time.Duration `yaml:"idle"` // Longest sleep between dispatcher passes
}

// PinsConfig names the host pins used by the periph.io drivers.
// Empty display pins mean the display is not fitted.
type PinsConfig struct {
	Fan            string `yaml:"fan"`
	Dust           string `yaml:"dust"`
	I2C            string `yaml:"i2c"` // Empty opens the first bus
	ADC            string `yaml:"adc"` // Serial port of the ADC bridge streaming current samples
	TemperatureClk string `yaml:"temperature_clk"`
	TemperatureDio string `yaml:"temperature_dio"`
	PowerClk       string `yaml:"power_clk"`
	PowerDio       string `yaml:"power_dio"`
}

// SerialConfig contains the diagnostic serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// TelemetryConfig contains the MQTT publisher configuration.
type TelemetryConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Broker   string        `yaml:"broker"`
	Topic    string        `yaml:"topic"`
	ClientID string        `yaml:"client_id"`
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

// SimConfig contains simulated device configuration.
type SimConfig struct {
	Ambient       float32 `yaml:"ambient"`        // Ambient temperature (°C)
	HeatLoad      float32 `yaml:"heat_load"`      // Steady-state rise above ambient with the fan off (°C)
	FaultRate     float64 `yaml:"fault_rate"`     // Probability a temperature read fails (0..1)
	CurrentAmps   float64 `yaml:"current_amps"`   // Simulated RMS load current (A)
	DustOccupancy float64 `yaml:"dust_occupancy"` // Fraction of time the dust line is held low (0..1)
	Seed          int64   `yaml:"seed"`
}

// Calibration returns the current calibration constant: amps per volt across the burden.
func (p PowerConfig) Calibration() float64 {
	return p.CTRatio / p.Sensitivity / p.Burden
}

// Default returns a default configuration matching the reference hardware.
func Default() *Config {
	return &Config{
		Fan: FanConfig{
			TemperatureMin: 43,
			TemperatureMax: 70,
			PowerOffset:    3,
			SpeedMin:       0.2, // under 15% it's not worth it
			FullScale:      255,
			PWMFrequency:   25000,
		},
		Power: PowerConfig{
			CTRatio:     100,
			Sensitivity: 0.05,
			Burden:      239,
			SampleCount: 5588,
			LineVoltage: 118,
			ADCVolts:    0.0049,
			SupplyVolts: 5.0,
			ADCBits:     10,
		},
		Dust: DustConfig{
			Window:       30 * time.Second,
			PulseTimeout: time.Second,
		},
		Schedule: ScheduleConfig{
			Temperature: time.Second,
			Power:       2500 * time.Millisecond,
			Blink:       500 * time.Millisecond,
			Screen:      time.Second,
			Idle:        time.Millisecond,
		},
		Pins: PinsConfig{
			Fan:            "GPIO18",
			Dust:           "GPIO23",
			TemperatureClk: "GPIO5",
			TemperatureDio: "GPIO6",
			PowerClk:       "GPIO13",
			PowerDio:       "GPIO19",
		},
		Serial: SerialConfig{
			Port:     "", // Empty logs to stdout
			BaudRate: 9600,
		},
		Telemetry: TelemetryConfig{
			Enabled:  false,
			Broker:   "tcp://localhost:1883",
			Topic:    "pacs/state",
			ClientID: "pacs",
			Interval: 10 * time.Second,
			Timeout:  2 * time.Second,
		},
		Sim: SimConfig{
			Ambient:       25,
			HeatLoad:      30,
			FaultRate:     0.02,
			CurrentAmps:   1.5,
			DustOccupancy: 0.01,
			Seed:          1,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filename, err)
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports parameters the control law cannot work with.
func (c *Config) Validate() error {
	var errs []error

	if c.Fan.TemperatureMax <= 0 {
		errs = append(errs, errors.New("fan.temperature_max must be positive"))
	}
	if c.Fan.SpeedMin < 0 || c.Fan.SpeedMin > 1 {
		errs = append(errs, fmt.Errorf("fan.speed_min must be within [0,1], got %v", c.Fan.SpeedMin))
	}
	if c.Fan.FullScale <= 0 {
		errs = append(errs, errors.New("fan.full_scale must be positive"))
	}
	if c.Power.Burden <= 0 || c.Power.Sensitivity <= 0 {
		errs = append(errs, errors.New("power.burden and power.sensitivity must be positive"))
	}
	if c.Power.SampleCount <= 0 {
		errs = append(errs, errors.New("power.sample_count must be positive"))
	}
	if c.Dust.Window <= 0 {
		errs = append(errs, errors.New("dust.window must be positive"))
	}
	for name, d := range map[string]time.Duration{
		"temperature": c.Schedule.Temperature,
		"power":       c.Schedule.Power,
		"blink":       c.Schedule.Blink,
		"screen":      c.Schedule.Screen,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("schedule.%s must be positive", name))
		}
	}
	if c.Telemetry.Enabled && c.Telemetry.Interval <= 0 {
		errs = append(errs, errors.New("telemetry.interval must be positive"))
	}

	return errors.Join(errs...)
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Fan.TemperatureMax == 0 {
		c.Fan.TemperatureMax = def.Fan.TemperatureMax
	}
	if c.Fan.FullScale == 0 {
		c.Fan.FullScale = def.Fan.FullScale
	}
	if c.Fan.PWMFrequency == 0 {
		c.Fan.PWMFrequency = def.Fan.PWMFrequency
	}

	if c.Power.CTRatio == 0 {
		c.Power.CTRatio = def.Power.CTRatio
	}
	if c.Power.Sensitivity == 0 {
		c.Power.Sensitivity = def.Power.Sensitivity
	}
	if c.Power.Burden == 0 {
		c.Power.Burden = def.Power.Burden
	}
	if c.Power.SampleCount == 0 {
		c.Power.SampleCount = def.Power.SampleCount
	}
	if c.Power.ADCVolts == 0 {
		c.Power.ADCVolts = def.Power.ADCVolts
	}
	if c.Power.SupplyVolts == 0 {
		c.Power.SupplyVolts = def.Power.SupplyVolts
	}
	if c.Power.ADCBits == 0 {
		c.Power.ADCBits = def.Power.ADCBits
	}

	if c.Dust.Window == 0 {
		c.Dust.Window = def.Dust.Window
	}
	if c.Dust.PulseTimeout == 0 {
		c.Dust.PulseTimeout = def.Dust.PulseTimeout
	}

	if c.Schedule.Temperature == 0 {
		c.Schedule.Temperature = def.Schedule.Temperature
	}
	if c.Schedule.Power == 0 {
		c.Schedule.Power = def.Schedule.Power
	}
	if c.Schedule.Blink == 0 {
		c.Schedule.Blink = def.Schedule.Blink
	}
	if c.Schedule.Screen == 0 {
		c.Schedule.Screen = def.Schedule.Screen
	}
	if c.Schedule.Idle == 0 {
		c.Schedule.Idle = def.Schedule.Idle
	}

	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Telemetry.Topic == "" {
		c.Telemetry.Topic = def.Telemetry.Topic
	}
	if c.Telemetry.ClientID == "" {
		c.Telemetry.ClientID = def.Telemetry.ClientID
	}
	if c.Telemetry.Interval == 0 {
		c.Telemetry.Interval = def.Telemetry.Interval
	}
	if c.Telemetry.Timeout == 0 {
		c.Telemetry.Timeout = def.Telemetry.Timeout
	}
}

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, float32(43), cfg.Fan.TemperatureMin)
	assert.Equal(t, float32(70), cfg.Fan.TemperatureMax)
	assert.Equal(t, float32(3), cfg.Fan.PowerOffset)
	assert.Equal(t, float32(0.2), cfg.Fan.SpeedMin)
	assert.Equal(t, 255, cfg.Fan.FullScale)
	assert.Equal(t, 5588, cfg.Power.SampleCount)
	assert.Equal(t, float64(118), cfg.Power.LineVoltage)
	assert.Equal(t, 30*time.Second, cfg.Dust.Window)
	assert.Equal(t, time.Second, cfg.Schedule.Temperature)
	assert.Equal(t, 2500*time.Millisecond, cfg.Schedule.Power)
	assert.Equal(t, 500*time.Millisecond, cfg.Schedule.Blink)
	assert.Equal(t, time.Second, cfg.Schedule.Screen)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestPowerConfig_Calibration(t *testing.T) {
	cfg := Default()
	assert.InDelta(t, 100/0.05/239.0, cfg.Power.Calibration(), 1e-9)
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, float32(43), cfg.Fan.TemperatureMin)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
fan:
  temperature_min: 40
  temperature_max: 60
  power_offset: 5
  speed_min: 0.15

power:
  burden: 33
  sample_count: 1480
  line_voltage: 230

dust:
  window: 15s

schedule:
  temperature: 2s
  power: 5s
  blink: 250ms
  screen: 1s

serial:
  port: "/dev/ttyAMA0"
  baud_rate: 115200

telemetry:
  enabled: true
  broker: "tcp://broker:1883"
  interval: 30s
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, float32(40), cfg.Fan.TemperatureMin)
	assert.Equal(t, float32(60), cfg.Fan.TemperatureMax)
	assert.Equal(t, float32(5), cfg.Fan.PowerOffset)
	assert.Equal(t, float32(0.15), cfg.Fan.SpeedMin)
	assert.Equal(t, float64(33), cfg.Power.Burden)
	assert.Equal(t, 1480, cfg.Power.SampleCount)
	assert.Equal(t, float64(230), cfg.Power.LineVoltage)
	assert.Equal(t, 15*time.Second, cfg.Dust.Window)
	assert.Equal(t, 2*time.Second, cfg.Schedule.Temperature)
	assert.Equal(t, 5*time.Second, cfg.Schedule.Power)
	assert.Equal(t, 250*time.Millisecond, cfg.Schedule.Blink)
	assert.Equal(t, "/dev/ttyAMA0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "tcp://broker:1883", cfg.Telemetry.Broker)
	assert.Equal(t, 30*time.Second, cfg.Telemetry.Interval)
	assert.Equal(t, "pacs/state", cfg.Telemetry.Topic) // default
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidValues(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("fan:\n  speed_min: 1.5\n")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.ErrorContains(t, err, "speed_min")
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
fan:
  temperature_min: 50
  full_scale: 0
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Should use defaults for missing fields
	assert.Equal(t, float32(50), cfg.Fan.TemperatureMin)
	assert.Equal(t, float32(70), cfg.Fan.TemperatureMax) // default
	assert.Equal(t, 255, cfg.Fan.FullScale)              // explicit zero replaced
	assert.Equal(t, 30*time.Second, cfg.Dust.Window)     // default
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "zero span", mutate: func(c *Config) { c.Fan.TemperatureMax = 0 }, wantErr: "temperature_max"},
		{name: "negative speed", mutate: func(c *Config) { c.Fan.SpeedMin = -0.1 }, wantErr: "speed_min"},
		{name: "no samples", mutate: func(c *Config) { c.Power.SampleCount = 0 }, wantErr: "sample_count"},
		{name: "no burden", mutate: func(c *Config) { c.Power.Burden = 0 }, wantErr: "burden"},
		{name: "no window", mutate: func(c *Config) { c.Dust.Window = 0 }, wantErr: "dust.window"},
		{name: "no blink", mutate: func(c *Config) { c.Schedule.Blink = 0 }, wantErr: "schedule.blink"},
		{name: "telemetry without interval", mutate: func(c *Config) {
			c.Telemetry.Enabled = true
			c.Telemetry.Interval = 0
		}, wantErr: "telemetry.interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Fan.TemperatureMin = 38

	tmpfile, err := os.CreateTemp("", "test_save_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	err = cfg.Save(tmpfile.Name())
	require.NoError(t, err)

	// Load it back and verify
	loaded, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", loaded.Serial.Port)
	assert.Equal(t, float32(38), loaded.Fan.TemperatureMin)
	assert.Equal(t, cfg.Dust.Window, loaded.Dust.Window)
}

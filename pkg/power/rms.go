package power

import (
	"math"

	"github.com/funktionpi/pacs/pkg/config"
	"github.com/funktionpi/pacs/pkg/device"
)

var _ device.CurrentSensor = (*RMS)(nil)

// RMS computes RMS current in software from a raw ADC channel biased
// at half the supply. The DC bias is tracked with a digital low-pass
// filter that persists between calls.
type RMS struct {
	adc    device.ADC
	counts float64
	ratio  float64
	offset float64
}

// NewRMS creates an RMS sampler over adc using the calibration in cfg.
func NewRMS(adc device.ADC, cfg config.PowerConfig) *RMS {
	bits := cfg.ADCBits
	if bits <= 0 {
		bits = 10
	}
	counts := float64(int(1) << bits)

	return &RMS{
		adc:    adc,
		counts: counts,
		ratio:  cfg.Calibration() * (cfg.SupplyVolts / counts),
		offset: counts / 2,
	}
}

// SampleAnalog implements device.CurrentSensor.
func (r *RMS) SampleAnalog() uint16 {
	return r.adc.Sample()
}

// CalcIrms implements device.CurrentSensor.
func (r *RMS) CalcIrms(samples int) float64 {
	if samples <= 0 {
		return 0
	}

	var sum float64
	for range samples {
		s := float64(r.adc.Sample())
		r.offset += (s - r.offset) / r.counts
		filtered := s - r.offset
		sum += filtered * filtered
	}

	return r.ratio * math.Sqrt(sum/float64(samples))
}

// Offset returns the tracked DC bias in ADC counts.
func (r *RMS) Offset() float64 {
	return r.offset
}

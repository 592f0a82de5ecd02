//go:build tinygo

//go:generate tinygo flash -target=xiao

// Command firmware streams raw current transformer samples over USB serial.
// Each line is "unix_micros,reading" with the reading scaled to OUTPUT_BITS.
package main

import (
	"machine"
	"time"
)

var (
	adcCT machine.ADC

	// Timing
	lastADCRead time.Time
)

func main() {
	PIN_CT.Configure(machine.PinConfig{Mode: machine.PinInput})

	adcCT = machine.ADC{Pin: PIN_CT}
	adcCT.Configure(machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	})

	lastADCRead = time.Now()

	for {
		now := time.Now()
		if now.Sub(lastADCRead) < SAMPLE_INTERVAL {
			continue
		}
		lastADCRead = now

		outputSample(now, readCT())
	}
}

// readCT returns one sample scaled down to OUTPUT_BITS.
// machine.ADC.Get always returns a 16-bit left-aligned value.
func readCT() uint16 {
	return adcCT.Get() >> (16 - OUTPUT_BITS)
}

func outputSample(now time.Time, reading uint16) {
	// Output format: "unix_micros,reading\n"
	// Example: "1234567890123,512\n"
	print(now.UnixNano() / 1000)
	print(",")
	print(reading)
	print("\n")
}

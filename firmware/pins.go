//go:build tinygo

package main

import (
	"machine"
	"time"
)

const (
	// Sampling configuration
	SAMPLE_INTERVAL = 200 * time.Microsecond // ~5kHz, 100 samples per 50Hz cycle

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 12   // ADC resolution in bits (12-bit = 0-4095)
	OUTPUT_BITS      = 10   // Bits per streamed reading, matches power.adc_bits

	// Current transformer input, biased at half supply
	PIN_CT = machine.A1

	// USB CDC ignores the baud rate; this is for a hardware UART bridge.
	// "1234567890123456,1023\n" = 22 bytes per line.
	UART_BAUD_RATE = 115200
)

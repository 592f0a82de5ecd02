package device

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the baud rate of the ADC bridge firmware.
	DefaultBaudRate = 115200
	// DefaultReadTimeout bounds a single sample read.
	DefaultReadTimeout = 50 * time.Millisecond

	adcMax = 4095
)

var errReadTimeout = errors.New("serial read timed out")

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// SerialADC reads current transformer samples streamed by an ADC bridge MCU.
// The bridge prints one sample per line: "unix_micros,reading" or "reading".
type SerialADC struct {
	port     string
	baudRate int
	timeout  time.Duration

	conn  serial.Port
	rd    io.Reader
	buf   []byte
	chunk [64]byte
	last  uint16
}

// NewSerialADC creates a SerialADC for the given port.
func NewSerialADC(port string, baudRate int, timeout time.Duration) *SerialADC {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if timeout == 0 {
		timeout = DefaultReadTimeout
	}

	return &SerialADC{
		port:     port,
		baudRate: baudRate,
		timeout:  timeout,
	}
}

// Connect opens the serial port.
func (d *SerialADC) Connect() error {
	if d.conn != nil {
		return fmt.Errorf("already connected")
	}

	port, err := serial.Open(d.port, &serial.Mode{BaudRate: d.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}
	if err := port.SetReadTimeout(d.timeout); err != nil {
		port.Close()
		return fmt.Errorf("failed to set read timeout on %s: %w", d.port, err)
	}

	d.conn = port
	d.rd = port
	return nil
}

// Close closes the serial port.
func (d *SerialADC) Close() error {
	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	d.rd = nil
	return err
}

// Sample returns the next streamed reading. On a read or parse failure the
// previous reading is repeated so a hiccup does not show up as a current spike.
func (d *SerialADC) Sample() uint16 {
	if d.rd == nil {
		return d.last
	}

	line, err := d.readLine()
	if err != nil {
		if !errors.Is(err, errReadTimeout) {
			log.Printf("Error reading from serial port: %v", err)
		}
		return d.last
	}

	v, err := parseLine(line)
	if err != nil {
		log.Printf("Failed to parse line '%s': %v", line, err)
		return d.last
	}

	d.last = v
	return v
}

// readLine returns the next complete line, waiting at most timeout.
func (d *SerialADC) readLine() (string, error) {
	deadline := time.Now().Add(d.timeout)
	for {
		if i := bytes.IndexByte(d.buf, '\n'); i >= 0 {
			line := strings.TrimSpace(string(d.buf[:i]))
			d.buf = d.buf[i+1:]
			if line == "" {
				continue
			}
			return line, nil
		}
		if !time.Now().Before(deadline) {
			return "", errReadTimeout
		}

		n, err := d.rd.Read(d.chunk[:])
		if n > 0 {
			d.buf = append(d.buf, d.chunk[:n]...)
			continue
		}
		if err != nil {
			return "", err
		}
		// The port read timeout expired without data.
		return "", errReadTimeout
	}
}

// parseLine parses a sample line from the bridge.
// Format: unix_micros,reading or reading
// Example: 1234567890123,2048
func parseLine(line string) (uint16, error) {
	parts := strings.Split(line, ",")
	var field string
	switch len(parts) {
	case 1:
		field = parts[0]
	case 2:
		if _, err := strconv.ParseInt(parts[0], 10, 64); err != nil {
			return 0, fmt.Errorf("invalid timestamp: %w", err)
		}
		field = parts[1]
	default:
		return 0, fmt.Errorf("invalid line format: expected 1 or 2 comma-separated values, got %d", len(parts))
	}

	reading, err := strconv.ParseUint(strings.TrimSpace(field), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid reading: %w", err)
	}
	if reading > adcMax {
		return 0, fmt.Errorf("reading out of range: %d (max %d)", reading, adcMax)
	}

	return uint16(reading), nil
}

// SerialLog sends diagnostic log lines to a serial port.
type SerialLog struct {
	mu   sync.Mutex
	conn io.WriteCloser
}

// OpenSerialLog opens port for writing diagnostic lines.
func OpenSerialLog(port string, baudRate int) (*SerialLog, error) {
	conn, err := serial.Open(port, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", port, err)
	}
	return &SerialLog{conn: conn}, nil
}

// Write implements io.Writer. Line endings are sent as CRLF for terminal monitors.
func (s *SerialLog) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return 0, fmt.Errorf("not connected")
	}
	if _, err := s.conn.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, fmt.Errorf("failed to write log line: %w", err)
	}
	return len(p), nil
}

// Close closes the port.
func (s *SerialLog) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

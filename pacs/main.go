package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/funktionpi/pacs/pkg/config"
	"github.com/funktionpi/pacs/pkg/controller"
	"github.com/funktionpi/pacs/pkg/device"
	"github.com/funktionpi/pacs/pkg/display"
	"github.com/funktionpi/pacs/pkg/state"
	"github.com/funktionpi/pacs/pkg/telemetry"
)

type options struct {
	Config     string `short:"c" long:"config" default:"pacs.yaml" description:"Configuration file path"`
	Sim        bool   `long:"sim" description:"Use simulated sensors and fan instead of hardware"`
	SerialLog  string `long:"serial-log" description:"Serial port for the diagnostic log (overrides config)"`
	Port       string `short:"p" long:"port" description:"Serial port of the current sensor ADC bridge (overrides config)"`
	Terminal   bool   `short:"t" long:"terminal" description:"Draw the status screen and displays in the terminal"`
	SaveConfig bool   `long:"save-config" description:"Write the effective configuration to the config file and exit"`
	ListPorts  bool   `long:"list-ports" description:"List serial ports and exit"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if fe, ok := err.(*flags.Error); ok && fe.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.ListPorts {
		listPorts()
		return
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if opts.SerialLog != "" {
		cfg.Serial.Port = opts.SerialLog
	}
	if opts.Port != "" {
		cfg.Pins.ADC = opts.Port
	}

	if opts.SaveConfig {
		if err := cfg.Save(opts.Config); err != nil {
			log.Fatalf("Failed to save configuration: %v", err)
		}
		fmt.Printf("Configuration written to %s\n", opts.Config)
		return
	}

	logger, closeLog := openLog(cfg, opts.Terminal)
	defer closeLog()

	if err := run(cfg, opts, logger); err != nil {
		logger.Fatalf("%v", err)
	}
}

func run(cfg *config.Config, opts options, logger *log.Logger) error {
	logger.Println("PI Active Cooling System")

	var dev controller.Devices
	if opts.Sim {
		sim := device.NewSim(&cfg.Sim, cfg.Fan.FullScale)
		dev = controller.Devices{
			Thermometer:        sim,
			Current:            sim,
			Dust:               sim,
			Fan:                sim,
			TemperatureDisplay: display.Discard{},
			PowerDisplay:       display.Discard{},
			Screen:             display.Discard{},
		}
	} else {
		hw, cl, err := openHardware(cfg, logger)
		defer func() {
			if err := cl.Close(); err != nil {
				logger.Printf("Failed to release hardware: %v", err)
			}
		}()
		if err != nil {
			return err
		}
		dev = hw
	}

	if opts.Terminal {
		term := display.NewTerminal(os.Stdout)
		dev.TemperatureDisplay = term.Temperature()
		dev.PowerDisplay = term.Power()
		dev.Screen = term
	}

	var pub controller.Publisher
	if cfg.Telemetry.Enabled {
		p, err := telemetry.Dial(cfg.Telemetry)
		if err != nil {
			logger.Printf("Telemetry disabled: %v", err)
		} else {
			defer p.Close()
			pub = p
		}
	}

	ctrl, err := controller.New(cfg, state.New(), dev, pub, logger, time.Now())
	if err != nil {
		return fmt.Errorf("failed to create controller: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return ctrl.Run(ctx)
}

// openLog returns the diagnostic logger. Lines go to the configured serial
// port, or to stdout. The terminal screen owns stdout, so it moves the log
// to stderr.
func openLog(cfg *config.Config, terminal bool) (*log.Logger, func()) {
	var out io.Writer = os.Stdout
	if terminal {
		out = os.Stderr
	}

	closeFn := func() {}
	if cfg.Serial.Port != "" {
		s, err := device.OpenSerialLog(cfg.Serial.Port, cfg.Serial.BaudRate)
		if err != nil {
			log.Printf("Failed to open serial log, using %s: %v", describe(out), err)
		} else {
			out = s
			closeFn = func() { s.Close() }
		}
	}

	return log.New(out, "", log.LstdFlags), closeFn
}

func describe(w io.Writer) string {
	if w == os.Stderr {
		return "stderr"
	}
	return "stdout"
}

func listPorts() {
	ports, err := device.Ports()
	if err != nil {
		log.Fatalf("%v", err)
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return
	}
	for _, p := range ports {
		fmt.Println(p.Name)
	}
}

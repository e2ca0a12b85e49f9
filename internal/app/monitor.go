package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/HugooB/airquality-home/internal/config"
	"github.com/HugooB/airquality-home/internal/pms5003"
	"github.com/HugooB/airquality-home/internal/reading"
	"github.com/HugooB/airquality-home/internal/sensors"
	"github.com/HugooB/airquality-home/internal/sink"
	"github.com/HugooB/airquality-home/internal/station"
)

const pingTimeout = 5 * time.Second

// RunMonitor wires up the sensors, verifies the sink and runs the sampling
// loop until an interrupt arrives. The returned error is nil on
// interrupt-driven shutdown; any non-nil error is fatal for the process.
func RunMonitor() error {
	cfg := config.Get()

	// --- Initialize periph host and the shared I2C bus ---
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}

	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return fmt.Errorf("I2C bus open: %w", err)
	}
	defer bus.Close()

	// --- Sensor adapters ---
	light, variant, err := sensors.NewLight(bus)
	if err != nil {
		return err
	}
	log.Printf("light sensor: %s detected", variant)

	bme, err := sensors.NewBME280(bus)
	if err != nil {
		return err
	}

	gas, err := sensors.NewGas(bus)
	if err != nil {
		return err
	}

	pm, err := pms5003.Open(cfg.PMSSerialPort, uint(cfg.PMSBaudRate))
	if err != nil {
		return err
	}
	defer pm.Close()
	log.Printf("particulate sensor: serial port %s opened at %d baud", cfg.PMSSerialPort, cfg.PMSBaudRate)

	calibrate, err := station.CalibrationFromConfig(cfg.TempCalibration, cfg.TempOffset, cfg.TempDivisor)
	if err != nil {
		return err
	}

	// --- Sink: the one fatal failure is an unreachable sink at startup ---
	snk, endpoint, err := buildSink(cfg)
	if err != nil {
		return err
	}
	if err := snk.Ping(pingTimeout); err != nil {
		return fmt.Errorf("no connection to sink at %s: %w", endpoint, err)
	}
	log.Printf("successfully connected to sink at %s", endpoint)
	defer snk.Close()

	// --- Optional startup splash ---
	if cfg.Display {
		if err := ShowSplash(bus); err != nil {
			log.Printf("display: splash error: %v", err)
		}
	}

	// --- Optional web readout ---
	var notify func(reading.Reading)
	if cfg.WebEnabled {
		readout := &Readout{}
		notify = readout.Publish
		go func() {
			if err := RunWeb(cfg.WebPort, readout); err != nil {
				log.Printf("web: server error: %v", err)
			}
		}()
	}

	runner := &station.Runner{
		Assembler: &station.Assembler{
			Light:       light,
			Env:         bme,
			Gas:         gas,
			Particulate: pm,
			Calibrate:   calibrate,
			GasKOhms:    cfg.GasKOhms,
		},
		Sink:        snk,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Measurement: cfg.Measurement,
		HostTag:     cfg.HostTag,
		Notify:      notify,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("starting sampling loop")
	runner.Run(ctx)

	log.Println("received interrupt, exiting")
	return nil
}

// buildSink constructs the configured sink and returns the endpoint string
// used in connection logs.
func buildSink(cfg *config.Config) (sink.Sink, string, error) {
	switch cfg.Sink {
	case "mqtt":
		s, err := sink.NewMQTT(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopic)
		return s, cfg.MQTTBroker, err
	default:
		s, err := sink.NewInflux(cfg.InfluxAddr(), cfg.InfluxUsername, cfg.InfluxPassword, cfg.InfluxDatabase)
		return s, cfg.InfluxAddr(), err
	}
}

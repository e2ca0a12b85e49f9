// Probe reads every sensor once and prints the assembled reading as JSON.
// Bring-up tool: run it before pointing the monitor at a real sink.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/HugooB/airquality-home/internal/config"
	"github.com/HugooB/airquality-home/internal/pms5003"
	"github.com/HugooB/airquality-home/internal/sensors"
	"github.com/HugooB/airquality-home/internal/station"
)

func main() {
	configPath := flag.String("config", "./airquality_config.txt", "path to configuration file")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		log.Fatalf("periph host init: %v", err)
	}

	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		log.Fatalf("I2C bus open: %v", err)
	}
	defer bus.Close()

	light, variant, err := sensors.NewLight(bus)
	if err != nil {
		log.Fatalf("light sensor: %v", err)
	}
	log.Printf("light sensor: %s detected", variant)

	bme, err := sensors.NewBME280(bus)
	if err != nil {
		log.Fatalf("bme280: %v", err)
	}

	gas, err := sensors.NewGas(bus)
	if err != nil {
		log.Fatalf("gas adc: %v", err)
	}

	pm, err := pms5003.Open(cfg.PMSSerialPort, uint(cfg.PMSBaudRate))
	if err != nil {
		log.Fatalf("pms5003: %v", err)
	}
	defer pm.Close()

	calibrate, err := station.CalibrationFromConfig(cfg.TempCalibration, cfg.TempOffset, cfg.TempDivisor)
	if err != nil {
		log.Fatalf("calibration: %v", err)
	}

	assembler := &station.Assembler{
		Light:       light,
		Env:         bme,
		Gas:         gas,
		Particulate: pm,
		Calibrate:   calibrate,
		GasKOhms:    cfg.GasKOhms,
	}

	// Past the warm-up threshold so the temperature field is included.
	rd, err := assembler.Assemble(station.WarmupThreshold)
	if err != nil {
		log.Fatalf("assemble: %v", err)
	}

	out, err := json.MarshalIndent(rd, "", "  ")
	if err != nil {
		log.Fatalf("marshal: %v", err)
	}
	fmt.Fprintln(os.Stdout, string(out))
}

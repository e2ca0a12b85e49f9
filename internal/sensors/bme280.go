package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
)

const bme280Addr = 0x76

// EnvSample is one temperature/pressure/humidity measurement. Temperature is
// the raw sensor value in °C, before any deployment calibration.
type EnvSample struct {
	Temperature float64 // °C
	Pressure    float64 // hPa
	Humidity    float64 // %RH
}

// BME280 wraps the bmxx80 driver for the Enviro+ onboard BME280.
type BME280 struct {
	dev *bmxx80.Dev
}

// NewBME280 initializes the BME280 on the shared I2C bus.
func NewBME280(bus i2c.Bus) (*BME280, error) {
	dev, err := bmxx80.NewI2C(bus, bme280Addr, &bmxx80.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("bme280 init: %w", err)
	}
	return &BME280{dev: dev}, nil
}

// Sense reads temperature, pressure and humidity in one transaction.
func (b *BME280) Sense() (EnvSample, error) {
	var e physic.Env
	if err := b.dev.Sense(&e); err != nil {
		return EnvSample{}, fmt.Errorf("bme280 sense: %w", err)
	}

	pressurePa := float64(e.Pressure) / float64(physic.Pascal)
	return EnvSample{
		Temperature: e.Temperature.Celsius(),
		Pressure:    pressurePa / 100.0, // 1 hPa = 100 Pa
		Humidity:    float64(e.Humidity) / float64(physic.PercentRH),
	}, nil
}

// Halt powers the sensor down.
func (b *BME280) Halt() error {
	return b.dev.Halt()
}

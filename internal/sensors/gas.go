package sensors

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
)

// The MICS6814 has no digital interface of its own: each of its three
// channels sits in a voltage divider read through an ADS1015 ADC.
const (
	ads1015Addr = 0x48

	adsRegConversion = 0x00
	adsRegConfig     = 0x01

	// Single-shot, ±6.144V range, 1600SPS, comparator disabled.
	adsConfigBase = 0x8183

	adsMuxOxidising = 0x4000 // AIN0
	adsMuxReducing  = 0x5000 // AIN1
	adsMuxNH3       = 0x6000 // AIN2

	adsFullScaleV = 6.144

	gasSupplyV = 3.3
	gasPullUp  = 56000.0 // ohms
)

// GasSample holds the three channel resistances in ohms.
type GasSample struct {
	Oxidising float64
	Reducing  float64
	NH3       float64
}

// Gas reads the MICS6814 triad behind the Enviro+ onboard ADC.
type Gas struct {
	dev *i2c.Dev
}

// NewGas initializes the ADC and performs one throwaway conversion to verify
// the device answers.
func NewGas(bus i2c.Bus) (*Gas, error) {
	g := &Gas{dev: &i2c.Dev{Bus: bus, Addr: ads1015Addr}}
	if _, err := g.readChannel(adsMuxOxidising); err != nil {
		return nil, fmt.Errorf("gas adc init: %w", err)
	}
	return g, nil
}

// Read samples all three channels in sequence.
func (g *Gas) Read() (GasSample, error) {
	ox, err := g.readChannel(adsMuxOxidising)
	if err != nil {
		return GasSample{}, fmt.Errorf("gas oxidising: %w", err)
	}
	red, err := g.readChannel(adsMuxReducing)
	if err != nil {
		return GasSample{}, fmt.Errorf("gas reducing: %w", err)
	}
	nh3, err := g.readChannel(adsMuxNH3)
	if err != nil {
		return GasSample{}, fmt.Errorf("gas nh3: %w", err)
	}

	return GasSample{
		Oxidising: resistance(ox),
		Reducing:  resistance(red),
		NH3:       resistance(nh3),
	}, nil
}

// readChannel triggers a single-shot conversion on one mux setting and
// returns the channel voltage.
func (g *Gas) readChannel(mux uint16) (float64, error) {
	cfg := uint16(adsConfigBase) | mux
	if err := g.dev.Tx([]byte{adsRegConfig, byte(cfg >> 8), byte(cfg)}, nil); err != nil {
		return 0, fmt.Errorf("config write: %w", err)
	}

	// Wait for the OS bit to signal conversion done (~0.6ms at 1600SPS).
	var buf [2]byte
	for i := 0; i < 10; i++ {
		time.Sleep(time.Millisecond)
		if err := g.dev.Tx([]byte{adsRegConfig}, buf[:]); err != nil {
			return 0, fmt.Errorf("config read: %w", err)
		}
		if buf[0]&0x80 != 0 {
			break
		}
	}

	if err := g.dev.Tx([]byte{adsRegConversion}, buf[:]); err != nil {
		return 0, fmt.Errorf("conversion read: %w", err)
	}
	raw := int16(uint16(buf[0])<<8|uint16(buf[1])) >> 4
	return float64(raw) * adsFullScaleV / 2048.0, nil
}

// resistance converts a divider voltage to the sensor channel resistance.
// Clamped to keep gas fields non-negative when the ADC reads at or above the
// supply rail.
func resistance(v float64) float64 {
	if v <= 0 {
		return 0
	}
	if v >= gasSupplyV {
		v = gasSupplyV - 0.001
	}
	return v * gasPullUp / (gasSupplyV - v)
}

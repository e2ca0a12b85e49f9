package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// Lite-On ambient light / proximity sensor registers. The LTR-559 and the
// ALS-only LTR-329 share the same bus address and ALS register map.
const (
	ltrAddr = 0x23

	ltrRegALSContr    = 0x80
	ltrRegPSContr     = 0x81
	ltrRegPSLED       = 0x82
	ltrRegPSNPulses   = 0x83
	ltrRegALSMeasRate = 0x85
	ltrRegPartID      = 0x86
	ltrRegALSData     = 0x88 // CH1 low, CH1 high, CH0 low, CH0 high
	ltrRegPSData      = 0x8D // low byte + 3 high bits

	ltr559PartID = 0x92
	ltr329PartID = 0xA0
)

// LightSensor is the uniform accessor over whichever Lite-On part is fitted.
type LightSensor interface {
	// Proximity returns the raw proximity magnitude (0 on ALS-only parts).
	Proximity() (float64, error)
	// Lux returns the current illuminance in lux.
	Lux() (float64, error)
}

// NewLight probes the part ID register and selects the matching driver:
// LTR-559 (ALS + proximity) or the LTR-329 fallback (ALS only).
func NewLight(bus i2c.Bus) (LightSensor, string, error) {
	dev := &i2c.Dev{Bus: bus, Addr: ltrAddr}

	var id [1]byte
	if err := dev.Tx([]byte{ltrRegPartID}, id[:]); err != nil {
		return nil, "", fmt.Errorf("light sensor probe: %w", err)
	}

	switch id[0] {
	case ltr559PartID:
		s, err := newLTR559(dev)
		return s, "ltr559", err
	case ltr329PartID:
		s, err := newLTR329(dev)
		return s, "ltr329", err
	default:
		return nil, "", fmt.Errorf("light sensor probe: unknown part ID 0x%02X", id[0])
	}
}

type ltr559 struct {
	dev *i2c.Dev
}

func newLTR559(dev *i2c.Dev) (*ltr559, error) {
	// ALS active, gain 1x; PS active with 1 LED pulse at 50mA.
	init := [][2]byte{
		{ltrRegALSContr, 0x01},
		{ltrRegALSMeasRate, 0x03}, // 100ms integration, 500ms repeat
		{ltrRegPSLED, 0x7F},
		{ltrRegPSNPulses, 0x01},
		{ltrRegPSContr, 0x03},
	}
	for _, w := range init {
		if err := dev.Tx(w[:], nil); err != nil {
			return nil, fmt.Errorf("ltr559 init reg 0x%02X: %w", w[0], err)
		}
	}
	return &ltr559{dev: dev}, nil
}

func (s *ltr559) Proximity() (float64, error) {
	var buf [2]byte
	if err := s.dev.Tx([]byte{ltrRegPSData}, buf[:]); err != nil {
		return 0, fmt.Errorf("ltr559 proximity: %w", err)
	}
	// 11-bit value: low byte plus 3 bits of the status byte.
	raw := uint16(buf[0]) | uint16(buf[1]&0x07)<<8
	return float64(raw), nil
}

func (s *ltr559) Lux() (float64, error) {
	return readALSLux(s.dev, "ltr559")
}

// ltr329 is the ALS-only fallback part; proximity always reads 0 so the
// assembler treats the path as unobstructed.
type ltr329 struct {
	dev *i2c.Dev
}

func newLTR329(dev *i2c.Dev) (*ltr329, error) {
	init := [][2]byte{
		{ltrRegALSContr, 0x01},
		{ltrRegALSMeasRate, 0x03},
	}
	for _, w := range init {
		if err := dev.Tx(w[:], nil); err != nil {
			return nil, fmt.Errorf("ltr329 init reg 0x%02X: %w", w[0], err)
		}
	}
	return &ltr329{dev: dev}, nil
}

func (s *ltr329) Proximity() (float64, error) {
	return 0, nil
}

func (s *ltr329) Lux() (float64, error) {
	return readALSLux(s.dev, "ltr329")
}

// readALSLux reads both ALS channels and converts to lux using the channel
// ratio coefficients from the Lite-On appnote (gain 1x, 100ms integration).
func readALSLux(dev *i2c.Dev, name string) (float64, error) {
	var buf [4]byte
	if err := dev.Tx([]byte{ltrRegALSData}, buf[:]); err != nil {
		return 0, fmt.Errorf("%s lux: %w", name, err)
	}

	ch1 := float64(uint16(buf[0]) | uint16(buf[1])<<8)
	ch0 := float64(uint16(buf[2]) | uint16(buf[3])<<8)
	if ch0+ch1 == 0 {
		return 0, nil
	}

	ratio := ch1 / (ch0 + ch1)
	var lux float64
	switch {
	case ratio < 0.45:
		lux = 1.7743*ch0 + 1.1059*ch1
	case ratio < 0.64:
		lux = 4.2785*ch0 - 1.9548*ch1
	case ratio < 0.85:
		lux = 0.5926*ch0 + 0.1185*ch1
	default:
		lux = 0
	}
	if lux < 0 {
		lux = 0
	}
	return lux, nil
}

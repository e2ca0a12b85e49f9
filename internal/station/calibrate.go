package station

import "fmt"

// Calibration corrects the raw BME280 temperature for self-heating and
// enclosure effects. The correction is empirically tuned per deployment, so
// it is injected into the assembler rather than hardcoded.
type Calibration func(rawCelsius float64) float64

// OffsetCalibration adds a fixed offset in degrees, typically negative to
// cancel self-heating.
func OffsetCalibration(offset float64) Calibration {
	return func(raw float64) float64 {
		return raw + offset
	}
}

// DivisorCalibration divides the raw reading by a fixed factor.
func DivisorCalibration(divisor float64) Calibration {
	return func(raw float64) float64 {
		return raw / divisor
	}
}

// CalibrationFromConfig builds the active transform from the configured
// mode. Exactly one transform is active per deployment.
func CalibrationFromConfig(mode string, offset, divisor float64) (Calibration, error) {
	switch mode {
	case "offset":
		return OffsetCalibration(offset), nil
	case "divisor":
		if divisor == 0 {
			return nil, fmt.Errorf("temperature calibration: divisor must be non-zero")
		}
		return DivisorCalibration(divisor), nil
	default:
		return nil, fmt.Errorf("temperature calibration: unknown mode %q", mode)
	}
}

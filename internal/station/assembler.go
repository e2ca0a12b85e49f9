package station

import (
	"fmt"

	"github.com/HugooB/airquality-home/internal/pms5003"
	"github.com/HugooB/airquality-home/internal/reading"
	"github.com/HugooB/airquality-home/internal/sensors"
)

// Anything closer than this to the proximity sensor counts as an
// obstruction; the lux field is then pinned to 1.0 without sampling.
const proximityObstructed = 10

// EnvSensor reads temperature/pressure/humidity.
type EnvSensor interface {
	Sense() (sensors.EnvSample, error)
}

// GasSensor reads the three MICS6814 channel resistances.
type GasSensor interface {
	Read() (sensors.GasSample, error)
}

// ParticulateSensor reads PMS5003 frames and owns its own connection reset.
type ParticulateSensor interface {
	Read() (pms5003.Sample, error)
	Reset() error
}

// Assembler produces exactly one Reading per iteration by invoking the
// adapters in a fixed order. It performs no retries; any adapter error
// abandons the whole reading and surfaces to the loop driver.
type Assembler struct {
	Light       sensors.LightSensor
	Env         EnvSensor
	Gas         GasSensor
	Particulate ParticulateSensor

	// Calibrate is the active temperature transform (required).
	Calibrate Calibration

	// GasKOhms reports gas resistances in kΩ instead of raw ohms.
	GasKOhms bool
}

// Assemble reads every adapter for iteration n. The temperature field is
// the only one gated by the warm-up policy; every other field is attempted
// each iteration.
func (a *Assembler) Assemble(n int) (reading.Reading, error) {
	r := reading.New()

	proximity, err := a.Light.Proximity()
	if err != nil {
		return nil, fmt.Errorf("proximity: %w", err)
	}
	r[reading.FieldProximity] = proximity

	if proximity < proximityObstructed {
		lux, err := a.Light.Lux()
		if err != nil {
			return nil, fmt.Errorf("lux: %w", err)
		}
		r[reading.FieldLux] = lux
	} else {
		r[reading.FieldLux] = 1.0
	}

	env, err := a.Env.Sense()
	if err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if TemperatureReady(n) {
		r[reading.FieldTemperature] = a.Calibrate(env.Temperature)
	}
	r[reading.FieldPressure] = env.Pressure
	r[reading.FieldHumidity] = env.Humidity

	gas, err := a.Gas.Read()
	if err != nil {
		return nil, fmt.Errorf("gas: %w", err)
	}
	scale := 1.0
	if a.GasKOhms {
		scale = 1000.0
	}
	r[reading.FieldOxidising] = gas.Oxidising / scale
	r[reading.FieldReducing] = gas.Reducing / scale
	r[reading.FieldNH3] = gas.NH3 / scale

	pm, err := a.Particulate.Read()
	if err != nil {
		return nil, fmt.Errorf("particulate: %w", err)
	}
	r[reading.FieldPM1] = float64(pm.PM1)
	r[reading.FieldPM25] = float64(pm.PM25)
	r[reading.FieldPM10] = float64(pm.PM10)
	r[reading.FieldCount03um] = float64(pm.Count03um)
	r[reading.FieldCount05um] = float64(pm.Count05um)
	r[reading.FieldCount10um] = float64(pm.Count10um)
	r[reading.FieldCount25um] = float64(pm.Count25um)
	r[reading.FieldCount50um] = float64(pm.Count50um)
	r[reading.FieldCount100um] = float64(pm.Count100um)

	return r, nil
}

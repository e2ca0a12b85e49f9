package station

import (
	"errors"
	"math"
	"testing"

	"github.com/HugooB/airquality-home/internal/pms5003"
	"github.com/HugooB/airquality-home/internal/reading"
	"github.com/HugooB/airquality-home/internal/sensors"
)

type fakeLight struct {
	proximity float64
	lux       float64
	proxErr   error
	luxErr    error
	luxCalls  int
}

func (f *fakeLight) Proximity() (float64, error) { return f.proximity, f.proxErr }

func (f *fakeLight) Lux() (float64, error) {
	f.luxCalls++
	return f.lux, f.luxErr
}

type fakeEnv struct {
	sample sensors.EnvSample
	err    error
}

func (f *fakeEnv) Sense() (sensors.EnvSample, error) { return f.sample, f.err }

type fakeGas struct {
	sample sensors.GasSample
	err    error
}

func (f *fakeGas) Read() (sensors.GasSample, error) { return f.sample, f.err }

type fakePM struct {
	sample  pms5003.Sample
	err     error
	errOn   int // iteration index of the read that fails, -1 = never
	reads   int
	resets  int
	resetEr error
}

func (f *fakePM) Read() (pms5003.Sample, error) {
	n := f.reads
	f.reads++
	if f.err != nil && (f.errOn < 0 || f.errOn == n) {
		return pms5003.Sample{}, f.err
	}
	return f.sample, nil
}

func (f *fakePM) Reset() error {
	f.resets++
	return f.resetEr
}

func fixtureAssembler() (*Assembler, *fakeLight, *fakePM) {
	light := &fakeLight{proximity: 2, lux: 412.5}
	pm := &fakePM{
		errOn: -1,
		sample: pms5003.Sample{
			PM1: 4, PM25: 9, PM10: 12,
			Count03um: 660, Count05um: 180, Count10um: 40,
			Count25um: 6, Count50um: 2, Count100um: 1,
		},
	}
	a := &Assembler{
		Light:       light,
		Env:         &fakeEnv{sample: sensors.EnvSample{Temperature: 25.0, Pressure: 1013.2, Humidity: 48.7}},
		Gas:         &fakeGas{sample: sensors.GasSample{Oxidising: 12000, Reducing: 340000, NH3: 56000}},
		Particulate: pm,
		Calibrate:   OffsetCalibration(-2.3),
		GasKOhms:    true,
	}
	return a, light, pm
}

func TestAssembleFullReading(t *testing.T) {
	a, _, _ := fixtureAssembler()

	r, err := a.Assemble(WarmupThreshold)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	want := map[string]float64{
		reading.FieldProximity:   2,
		reading.FieldLux:         412.5,
		reading.FieldTemperature: 22.7,
		reading.FieldPressure:    1013.2,
		reading.FieldHumidity:    48.7,
		reading.FieldOxidising:   12,
		reading.FieldReducing:    340,
		reading.FieldNH3:         56,
		reading.FieldPM1:         4,
		reading.FieldPM25:        9,
		reading.FieldPM10:        12,
		reading.FieldCount03um:   660,
		reading.FieldCount05um:   180,
		reading.FieldCount10um:   40,
		reading.FieldCount25um:   6,
		reading.FieldCount50um:   2,
		reading.FieldCount100um:  1,
	}
	if len(r) != len(want) {
		t.Errorf("field count: got %d, want %d", len(r), len(want))
	}
	for field, value := range want {
		got, ok := r[field]
		if !ok {
			t.Errorf("missing field %s", field)
			continue
		}
		if math.Abs(got-value) > 1e-9 {
			t.Errorf("%s: got %v, want %v", field, got, value)
		}
	}
}

func TestAssembleWarmupOmitsTemperature(t *testing.T) {
	a, _, _ := fixtureAssembler()

	for n := 0; n < WarmupThreshold; n++ {
		r, err := a.Assemble(n)
		if err != nil {
			t.Fatalf("assemble iteration %d: %v", n, err)
		}
		if _, ok := r[reading.FieldTemperature]; ok {
			t.Errorf("iteration %d: temperature present during warm-up", n)
		}
		if _, ok := r[reading.FieldPressure]; !ok {
			t.Errorf("iteration %d: pressure missing during warm-up", n)
		}
	}
}

func TestAssembleProximityObstructionClampsLux(t *testing.T) {
	a, light, _ := fixtureAssembler()
	light.proximity = 10

	r, err := a.Assemble(0)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if got := r[reading.FieldLux]; got != 1.0 {
		t.Errorf("lux: got %v, want exactly 1.0", got)
	}
	if light.luxCalls != 0 {
		t.Errorf("lux accessor invoked %d times while obstructed", light.luxCalls)
	}
}

func TestAssembleProximityClearReadsLux(t *testing.T) {
	a, light, _ := fixtureAssembler()
	light.proximity = 9

	r, err := a.Assemble(0)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if got := r[reading.FieldLux]; got != 412.5 {
		t.Errorf("lux: got %v, want sensor value 412.5", got)
	}
	if light.luxCalls != 1 {
		t.Errorf("lux accessor invoked %d times, want 1", light.luxCalls)
	}
}

func TestAssembleGasOhmsWhenNotNormalized(t *testing.T) {
	a, _, _ := fixtureAssembler()
	a.GasKOhms = false

	r, err := a.Assemble(0)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if got := r[reading.FieldOxidising]; got != 12000 {
		t.Errorf("oxidising: got %v, want raw 12000 ohms", got)
	}
}

func TestAssembleAdapterErrorAbandonsReading(t *testing.T) {
	a, _, _ := fixtureAssembler()
	a.Gas = &fakeGas{err: errors.New("i2c bus stuck")}

	r, err := a.Assemble(0)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if r != nil {
		t.Errorf("expected abandoned reading, got %v", r)
	}
}

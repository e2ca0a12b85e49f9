// Package reading holds the flat field map assembled once per sample
// iteration and the point envelope handed to the sink.
package reading

import "time"

// Field names use a sensor.metric namespace so the downstream measurement
// keeps one column per sensor channel.
const (
	FieldProximity   = "ltr559.proximity"
	FieldLux         = "ltr559.lux"
	FieldTemperature = "bme280.temperature"
	FieldPressure    = "bme280.pressure"
	FieldHumidity    = "bme280.humidity"
	FieldOxidising   = "mics6814.oxidising"
	FieldReducing    = "mics6814.reducing"
	FieldNH3         = "mics6814.nh3"
	FieldPM1         = "pms5003.pm1"
	FieldPM25        = "pms5003.pm25"
	FieldPM10        = "pms5003.pm10"
	FieldCount03um   = "pms5003.03um"
	FieldCount05um   = "pms5003.05um"
	FieldCount10um   = "pms5003.10um"
	FieldCount25um   = "pms5003.25um"
	FieldCount50um   = "pms5003.50um"
	FieldCount100um  = "pms5003.100um"
)

// Reading is one iteration's field set. A field is present only when its
// adapter read succeeded and the warm-up policy allowed it. A Reading is
// built fresh each iteration and never mutated after hand-off to the sink.
type Reading map[string]float64

// New returns an empty Reading sized for the full field set.
func New() Reading {
	return make(Reading, 17)
}

// Fields converts the reading into the generic field map the InfluxDB
// client expects.
func (r Reading) Fields() map[string]interface{} {
	out := make(map[string]interface{}, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Envelope is the fixed measurement/tag wrapper around a Reading. One
// envelope exists per process; the loop swaps Fields and Time in place each
// publish since only one measurement stream exists.
type Envelope struct {
	Measurement string
	Tags        map[string]string
	Fields      Reading
	Time        time.Time
}

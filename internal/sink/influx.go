package sink

import (
	"fmt"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"

	"github.com/HugooB/airquality-home/internal/reading"
)

// Influx writes points to an InfluxDB 1.x database.
type Influx struct {
	client   client.Client
	database string
}

// NewInflux creates the HTTP client. No connection is attempted until Ping.
func NewInflux(addr, username, password, database string) (*Influx, error) {
	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:     addr,
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("influx client: %w", err)
	}
	return &Influx{client: c, database: database}, nil
}

// Ping checks that the InfluxDB instance is up and accepting connections.
func (s *Influx) Ping(timeout time.Duration) error {
	if _, _, err := s.client.Ping(timeout); err != nil {
		return fmt.Errorf("influx ping: %w", err)
	}
	return nil
}

// Write stores the envelope as a single point.
func (s *Influx) Write(env *reading.Envelope) error {
	bp, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  s.database,
		Precision: "s",
	})
	if err != nil {
		return fmt.Errorf("influx batch: %w", err)
	}

	pt, err := client.NewPoint(env.Measurement, env.Tags, env.Fields.Fields(), env.Time)
	if err != nil {
		return fmt.Errorf("influx point: %w", err)
	}
	bp.AddPoint(pt)

	if err := s.client.Write(bp); err != nil {
		return fmt.Errorf("influx write: %w", err)
	}
	return nil
}

// Close releases the underlying HTTP client.
func (s *Influx) Close() error {
	return s.client.Close()
}

package station

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/HugooB/airquality-home/internal/pms5003"
	"github.com/HugooB/airquality-home/internal/reading"
	"github.com/HugooB/airquality-home/internal/sink"
)

// Runner is the sampling loop context: one instance is built at startup and
// owns the iteration counter, the reused point envelope and the hand-off to
// the sink. There is exactly one thread of control; adapters are read
// strictly in sequence and iterations never overlap.
type Runner struct {
	Assembler *Assembler
	Sink      sink.Sink

	// Interval is the fixed sleep between iterations. The sleep is not
	// compensated for sensor read latency, so the actual cadence is read
	// time plus Interval.
	Interval time.Duration

	Measurement string
	HostTag     string

	// Notify, when set, receives every published reading (web readout).
	Notify func(reading.Reading)

	iterations int
	envelope   reading.Envelope
}

// Run executes the loop until ctx is cancelled. Cancellation is checked
// between iterations, never mid-read.
func (r *Runner) Run(ctx context.Context) {
	timer := time.NewTimer(r.Interval)
	defer timer.Stop()

	for {
		r.Step()

		timer.Reset(r.Interval)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// Step runs one full iteration (read, assemble, gate, publish), classifies
// any fault, and advances the iteration counter. The counter advances
// whether or not the iteration succeeded.
func (r *Runner) Step() {
	if err := r.iterate(); err != nil {
		if pms5003.IsFault(err) {
			log.Printf("measurement error: %v, resetting particulate sensor", err)
			if rerr := r.Assembler.Particulate.Reset(); rerr != nil {
				log.Printf("particulate sensor reset failed: %v", rerr)
			}
		} else {
			log.Printf("measurement error: %v", err)
		}
	}
	r.iterations++
}

// Iterations returns the number of completed loop bodies.
func (r *Runner) Iterations() int {
	return r.iterations
}

func (r *Runner) iterate() error {
	rd, err := r.Assembler.Assemble(r.iterations)
	if err != nil {
		return err
	}

	if r.iterations == WarmupThreshold {
		log.Println("warm-up period over, reporting temperature from now on")
	}

	if !ShouldPublish(r.iterations) {
		log.Printf("skipping iteration %d", r.iterations)
		return nil
	}

	if r.envelope.Tags == nil {
		r.envelope.Measurement = r.Measurement
		r.envelope.Tags = map[string]string{"host": r.HostTag}
	}
	r.envelope.Fields = rd
	r.envelope.Time = time.Now()
	if err := r.Sink.Write(&r.envelope); err != nil {
		return fmt.Errorf("sink write: %w", err)
	}

	if r.Notify != nil {
		r.Notify(rd)
	}
	return nil
}

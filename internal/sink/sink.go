// Package sink abstracts where assembled readings go. The loop driver only
// needs the narrow ping/write/close contract; the concrete transport is
// chosen by configuration at startup.
package sink

import (
	"time"

	"github.com/HugooB/airquality-home/internal/reading"
)

// Sink is the downstream store for measurement points.
type Sink interface {
	// Ping verifies connectivity. Called once at startup; failure there is
	// the one fatal error in the process.
	Ping(timeout time.Duration) error
	// Write stores a single-point batch. Failures are contained within the
	// iteration that produced them.
	Write(env *reading.Envelope) error
	// Close releases the connection on graceful shutdown.
	Close() error
}

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HugooB/airquality-home/internal/reading"
)

// Readout keeps the most recently published reading for the web endpoints
// and mirrors every field into a prometheus gauge. It is fed by the loop
// driver and never feeds anything back; a stuck web client cannot touch the
// sampling loop.
type Readout struct {
	mu   sync.RWMutex
	last reading.Reading
	when time.Time
	have bool
}

var readingGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "airquality_reading",
	Help: "Latest published sensor reading, one series per field.",
}, []string{"field"})

// Publish records a newly published reading.
func (ro *Readout) Publish(r reading.Reading) {
	ro.mu.Lock()
	ro.last = r
	ro.when = time.Now()
	ro.have = true
	ro.mu.Unlock()

	for field, value := range r {
		readingGauge.WithLabelValues(field).Set(value)
	}
}

// snapshot returns the latest reading, or false when nothing has been
// published yet.
func (ro *Readout) snapshot() (reading.Reading, time.Time, bool) {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	return ro.last, ro.when, ro.have
}

type readoutPayload struct {
	Time   time.Time          `json:"time"`
	Fields map[string]float64 `json:"fields"`
}

var upgrader = websocket.Upgrader{
	// Readings are not sensitive; the readout is meant for the local network.
	CheckOrigin: func(*http.Request) bool { return true },
}

// RunWeb serves the latest-reading API, a websocket push stream and the
// prometheus metrics endpoint. Blocks until the server fails.
func RunWeb(port int, ro *Readout) error {
	mux := http.NewServeMux()

	// 1) JSON API endpoint: latest published reading
	mux.HandleFunc("/api/reading", func(w http.ResponseWriter, r *http.Request) {
		last, when, have := ro.snapshot()
		if !have {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(readoutPayload{Time: when, Fields: last}); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// 2) Websocket push stream: latest reading every few seconds
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()

		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		var sent time.Time
		for range ticker.C {
			last, when, have := ro.snapshot()
			if !have || when.Equal(sent) {
				continue
			}
			if err := conn.WriteJSON(readoutPayload{Time: when, Fields: last}); err != nil {
				return
			}
			sent = when
		}
	})

	// 3) Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	log.Printf("web: readout listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

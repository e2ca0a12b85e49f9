package station

// The sensors show startup transients, so the first iterations are gated by
// two independent thresholds: nothing is published before SkipThreshold, and
// the temperature field is withheld before WarmupThreshold. SkipThreshold is
// below WarmupThreshold by construction, so the first published points are
// known to lack temperature.
const (
	SkipThreshold   = 3
	WarmupThreshold = 6
)

// ShouldPublish reports whether iteration n is forwarded to the sink.
func ShouldPublish(n int) bool {
	return n >= SkipThreshold
}

// TemperatureReady reports whether the temperature field is trusted at
// iteration n.
func TemperatureReady(n int) bool {
	return n >= WarmupThreshold
}

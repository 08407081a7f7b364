package emitz

// Metrics is a point-in-time view of an Emitter's activity.
// Counters are read atomically; the gauges are read under the emitter's lock.
type Metrics struct {
	// Emission Counters
	Emitted     int64 // Emit calls that reached at least one listener
	Unheard     int64 // Emit calls for keys with no listeners
	Invocations int64 // Listener calls made by Emit
	Failures    int64 // ErrorEvent emissions that returned an error

	// Registration Counters
	Added    int64 // Listeners registered
	Removed  int64 // Listeners removed, including one-shot self-removal
	Warnings int64 // MaxListenersExceeded warnings raised

	// Registry Gauges
	Listeners int64 // Listeners currently registered across all keys
	Events    int64 // Keys with at least one listener
}

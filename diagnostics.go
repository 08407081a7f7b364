package emitz

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// WarningMaxListenersExceeded is the Kind of the listener-limit warning.
const WarningMaxListenersExceeded = "MaxListenersExceeded"

// Warning is a structured diagnostic raised by an Emitter.
type Warning struct {
	Kind      string
	Key       Key
	Count     int // listeners registered for Key when the warning fired
	Threshold int // effective threshold that was exceeded
	At        time.Time
}

func (w Warning) String() string {
	return fmt.Sprintf("%sWarning: possible emitter leak detected, %d %s listeners added, use SetMaxListeners to increase the limit of %d",
		w.Kind, w.Count, keyString(w.Key), w.Threshold)
}

// Diagnostics receives the warnings and unhandled errors of an Emitter.
// Calls are made synchronously, outside the emitter's lock.
type Diagnostics interface {
	Warn(w Warning)
	Unhandled(key Key, err error)
}

// LogDiagnostics writes diagnostics as structured zerolog records.
type LogDiagnostics struct {
	log zerolog.Logger
}

// NewLogDiagnostics returns a sink that logs through l.
func NewLogDiagnostics(l zerolog.Logger) *LogDiagnostics {
	return &LogDiagnostics{log: l}
}

func (d *LogDiagnostics) Warn(w Warning) {
	d.log.Warn().
		Str("kind", w.Kind).
		Str("key", keyString(w.Key)).
		Int("count", w.Count).
		Int("threshold", w.Threshold).
		Time("at", w.At).
		Msg(w.String())
}

func (d *LogDiagnostics) Unhandled(key Key, err error) {
	d.log.Error().
		Err(err).
		Str("key", keyString(key)).
		Msg("error event emitted with no listeners")
}

// NopDiagnostics discards everything.
type NopDiagnostics struct{}

func (NopDiagnostics) Warn(Warning)         {}
func (NopDiagnostics) Unhandled(Key, error) {}

var stderrDiagnostics = NewLogDiagnostics(zerolog.New(os.Stderr).With().Timestamp().Logger())

func keyString(key Key) string {
	switch k := key.(type) {
	case string:
		return k
	case fmt.Stringer:
		return k.String()
	default:
		return fmt.Sprint(k)
	}
}

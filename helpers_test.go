package emitz

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// captureDiagnostics records everything an emitter reports.
type captureDiagnostics struct {
	mu        sync.Mutex
	warnings  []Warning
	unhandled []error
}

func (c *captureDiagnostics) Warn(w Warning) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = append(c.warnings, w)
}

func (c *captureDiagnostics) Unhandled(_ Key, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unhandled = append(c.unhandled, err)
}

func (c *captureDiagnostics) Warnings() []Warning {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Warning(nil), c.warnings...)
}

func (c *captureDiagnostics) Unhandleds() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]error(nil), c.unhandled...)
}

// newTestEmitter isolates the emitter from the process-wide threshold and
// from stderr.
func newTestEmitter(t *testing.T, opts ...Option) (*Emitter, *captureDiagnostics) {
	t.Helper()
	diag := &captureDiagnostics{}
	threshold, err := NewThreshold(DefaultMaxListeners)
	require.NoError(t, err)
	base := []Option{WithDiagnostics(diag), WithThreshold(threshold)}
	return New(append(base, opts...)...), diag
}

// callLog collects listener invocations in order.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (c *callLog) listener(name string) Listener {
	return Func(func(args ...any) {
		c.record(name, args...)
	})
}

func (c *callLog) record(name string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(args) == 0 {
		c.calls = append(c.calls, name)
		return
	}
	c.calls = append(c.calls, fmt.Sprintf("%s%v", name, args))
}

func (c *callLog) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *callLog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = nil
}

// countListener is a comparable struct-pointer listener.
type countListener struct {
	n int
}

func (c *countListener) Handle(...any) {
	c.n++
}

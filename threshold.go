package emitz

import "sync/atomic"

// DefaultMaxListeners is the initial process-wide listener threshold.
const DefaultMaxListeners = 10

// Threshold is a shared max-listener default. Emitters without their own
// override read it every time they compute the effective threshold, so a Set
// is visible to all of them immediately.
type Threshold struct {
	n atomic.Int64
}

// NewThreshold returns a Threshold holding n.
func NewThreshold(n int) (*Threshold, error) {
	t := &Threshold{}
	if err := t.Set(n); err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns the current value.
func (t *Threshold) Get() int {
	return int(t.n.Load())
}

// Set replaces the value. Negative values are rejected with a *RangeError.
func (t *Threshold) Set(n int) error {
	if n < 0 {
		return &RangeError{Name: "defaultMaxListeners", Value: n}
	}
	t.n.Store(int64(n))
	return nil
}

var globalThreshold = func() *Threshold {
	t := &Threshold{}
	t.n.Store(DefaultMaxListeners)
	return t
}()

// GlobalThreshold returns the process-wide Threshold used by emitters that
// were not given one with WithThreshold.
func GlobalThreshold() *Threshold {
	return globalThreshold
}

// GetDefaultMaxListeners returns the process-wide default threshold.
func GetDefaultMaxListeners() int {
	return globalThreshold.Get()
}

// SetDefaultMaxListeners changes the process-wide default threshold.
func SetDefaultMaxListeners(n int) error {
	return globalThreshold.Set(n)
}

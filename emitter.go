package emitz

import (
	"sync"
	"sync/atomic"

	"github.com/zoobzio/clockz"
)

// Option configures an Emitter during creation.
type Option func(*config)

// config holds internal configuration for emitter creation.
type config struct {
	clock       clockz.Clock // Time abstraction for deterministic testing
	threshold   *Threshold
	diagnostics Diagnostics
	match       MatchPolicy
}

// MatchPolicy selects which entry RemoveListener removes when the same
// listener is registered more than once for a key.
type MatchPolicy int

const (
	// MatchLast removes the most recently registered matching entry.
	MatchLast MatchPolicy = iota
	// MatchFirst removes the earliest registered matching entry.
	MatchFirst
)

// WithClock sets the clock used to timestamp warnings.
// Default is clockz.RealClock. Use a fake clock for deterministic testing.
func WithClock(clock clockz.Clock) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// WithThreshold sets the shared default the emitter falls back to when
// SetMaxListeners has not been called. Default is GlobalThreshold().
func WithThreshold(t *Threshold) Option {
	return func(c *config) {
		c.threshold = t
	}
}

// WithDiagnostics sets the sink for warnings and unhandled errors.
// Default logs JSON records to stderr.
func WithDiagnostics(d Diagnostics) Option {
	return func(c *config) {
		c.diagnostics = d
	}
}

// WithMatchPolicy sets the duplicate tie-break used by RemoveListener.
// Default is MatchLast.
func WithMatchPolicy(p MatchPolicy) Option {
	return func(c *config) {
		c.match = p
	}
}

// listenerList is the ordered set of listeners for one key.
type listenerList struct {
	listeners []Listener
	warned    bool // MaxListenersExceeded already reported for this key
}

// Emitter is a synchronous event registry.
//
// Listeners run on the goroutine that calls Emit, one after another, in
// registration order. Each Emit works on a copy of the listener list taken
// when it starts, so registrations and removals made by listeners (or by
// other goroutines) only affect later emissions.
//
// Thread Safety:
// The registry is guarded by a mutex that is never held while a listener or
// the Diagnostics sink runs. Listeners may freely call back into the emitter,
// including nested Emit calls.
type Emitter struct {
	// Metrics field first to keep the atomic counters 64-bit aligned
	metrics Metrics

	clock       clockz.Clock
	threshold   *Threshold
	diagnostics Diagnostics
	match       MatchPolicy

	mu           sync.Mutex
	events       map[Key]*listenerList
	order        []Key // keys in first-registration order
	maxListeners int
	hasMax       bool // maxListeners overrides threshold
}

// New creates an emitter with the specified options.
//
// Default configuration:
//   - Threshold from GlobalThreshold() (10 unless changed)
//   - Warnings logged to stderr
//   - Last-match removal of duplicate listeners
//
// Example:
//
//	events := emitz.New(
//	    emitz.WithDiagnostics(emitz.NopDiagnostics{}),
//	    emitz.WithMatchPolicy(emitz.MatchFirst),
//	)
func New(opts ...Option) *Emitter {
	cfg := config{
		clock:       clockz.RealClock,
		threshold:   globalThreshold,
		diagnostics: stderrDiagnostics,
		match:       MatchLast,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return &Emitter{
		clock:       cfg.clock,
		threshold:   cfg.threshold,
		diagnostics: cfg.diagnostics,
		match:       cfg.match,
		events:      make(map[Key]*listenerList),
	}
}

// On appends listener to the list for key.
//
// If anyone listens for NewListenerEvent, it is emitted with (key, listener)
// before the listener is added. Adding more listeners than GetMaxListeners
// reports one MaxListenersExceeded warning for the key.
func (e *Emitter) On(key Key, listener Listener) error {
	return e.addListener(key, listener, false)
}

// AddListener is an alias for On.
func (e *Emitter) AddListener(key Key, listener Listener) error {
	return e.On(key, listener)
}

// PrependListener adds listener to the front of the list for key.
func (e *Emitter) PrependListener(key Key, listener Listener) error {
	return e.addListener(key, listener, true)
}

// Once appends a listener that is removed the first time key is emitted,
// before it runs.
func (e *Emitter) Once(key Key, listener Listener) error {
	if err := checkListener(listener); err != nil {
		return err
	}
	return e.addListener(key, wrapOnce(e, key, listener), false)
}

// PrependOnceListener is Once, adding to the front of the list.
func (e *Emitter) PrependOnceListener(key Key, listener Listener) error {
	if err := checkListener(listener); err != nil {
		return err
	}
	return e.addListener(key, wrapOnce(e, key, listener), true)
}

func (e *Emitter) addListener(key Key, listener Listener, prepend bool) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := checkListener(listener); err != nil {
		return err
	}

	if key != NewListenerEvent && e.hasListeners(NewListenerEvent) {
		// Never fails: only ErrorEvent emissions return errors
		_, _ = e.Emit(NewListenerEvent, key, unwrap(listener))
	}

	e.mu.Lock()
	list, ok := e.events[key]
	if !ok {
		list = &listenerList{}
		e.events[key] = list
		e.order = append(e.order, key)
	}
	if prepend {
		list.listeners = append([]Listener{listener}, list.listeners...)
	} else {
		list.listeners = append(list.listeners, listener)
	}

	count := len(list.listeners)
	threshold := e.maxListenersLocked()
	warn := threshold > 0 && count > threshold && !list.warned
	if warn {
		list.warned = true
	}
	e.mu.Unlock()

	atomic.AddInt64(&e.metrics.Added, 1)

	if warn {
		atomic.AddInt64(&e.metrics.Warnings, 1)
		e.diagnostics.Warn(Warning{
			Kind:      WarningMaxListenersExceeded,
			Key:       key,
			Count:     count,
			Threshold: threshold,
			At:        e.clock.Now(),
		})
	}
	return nil
}

// RemoveListener removes one registration of listener from key.
//
// An entry matches when it is listener itself or a one-shot wrapper around
// it. With duplicates, the MatchPolicy picks which one goes. Removing a
// listener that is not registered is a no-op. If anyone listens for
// RemoveListenerEvent, it is emitted with (key, listener) after removal.
//
// Removal never affects an Emit that is already running.
func (e *Emitter) RemoveListener(key Key, listener Listener) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := checkListener(listener); err != nil {
		return err
	}

	removed, ok := e.removeListener(key, listener, false)
	if !ok {
		return nil
	}

	if e.hasListeners(RemoveListenerEvent) {
		_, _ = e.Emit(RemoveListenerEvent, key, unwrap(removed))
	}
	return nil
}

// Off is an alias for RemoveListener.
func (e *Emitter) Off(key Key, listener Listener) error {
	return e.RemoveListener(key, listener)
}

// removeListener splices the matching entry out of the list for key and
// reports what was removed.
// removeListener removes one entry standing for listener. With exact set only
// the entry itself matches, never a one-shot wrapper around it.
func (e *Emitter) removeListener(key Key, listener Listener, exact bool) (Listener, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	list, ok := e.events[key]
	if !ok {
		return nil, false
	}

	index := e.findLocked(list.listeners, listener, exact)
	if index < 0 {
		return nil, false
	}

	removed := list.listeners[index]
	list.listeners = append(list.listeners[:index], list.listeners[index+1:]...)

	// Empty lists never stay in the registry
	if len(list.listeners) == 0 {
		e.deleteLocked(key)
	}

	atomic.AddInt64(&e.metrics.Removed, 1)
	return removed, true
}

func (e *Emitter) findLocked(listeners []Listener, listener Listener, exact bool) int {
	matches := func(entry Listener) bool {
		return entry == listener || (!exact && unwrap(entry) == listener)
	}

	if e.match == MatchFirst {
		for i, entry := range listeners {
			if matches(entry) {
				return i
			}
		}
		return -1
	}

	for i := len(listeners) - 1; i >= 0; i-- {
		if matches(listeners[i]) {
			return i
		}
	}
	return -1
}

func (e *Emitter) deleteLocked(key Key) {
	delete(e.events, key)
	for i, k := range e.order {
		if k == key {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// RemoveAllListeners removes every listener for the given keys, or for all
// keys when called without arguments.
//
// When anyone listens for RemoveListenerEvent, listeners are removed one at a
// time (last to first) so each removal is announced, and the
// RemoveListenerEvent listeners themselves are removed last. Otherwise the
// lists are dropped without notification.
func (e *Emitter) RemoveAllListeners(keys ...Key) error {
	for _, key := range keys {
		if err := checkKey(key); err != nil {
			return err
		}
	}

	if !e.hasListeners(RemoveListenerEvent) {
		e.mu.Lock()
		removed := 0
		if len(keys) == 0 {
			for _, list := range e.events {
				removed += len(list.listeners)
			}
			e.events = make(map[Key]*listenerList)
			e.order = nil
		} else {
			for _, key := range keys {
				if list, ok := e.events[key]; ok {
					removed += len(list.listeners)
					e.deleteLocked(key)
				}
			}
		}
		e.mu.Unlock()
		atomic.AddInt64(&e.metrics.Removed, int64(removed))
		return nil
	}

	if len(keys) > 0 {
		for _, key := range keys {
			e.removeAllNotifying(key)
		}
		return nil
	}

	for _, key := range e.EventNames() {
		if key == RemoveListenerEvent {
			continue
		}
		e.removeAllNotifying(key)
	}
	e.removeAllNotifying(RemoveListenerEvent)

	// Drop anything registered by removeListener listeners along the way
	e.mu.Lock()
	removed := 0
	for _, list := range e.events {
		removed += len(list.listeners)
	}
	e.events = make(map[Key]*listenerList)
	e.order = nil
	e.mu.Unlock()
	atomic.AddInt64(&e.metrics.Removed, int64(removed))
	return nil
}

func (e *Emitter) removeAllNotifying(key Key) {
	raw := e.RawListeners(key)
	for i := len(raw) - 1; i >= 0; i-- {
		_ = e.RemoveListener(key, raw[i])
	}
}

// Emit calls every listener registered for key with args, synchronously and
// in order, and reports whether there were any.
//
// The listener set is fixed when Emit starts. Emitting ErrorEvent with no
// listeners returns args[0] when it is an error, and an *UnhandledError
// wrapping it otherwise. Panics raised by listeners are not recovered.
func (e *Emitter) Emit(key Key, args ...any) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}

	// Copy listeners to keep this dispatch independent of later mutation
	e.mu.Lock()
	var listeners []Listener
	list, ok := e.events[key]
	if ok {
		listeners = make([]Listener, len(list.listeners))
		copy(listeners, list.listeners)
	}
	e.mu.Unlock()

	if !ok {
		if key == ErrorEvent {
			err := unhandled(args)
			atomic.AddInt64(&e.metrics.Failures, 1)
			e.diagnostics.Unhandled(key, err)
			return false, err
		}
		atomic.AddInt64(&e.metrics.Unheard, 1)
		return false, nil
	}

	atomic.AddInt64(&e.metrics.Emitted, 1)
	for _, listener := range listeners {
		atomic.AddInt64(&e.metrics.Invocations, 1)
		listener.Handle(args...)
	}
	return true, nil
}

func unhandled(args []any) error {
	var value any
	if len(args) > 0 {
		value = args[0]
	}
	if err, ok := value.(error); ok {
		return err
	}
	return &UnhandledError{Context: value}
}

func (e *Emitter) hasListeners(key Key) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.events[key]
	return ok
}

// ListenerCount returns the number of listeners registered for key.
func (e *Emitter) ListenerCount(key Key) int {
	if checkKey(key) != nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if list, ok := e.events[key]; ok {
		return len(list.listeners)
	}
	return 0
}

// EventNames returns the keys that have listeners, in the order they were
// first registered.
func (e *Emitter) EventNames() []Key {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]Key, len(e.order))
	copy(names, e.order)
	return names
}

// Listeners returns a copy of the listeners for key with one-shot wrappers
// replaced by the listeners they wrap. Changing the returned slice does not
// affect the emitter.
func (e *Emitter) Listeners(key Key) []Listener {
	raw := e.RawListeners(key)
	for i, l := range raw {
		raw[i] = unwrap(l)
	}
	return raw
}

// RawListeners returns a copy of the listeners for key as registered,
// including *OnceListener wrappers.
func (e *Emitter) RawListeners(key Key) []Listener {
	if checkKey(key) != nil {
		return []Listener{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	list, ok := e.events[key]
	if !ok {
		return []Listener{}
	}
	out := make([]Listener, len(list.listeners))
	copy(out, list.listeners)
	return out
}

// SetMaxListeners overrides the shared threshold for this emitter.
// Zero disables the listener-limit warning.
func (e *Emitter) SetMaxListeners(n int) error {
	if n < 0 {
		return &RangeError{Name: "n", Value: n}
	}
	e.mu.Lock()
	e.maxListeners = n
	e.hasMax = true
	e.mu.Unlock()
	return nil
}

// GetMaxListeners returns the effective threshold: the value set with
// SetMaxListeners, or the shared Threshold when none was set.
func (e *Emitter) GetMaxListeners() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxListenersLocked()
}

func (e *Emitter) maxListenersLocked() int {
	if e.hasMax {
		return e.maxListeners
	}
	return e.threshold.Get()
}

// Metrics returns current emitter metrics.
// Gauges are computed under the registry lock; counters are read atomically.
func (e *Emitter) Metrics() Metrics {
	e.mu.Lock()
	events := int64(len(e.events))
	var listeners int64
	for _, list := range e.events {
		listeners += int64(len(list.listeners))
	}
	e.mu.Unlock()

	return Metrics{
		Emitted:     atomic.LoadInt64(&e.metrics.Emitted),
		Unheard:     atomic.LoadInt64(&e.metrics.Unheard),
		Invocations: atomic.LoadInt64(&e.metrics.Invocations),
		Failures:    atomic.LoadInt64(&e.metrics.Failures),
		Added:       atomic.LoadInt64(&e.metrics.Added),
		Removed:     atomic.LoadInt64(&e.metrics.Removed),
		Warnings:    atomic.LoadInt64(&e.metrics.Warnings),
		Listeners:   listeners,
		Events:      events,
	}
}

package emitz

import "sync/atomic"

// OnceListener is the wrapper registered by Once and PrependOnceListener.
// RawListeners exposes it; Unwrap returns the listener it guards.
type OnceListener struct {
	target   *Emitter
	key      Key
	listener Listener
	fired    atomic.Bool
}

func wrapOnce(target *Emitter, key Key, listener Listener) *OnceListener {
	return &OnceListener{target: target, key: key, listener: listener}
}

// Handle removes the wrapper from its emitter and then calls the wrapped
// listener. Only the first call does anything.
func (o *OnceListener) Handle(args ...any) {
	if !o.fired.CompareAndSwap(false, true) {
		return
	}
	// Removal must land before the listener runs so a listener that
	// re-registers itself for the same key is not removed again.
	_ = o.target.RemoveListener(o.key, o)
	o.listener.Handle(args...)
}

// Unwrap returns the original listener.
func (o *OnceListener) Unwrap() Listener {
	return o.listener
}

// Fired reports whether the wrapper has already been triggered.
func (o *OnceListener) Fired() bool {
	return o.fired.Load()
}

// unwrap returns the listener a registry entry stands for.
func unwrap(l Listener) Listener {
	if o, ok := l.(*OnceListener); ok {
		return o.listener
	}
	return l
}

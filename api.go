// Package emitz provides a synchronous, in-process event emitter.
//
// An Emitter maps event keys to ordered lists of listeners. Emit invokes every
// listener registered for a key, in registration order, on the caller's
// goroutine. Handlers added or removed while an emission is in flight take
// effect from the next Emit.
//
// Basic Usage:
//
//	events := emitz.New()
//
//	greet := emitz.Func(func(args ...any) {
//		fmt.Println("hello", args[0])
//	})
//
//	if err := events.On("user.created", greet); err != nil {
//		return err
//	}
//
//	// Synchronously invokes greet
//	events.Emit("user.created", "ada")
//
//	// Later, remove it by the same reference
//	events.RemoveListener("user.created", greet)
//
// One-shot listeners:
//
//	// Removed before it runs, so it fires at most once
//	events.Once("ready", onReady)
//
//	// Removal by the original reference also matches the one-shot wrapper
//	events.RemoveListener("ready", onReady)
//
// Reserved keys:
//   - NewListenerEvent is emitted before every registration (except its own)
//   - RemoveListenerEvent is emitted after every removal
//   - ErrorEvent escalates to a returned error when nobody is listening
//
// Listener limits:
//
// When the number of listeners for one key exceeds the effective threshold
// (GetMaxListeners), a single MaxListenersExceeded warning is reported to the
// emitter's Diagnostics sink. The threshold defaults to the process-wide
// value (10), which SetDefaultMaxListeners changes for every emitter without
// an override. A threshold of zero disables the warning.
package emitz

import "fmt"

// Key identifies an event. Keys are compared with ==, so any non-nil value of
// a comparable type works. Strings are the common case; NewSymbol produces
// keys that only compare equal to themselves.
//
//	const (
//		UserCreated = "user.created"
//		UserDeleted = "user.deleted"
//	)
type Key = any

// Reserved event keys.
const (
	// NewListenerEvent is emitted with (key, listener) before a listener is added.
	NewListenerEvent = "newListener"

	// RemoveListenerEvent is emitted with (key, listener) after a listener is removed.
	RemoveListenerEvent = "removeListener"

	// ErrorEvent is emitted to report errors. Emitting it with no listeners
	// returns an error from Emit instead of reporting false.
	ErrorEvent = "error"
)

// Listener receives the arguments passed to Emit.
//
// Listeners are identified by ==, which is how RemoveListener finds them.
// The dynamic type of a Listener must therefore be comparable, and so must
// any values held in its interface fields; registration rejects listeners
// that cannot be compared. Pointer receivers are the usual choice. Use Func to adapt a plain function.
type Listener interface {
	Handle(args ...any)
}

// funcListener adapts a function to Listener. It is always used through a
// pointer so each adapted function has its own identity.
type funcListener struct {
	fn func(args ...any)
}

func (f *funcListener) Handle(args ...any) {
	f.fn(args...)
}

// Func wraps fn as a Listener. Every call returns a distinct Listener, so keep
// the returned value if you intend to remove it later.
func Func(fn func(args ...any)) Listener {
	return &funcListener{fn: fn}
}

// Symbol is an event key that is only equal to itself.
type Symbol struct {
	description string
}

// NewSymbol returns a new unique key. The description is used for display only.
func NewSymbol(description string) *Symbol {
	return &Symbol{description: description}
}

func (s *Symbol) String() string {
	return fmt.Sprintf("Symbol(%s)", s.description)
}

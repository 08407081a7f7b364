package emitz

import (
	"errors"
	"fmt"
	"reflect"
)

// Error codes carried by the typed errors below.
const (
	CodeInvalidArgType = "ERR_INVALID_ARG_TYPE"
	CodeOutOfRange     = "ERR_OUT_OF_RANGE"
	CodeUnhandledError = "ERR_UNHANDLED_ERROR"
)

// Registration Errors
//
// These errors are returned when a registration or removal call
// receives an argument it cannot work with.

// ErrInvalidListener is matched by every *InvalidListenerError.
var ErrInvalidListener = errors.New("invalid listener")

// ErrInvalidKey is returned when an event key is nil or not comparable.
var ErrInvalidKey = errors.New("invalid event key")

// Threshold Errors

// ErrOutOfRange is matched by every *RangeError.
var ErrOutOfRange = errors.New("value out of range")

// Emission Errors

// ErrUnhandled is matched by every *UnhandledError.
var ErrUnhandled = errors.New("unhandled error event")

// Subscription Errors
//
// These errors are returned by Subscription handles.

// ErrAlreadyUnsubscribed is returned when Unsubscribe is called twice
// on the same handle.
var ErrAlreadyUnsubscribed = errors.New("subscription already cancelled")

// ErrListenerNotFound is returned when a subscription's listener was
// already removed by other means (RemoveListener, RemoveAllListeners,
// or a one-shot firing).
var ErrListenerNotFound = errors.New("listener not found")

// InvalidListenerError reports a nil or non-comparable Listener.
type InvalidListenerError struct {
	Received string
}

func (e *InvalidListenerError) Error() string {
	return fmt.Sprintf("the \"listener\" argument must be a non-nil comparable Listener, received %s", e.Received)
}

// Code returns CodeInvalidArgType.
func (e *InvalidListenerError) Code() string { return CodeInvalidArgType }

func (e *InvalidListenerError) Unwrap() error { return ErrInvalidListener }

// RangeError reports a max-listener threshold outside the accepted domain.
type RangeError struct {
	Name  string // the rejected parameter, "n" or "defaultMaxListeners"
	Value int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("the value of %q is out of range, it must be a non-negative integer, received %d", e.Name, e.Value)
}

// Code returns CodeOutOfRange.
func (e *RangeError) Code() string { return CodeOutOfRange }

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

// UnhandledError is returned when ErrorEvent is emitted without listeners and
// the emitted value is not itself an error.
type UnhandledError struct {
	Context any // the value that was emitted
}

func (e *UnhandledError) Error() string {
	return fmt.Sprintf("unhandled error (%v)", e.Context)
}

// Code returns CodeUnhandledError.
func (e *UnhandledError) Code() string { return CodeUnhandledError }

func (e *UnhandledError) Unwrap() error { return ErrUnhandled }

// checkListener reports whether l can be stored and later matched with ==.
func checkListener(l Listener) error {
	if l == nil {
		return &InvalidListenerError{Received: "nil"}
	}
	v := reflect.ValueOf(l)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.Slice, reflect.Interface:
		if v.IsNil() {
			return &InvalidListenerError{Received: "nil " + v.Type().String()}
		}
	}
	if !v.Type().Comparable() || !selfEqual(l) {
		return &InvalidListenerError{Received: "type " + v.Type().String()}
	}
	if f, ok := l.(*funcListener); ok && f.fn == nil {
		return &InvalidListenerError{Received: "nil func"}
	}
	return nil
}

// checkKey rejects keys that would panic as map keys.
func checkKey(key Key) error {
	if key == nil {
		return fmt.Errorf("%w: nil", ErrInvalidKey)
	}
	if t := reflect.TypeOf(key); !t.Comparable() || !selfEqual(key) {
		return fmt.Errorf("%w: %s is not comparable", ErrInvalidKey, t)
	}
	return nil
}

// selfEqual reports whether v == v holds without panicking. A comparable
// struct type can still carry interface fields holding slices or maps, and
// a NaN field never equals itself, so neither could be matched later.
func selfEqual(v any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	w := v
	return v == w
}

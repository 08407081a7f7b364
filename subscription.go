package emitz

// Subscription is a handle to one registration made with Subscribe or
// SubscribeOnce. It removes the entry it registered, never a one-shot
// wrapper or plain registration that merely shares its listener, which is
// useful when the listener value itself is not kept around.
//
// Example:
//
//	sub, err := events.Subscribe("user.created", emitz.Func(sendWelcome))
//	if err != nil {
//	    return err
//	}
//	defer sub.Unsubscribe()
type Subscription struct {
	// unsubscribe performs the removal. It is cleared after the first
	// call so later calls report ErrAlreadyUnsubscribed.
	unsubscribe func() error
	key         Key
}

// Key returns the event key the subscription was registered for.
func (s *Subscription) Key() Key {
	return s.key
}

// Unsubscribe removes the registration.
//
// Returns:
//   - nil: the listener was removed
//   - ErrListenerNotFound: it was already gone (removed elsewhere, or a
//     one-shot listener that has fired)
//   - ErrAlreadyUnsubscribed: Unsubscribe was already called
func (s *Subscription) Unsubscribe() error {
	if s.unsubscribe == nil {
		return ErrAlreadyUnsubscribed
	}
	err := s.unsubscribe()
	s.unsubscribe = nil
	return err
}

// Subscribe registers listener with On and returns a handle for removing it.
func (e *Emitter) Subscribe(key Key, listener Listener) (*Subscription, error) {
	if err := e.On(key, listener); err != nil {
		return nil, err
	}
	return e.subscription(key, listener), nil
}

// SubscribeOnce registers listener with Once and returns a handle for
// removing it before it fires.
func (e *Emitter) SubscribeOnce(key Key, listener Listener) (*Subscription, error) {
	if err := checkListener(listener); err != nil {
		return nil, err
	}
	wrapper := wrapOnce(e, key, listener)
	if err := e.addListener(key, wrapper, false); err != nil {
		return nil, err
	}
	return e.subscription(key, wrapper), nil
}

func (e *Emitter) subscription(key Key, entry Listener) *Subscription {
	return &Subscription{
		key: key,
		unsubscribe: func() error {
			removed, ok := e.removeListener(key, entry, true)
			if !ok {
				return ErrListenerNotFound
			}
			if e.hasListeners(RemoveListenerEvent) {
				_, _ = e.Emit(RemoveListenerEvent, key, unwrap(removed))
			}
			return nil
		},
	}
}

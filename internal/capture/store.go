package capture

import "sync"

// subscriberBuffer is the channel buffer given to each subscriber.
const subscriberBuffer = 16

// Store holds the current [State] and publishes changes.
//
// Store is safe for concurrent use. Events are applied one at a time under a
// single lock, so two failures arriving back to back are applied in arrival
// order and the later one wins. Subscribers are notified while the lock is
// held, which keeps notifications in the same order as the updates; sends
// are non-blocking, so a subscriber whose buffer is full misses that update
// instead of stalling capture.
type Store struct {
	mu          sync.Mutex
	state       State
	subscribers map[chan State]struct{}
}

// NewStore creates a [Store] in the Clear state.
func NewStore() *Store {
	return &Store{
		subscribers: make(map[chan State]struct{}),
	}
}

// Apply runs e through [Transition] and stores the result.
//
// It returns the new state and whether it differs from the previous one.
// Subscribers are only notified when the state changed.
func (s *Store) Apply(e Event) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state
	next := Transition(prev, e)
	if next == prev {
		return prev, false
	}

	s.state = next
	s.notify(next)
	return next, true
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Restart discards the captured error and returns to Clear.
//
// Restart is not a state transition: it models a full reload of the page,
// which is the only way a captured error goes away.
func (s *Store) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == (State{}) {
		return
	}
	s.state = State{}
	s.notify(s.state)
}

// Subscribe returns a channel that receives every state change.
//
// Caller must call [Store.Unsubscribe] when done to prevent resource leaks.
func (s *Store) Subscribe() <-chan State {
	ch := make(chan State, subscriberBuffer)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (s *Store) Unsubscribe(ch <-chan State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for subCh := range s.subscribers {
		if subCh == ch {
			delete(s.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notify sends st to every subscriber without blocking. Caller holds mu.
func (s *Store) notify(st State) {
	for ch := range s.subscribers {
		select {
		case ch <- st:
		default:
			// subscriber is slow, drop the update
		}
	}
}

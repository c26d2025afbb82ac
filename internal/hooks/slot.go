package hooks

import (
	"errors"
	"sync"
)

// ErrSlotHeld is returned by [Acquire] while another [Lease] is live.
var ErrSlotHeld = errors.New("hooks: slot already held")

// ErrorFunc handles an uncaught error. err is nil when the reporter only has
// a message and location. It returns true when the failure was handled.
type ErrorFunc func(message, source string, line, column int, err error) bool

// RejectionFunc handles an asynchronous failure nobody observed.
// It returns true when the failure was handled.
type RejectionFunc func(reason any) bool

// KeyFunc receives a key press.
type KeyFunc func(key string)

// Handlers are the hooks installed by one [Lease]. Nil fields are treated as
// absent.
type Handlers struct {
	OnError     ErrorFunc
	OnRejection RejectionFunc
	OnKey       KeyFunc
}

// Lease is the exclusive right to the hook slot.
type Lease struct {
	once sync.Once
}

var (
	mu      sync.RWMutex
	current *Lease
	active  Handlers
)

// Acquire installs h into the slot and returns the lease that owns it.
func Acquire(h Handlers) (*Lease, error) {
	mu.Lock()
	defer mu.Unlock()

	if current != nil {
		return nil, ErrSlotHeld
	}

	l := &Lease{}
	current = l
	active = h
	return l, nil
}

// Release removes the lease's hooks from the slot.
//
// Release is idempotent. A lease that no longer owns the slot never clears
// hooks installed by a later lease.
func (l *Lease) Release() {
	l.once.Do(func() {
		mu.Lock()
		defer mu.Unlock()

		if current == l {
			current = nil
			active = Handlers{}
		}
	})
}

// Held reports whether a lease currently owns the slot.
func Held() bool {
	mu.RLock()
	defer mu.RUnlock()
	return current != nil
}

// DispatchError delivers an uncaught error to the installed hook.
//
// It returns false when no hook is installed or the hook declined the
// failure; the caller then applies its default reporting.
func DispatchError(message, source string, line, column int, err error) bool {
	mu.RLock()
	fn := active.OnError
	mu.RUnlock()

	if fn == nil {
		return false
	}
	return fn(message, source, line, column, err)
}

// DispatchRejection delivers an unhandled rejection reason to the installed
// hook. See [DispatchError] for the return value.
func DispatchRejection(reason any) bool {
	mu.RLock()
	fn := active.OnRejection
	mu.RUnlock()

	if fn == nil {
		return false
	}
	return fn(reason)
}

// DispatchKey delivers a key press to the installed listener and reports
// whether one was installed.
func DispatchKey(key string) bool {
	mu.RLock()
	fn := active.OnKey
	mu.RUnlock()

	if fn == nil {
		return false
	}
	fn(key)
	return true
}

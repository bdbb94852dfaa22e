package critic

import (
	"errors"
	"sync"
)

// ErrBusy is returned when a critic run for the same board is in flight.
var ErrBusy = errors.New("critic: board is already being processed")

// Guard is a set of per-key try-locks. Acquire never blocks: a second caller
// for a held key gets ErrBusy.
type Guard struct {
	mu   sync.Mutex
	busy map[string]bool
}

// NewGuard creates an empty Guard.
func NewGuard() *Guard {
	return &Guard{busy: make(map[string]bool)}
}

// Acquire takes the lock for key and returns its release function.
func (g *Guard) Acquire(key string) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy[key] {
		return nil, ErrBusy
	}
	g.busy[key] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.busy, key)
			g.mu.Unlock()
		})
	}, nil
}

// Busy reports whether key is held.
func (g *Guard) Busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy[key]
}

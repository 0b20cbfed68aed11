package approval

import (
	"errors"
	"sync"

	"github.com/viant/crier/model"
)

// ErrWaiterExists is returned when an action already has a live waiter.
var ErrWaiterExists = errors.New("approval: waiter already registered")

// Waiters is a registry of single-resolution handles keyed by action id.
type Waiters struct {
	mu      sync.Mutex
	pending map[string]chan model.Decision
}

// NewWaiters creates an empty registry.
func NewWaiters() *Waiters {
	return &Waiters{pending: map[string]chan model.Decision{}}
}

// Register creates the waiter for actionID. The returned channel receives
// exactly one decision.
func (w *Waiters) Register(actionID string) (<-chan model.Decision, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.pending[actionID]; ok {
		return nil, ErrWaiterExists
	}
	ch := make(chan model.Decision, 1)
	w.pending[actionID] = ch
	return ch, nil
}

// Resolve delivers decision to the live waiter and removes it. It reports
// false when no waiter exists.
func (w *Waiters) Resolve(actionID string, decision model.Decision) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	ch, ok := w.pending[actionID]
	if !ok {
		return false
	}
	delete(w.pending, actionID)
	ch <- decision
	return true
}

// Remove drops the waiter without resolving it. It reports false when the
// waiter was already resolved or never existed.
func (w *Waiters) Remove(actionID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.pending[actionID]
	delete(w.pending, actionID)
	return ok
}

// Has reports whether actionID has a live waiter.
func (w *Waiters) Has(actionID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.pending[actionID]
	return ok
}

// Len returns the number of live waiters.
func (w *Waiters) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

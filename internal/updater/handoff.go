package updater

import (
	"errors"
	"sync"
)

// ErrHandoff is returned by background tasks once they have requested a
// restart. Callers treat it as a clean exit.
var ErrHandoff = errors.New("restart requested after database refresh")

// Handoff is a one-shot restart request shared by everything that can decide
// the serving process should be replaced.
type Handoff struct {
	once   sync.Once
	ch     chan struct{}
	mu     sync.Mutex
	reason string
}

// NewHandoff returns an unsignalled handoff.
func NewHandoff() *Handoff {
	return &Handoff{ch: make(chan struct{})}
}

// Signal requests the restart. Only the first call has an effect; it returns
// true for that call.
func (h *Handoff) Signal(reason string) bool {
	fired := false
	h.once.Do(func() {
		h.mu.Lock()
		h.reason = reason
		h.mu.Unlock()
		close(h.ch)
		fired = true
	})
	return fired
}

// Done is closed once a restart was requested.
func (h *Handoff) Done() <-chan struct{} {
	return h.ch
}

// Signalled reports whether a restart was requested.
func (h *Handoff) Signalled() bool {
	select {
	case <-h.ch:
		return true
	default:
		return false
	}
}

// Reason returns the reason passed to the first Signal call.
func (h *Handoff) Reason() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reason
}

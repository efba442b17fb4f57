package hass

import (
	"sync"
	"sync/atomic"
)

const (
	helpersIdle int32 = iota
	helpersLoading
	helpersReady
)

// HelperCache holds the host helper capability that dispatches actions.
// It is loaded once, in the background, on first use. Until it is ready
// every reader gets the no-op dispatcher.
type HelperCache struct {
	state      atomic.Int32
	mu         sync.RWMutex
	dispatcher Dispatcher
	noop       Dispatcher
}

func NewHelperCache() *HelperCache {
	return &HelperCache{
		noop: NoopDispatcher(),
	}
}

var sharedHelpers = NewHelperCache()

// SharedHelpers is the process wide cache used by every card instance.
func SharedHelpers() *HelperCache {
	return sharedHelpers
}

// Begin reports whether the caller won the right to load the helpers.
// Exactly one caller gets true until the load either completes or fails.
func (h *HelperCache) Begin() bool {
	return h.state.CompareAndSwap(helpersIdle, helpersLoading)
}

// Complete publishes the loaded dispatcher and marks the cache ready.
func (h *HelperCache) Complete(d Dispatcher) {
	if d == nil {
		h.Fail()
		return
	}
	h.mu.Lock()
	h.dispatcher = d
	h.mu.Unlock()
	h.state.Store(helpersReady)
}

// Fail rearms the cache so the next use tries again.
func (h *HelperCache) Fail() {
	h.state.CompareAndSwap(helpersLoading, helpersIdle)
}

func (h *HelperCache) Ready() bool {
	return h.state.Load() == helpersReady
}

func (h *HelperCache) Dispatcher() Dispatcher {
	if !h.Ready() {
		return h.noop
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dispatcher
}

package gateway

import (
	"sync/atomic"
	"time"
)

// Availability is the last-known reachability of the backend.
// It starts out available and is written only by the Gateway that owns it;
// anything else holding a reference may only read it.
type Availability struct {
	available atomic.Bool
	changedAt atomic.Int64
}

// NewAvailability returns a flag in the available state.
func NewAvailability() *Availability {
	a := &Availability{}
	a.available.Store(true)
	a.changedAt.Store(time.Now().UnixNano())
	return a
}

// Available reports the outcome of the most recent live call.
func (a *Availability) Available() bool {
	return a.available.Load()
}

// ChangedAt returns when the flag last flipped.
func (a *Availability) ChangedAt() time.Time {
	return time.Unix(0, a.changedAt.Load())
}

// set stores v and reports whether the value changed.
func (a *Availability) set(v bool) bool {
	if a.available.Swap(v) == v {
		return false
	}
	a.changedAt.Store(time.Now().UnixNano())
	return true
}

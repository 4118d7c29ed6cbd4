package channel

import (
	"encoding/json"
	"fmt"
	"time"
)

// Category is a named event stream.
type Category string

const (
	ConnectionStatus   Category = "connection_status"
	SubscriptionStatus Category = "subscription_status"
	ScanUpdate         Category = "scan_update"
	PatternAlert       Category = "pattern_alert"
)

// Categories lists every stream a consumer can subscribe to.
var Categories = []Category{ConnectionStatus, SubscriptionStatus, ScanUpdate, PatternAlert}

func parseCategory(name string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// Event is one dispatched message.
type Event struct {
	Category   Category
	Payload    json.RawMessage
	Simulated  bool
	ReceivedAt time.Time
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Category, err)
	}
	return nil
}

// Handler receives events synchronously on the dispatching goroutine.
type Handler func(Event)

// State is the connection lifecycle state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	SimulatedConnected
)

// States lists every state, in lifecycle order.
var States = []State{Disconnected, Connecting, Connected, SimulatedConnected}

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case SimulatedConnected:
		return "simulated_connected"
	default:
		return "unknown"
	}
}

// Usable reports whether events are being delivered in this state.
func (s State) Usable() bool {
	return s == Connected || s == SimulatedConnected
}

func stateNames() []string {
	names := make([]string, len(States))
	for i, s := range States {
		names[i] = s.String()
	}
	return names
}

package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
)

const viewerBufSize = 256

// StreamEvent is one server-sent event.
type StreamEvent struct {
	Feed    string
	Payload string
}

// Broker fans channel events out to SSE viewers.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[int64]chan StreamEvent
	nextID      atomic.Int64

	// notifyMu orders onViewers calls; each call reports the count current
	// at the time it runs, so the last call always matches ClientCount.
	notifyMu  sync.Mutex
	onViewers func(n int)
}

// NewBroker creates a broker. onViewers, if set, is called with the viewer
// count after every subscribe and unsubscribe.
func NewBroker(onViewers func(n int)) *Broker {
	return &Broker{
		subscribers: make(map[int64]chan StreamEvent),
		onViewers:   onViewers,
	}
}

// Subscribe registers a viewer. Slow viewers have events dropped.
func (b *Broker) Subscribe() (int64, <-chan StreamEvent) {
	id := b.nextID.Add(1)
	ch := make(chan StreamEvent, viewerBufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()

	b.notify()
	return id, ch
}

// Unsubscribe removes a viewer and closes its channel.
func (b *Broker) Unsubscribe(id int64) {
	b.mu.Lock()
	ch, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
		close(ch)
	}
	b.mu.Unlock()

	if ok {
		b.notify()
	}
}

func (b *Broker) notify() {
	if b.onViewers == nil {
		return
	}
	b.notifyMu.Lock()
	defer b.notifyMu.Unlock()
	b.onViewers(b.ClientCount())
}

// Publish sends an event to every viewer without blocking.
func (b *Broker) Publish(evt StreamEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- evt:
		default:
		}
	}
}

// PublishJSON encodes v as the payload of feed.
func (b *Broker) PublishJSON(feed string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", feed, err)
	}
	b.Publish(StreamEvent{Feed: feed, Payload: string(payload)})
	return nil
}

func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// SSEHandler streams broker events. Viewers may filter with ?feeds=a,b.
func SSEHandler(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}

		var feedFilter map[string]bool
		if q := r.URL.Query().Get("feeds"); q != "" {
			feedFilter = make(map[string]bool)
			for _, f := range strings.Split(q, ",") {
				if f = strings.TrimSpace(f); f != "" {
					feedFilter[f] = true
				}
			}
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		id, ch := broker.Subscribe()
		defer broker.Unsubscribe(id)

		for {
			select {
			case <-r.Context().Done():
				return
			case evt, ok := <-ch:
				if !ok {
					return
				}
				if feedFilter != nil && !feedFilter[evt.Feed] {
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Feed, evt.Payload)
				flusher.Flush()
			}
		}
	}
}

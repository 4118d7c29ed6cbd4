package app

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestBroker_SubscribePublishUnsubscribe(t *testing.T) {
	var (
		mu     sync.Mutex
		counts []int
	)
	b := NewBroker(func(n int) {
		mu.Lock()
		counts = append(counts, n)
		mu.Unlock()
	})

	id1, ch1 := b.Subscribe()
	_, ch2 := b.Subscribe()
	if b.ClientCount() != 2 {
		t.Fatalf("unexpected client count: %d", b.ClientCount())
	}

	b.Publish(StreamEvent{Feed: "scan_update", Payload: `{"symbol":"AAPL"}`})
	for i, ch := range []<-chan StreamEvent{ch1, ch2} {
		select {
		case evt := <-ch:
			if evt.Feed != "scan_update" {
				t.Errorf("subscriber %d: unexpected event: %+v", i, evt)
			}
		default:
			t.Errorf("subscriber %d: expected event", i)
		}
	}

	b.Unsubscribe(id1)
	b.Unsubscribe(id1)
	if _, ok := <-ch1; ok {
		t.Error("expected closed channel")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(counts) != 3 || counts[0] != 1 || counts[1] != 2 || counts[2] != 1 {
		t.Errorf("unexpected viewer counts: %v", counts)
	}
}

func TestBroker_ViewerCountSettlesUnderChurn(t *testing.T) {
	var (
		mu    sync.Mutex
		last  int
		calls int
	)
	b := NewBroker(func(n int) {
		mu.Lock()
		last = n
		calls++
		mu.Unlock()
	})

	// One viewer stays for the whole run.
	b.Subscribe()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id, _ := b.Subscribe()
				b.Unsubscribe(id)
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if calls != 1+16*50*2 {
		t.Errorf("unexpected callback count: %d", calls)
	}
	if last != 1 || last != b.ClientCount() {
		t.Errorf("last reported count %d, client count %d", last, b.ClientCount())
	}
}

func TestBroker_SlowViewerDropsEvents(t *testing.T) {
	b := NewBroker(nil)
	_, ch := b.Subscribe()

	for i := 0; i < viewerBufSize+10; i++ {
		b.Publish(StreamEvent{Feed: "x", Payload: "{}"})
	}
	if len(ch) != viewerBufSize {
		t.Errorf("unexpected buffered events: %d", len(ch))
	}
}

func TestBroker_PublishJSON(t *testing.T) {
	b := NewBroker(nil)
	_, ch := b.Subscribe()

	if err := b.PublishJSON("snapshot", map[string]int{"n": 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt := <-ch; evt.Payload != `{"n":1}` {
		t.Errorf("unexpected payload: %s", evt.Payload)
	}
	if err := b.PublishJSON("bad", func() {}); err == nil {
		t.Error("expected encode error")
	}
}

func TestSSEHandler_FiltersFeeds(t *testing.T) {
	b := NewBroker(nil)
	srv := httptest.NewServer(SSEHandler(b))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?feeds=pattern_alert", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("unexpected content type: %s", ct)
	}

	deadline := time.Now().Add(time.Second)
	for b.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	b.Publish(StreamEvent{Feed: "scan_update", Payload: `{"symbol":"MSFT"}`})
	b.Publish(StreamEvent{Feed: "pattern_alert", Payload: `{"symbol":"TSLA"}`})

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 2 {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	if lines[0] != "event: pattern_alert" || lines[1] != `data: {"symbol":"TSLA"}` {
		t.Errorf("unexpected stream: %v", lines)
	}
}

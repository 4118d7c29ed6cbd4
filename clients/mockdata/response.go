package mockdata

import (
	"context"
	"time"
)

// ResponseMessage marks every synthetic response envelope.
const ResponseMessage = "Mock data response"

// DefaultDelay is the simulated latency applied before a synthetic response.
const DefaultDelay = 300 * time.Millisecond

// Envelope is the backend response shape: {success, data, message}.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// Wrap returns data inside a successful synthetic envelope.
func Wrap(data any) Envelope {
	return Envelope{
		Success: true,
		Data:    data,
		Message: ResponseMessage,
	}
}

// Delay waits d, returning early with the context error if ctx ends first.
func Delay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func ago(d time.Duration) string {
	return time.Now().Add(-d).UTC().Format(time.RFC3339)
}

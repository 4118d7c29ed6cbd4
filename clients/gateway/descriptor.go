package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Descriptor names one live call and the synthetic value that stands in for it.
type Descriptor struct {
	// Name labels the request in logs and metrics.
	Name   string
	Method string // Defaults to GET
	Path   string
	Query  url.Values
	Body   any // JSON encoded when non-nil

	// Fallback builds the synthetic payload. Called only when needed.
	Fallback func() any

	// Normalize reshapes a live payload into the shape consumers expect.
	Normalize Normalizer
}

func (d Descriptor) method() string {
	if d.Method == "" {
		return http.MethodGet
	}
	return d.Method
}

func (d Descriptor) label() string {
	if d.Name != "" {
		return d.Name
	}
	return d.method() + " " + d.Path
}

// Normalizer receives the raw response body and the envelope's data field
// and returns the data consumers should see.
type Normalizer func(body, data json.RawMessage) json.RawMessage

// LiftBodyArray replaces data with the top-level array field of the body,
// e.g. {"success":true,"alerts":[...]} becomes data=[...].
func LiftBodyArray(field string) Normalizer {
	return func(body, data json.RawMessage) json.RawMessage {
		if arr, ok := arrayField(body, field); ok {
			return arr
		}
		return data
	}
}

// LiftDataArray replaces data with an array nested inside it,
// e.g. {"data":{"symbol":"AAPL","candles":[...]}} becomes data=[...].
func LiftDataArray(field string) Normalizer {
	return func(body, data json.RawMessage) json.RawMessage {
		if arr, ok := arrayField(data, field); ok {
			return arr
		}
		return data
	}
}

func arrayField(obj json.RawMessage, field string) (json.RawMessage, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(obj, &m); err != nil {
		return nil, false
	}
	v, ok := m[field]
	if !ok {
		return nil, false
	}
	v = bytes.TrimSpace(v)
	if len(v) == 0 || v[0] != '[' {
		return nil, false
	}
	return v, true
}

// Response is what every Execute call resolves to, live or synthetic.
type Response struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Message   string          `json:"message,omitempty"`
	Synthetic bool            `json:"synthetic"`
	Status    int             `json:"-"`
}

// Decode unmarshals the payload into v.
func (r Response) Decode(v any) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("decode %T: empty payload", v)
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// parseBody splits a live body into (data, message). Bodies carrying a
// success or data key are treated as envelopes; anything else is the payload.
func parseBody(body []byte) (json.RawMessage, string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, "", fmt.Errorf("empty body")
	}
	if !json.Valid(trimmed) {
		return nil, "", fmt.Errorf("malformed json")
	}
	if trimmed[0] != '{' {
		return json.RawMessage(trimmed), "", nil
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keys); err != nil {
		return nil, "", fmt.Errorf("decode body: %w", err)
	}
	_, hasSuccess := keys["success"]
	_, hasData := keys["data"]
	if !hasSuccess && !hasData {
		return json.RawMessage(trimmed), "", nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, "", fmt.Errorf("decode envelope: %w", err)
	}
	if env.Success != nil && !*env.Success {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return nil, "", fmt.Errorf("backend reported failure: %s", msg)
	}
	data := env.Data
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	return data, env.Message, nil
}

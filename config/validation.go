package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of config validation.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Validate checks the config for invalid values.
func (c *Config) Validate() ValidationResult {
	var errors []ValidationError

	errors = append(errors, validateBackend(&c.Backend)...)
	errors = append(errors, validateGateway(&c.Gateway)...)
	errors = append(errors, validateChannel(&c.Channel)...)
	errors = append(errors, validatePoll(&c.Poll)...)
	errors = append(errors, validateLog(&c.Log)...)
	errors = append(errors, validateStatusServer(&c.StatusServer)...)

	return ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

// ApplyDefaults replaces every invalid section with its default value.
// Configuration problems are diagnostic only, so the process keeps running
// on defaults rather than refusing to start.
func (c *Config) ApplyDefaults() []ValidationError {
	d := Defaults()
	var replaced []ValidationError

	if errs := validateBackend(&c.Backend); len(errs) > 0 {
		c.Backend = d.Backend
		replaced = append(replaced, errs...)
	}
	if errs := validateGateway(&c.Gateway); len(errs) > 0 {
		c.Gateway = d.Gateway
		replaced = append(replaced, errs...)
	}
	if errs := validateChannel(&c.Channel); len(errs) > 0 {
		c.Channel = d.Channel
		replaced = append(replaced, errs...)
	}
	if errs := validatePoll(&c.Poll); len(errs) > 0 {
		c.Poll = d.Poll
		replaced = append(replaced, errs...)
	}
	if errs := validateLog(&c.Log); len(errs) > 0 {
		c.Log.Level = d.Log.Level
		replaced = append(replaced, errs...)
	}
	if errs := validateStatusServer(&c.StatusServer); len(errs) > 0 {
		c.StatusServer = d.StatusServer
		replaced = append(replaced, errs...)
	}
	return replaced
}

// RequiredEnv lists the environment variables the service expects to be set explicitly.
var RequiredEnv = []string{"TX_API_BASE"}

// CheckEnvironment reports required variables that are missing from the environment.
func CheckEnvironment() []ValidationError {
	var missing []ValidationError
	for _, key := range RequiredEnv {
		if strings.TrimSpace(os.Getenv(key)) == "" {
			missing = append(missing, ValidationError{
				Field:   key,
				Message: fmt.Sprintf("required environment variable %s is not set", key),
			})
		}
	}
	return missing
}

func validateBackend(b *BackendConfig) []ValidationError {
	var errors []ValidationError

	if err := validateBaseURL(b.APIBase, "http", "https"); err != "" {
		errors = append(errors, ValidationError{
			Field:   "backend.api_base",
			Message: err,
		})
	}

	if b.SocketBase != "" {
		if err := validateBaseURL(b.SocketBase, "http", "https", "ws", "wss"); err != "" {
			errors = append(errors, ValidationError{
				Field:   "backend.socket_base",
				Message: err,
			})
		}
	}

	return errors
}

func validateBaseURL(raw string, schemes ...string) string {
	if raw == "" {
		return "must not be empty"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("invalid URL: %v", err)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			if u.Host == "" {
				return "must include a host"
			}
			return ""
		}
	}
	return fmt.Sprintf("unsupported scheme %q", u.Scheme)
}

func validateGateway(g *GatewayConfig) []ValidationError {
	var errors []ValidationError

	if g.RequestTimeout < 1*time.Second {
		errors = append(errors, ValidationError{
			Field:   "gateway.request_timeout",
			Message: "must be at least 1 second",
		})
	}

	if g.SimulatedLatency < 0 || g.SimulatedLatency > 10*time.Second {
		errors = append(errors, ValidationError{
			Field:   "gateway.simulated_latency",
			Message: "must be between 0 and 10 seconds",
		})
	}

	if g.RecoveryInterval < 1*time.Second {
		errors = append(errors, ValidationError{
			Field:   "gateway.recovery_interval",
			Message: "must be at least 1 second",
		})
	}

	return errors
}

func validateChannel(ch *ChannelConfig) []ValidationError {
	var errors []ValidationError

	if ch.Protocol != SocketProtocolSocketIO && ch.Protocol != SocketProtocolJSON {
		errors = append(errors, ValidationError{
			Field:   "channel.protocol",
			Message: fmt.Sprintf("must be %q or %q", SocketProtocolSocketIO, SocketProtocolJSON),
		})
	}

	if ch.MaxReconnectAttempts < 1 {
		errors = append(errors, ValidationError{
			Field:   "channel.max_reconnect_attempts",
			Message: "must be at least 1",
		})
	}

	if ch.ReconnectDelay < 0 {
		errors = append(errors, ValidationError{
			Field:   "channel.reconnect_delay",
			Message: "must not be negative",
		})
	}

	if ch.DialTimeout < 1*time.Second {
		errors = append(errors, ValidationError{
			Field:   "channel.dial_timeout",
			Message: "must be at least 1 second",
		})
	}

	if ch.HandshakeDelay < 0 {
		errors = append(errors, ValidationError{
			Field:   "channel.handshake_delay",
			Message: "must not be negative",
		})
	}

	if ch.SimulationInterval < 100*time.Millisecond {
		errors = append(errors, ValidationError{
			Field:   "channel.simulation_interval",
			Message: "must be at least 100 milliseconds",
		})
	}

	if ch.PingInterval < 1*time.Second {
		errors = append(errors, ValidationError{
			Field:   "channel.ping_interval",
			Message: "must be at least 1 second",
		})
	}

	return errors
}

func validatePoll(p *PollConfig) []ValidationError {
	var errors []ValidationError

	if p.Interval < 1*time.Second {
		errors = append(errors, ValidationError{
			Field:   "poll.interval",
			Message: "must be at least 1 second",
		})
	}

	return errors
}

func validateLog(l *LogConfig) []ValidationError {
	switch l.Level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return []ValidationError{{
		Field:   "log.level",
		Message: fmt.Sprintf("must be one of debug, info, warn, error, got %q", l.Level),
	}}
}

func validateStatusServer(ss *StatusServerConfig) []ValidationError {
	var errors []ValidationError

	if ss.Port < 1 || ss.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "status_server.port",
			Message: fmt.Sprintf("must be between 1 and 65535, got %d", ss.Port),
		})
	}

	return errors
}

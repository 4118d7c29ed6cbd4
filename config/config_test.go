package config

import (
	"os"
	"testing"
	"time"
)

var configEnvVars = []string{
	"STAGE", "TX_DEMO_MODE", "TX_API_BASE", "TX_SOCKET_BASE", "TX_SOCKET_PATH",
	"TX_REQUEST_TIMEOUT", "TX_SIMULATED_LATENCY", "TX_FLIP_ON_ANY_FAILURE", "TX_RECOVERY_INTERVAL",
	"TX_RECONNECT_ATTEMPTS", "TX_RECONNECT_DELAY", "TX_DIAL_TIMEOUT", "TX_HANDSHAKE_DELAY",
	"TX_SIMULATION_INTERVAL", "TX_PING_INTERVAL", "TX_SOCKET_PROTOCOL", "TX_POLL_INTERVAL", "TX_POLL_INTERVAL_MS",
	"DISCORD_BOT_TOKEN", "DISCORD_CHANNEL_ID", "DISCORD_FORWARD_SYNTHETIC",
	"LOG_LEVEL", "LOG_FILE", "LOG_ENABLE_DEBUG_CONFIG",
	"STATUS_SERVER_ENABLED", "STATUS_SERVER_PORT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range configEnvVars {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.IsProd {
		t.Error("expected IsProd to be false by default")
	}
	if cfg.DemoMode {
		t.Error("expected DemoMode to be false by default")
	}
	if cfg.Backend.APIBase != DefaultAPIBase {
		t.Errorf("unexpected api base: %s", cfg.Backend.APIBase)
	}
	if cfg.Gateway.RequestTimeout != 30*time.Second {
		t.Errorf("unexpected request timeout: %v", cfg.Gateway.RequestTimeout)
	}
	if cfg.Gateway.SimulatedLatency != 300*time.Millisecond {
		t.Errorf("unexpected simulated latency: %v", cfg.Gateway.SimulatedLatency)
	}
	if cfg.Gateway.FlipOnAnyFailure {
		t.Error("expected FlipOnAnyFailure to be false by default")
	}
	if cfg.Channel.Protocol != SocketProtocolSocketIO || cfg.Backend.SocketPath != "/socket.io/" {
		t.Errorf("unexpected socket defaults: %s %s", cfg.Channel.Protocol, cfg.Backend.SocketPath)
	}
	if cfg.Channel.MaxReconnectAttempts != 5 {
		t.Errorf("unexpected max reconnect attempts: %d", cfg.Channel.MaxReconnectAttempts)
	}
	if cfg.Channel.ReconnectDelay != 1*time.Second {
		t.Errorf("unexpected reconnect delay: %v", cfg.Channel.ReconnectDelay)
	}
	if cfg.Channel.DialTimeout != 20*time.Second {
		t.Errorf("unexpected dial timeout: %v", cfg.Channel.DialTimeout)
	}
	if cfg.Channel.SimulationInterval != 10*time.Second {
		t.Errorf("unexpected simulation interval: %v", cfg.Channel.SimulationInterval)
	}
	if cfg.Poll.Interval != 180*time.Second {
		t.Errorf("unexpected poll interval: %v", cfg.Poll.Interval)
	}
	if cfg.Discord.BotToken != "" {
		t.Error("expected empty bot token by default")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("unexpected log level: %s", cfg.Log.Level)
	}
	if !cfg.StatusServer.Enabled {
		t.Error("expected status server to be enabled by default")
	}
	if cfg.StatusServer.Port != 8080 {
		t.Errorf("unexpected status server port: %d", cfg.StatusServer.Port)
	}

	result := cfg.Validate()
	if !result.Valid {
		t.Errorf("expected default config to be valid, got errors: %v", result.Errors)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("STAGE", "PROD")
	t.Setenv("TX_DEMO_MODE", "true")
	t.Setenv("TX_API_BASE", "http://localhost:5000/")
	t.Setenv("TX_RECONNECT_ATTEMPTS", "3")
	t.Setenv("TX_RECONNECT_DELAY", "250ms")
	t.Setenv("TX_SOCKET_PROTOCOL", "JSON")
	t.Setenv("TX_FLIP_ON_ANY_FAILURE", "yes")
	t.Setenv("TX_POLL_INTERVAL", "1m")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("STATUS_SERVER_PORT", "9090")

	cfg := Load()

	if !cfg.IsProd {
		t.Error("expected IsProd to be true")
	}
	if !cfg.DemoMode {
		t.Error("expected DemoMode to be true")
	}
	if cfg.Backend.APIBase != "http://localhost:5000" {
		t.Errorf("expected trailing slash trimmed, got: %s", cfg.Backend.APIBase)
	}
	if cfg.Channel.MaxReconnectAttempts != 3 {
		t.Errorf("unexpected max reconnect attempts: %d", cfg.Channel.MaxReconnectAttempts)
	}
	if cfg.Channel.ReconnectDelay != 250*time.Millisecond {
		t.Errorf("unexpected reconnect delay: %v", cfg.Channel.ReconnectDelay)
	}
	if cfg.Channel.Protocol != SocketProtocolJSON {
		t.Errorf("unexpected protocol: %s", cfg.Channel.Protocol)
	}
	if !cfg.Gateway.FlipOnAnyFailure {
		t.Error("expected FlipOnAnyFailure to be true")
	}
	if cfg.Poll.Interval != time.Minute {
		t.Errorf("unexpected poll interval: %v", cfg.Poll.Interval)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("unexpected log level: %s", cfg.Log.Level)
	}
	if cfg.StatusServer.Port != 9090 {
		t.Errorf("unexpected status server port: %d", cfg.StatusServer.Port)
	}
}

func TestLoad_PollIntervalMilliseconds(t *testing.T) {
	clearEnv(t)
	t.Setenv("TX_POLL_INTERVAL", "5m")
	t.Setenv("TX_POLL_INTERVAL_MS", "45000")

	cfg := Load()

	if cfg.Poll.Interval != 45*time.Second {
		t.Errorf("expected millisecond setting to win, got: %v", cfg.Poll.Interval)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("TX_RECONNECT_ATTEMPTS", "many")
	t.Setenv("TX_REQUEST_TIMEOUT", "soon")

	cfg := Load()

	if cfg.Channel.MaxReconnectAttempts != 5 {
		t.Errorf("expected default attempts, got: %d", cfg.Channel.MaxReconnectAttempts)
	}
	if cfg.Gateway.RequestTimeout != 30*time.Second {
		t.Errorf("expected default timeout, got: %v", cfg.Gateway.RequestTimeout)
	}
}

func TestSocketURL(t *testing.T) {
	tests := []struct {
		name     string
		api      string
		socket   string
		path     string
		expected string
	}{
		{"https api", "https://example.com", "", "/ws", "wss://example.com/ws"},
		{"http api", "http://localhost:5000", "", "/ws", "ws://localhost:5000/ws"},
		{"socket.io path", "https://example.com", "", "/socket.io/", "wss://example.com/socket.io/"},
		{"explicit socket", "https://example.com", "ws://events.local:81", "stream", "ws://events.local:81/stream"},
		{"no path", "https://example.com", "", "", "wss://example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Backend.APIBase = tt.api
			cfg.Backend.SocketBase = tt.socket
			cfg.Backend.SocketPath = tt.path
			if got := cfg.SocketURL(); got != tt.expected {
				t.Errorf("unexpected socket URL: got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestValidate_Errors(t *testing.T) {
	cfg := Defaults()
	cfg.Backend.APIBase = "ftp://example.com"
	cfg.Channel.MaxReconnectAttempts = 0
	cfg.Channel.Protocol = "mqtt"
	cfg.Poll.Interval = 10 * time.Millisecond
	cfg.StatusServer.Port = 70000
	cfg.Log.Level = "loud"

	result := cfg.Validate()
	if result.Valid {
		t.Fatal("expected invalid config")
	}

	fields := map[string]bool{}
	for _, e := range result.Errors {
		fields[e.Field] = true
	}
	for _, f := range []string{
		"backend.api_base",
		"channel.max_reconnect_attempts",
		"channel.protocol",
		"poll.interval",
		"status_server.port",
		"log.level",
	} {
		if !fields[f] {
			t.Errorf("expected validation error for %s", f)
		}
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Defaults()
	cfg.DemoMode = true
	cfg.Channel.MaxReconnectAttempts = -1
	cfg.Poll.Interval = 0

	replaced := cfg.ApplyDefaults()
	if len(replaced) != 2 {
		t.Errorf("expected 2 replaced fields, got %d: %v", len(replaced), replaced)
	}
	if cfg.Channel.MaxReconnectAttempts != 5 {
		t.Errorf("expected channel defaults restored, got: %d", cfg.Channel.MaxReconnectAttempts)
	}
	if cfg.Poll.Interval != 180*time.Second {
		t.Errorf("expected poll defaults restored, got: %v", cfg.Poll.Interval)
	}
	if !cfg.DemoMode {
		t.Error("expected untouched settings to survive")
	}
	if !cfg.Validate().Valid {
		t.Error("expected config to be valid after applying defaults")
	}
}

func TestCheckEnvironment(t *testing.T) {
	clearEnv(t)

	missing := CheckEnvironment()
	if len(missing) != 1 || missing[0].Field != "TX_API_BASE" {
		t.Fatalf("expected TX_API_BASE to be reported missing, got: %v", missing)
	}
	if missing[0].Message != "required environment variable TX_API_BASE is not set" {
		t.Errorf("unexpected message: %s", missing[0].Message)
	}

	t.Setenv("TX_API_BASE", "https://example.com")
	if missing := CheckEnvironment(); len(missing) != 0 {
		t.Errorf("expected no missing variables, got: %v", missing)
	}
}

func TestClone(t *testing.T) {
	cfg := Defaults()
	clone := cfg.Clone()
	clone.Channel.MaxReconnectAttempts = 9

	if cfg.Channel.MaxReconnectAttempts != 5 {
		t.Error("expected clone to be independent of the original")
	}
	var nilCfg *Config
	if nilCfg.Clone() != nil {
		t.Error("expected nil clone of nil config")
	}
}

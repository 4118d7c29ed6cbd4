package config

import (
	"encoding/json"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAPIBase is the hosted backend used when TX_API_BASE is unset.
const DefaultAPIBase = "https://tx-predictive-intelligence.onrender.com"

// Event channel wire protocols.
const (
	SocketProtocolSocketIO = "socketio" // Socket.IO v4 over Engine.IO websocket
	SocketProtocolJSON     = "json"     // Plain {"event","data"} JSON frames
)

// Config holds all application configuration.
type Config struct {
	// Environment
	IsProd bool `json:"is_prod"`

	// DemoMode forces synthetic data everywhere. Set once at startup.
	DemoMode bool `json:"demo_mode"`

	// Backend endpoints
	Backend BackendConfig `json:"backend"`

	// Request gateway
	Gateway GatewayConfig `json:"gateway"`

	// Event channel
	Channel ChannelConfig `json:"channel"`

	// Dashboard refresh
	Poll PollConfig `json:"poll"`

	// Discord alert forwarding
	Discord DiscordConfig `json:"discord"`

	// Logging
	Log LogConfig `json:"log"`

	// Status server
	StatusServer StatusServerConfig `json:"status_server"`
}

// BackendConfig holds the remote service addresses.
type BackendConfig struct {
	APIBase    string `json:"api_base"`
	SocketBase string `json:"socket_base"` // Defaults to APIBase
	SocketPath string `json:"socket_path"`
}

// GatewayConfig holds request gateway configuration.
type GatewayConfig struct {
	RequestTimeout   time.Duration `json:"request_timeout"`
	SimulatedLatency time.Duration `json:"simulated_latency"`
	FlipOnAnyFailure bool          `json:"flip_on_any_failure"` // If false, only transport failures mark the backend unavailable
	RecoveryInterval time.Duration `json:"recovery_interval"`   // Health probe cadence while the backend is unavailable
}

// ChannelConfig holds event channel configuration.
type ChannelConfig struct {
	Protocol             string        `json:"protocol"`
	MaxReconnectAttempts int           `json:"max_reconnect_attempts"`
	ReconnectDelay       time.Duration `json:"reconnect_delay"`
	DialTimeout          time.Duration `json:"dial_timeout"`
	HandshakeDelay       time.Duration `json:"handshake_delay"`     // Simulated handshake in demo mode
	SimulationInterval   time.Duration `json:"simulation_interval"` // Tick rate of the synthetic event generator
	PingInterval         time.Duration `json:"ping_interval"`
}

// PollConfig holds dashboard refresh configuration.
type PollConfig struct {
	Interval time.Duration `json:"interval"`
}

// DiscordConfig holds Discord-related configuration.
type DiscordConfig struct {
	BotToken         string `json:"-"` // Excluded - env var only
	ChannelID        string `json:"channel_id"`
	ForwardSynthetic bool   `json:"forward_synthetic"` // Also forward alerts from the simulated stream
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `json:"level"`
	File        string `json:"file"` // Rotating log file, empty = stdout only
	DebugConfig bool   `json:"debug_config"`
}

// StatusServerConfig holds status server configuration.
type StatusServerConfig struct {
	Enabled bool `json:"enabled"`
	Port    int  `json:"port"`
}

// Clone creates a copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// ToJSON serializes the config to JSON.
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// SocketURL returns the websocket URL of the event channel.
// http and https schemes are swapped for ws and wss.
func (c *Config) SocketURL() string {
	base := c.Backend.SocketBase
	if base == "" {
		base = c.Backend.APIBase
	}
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if c.Backend.SocketPath != "" {
		u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(c.Backend.SocketPath, "/")
	}
	return u.String()
}

// Defaults returns a config with hardcoded default values.
func Defaults() *Config {
	return &Config{
		IsProd:   false,
		DemoMode: false,
		Backend: BackendConfig{
			APIBase:    DefaultAPIBase,
			SocketBase: "",
			SocketPath: "/socket.io/",
		},
		Gateway: GatewayConfig{
			RequestTimeout:   30 * time.Second,
			SimulatedLatency: 300 * time.Millisecond,
			FlipOnAnyFailure: false,
			RecoveryInterval: 30 * time.Second,
		},
		Channel: ChannelConfig{
			Protocol:             SocketProtocolSocketIO,
			MaxReconnectAttempts: 5,
			ReconnectDelay:       1 * time.Second,
			DialTimeout:          20 * time.Second,
			HandshakeDelay:       1 * time.Second,
			SimulationInterval:   10 * time.Second,
			PingInterval:         25 * time.Second,
		},
		Poll: PollConfig{
			Interval: 180 * time.Second,
		},
		Discord: DiscordConfig{},
		Log: LogConfig{
			Level: "info",
		},
		StatusServer: StatusServerConfig{
			Enabled: true,
			Port:    8080,
		},
	}
}

// Load loads configuration from the environment (and a .env file when present) with defaults.
func Load() *Config {
	_ = godotenv.Load()

	d := Defaults()
	return &Config{
		IsProd:   envBool("STAGE", "PROD"),
		DemoMode: envBoolDefault("TX_DEMO_MODE", d.DemoMode),

		Backend: BackendConfig{
			APIBase:    strings.TrimRight(envString("TX_API_BASE", d.Backend.APIBase), "/"),
			SocketBase: strings.TrimRight(envString("TX_SOCKET_BASE", d.Backend.SocketBase), "/"),
			SocketPath: envString("TX_SOCKET_PATH", d.Backend.SocketPath),
		},

		Gateway: GatewayConfig{
			RequestTimeout:   envDuration("TX_REQUEST_TIMEOUT", d.Gateway.RequestTimeout),
			SimulatedLatency: envDuration("TX_SIMULATED_LATENCY", d.Gateway.SimulatedLatency),
			FlipOnAnyFailure: envBoolDefault("TX_FLIP_ON_ANY_FAILURE", d.Gateway.FlipOnAnyFailure),
			RecoveryInterval: envDuration("TX_RECOVERY_INTERVAL", d.Gateway.RecoveryInterval),
		},

		Channel: ChannelConfig{
			Protocol:             strings.ToLower(envString("TX_SOCKET_PROTOCOL", d.Channel.Protocol)),
			MaxReconnectAttempts: envInt("TX_RECONNECT_ATTEMPTS", d.Channel.MaxReconnectAttempts),
			ReconnectDelay:       envDuration("TX_RECONNECT_DELAY", d.Channel.ReconnectDelay),
			DialTimeout:          envDuration("TX_DIAL_TIMEOUT", d.Channel.DialTimeout),
			HandshakeDelay:       envDuration("TX_HANDSHAKE_DELAY", d.Channel.HandshakeDelay),
			SimulationInterval:   envDuration("TX_SIMULATION_INTERVAL", d.Channel.SimulationInterval),
			PingInterval:         envDuration("TX_PING_INTERVAL", d.Channel.PingInterval),
		},

		Poll: PollConfig{
			Interval: envPollInterval(d.Poll.Interval),
		},

		Discord: DiscordConfig{
			BotToken:         envString("DISCORD_BOT_TOKEN", ""),
			ChannelID:        envString("DISCORD_CHANNEL_ID", ""),
			ForwardSynthetic: envBoolDefault("DISCORD_FORWARD_SYNTHETIC", false),
		},

		Log: LogConfig{
			Level:       strings.ToLower(envString("LOG_LEVEL", d.Log.Level)),
			File:        envString("LOG_FILE", ""),
			DebugConfig: envBoolDefault("LOG_ENABLE_DEBUG_CONFIG", false),
		},

		StatusServer: StatusServerConfig{
			Enabled: envBoolDefault("STATUS_SERVER_ENABLED", d.StatusServer.Enabled),
			Port:    envInt("STATUS_SERVER_PORT", d.StatusServer.Port),
		},
	}
}

// envPollInterval accepts TX_POLL_INTERVAL as a duration or TX_POLL_INTERVAL_MS as milliseconds.
func envPollInterval(defaultVal time.Duration) time.Duration {
	if ms := envInt("TX_POLL_INTERVAL_MS", 0); ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return envDuration("TX_POLL_INTERVAL", defaultVal)
}

// Helper functions for parsing environment variables

func envString(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func envBool(key, trueValue string) bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(key)), trueValue)
}

func envBoolDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	return strings.EqualFold(v, "true") || strings.EqualFold(v, "1") || strings.EqualFold(v, "yes")
}

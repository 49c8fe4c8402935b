package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Upstreams []UpstreamConfig `yaml:"upstreams"`
	MQTT      MQTTConfig       `yaml:"mqtt"`
	Auth      AuthConfig       `yaml:"auth"`

	// Derived WebSocket timings, computed after load
	PongWait       time.Duration `yaml:"-"`
	PingPeriod     time.Duration `yaml:"-"`
	WriteWait      time.Duration `yaml:"-"`
	MaxMessageSize int64         `yaml:"-"`
}

// ServerConfig configures the HTTP/WebSocket consumer surface
type ServerConfig struct {
	Port              string        `yaml:"port"`
	AllowedOrigins    []string      `yaml:"allowed_origins"`
	LogLevel          string        `yaml:"log_level"`
	WSReadTimeout     time.Duration `yaml:"-"`
	WSWriteTimeout    time.Duration `yaml:"-"`
	BroadcastInterval time.Duration `yaml:"-"`

	WSReadTimeoutSeconds     int `yaml:"ws_read_timeout"`
	WSWriteTimeoutSeconds    int `yaml:"ws_write_timeout"`
	BroadcastIntervalSeconds int `yaml:"broadcast_interval"`
}

// UpstreamConfig identifies one amiws endpoint to consume events from
type UpstreamConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// MQTTConfig configures the optional stats publisher; leave Broker empty
// to disable it
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// AuthConfig configures optional JWT validation on the consumer surface;
// leave IssuerURL empty to run open
type AuthConfig struct {
	IssuerURL string `yaml:"issuer_url"`
}

// Load reads configuration from an optional YAML file, then applies
// environment variable overrides. Pass an empty path to configure from
// the environment alone.
func Load(path string) (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:                     "8080",
			AllowedOrigins:           []string{"http://localhost:5173"},
			LogLevel:                 "info",
			WSReadTimeoutSeconds:     60,
			WSWriteTimeoutSeconds:    10,
			BroadcastIntervalSeconds: 1,
		},
		MQTT: MQTTConfig{
			ClientID:    "amiws-queue",
			TopicPrefix: "amiws",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.Server.WSReadTimeout = time.Duration(cfg.Server.WSReadTimeoutSeconds) * time.Second
	cfg.Server.WSWriteTimeout = time.Duration(cfg.Server.WSWriteTimeoutSeconds) * time.Second
	cfg.Server.BroadcastInterval = time.Duration(cfg.Server.BroadcastIntervalSeconds) * time.Second

	// Calculate WebSocket constants
	cfg.PongWait = cfg.Server.WSReadTimeout
	cfg.PingPeriod = (cfg.PongWait * 9) / 10 // Must be less than pongWait
	cfg.WriteWait = cfg.Server.WSWriteTimeout
	cfg.MaxMessageSize = 512

	// Trim spaces from allowed origins
	for i, origin := range cfg.Server.AllowedOrigins {
		cfg.Server.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.LogLevel = getEnv("LOG_LEVEL", c.Server.LogLevel)

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = strings.Split(origins, ",")
	}

	// AMIWS_ENDPOINTS is a comma separated list of websocket URLs; it
	// replaces any upstreams from the config file.
	if endpoints := os.Getenv("AMIWS_ENDPOINTS"); endpoints != "" {
		c.Upstreams = nil
		for i, u := range strings.Split(endpoints, ",") {
			c.Upstreams = append(c.Upstreams, UpstreamConfig{
				Name: fmt.Sprintf("amiws-%d", i+1),
				URL:  strings.TrimSpace(u),
			})
		}
	}

	if v := os.Getenv("WS_READ_TIMEOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid WS_READ_TIMEOUT: %w", err)
		}
		c.Server.WSReadTimeoutSeconds = n
	}

	if v := os.Getenv("WS_WRITE_TIMEOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid WS_WRITE_TIMEOUT: %w", err)
		}
		c.Server.WSWriteTimeoutSeconds = n
	}

	c.MQTT.Broker = getEnv("MQTT_BROKER", c.MQTT.Broker)
	c.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", c.MQTT.ClientID)
	c.MQTT.TopicPrefix = getEnv("MQTT_TOPIC_PREFIX", c.MQTT.TopicPrefix)
	c.Auth.IssuerURL = getEnv("AUTH_ISSUER_URL", c.Auth.IssuerURL)

	return nil
}

func (c *Config) validate() error {
	if len(c.Upstreams) == 0 {
		return fmt.Errorf("at least one amiws upstream is required")
	}
	for _, up := range c.Upstreams {
		u, err := url.Parse(up.URL)
		if err != nil {
			return fmt.Errorf("upstream %q: invalid url: %w", up.Name, err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("upstream %q: url scheme must be ws or wss, got %q", up.Name, u.Scheme)
		}
	}
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %q", c.Server.Port)
	}
	if c.Server.WSReadTimeoutSeconds <= 0 {
		return fmt.Errorf("ws_read_timeout must be positive")
	}
	if c.Server.WSWriteTimeoutSeconds <= 0 {
		return fmt.Errorf("ws_write_timeout must be positive")
	}
	if c.Server.BroadcastIntervalSeconds <= 0 {
		return fmt.Errorf("broadcast_interval must be positive")
	}
	if c.MQTT.Broker != "" && c.MQTT.ClientID == "" {
		return fmt.Errorf("mqtt client_id is required when a broker is configured")
	}
	return nil
}

// MQTTEnabled reports whether the optional stats publisher is configured
func (c *Config) MQTTEnabled() bool {
	return c.MQTT.Broker != ""
}

// AuthEnabled reports whether JWT validation is configured
func (c *Config) AuthEnabled() bool {
	return c.Auth.IssuerURL != ""
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

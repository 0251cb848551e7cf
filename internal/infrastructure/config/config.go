package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Roomcast Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Announce  AnnounceConfig  `yaml:"announce"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB settings for delivery history.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// AnnounceConfig contains the announcement pipeline settings.
//
// RoomTracking and PresenceVerification are the global modes; both can be
// overridden per request. Timeout values of 0 mean the call blocks until
// the bus answers.
type AnnounceConfig struct {
	RoomTracking         bool              `yaml:"room_tracking"`
	PresenceVerification bool              `yaml:"presence_verification"`
	PreAnnounce          PreAnnounceConfig `yaml:"pre_announce"`
	DefaultTTSEngine     string            `yaml:"default_tts_engine"`
	DefaultAIAgent       string            `yaml:"default_ai_agent"`
	AITimeoutSeconds     int               `yaml:"ai_timeout_seconds"`
	TTSTimeoutSeconds    int               `yaml:"tts_timeout_seconds"`
	ChimeTimeoutSeconds  int               `yaml:"chime_timeout_seconds"`
	Prompts              PromptConfig      `yaml:"prompts"`
}

// PreAnnounceConfig contains the pre-announce chime settings.
type PreAnnounceConfig struct {
	Enabled      bool   `yaml:"enabled"`
	URL          string `yaml:"url"`
	DelaySeconds int    `yaml:"delay_seconds"`
}

// PromptConfig contains the AI prompt templates.
//
// Templates use {language} and {message} placeholders and are handed to the
// configured conversation agent after substitution.
type PromptConfig struct {
	Translate string `yaml:"translate"`
	Enhance   string `yaml:"enhance"`
	Both      string `yaml:"both"`
}

// Default AI prompt templates, used when the config file does not override them.
const (
	DefaultPromptTranslate = `Translate this announcement to {language}. Return only the translated announcement, no explanations or confirmations. Keep who it's addressed to. Message: "{message}"`
	DefaultPromptEnhance   = `Rephrase this announcement to be more engaging and fun. Return only the new announcement, no explanations or confirmations. Keep who it's addressed to. Message: "{message}"`
	DefaultPromptBoth      = `Translate this announcement to {language} and rephrase it to be more engaging and fun. Return only the new announcement, no explanations or confirmations. Keep who it's addressed to. Message: "{message}"`
)

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: ROOMCAST_SECTION_KEY
// For example: ROOMCAST_DATABASE_PATH, ROOMCAST_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "./data/roomcast.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "roomcast-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0, // 0 = infinite
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8086,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
			CORS: CORSConfig{
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type"},
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			Enabled:       false,
			URL:           "http://localhost:8086",
			Org:           "roomcast",
			Bucket:        "announcements",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Announce: AnnounceConfig{
			RoomTracking:         true,
			PresenceVerification: false,
			PreAnnounce: PreAnnounceConfig{
				Enabled:      true,
				URL:          "/local/sounds/chime.mp3",
				DelaySeconds: 2,
			},
			DefaultTTSEngine: "",
			DefaultAIAgent:   "",
			Prompts: PromptConfig{
				Translate: DefaultPromptTranslate,
				Enhance:   DefaultPromptEnhance,
				Both:      DefaultPromptBoth,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Only a curated set of deployment-sensitive values is overridable.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ROOMCAST_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("ROOMCAST_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("ROOMCAST_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("ROOMCAST_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("ROOMCAST_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("ROOMCAST_INFLUXDB_URL"); v != "" {
		cfg.InfluxDB.URL = v
	}
	if v := os.Getenv("ROOMCAST_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("ROOMCAST_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failures, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.API.TLS.Enabled {
		if c.API.TLS.CertFile == "" || c.API.TLS.KeyFile == "" {
			errs = append(errs, "api.tls.cert_file and key_file are required when TLS is enabled")
		}
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" {
			errs = append(errs, "influxdb.org is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	// Logging validation
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "logging.level must be debug, info, warn, or error")
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, "logging.format must be json or text")
	}

	// Announce validation
	if c.Announce.PreAnnounce.DelaySeconds < 0 {
		errs = append(errs, "announce.pre_announce.delay_seconds must not be negative")
	}
	if c.Announce.AITimeoutSeconds < 0 {
		errs = append(errs, "announce.ai_timeout_seconds must not be negative")
	}
	if c.Announce.TTSTimeoutSeconds < 0 {
		errs = append(errs, "announce.tts_timeout_seconds must not be negative")
	}
	if c.Announce.ChimeTimeoutSeconds < 0 {
		errs = append(errs, "announce.chime_timeout_seconds must not be negative")
	}
	if c.Announce.Prompts.Translate != "" && !strings.Contains(c.Announce.Prompts.Translate, "{language}") {
		errs = append(errs, "announce.prompts.translate must contain a {language} placeholder")
	}
	if c.Announce.Prompts.Both != "" && !strings.Contains(c.Announce.Prompts.Both, "{language}") {
		errs = append(errs, "announce.prompts.both must contain a {language} placeholder")
	}
	for _, tmpl := range []struct{ name, value string }{
		{"announce.prompts.translate", c.Announce.Prompts.Translate},
		{"announce.prompts.enhance", c.Announce.Prompts.Enhance},
		{"announce.prompts.both", c.Announce.Prompts.Both},
	} {
		if tmpl.value != "" && !strings.Contains(tmpl.value, "{message}") {
			errs = append(errs, tmpl.name+" must contain a {message} placeholder")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetFlushInterval returns the InfluxDB flush interval as a Duration.
func (c *Config) GetFlushInterval() time.Duration {
	return time.Duration(c.InfluxDB.FlushInterval) * time.Second
}

// PreAnnounceDelay returns the chime settle delay as a Duration.
func (c *AnnounceConfig) PreAnnounceDelay() time.Duration {
	return time.Duration(c.PreAnnounce.DelaySeconds) * time.Second
}

// AITimeout returns the AI call timeout as a Duration (0 = no timeout).
func (c *AnnounceConfig) AITimeout() time.Duration {
	return time.Duration(c.AITimeoutSeconds) * time.Second
}

// TTSTimeout returns the TTS call timeout as a Duration (0 = no timeout).
func (c *AnnounceConfig) TTSTimeout() time.Duration {
	return time.Duration(c.TTSTimeoutSeconds) * time.Second
}

// ChimeTimeout returns the chime call timeout as a Duration (0 = no timeout).
func (c *AnnounceConfig) ChimeTimeout() time.Duration {
	return time.Duration(c.ChimeTimeoutSeconds) * time.Second
}

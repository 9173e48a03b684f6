package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Audio   AudioConfig   `yaml:"audio"`
	Modem   ModemConfig   `yaml:"modem"`
	Limits  LimitsConfig  `yaml:"limits"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Address        string   `yaml:"address"`
	ReadTimeout    int      `yaml:"read_timeout"`  // seconds
	WriteTimeout   int      `yaml:"write_timeout"` // seconds
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// AudioConfig contains the audio format shared by the container codec
// and the modem. A mismatch between the two invalidates decoding, so the
// values are validated against the modem's fixed format.
type AudioConfig struct {
	SampleRate int `yaml:"sample_rate"`
	Channels   int `yaml:"channels"`
	BitDepth   int `yaml:"bit_depth"`
}

// ModemConfig contains modem pool and transmission parameters
type ModemConfig struct {
	DefaultProfile  string `yaml:"default_profile"`
	PoolSize        int    `yaml:"pool_size"`
	AcquireTimeout  int    `yaml:"acquire_timeout"`   // seconds
	DecodeTimeout   int    `yaml:"decode_timeout"`    // seconds
	MaxPayloadBytes int    `yaml:"max_payload_bytes"` // text payload ceiling
}

// LimitsConfig contains request size limits enforced before buffering
type LimitsConfig struct {
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file, then applies environment
// overrides. A .env file in the working directory is honored if present.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// .env is optional; ignore a missing file but not a broken one
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	if err := config.applyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// applyEnvOverrides overrides selected settings from AUDIOLINK_* variables
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("AUDIOLINK_ADDRESS"); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv("AUDIOLINK_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AUDIOLINK_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("AUDIOLINK_ALLOWED_ORIGINS"); v != "" {
		origins := make([]string, 0)
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		c.Server.AllowedOrigins = origins
	}
	if v := os.Getenv("AUDIOLINK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Modem.Validate(); err != nil {
		return fmt.Errorf("modem config: %w", err)
	}

	if err := c.Limits.Validate(); err != nil {
		return fmt.Errorf("limits config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}

	if s.Address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	if s.ReadTimeout < 1 {
		return fmt.Errorf("read_timeout must be at least 1 second, got %d", s.ReadTimeout)
	}

	if s.WriteTimeout < 1 {
		return fmt.Errorf("write_timeout must be at least 1 second, got %d", s.WriteTimeout)
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.SampleRate != 48000 {
		return fmt.Errorf("sample_rate must be 48000 Hz to match the modem, got %d", a.SampleRate)
	}

	if a.Channels != 1 {
		return fmt.Errorf("channels must be 1 (mono), got %d", a.Channels)
	}

	if a.BitDepth != 16 {
		return fmt.Errorf("bit_depth must be 16, got %d", a.BitDepth)
	}

	return nil
}

// Validate validates modem configuration
func (m *ModemConfig) Validate() error {
	validProfiles := map[string]bool{"fast": true, "robust": true}
	if !validProfiles[m.DefaultProfile] {
		return fmt.Errorf("default_profile must be 'fast' or 'robust', got '%s'", m.DefaultProfile)
	}

	if m.PoolSize < 1 {
		return fmt.Errorf("pool_size must be at least 1, got %d", m.PoolSize)
	}

	if m.AcquireTimeout < 1 {
		return fmt.Errorf("acquire_timeout must be at least 1 second, got %d", m.AcquireTimeout)
	}

	if m.DecodeTimeout < 1 {
		return fmt.Errorf("decode_timeout must be at least 1 second, got %d", m.DecodeTimeout)
	}

	if m.MaxPayloadBytes < 1 {
		return fmt.Errorf("max_payload_bytes must be at least 1, got %d", m.MaxPayloadBytes)
	}

	if m.MaxPayloadBytes > 4096 {
		return fmt.Errorf("max_payload_bytes cannot exceed 4096 (single frame ceiling), got %d", m.MaxPayloadBytes)
	}

	return nil
}

// Validate validates request limit configuration
func (l *LimitsConfig) Validate() error {
	if l.MaxUploadBytes < 1024 {
		return fmt.Errorf("max_upload_bytes must be at least 1024, got %d", l.MaxUploadBytes)
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetAcquireTimeout returns the pool acquire timeout as a time.Duration
func (m *ModemConfig) GetAcquireTimeout() time.Duration {
	return time.Duration(m.AcquireTimeout) * time.Second
}

// GetDecodeTimeout returns the decode timeout as a time.Duration
func (m *ModemConfig) GetDecodeTimeout() time.Duration {
	return time.Duration(m.DecodeTimeout) * time.Second
}

// GetReadTimeout returns the HTTP read timeout as a time.Duration
func (s *ServerConfig) GetReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// GetWriteTimeout returns the HTTP write timeout as a time.Duration
func (s *ServerConfig) GetWriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

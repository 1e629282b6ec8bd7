// Package config loads synapse configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config is the root configuration.
type Config struct {
	// Transport is one of tcp, unix, ws, quic, udp or stdio.
	Transport string `mapstructure:"transport"`

	// Address to listen on or dial.
	Address string `mapstructure:"address"`

	// WaitTimeout bounds how long a command waits for a reply.
	WaitTimeout time.Duration `mapstructure:"wait_timeout"`

	UDP UDPConfig `mapstructure:"udp"`
	Log LogConfig `mapstructure:"log"`
}

// UDPConfig tunes the UDP demultiplexer.
type UDPConfig struct {
	Workers      int           `mapstructure:"workers"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BufferSize   int           `mapstructure:"buffer_size"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`

	Rotation    RotationConfig `mapstructure:"rotation"`
	Development bool           `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

var transports = map[string]bool{
	"tcp": true, "unix": true, "ws": true, "quic": true, "udp": true, "stdio": true,
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		Transport:   "tcp",
		Address:     "127.0.0.1:7070",
		WaitTimeout: 5 * time.Second,
		UDP: UDPConfig{
			Workers:      4,
			PollInterval: 10 * time.Millisecond,
			BufferSize:   4096,
		},
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
			Rotation: RotationConfig{
				Filename:   "logs/synapse.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
	}
}

// Load reads configuration from path if non-empty, otherwise from
// synapse.yaml in the working directory or ~/.synapse, if present.
// Environment variables use the prefix SYNAPSE with `.` and `-` replaced
// by `_`, e.g. SYNAPSE_UDP_WORKERS=8.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SYNAPSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults so env-only configs work
	v.SetDefault("transport", cfg.Transport)
	v.SetDefault("address", cfg.Address)
	v.SetDefault("wait_timeout", cfg.WaitTimeout)
	v.SetDefault("udp.workers", cfg.UDP.Workers)
	v.SetDefault("udp.poll_interval", cfg.UDP.PollInterval)
	v.SetDefault("udp.buffer_size", cfg.UDP.BufferSize)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)

	if path == "" {
		path = os.Getenv("SYNAPSE_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("synapse")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".synapse"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.Transport = strings.ToLower(strings.TrimSpace(c.Transport))
	if !transports[c.Transport] {
		return fmt.Errorf("invalid transport: %q", c.Transport)
	}

	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stderr"}
	}

	if c.UDP.Workers <= 0 {
		return fmt.Errorf("invalid udp.workers: %d", c.UDP.Workers)
	}
	if c.UDP.PollInterval <= 0 {
		return fmt.Errorf("invalid udp.poll_interval: %s", c.UDP.PollInterval)
	}
	if c.UDP.BufferSize <= 0 {
		return fmt.Errorf("invalid udp.buffer_size: %d", c.UDP.BufferSize)
	}
	if c.WaitTimeout <= 0 {
		return fmt.Errorf("invalid wait_timeout: %s", c.WaitTimeout)
	}
	return nil
}

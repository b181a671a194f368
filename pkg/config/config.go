// Package config loads the engine's static configuration: which role it
// plays, the CompID pair that names the session, the protocol dictionary
// to load, timing, the store backend, and optional TLS and session
// window settings.
//
// Configuration sources (in order of precedence), following the
// teacher's pkg/config:
//  1. Environment variables (FIXENGINE_*) (highest priority)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
//
// The only CLI flag involved is --config, which chooses the file; no
// flag overrides an individual setting.
package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for one running Engine (§6 "Engine
// surface: Configuration").
type Config struct {
	// Role is "initiator" or "acceptor".
	Role string `mapstructure:"role" yaml:"role"`

	SenderCompID string `mapstructure:"sender_comp_id" yaml:"sender_comp_id"`
	TargetCompID string `mapstructure:"target_comp_id" yaml:"target_comp_id"`

	// Dictionary is the path to the QuickFIX-dictionary-shaped YAML file
	// the protocol loader reads (§6). Empty means "use the dictionary
	// bundled with this binary" (see pkg/protocol.Bundled).
	Dictionary string `mapstructure:"dictionary" yaml:"dictionary,omitempty"`

	// Separator is the wire field separator: "SOH" (the default) or a
	// single diagnostic character such as "|".
	Separator             string `mapstructure:"separator" yaml:"separator,omitempty"`
	ConvertSepForChecksum bool   `mapstructure:"convert_sep_for_checksum" yaml:"convert_sep_for_checksum"`

	Timing TimingConfig `mapstructure:"timing" yaml:"timing"`

	// ListenAddr is used when Role is "acceptor".
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr,omitempty"`

	// DialAddr/DialTimeout are used when Role is "initiator".
	DialAddr    string        `mapstructure:"dial_addr" yaml:"dial_addr,omitempty"`
	DialTimeout time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout,omitempty"`

	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
	TLS      TLSConfig      `mapstructure:"tls" yaml:"tls"`
	Window   WindowConfig   `mapstructure:"window" yaml:"window,omitempty"`
}

// TimingConfig groups the session's timers (§4.6, §5).
type TimingConfig struct {
	HeartBtInt     time.Duration `mapstructure:"heartbeat_interval" yaml:"heartbeat_interval"`
	LogonTimeout   time.Duration `mapstructure:"logon_timeout" yaml:"logon_timeout"`
	TestReqTimeout time.Duration `mapstructure:"test_request_timeout" yaml:"test_request_timeout"`

	// HeartbeatThreshold is the grace window added on top of HeartBtInt
	// before a quiet counterparty is declared unresponsive (§4.5, §5:
	// "(now − last_receive) − heartbeat_timeout > heartbeat_threshold").
	HeartbeatThreshold time.Duration `mapstructure:"heartbeat_threshold" yaml:"heartbeat_threshold"`

	// ShutdownTimeout bounds how long a cancelled session may take to
	// wind down before its connection is forcibly closed.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// StoreConfig selects and configures the session-state persistence
// backend (§6 "Session store contract").
type StoreConfig struct {
	// Backend is "memory" or "badger".
	Backend string `mapstructure:"backend" yaml:"backend"`

	// Path is the BadgerDB directory; ignored for the memory backend.
	Path string `mapstructure:"path" yaml:"path,omitempty"`
}

// LoggingConfig mirrors the teacher's LoggingConfig shape.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls the Prometheus metrics HTTP endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" yaml:"port,omitempty"`
}

// TLSConfig configures the transport-level TLS the core is handed (§6
// "Engine surface: ... TLS context"); the core itself never terminates
// plaintext-vs-TLS decisions, it just uses whatever net.Listener/Dialer
// the caller constructs from these paths.
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	CertFile string `mapstructure:"cert_file" yaml:"cert_file,omitempty"`
	KeyFile  string `mapstructure:"key_file" yaml:"key_file,omitempty"`
	CAFile   string `mapstructure:"ca_file" yaml:"ca_file,omitempty"`
}

// Build materializes c into a *tls.Config, or nil when TLS is disabled.
// When CAFile is set it is used both to verify the peer and, on an
// acceptor, to require and verify client certificates.
func (c TLSConfig) Build() (*tls.Config, error) {
	if !c.Enabled {
		return nil, nil
	}
	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load TLS key pair: %w", err)
	}
	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if c.CAFile != "" {
		pem, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read TLS CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %q", c.CAFile)
		}
		cfg.RootCAs = pool
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return cfg, nil
}

// WindowConfig is the acceptor-only session window (§4.6): outside
// [StartTime, EndTime) in TimeZone, the engine will not complete a
// logon, and will log out once EndTime is reached.
type WindowConfig struct {
	StartTime string `mapstructure:"start_time" yaml:"start_time,omitempty"` // "HH:MM:SS"
	EndTime   string `mapstructure:"end_time" yaml:"end_time,omitempty"`
	TimeZone  string `mapstructure:"time_zone" yaml:"time_zone,omitempty"`
}

// Load reads configuration from path (or the default location when path
// is empty), layering environment variables (FIXENGINE_*) and defaults
// on top, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setupViper(v, path)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	ApplyDefaults(cfg)
	if !found {
		if err := Validate(cfg); err != nil {
			return nil, fmt.Errorf("default configuration validation failed: %w", err)
		}
		return cfg, nil
	}

	if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	))); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("FIXENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(DefaultConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read config file: %w", err)
	}
	return true, nil
}

// Save writes cfg as YAML to path, creating parent directories as
// needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/fixengine, or ~/.config/fixengine.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fixengine")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "fixengine")
}

// DefaultConfigPath returns the default config.yaml location.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at
// DefaultConfigPath.
func DefaultConfigExists() bool {
	_, err := os.Stat(DefaultConfigPath())
	return err == nil
}

// SeparatorByte resolves cfg.Separator to its wire byte: "SOH" (or
// empty) to 0x01, otherwise the literal first byte of the string.
func (c *Config) SeparatorByte() (byte, error) {
	switch strings.ToUpper(c.Separator) {
	case "", "SOH":
		return 0x01, nil
	}
	if len(c.Separator) != 1 {
		return 0, fmt.Errorf("separator must be a single character or \"SOH\", got %q", c.Separator)
	}
	return c.Separator[0], nil
}

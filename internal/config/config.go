// Package config provides configuration utilities for the application.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/Veraticus/visitor-sync/internal/common"
	"github.com/spf13/viper"
)

// Defaults for the remote systems the sync talks to.
const (
	DefaultPanelURL = "https://besucherzahlen.karls.cloud/admin/visitors"
	DefaultSFTPHost = "pureaisftp.purematic.de"
	DefaultSFTPPort = 2222
	DefaultInterval = 10 * time.Minute
	DefaultTimeout  = 30 * time.Second
)

// Viper keys.
const (
	KeyPanelURL   = "panel.url"
	KeySFTPHost   = "sftp.host"
	KeySFTPPort   = "sftp.port"
	KeyKnownHosts = "sftp.known_hosts"
	KeyTimeout    = "sync.timeout"
	KeyInterval   = "sync.interval"
	KeyTempDir    = "sync.temp_dir"
	KeyKeepFailed = "sync.keep_failed"
	KeyOnce       = "sync.once"
	KeyProgress   = "sync.progress"
	KeyLogLevel   = "logging.level"
	KeyLogFormat  = "logging.format"
)

// Config holds everything the sync needs apart from credentials.
type Config struct {
	PanelURL       string
	SFTPHost       string
	KnownHostsPath string
	TempDir        string
	SFTPPort       int
	Timeout        time.Duration
	Interval       time.Duration
	KeepFailed     bool
	Once           bool
	ShowProgress   bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PanelURL: DefaultPanelURL,
		SFTPHost: DefaultSFTPHost,
		SFTPPort: DefaultSFTPPort,
		TempDir:  os.TempDir(),
		Timeout:  DefaultTimeout,
		Interval: DefaultInterval,
	}
}

// Load builds a Config from viper, falling back to defaults for unset keys.
func Load(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if s := v.GetString(KeyPanelURL); s != "" {
		cfg.PanelURL = s
	}
	if s := v.GetString(KeySFTPHost); s != "" {
		cfg.SFTPHost = s
	}
	if v.IsSet(KeySFTPPort) {
		cfg.SFTPPort = v.GetInt(KeySFTPPort)
	}
	if s := v.GetString(KeyKnownHosts); s != "" {
		cfg.KnownHostsPath = ExpandPath(s)
	}
	if s := v.GetString(KeyTempDir); s != "" {
		cfg.TempDir = ExpandPath(s)
	}
	if v.IsSet(KeyTimeout) {
		cfg.Timeout = v.GetDuration(KeyTimeout)
	}
	if v.IsSet(KeyInterval) {
		cfg.Interval = v.GetDuration(KeyInterval)
	}

	cfg.KeepFailed = v.GetBool(KeyKeepFailed)
	cfg.Once = v.GetBool(KeyOnce)
	cfg.ShowProgress = v.GetBool(KeyProgress)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.PanelURL == "" {
		return fmt.Errorf("%w: panel URL is required", common.ErrInvalidConfig)
	}

	u, err := url.Parse(c.PanelURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: panel URL must be absolute: %q", common.ErrInvalidConfig, c.PanelURL)
	}

	if c.SFTPHost == "" {
		return fmt.Errorf("%w: sftp host is required", common.ErrInvalidConfig)
	}

	if c.SFTPPort <= 0 || c.SFTPPort > 65535 {
		return fmt.Errorf("%w: sftp port out of range: %d", common.ErrInvalidConfig, c.SFTPPort)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", common.ErrInvalidConfig)
	}

	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", common.ErrInvalidConfig)
	}

	return nil
}

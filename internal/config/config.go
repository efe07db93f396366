// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads the optional ventoctl TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ventolink/ventoctl/pkg/vento"
	"github.com/ventolink/ventoctl/pkg/ventonet"
)

// EnvConfig names the environment variable holding the config path
const EnvConfig = "VENTOCTL_CONFIG"

// ErrInvalidConfig is returned for values that fail validation
var ErrInvalidConfig = errors.New("config: invalid value")

// Device is a known unit
type Device struct {
	ID       string
	Password string
	IP       string
	Name     string
}

// Config holds transport settings and known units
type Config struct {
	Timeout          time.Duration
	Port             int
	BroadcastAddress string
	ListenAddress    string
	Devices          []Device

	// Path is the file the config was loaded from, empty for defaults
	Path string
}

// config.toml key mapping
type fileConfig struct {
	TimeoutMS        int          `toml:"timeout_ms"`
	Port             int          `toml:"port"`
	BroadcastAddress string       `toml:"broadcast_address"`
	ListenAddress    string       `toml:"listen_address"`
	Devices          []fileDevice `toml:"devices"`
}

type fileDevice struct {
	ID       string `toml:"id"`
	Password string `toml:"password"`
	IP       string `toml:"ip"`
	Name     string `toml:"name"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Timeout:          ventonet.DefaultTimeout,
		Port:             vento.DefaultPort,
		BroadcastAddress: vento.BroadcastAddress,
		ListenAddress:    ventonet.DefaultListenAddress,
	}
}

// DefaultPath returns the per-user config location
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ventoctl", "config.toml")
}

// Resolve loads the config named by explicit, then $VENTOCTL_CONFIG, then
// DefaultPath. Only the default path may be missing; defaults are used then.
func Resolve(explicit string) (Config, error) {
	if path := strings.TrimSpace(explicit); path != "" {
		return Load(path)
	}
	if path := strings.TrimSpace(os.Getenv(EnvConfig)); path != "" {
		return Load(path)
	}
	if path := DefaultPath(); path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return Default(), nil
}

// Load reads path and overlays the keys it defines on Default
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("timeout_ms") {
		cfg.Timeout = time.Duration(raw.TimeoutMS) * time.Millisecond
	}
	if meta.IsDefined("port") {
		cfg.Port = raw.Port
	}
	if meta.IsDefined("broadcast_address") {
		cfg.BroadcastAddress = strings.TrimSpace(raw.BroadcastAddress)
	}
	if meta.IsDefined("listen_address") {
		cfg.ListenAddress = strings.TrimSpace(raw.ListenAddress)
	}
	for _, d := range raw.Devices {
		cfg.Devices = append(cfg.Devices, Device{
			ID:       strings.TrimSpace(d.ID),
			Password: d.Password,
			IP:       strings.TrimSpace(d.IP),
			Name:     strings.TrimSpace(d.Name),
		})
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks ranges and device entries
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidConfig, c.Timeout)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range 1-65535", ErrInvalidConfig, c.Port)
	}
	if c.BroadcastAddress == "" {
		return fmt.Errorf("%w: broadcast_address is empty", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(c.Devices))
	for i, d := range c.Devices {
		if d.ID == "" {
			return fmt.Errorf("%w: devices[%d] has no id", ErrInvalidConfig, i)
		}
		if seen[d.ID] {
			return fmt.Errorf("%w: device %s listed twice", ErrInvalidConfig, d.ID)
		}
		seen[d.ID] = true
	}
	return nil
}

// Device looks a unit up by id or name
func (c Config) Device(key string) (Device, bool) {
	for _, d := range c.Devices {
		if d.ID == key || (d.Name != "" && strings.EqualFold(d.Name, key)) {
			return d, true
		}
	}
	return Device{}, false
}

// ClientOptions converts the transport settings to ventonet options
func (c Config) ClientOptions() []ventonet.Option {
	return []ventonet.Option{
		ventonet.WithTimeout(c.Timeout),
		ventonet.WithPort(c.Port),
		ventonet.WithBroadcastAddress(c.BroadcastAddress),
		ventonet.WithListenAddress(c.ListenAddress),
	}
}

// Package config loads and persists the patchsmith configuration file.
//
// Configuration lives in a small TOML file, by default at
// ~/.config/patchsmith/config.toml, and records where the local Max
// installation keeps its reference pages and packages. All keys are
// optional; an absent file behaves like an empty one.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrUnknownKey is returned when getting or setting a key the
// configuration file does not define.
var ErrUnknownKey = errors.New("unknown configuration key")

// refpagesTail is the path under a Max application bundle where the
// reference pages live. Setting max_refpath with this tail lets the
// application path be derived rather than stored twice.
const refpagesTail = "Contents/Resources/C74/docs/refpages/"

// DefaultWaitTime bounds how long export validation waits for Max to
// load and re-save a device.
const DefaultWaitTime = 30 * time.Second

// Config holds the persisted settings.
type Config struct {
	// MaxPath is the Max application bundle. Usually derived from
	// MaxRefPath rather than set directly.
	MaxPath string `toml:"max_path,omitempty"`

	// MaxRefPath is the refpages directory inside the Max bundle.
	MaxRefPath string `toml:"max_refpath,omitempty"`

	// PackagesPath is the user's Max packages directory.
	PackagesPath string `toml:"packages_path,omitempty"`

	// WaitTime is the export validation timeout in seconds.
	// Zero means DefaultWaitTime.
	WaitTime float64 `toml:"wait_time,omitempty"`
}

// Keys lists the valid configuration keys in file order.
var Keys = []string{"max_path", "max_refpath", "packages_path", "wait_time"}

// DefaultPath returns the configuration file location, honoring
// XDG_CONFIG_HOME when set.
func DefaultPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "patchsmith", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate config: %w", err)
	}
	return filepath.Join(home, ".config", "patchsmith", "config.toml"), nil
}

// Load reads the configuration at path. A missing file yields an empty
// configuration, not an error.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the configuration to path, creating parent directories
// as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Get returns the string form of the named key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "max_path":
		return c.MaxPath, nil
	case "max_refpath":
		return c.MaxRefPath, nil
	case "packages_path":
		return c.PackagesPath, nil
	case "wait_time":
		if c.WaitTime == 0 {
			return "", nil
		}
		return strconv.FormatFloat(c.WaitTime, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
}

// Set assigns the named key from its string form. Setting max_refpath
// also derives max_path when the path carries the standard bundle
// layout.
func (c *Config) Set(key, value string) error {
	switch key {
	case "max_path":
		c.MaxPath = value
	case "max_refpath":
		c.MaxRefPath = value
		if app, ok := deriveMaxPath(value); ok {
			c.MaxPath = app
		}
	case "packages_path":
		c.PackagesPath = value
	case "wait_time":
		secs, err := strconv.ParseFloat(value, 64)
		if err != nil || secs < 0 {
			return fmt.Errorf("wait_time must be a non-negative number of seconds, got %q", value)
		}
		c.WaitTime = secs
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return nil
}

// WaitDuration returns the export validation timeout as a duration.
func (c *Config) WaitDuration() time.Duration {
	if c.WaitTime <= 0 {
		return DefaultWaitTime
	}
	return time.Duration(c.WaitTime * float64(time.Second))
}

// deriveMaxPath strips the refpages tail from a refpath to recover the
// application bundle path.
func deriveMaxPath(refpath string) (string, bool) {
	norm := refpath
	if !strings.HasSuffix(norm, "/") {
		norm += "/"
	}
	app, ok := strings.CutSuffix(norm, refpagesTail)
	if !ok || app == "" {
		return "", false
	}
	return strings.TrimSuffix(app, "/"), true
}

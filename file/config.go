// Package file keeps the command line configuration in a YAML file.
package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/guilherme-santos/localcalendar"
)

const (
	EnvDatabase = "LOCALCAL_DATABASE"
	EnvLogLevel = "LOCALCAL_LOG_LEVEL"
)

type Config struct {
	// Database is the path of the calendar store.
	Database string `yaml:"database"`
	LogLevel string `yaml:"log_level"`
	// LogFile, when set, receives the logs instead of stderr. It's rotated
	// once it reaches LogMaxSizeMB.
	LogFile      string `yaml:"log_file,omitempty"`
	LogMaxSizeMB int    `yaml:"log_max_size_mb"`

	// DefaultAccount is the local account used when none is given.
	DefaultAccount string `yaml:"default_account"`
	// ReadCalendar grants the read permission, true unless set to false.
	// Without it calendars can be added but not listed.
	ReadCalendar *bool `yaml:"read_calendar"`
	BusyRetries  uint  `yaml:"busy_retries"`
	// Palette overrides the colors of new local accounts, "#AARRGGBB" each.
	Palette []string `yaml:"palette,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Database:       "localcalendar.db",
		LogLevel:       "info",
		LogMaxSizeMB:   10,
		DefaultAccount: "offline",
		ReadCalendar:   ptr(true),
		BusyRetries:    3,
	}
}

// Normalize fills in zero values and drops a palette too short to hold the
// default color key.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Database == "" {
		c.Database = d.Database
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogMaxSizeMB <= 0 {
		c.LogMaxSizeMB = d.LogMaxSizeMB
	}
	if c.DefaultAccount == "" {
		c.DefaultAccount = d.DefaultAccount
	}
	if c.ReadCalendar == nil {
		c.ReadCalendar = d.ReadCalendar
	}
	if len(c.Palette) < 2 {
		c.Palette = nil
	}
}

func (c *Config) CanReadCalendar() bool {
	return c.ReadCalendar == nil || *c.ReadCalendar
}

// ApplyEnv overrides the database and log level from the environment.
func (c *Config) ApplyEnv() {
	c.Database = getenvDefault(EnvDatabase, c.Database)
	c.LogLevel = getenvDefault(EnvLogLevel, c.LogLevel)
}

// Colors parses Palette. It returns nil when no palette is configured.
func (c *Config) Colors() ([]uint32, error) {
	if len(c.Palette) == 0 {
		return nil, nil
	}
	colors := make([]uint32, len(c.Palette))
	for i, v := range c.Palette {
		color, err := ParseColor(v)
		if err != nil {
			return nil, fmt.Errorf("palette[%d]: %w", i, err)
		}
		colors[i] = color
	}
	return colors, nil
}

// ParseColor parses "#AARRGGBB", or "#RRGGBB" as an opaque color.
func ParseColor(v string) (uint32, error) {
	hex := strings.TrimPrefix(v, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return 0, fmt.Errorf("invalid color %q", v)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q", v)
	}
	if len(hex) == 6 {
		n |= 0xFF000000
	}
	return uint32(n), nil
}

// FormatColor is the inverse of ParseColor.
func FormatColor(color uint32) string {
	return fmt.Sprintf("#%08X", color)
}

// DefaultPalette returns localcalendar.DefaultPalette as configuration
// values.
func DefaultPalette() []string {
	palette := make([]string, len(localcalendar.DefaultPalette))
	for i, color := range localcalendar.DefaultPalette {
		palette[i] = FormatColor(color)
	}
	return palette
}

// Load reads the configuration at path. When the file doesn't exist the
// defaults are written there first.
func Load(fsys afero.Fs, path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := DefaultConfig()
		if err := Save(fsys, path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg to path through a temporary file so a failed write never
// leaves a truncated config behind.
func Save(fsys afero.Fs, path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := afero.TempFile(fsys, dir, ".localcalendar-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer fsys.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := fsys.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return fsys.Rename(tmpName, path)
}

func ptr[T any](v T) *T {
	return &v
}

func getenvDefault(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

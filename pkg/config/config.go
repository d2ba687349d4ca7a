package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNoConfig is returned by Find when no .crush/config.yaml exists between
// the start directory and the home directory.
var ErrNoConfig = errors.New("no .crush/config.yaml found")

// DirName is the per-project configuration directory.
const DirName = ".crush"

// FileName is the configuration file inside DirName.
const FileName = "config.yaml"

// Config represents a crush configuration file (.crush/config.yaml)
type Config struct {
	// Source is where clients, projects, tasks and attachments are loaded from
	Source SourceConfig `yaml:"source" json:"source"`

	// CacheDir holds downloaded attachments (default: <config dir>/cache)
	CacheDir string `yaml:"cache_dir,omitempty" json:"cache_dir,omitempty"`

	// StateDir holds tree-state.json when PersistTreeState is on (default: <config dir>)
	StateDir string `yaml:"state_dir,omitempty" json:"state_dir,omitempty"`

	// PersistTreeState saves expanded nodes across sessions (default: false)
	PersistTreeState bool `yaml:"persist_tree_state,omitempty" json:"persist_tree_state,omitempty"`

	// Log configures the log file (the terminal is owned by the UI)
	Log LogConfig `yaml:"log,omitempty" json:"log,omitempty"`

	// Preferences are display and accessibility settings
	Preferences Preferences `yaml:"preferences,omitempty" json:"preferences,omitempty"`

	// Notifications controls toast behavior
	Notifications NotificationConfig `yaml:"notifications,omitempty" json:"notifications,omitempty"`

	// Watch controls live reload of the data source
	Watch WatchConfig `yaml:"watch,omitempty" json:"watch,omitempty"`

	// dir is the directory the config was loaded from, for resolving relative paths
	dir string
}

// SourceKind selects the data source backend.
type SourceKind string

const (
	SourceSQLite   SourceKind = "sqlite"
	SourceSnapshot SourceKind = "snapshot"
)

// SourceConfig locates the entity collections.
type SourceConfig struct {
	// Kind is "sqlite" or "snapshot" (default: inferred from the path extension)
	Kind SourceKind `yaml:"kind,omitempty" json:"kind,omitempty"`

	// Path is the database or snapshot file (relative to the config dir or absolute)
	Path string `yaml:"path" json:"path"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// File is the log destination (default: <config dir>/crush.log)
	File string `yaml:"file,omitempty" json:"file,omitempty"`

	// Level is debug, info, warn or error (default: info)
	Level string `yaml:"level,omitempty" json:"level,omitempty"`
}

// Preferences holds display and accessibility settings.
type Preferences struct {
	HighContrast  bool   `yaml:"high_contrast,omitempty" json:"high_contrast,omitempty"`
	ReducedMotion bool   `yaml:"reduced_motion,omitempty" json:"reduced_motion,omitempty"`
	DateFormat    string `yaml:"date_format,omitempty" json:"date_format,omitempty"`
	RelativeDates bool   `yaml:"relative_dates,omitempty" json:"relative_dates,omitempty"`
}

// NotificationConfig controls toast notifications.
type NotificationConfig struct {
	// ToastDuration is how long a toast stays visible (default: 4s)
	ToastDuration time.Duration `yaml:"toast_duration,omitempty" json:"toast_duration,omitempty"`

	// MaxToasts bounds the number of visible toasts (default: 3)
	MaxToasts int `yaml:"max_toasts,omitempty" json:"max_toasts,omitempty"`
}

// WatchConfig controls reloading when the source changes on disk.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Debounce time.Duration `yaml:"debounce,omitempty" json:"debounce,omitempty"`
}

// Default returns a configuration rooted at dir with every default applied.
func Default(dir string) *Config {
	c := &Config{dir: dir}
	c.applyDefaults()
	return c
}

// Dir returns the directory the configuration was loaded from.
func (c *Config) Dir() string {
	return c.dir
}

func (c *Config) applyDefaults() {
	if c.Source.Path == "" {
		c.Source.Path = "crush.db"
	}
	if c.Source.Kind == "" {
		c.Source.Kind = InferSourceKind(c.Source.Path)
	}
	if c.CacheDir == "" {
		c.CacheDir = "cache"
	}
	if c.StateDir == "" {
		c.StateDir = "."
	}
	if c.Log.File == "" {
		c.Log.File = "crush.log"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Notifications.ToastDuration == 0 {
		c.Notifications.ToastDuration = 4 * time.Second
	}
	if c.Notifications.MaxToasts == 0 {
		c.Notifications.MaxToasts = 3
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = 200 * time.Millisecond
	}
}

// InferSourceKind guesses the backend from a file extension.
func InferSourceKind(path string) SourceKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc", ".yaml", ".yml":
		return SourceSnapshot
	}
	return SourceSQLite
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceSQLite, SourceSnapshot:
	default:
		return fmt.Errorf("source.kind: unknown kind %q", c.Source.Kind)
	}
	if c.Source.Path == "" {
		return fmt.Errorf("source.path is required")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	if c.Notifications.ToastDuration < 0 {
		return fmt.Errorf("notifications.toast_duration cannot be negative")
	}
	if c.Notifications.MaxToasts < 0 {
		return fmt.Errorf("notifications.max_toasts cannot be negative")
	}
	return nil
}

// Resolve returns path made absolute against the config directory.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.dir, path)
}

// SourcePath returns the absolute data source path.
func (c *Config) SourcePath() string { return c.Resolve(c.Source.Path) }

// CachePath returns the absolute attachment cache directory.
func (c *Config) CachePath() string { return c.Resolve(c.CacheDir) }

// StatePath returns the absolute tree state directory.
func (c *Config) StatePath() string { return c.Resolve(c.StateDir) }

// LogPath returns the absolute log file path.
func (c *Config) LogPath() string { return c.Resolve(c.Log.File) }

// Load loads a configuration from a file. Relative paths inside the file
// are resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	config.dir = abs
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// LoadOrDefault finds and loads the configuration above dir. When none
// exists it returns defaults rooted at dir.
func LoadOrDefault(dir string) (*Config, error) {
	path, err := Find(dir)
	if errors.Is(err, ErrNoConfig) {
		return Default(dir), nil
	}
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Save writes the configuration as YAML to path.
func Save(c *Config, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Package config handles loading, saving and locating the apitracker
// configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// GlobalDirName is the per-user directory holding config and database
	GlobalDirName = ".apitracker"
	// ConfigFileName is the name of the config file inside GlobalDirName
	ConfigFileName = "config.yaml"
	// DBFileName is the default SQLite database name
	DBFileName = "tracker.db"

	// EnvPrefix prefixes every environment override
	EnvPrefix = "APITRACKER_"
)

// Config holds every user-tunable setting
type Config struct {
	BackendURL     string        `yaml:"backend_url"`
	BackendToken   string        `yaml:"backend_token,omitempty"`
	AutoRefresh    bool          `yaml:"auto_refresh"`
	RefreshDelay   time.Duration `yaml:"refresh_delay"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	DBPath         string        `yaml:"db_path"`
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	AdminPassword  string        `yaml:"admin_password,omitempty"`
	LoggingEnabled bool          `yaml:"logging_enabled"`
	Verbose        bool          `yaml:"verbose"`
}

// Default returns the built-in configuration
func Default() *Config {
	dbPath := DBFileName
	if dir, err := GlobalDir(); err == nil {
		dbPath = filepath.Join(dir, DBFileName)
	}
	return &Config{
		BackendURL:     "http://localhost:8000",
		AutoRefresh:    true,
		RefreshDelay:   time.Second,
		RequestTimeout: 60 * time.Second,
		DBPath:         dbPath,
		Host:           "127.0.0.1",
		Port:           8090,
		LoggingEnabled: true,
	}
}

// GlobalDir returns ~/.apitracker
func GlobalDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, GlobalDirName), nil
}

// ResolvePath picks the config file: the explicit flag value, then
// APITRACKER_CONFIG, then ~/.apitracker/config.yaml.
func ResolvePath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv(EnvPrefix + "CONFIG"); env != "" {
		return env, nil
	}
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := LoadYAML(path, cfg); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path
func Save(path string, cfg *Config) error {
	return SaveYAML(path, cfg)
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("backend_url must not be empty")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.RefreshDelay < 0 {
		return fmt.Errorf("refresh_delay must not be negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	return nil
}

// Addr returns host:port for the dashboard server
func (c *Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// setters maps each settable key to its parser
var setters = map[string]func(c *Config, v string) error{
	"backend_url":     func(c *Config, v string) error { c.BackendURL = strings.TrimRight(v, "/"); return nil },
	"backend_token":   func(c *Config, v string) error { c.BackendToken = v; return nil },
	"auto_refresh":    func(c *Config, v string) error { return parseBool(v, &c.AutoRefresh) },
	"refresh_delay":   func(c *Config, v string) error { return parseDuration(v, &c.RefreshDelay) },
	"request_timeout": func(c *Config, v string) error { return parseDuration(v, &c.RequestTimeout) },
	"db_path":         func(c *Config, v string) error { c.DBPath = v; return nil },
	"host":            func(c *Config, v string) error { c.Host = v; return nil },
	"port":            func(c *Config, v string) error { return parseInt(v, &c.Port) },
	"admin_password":  func(c *Config, v string) error { c.AdminPassword = v; return nil },
	"logging_enabled": func(c *Config, v string) error { return parseBool(v, &c.LoggingEnabled) },
	"verbose":         func(c *Config, v string) error { return parseBool(v, &c.Verbose) },
}

// Keys returns the settable keys, sorted
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns a single key from its string form
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	if err := set(c, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}

// applyEnv applies APITRACKER_<KEY> overrides, plus the bare HOST and PORT
// variables used by container platforms.
func (c *Config) applyEnv() error {
	for _, bare := range []string{"host", "port"} {
		if v := os.Getenv(strings.ToUpper(bare)); v != "" {
			if err := c.Set(bare, v); err != nil {
				return fmt.Errorf("%s: %w", strings.ToUpper(bare), err)
			}
		}
	}
	for _, key := range Keys() {
		name := EnvPrefix + strings.ToUpper(key)
		if v, ok := os.LookupEnv(name); ok && v != "" {
			if err := c.Set(key, v); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	return nil
}

func parseBool(v string, dst *bool) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

func parseInt(v string, dst *int) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

// parseDuration accepts Go durations ("1500ms") or bare milliseconds ("1500")
func parseDuration(v string, dst *time.Duration) error {
	if ms, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(ms) * time.Millisecond
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

// durationKeys are the YAML keys whose scalars go through parseDuration
var durationKeys = map[string]bool{"refresh_delay": true, "request_timeout": true}

// UnmarshalYAML lets duration keys hold bare milliseconds as well as Go
// durations, matching the env and `config set` forms.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]
			if !durationKeys[key.Value] || val.Kind != yaml.ScalarNode {
				continue
			}
			var d time.Duration
			if err := parseDuration(val.Value, &d); err != nil {
				return fmt.Errorf("line %d: invalid %s %q: %w", val.Line, key.Value, val.Value, err)
			}
			val.Tag = "!!str"
			val.Value = d.String()
		}
	}
	type plain Config
	return node.Decode((*plain)(c))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadYAML loads a YAML file into v
func LoadYAML(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse YAML from %s: %w", path, err)
	}
	return nil
}

// SaveYAML writes v to path, creating the parent directory
func SaveYAML(path string, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	// May hold backend_token and admin_password
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return nil
}

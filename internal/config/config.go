// Package config loads railbook settings using Viper.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. RAILBOOK_BASE_URL.
const EnvPrefix = "RAILBOOK"

// FileName is the config file name, both global and per project.
const FileName = "railbook.yml"

// Config holds all configuration values for railbook.
type Config struct {
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
	Timeout   int    `mapstructure:"timeout" yaml:"timeout"` // seconds
	DataDir   string `mapstructure:"data_dir" yaml:"data_dir"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFile   string `mapstructure:"log_file" yaml:"log_file"`
	Currency  string `mapstructure:"currency" yaml:"currency"`
	Journal   bool   `mapstructure:"journal" yaml:"journal"`
	TicketDir string `mapstructure:"ticket_dir" yaml:"ticket_dir"`
	ServeAddr string `mapstructure:"serve_addr" yaml:"serve_addr"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		BaseURL:   "http://localhost:5000/api",
		Timeout:   15,
		DataDir:   ".railbook",
		LogLevel:  "info",
		Currency:  "₹",
		Journal:   true,
		TicketDir: "tickets",
		ServeAddr: "localhost:5000",
	}
}

// keys lists every setting, in file order.
var keys = []string{
	"base_url", "timeout", "data_dir", "log_level", "log_file",
	"currency", "journal", "ticket_dir", "serve_addr",
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars (.env included) > project config > XDG global config > defaults.
// Flags are applied by the caller on the returned value.
func Load() (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")

	def := Defaults()
	v.SetDefault("base_url", def.BaseURL)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_file", def.LogFile)
	v.SetDefault("currency", def.Currency)
	v.SetDefault("journal", def.Journal)
	v.SetDefault("ticket_dir", def.TicketDir)
	v.SetDefault("serve_addr", def.ServeAddr)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// Explicit bindings so Unmarshal sees env values for keys absent from files.
	for _, key := range keys {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	if path := GlobalPath(); fileExists(path) {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}
	if path := ProjectPath(); fileExists(path) {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// Validate reports settings that would make every command fail.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url %q is not an absolute URL", c.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url %q must use http or https", c.BaseURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %d", c.Timeout)
	}
	return nil
}

// RequestTimeout is Timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// JournalDir is where the booking journal keeps its stream files.
func (c *Config) JournalDir() string {
	return filepath.Join(c.DataDir, "journal")
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns $XDG_CONFIG_HOME/railbook/railbook.yml, falling back to
// ~/.config/railbook/railbook.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "railbook", FileName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "railbook", FileName)
}

// ProjectPath returns ./railbook.yml.
func ProjectPath() string {
	return FileName
}

// WriteGlobal writes the config to the XDG global location.
func WriteGlobal(cfg *Config) error {
	path := GlobalPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return write(path, cfg)
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	return write(ProjectPath(), cfg)
}

func write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

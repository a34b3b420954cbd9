// Package config loads ansimon's settings: defaults, the optional
// ~/.config/ansimon/config.yml file, and ANSIMON_* environment variables.
// Command-line flags are merged on top by the CLI layer.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rileyhilliard/ansimon/internal/errors"
)

const (
	// ConfigDirName under ~/.config.
	ConfigDirName = "ansimon"
	// ConfigFileName inside the config directory.
	ConfigFileName = "config.yml"
)

// Thresholds are the severity cut-offs (percentages) used for coloring.
type Thresholds struct {
	Warning  float64 `yaml:"warning" mapstructure:"warning"`
	Critical float64 `yaml:"critical" mapstructure:"critical"`
}

// Config is the merged runtime configuration.
type Config struct {
	// Inventory is the inventory file path.
	Inventory string `yaml:"inventory" mapstructure:"inventory"`

	// Interval between ticks, in seconds.
	Interval int `yaml:"interval" mapstructure:"interval"`

	// Forks bounds concurrent SSH probes.
	Forks int `yaml:"forks" mapstructure:"forks"`

	// SSHTimeout is the ssh ConnectTimeout, in seconds.
	SSHTimeout int `yaml:"ssh_timeout" mapstructure:"ssh_timeout"`

	// User, Key, and Port override inventory connection vars when set.
	User string `yaml:"user" mapstructure:"user"`
	Key  string `yaml:"key" mapstructure:"key"`
	Port int    `yaml:"port" mapstructure:"port"`

	Thresholds Thresholds `yaml:"thresholds" mapstructure:"thresholds"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Inventory:  "/etc/ansible/hosts",
		Interval:   10,
		Forks:      10,
		SSHTimeout: 5,
		Thresholds: Thresholds{
			Warning:  60,
			Critical: 85,
		},
	}
}

// IntervalDuration returns the tick interval as a duration.
func (c *Config) IntervalDuration() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// SSHTimeoutDuration returns the connect timeout as a duration.
func (c *Config) SSHTimeoutDuration() time.Duration {
	return time.Duration(c.SSHTimeout) * time.Second
}

// Path returns the config file path, or "" when no home directory is
// resolvable.
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", ConfigDirName, ConfigFileName)
}

// Load reads the config file at path (Path() when empty) merged over the
// defaults, with ANSIMON_* environment variables taking precedence over the
// file. A missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	v := viper.New()
	v.SetEnvPrefix("ANSIMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, errors.WrapWithCode(err, errors.ErrConfig,
					"Cannot read config file "+path,
					"Fix or remove the file; ansimon runs fine without one.")
			}
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+path)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("inventory", d.Inventory)
	v.SetDefault("interval", d.Interval)
	v.SetDefault("forks", d.Forks)
	v.SetDefault("ssh_timeout", d.SSHTimeout)
	v.SetDefault("thresholds.warning", d.Thresholds.Warning)
	v.SetDefault("thresholds.critical", d.Thresholds.Critical)
}

// Write saves the config to path (Path() when empty), creating the
// directory if needed. Used by `ansimon init`.
func Write(cfg *Config, path string) error {
	if path == "" {
		path = Path()
	}
	if path == "" {
		return errors.New(errors.ErrConfig,
			"Cannot determine config location",
			"Set HOME or pass an explicit path.")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot create config directory",
			"Check permissions on "+filepath.Dir(path))
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.Set("inventory", cfg.Inventory)
	v.Set("interval", cfg.Interval)
	v.Set("forks", cfg.Forks)
	v.Set("ssh_timeout", cfg.SSHTimeout)
	v.Set("thresholds.warning", cfg.Thresholds.Warning)
	v.Set("thresholds.critical", cfg.Thresholds.Critical)
	if cfg.User != "" {
		v.Set("user", cfg.User)
	}
	if cfg.Key != "" {
		v.Set("key", cfg.Key)
	}
	if cfg.Port > 0 {
		v.Set("port", cfg.Port)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot write config file "+path,
			"Check permissions and disk space.")
	}
	return nil
}

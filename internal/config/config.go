// Package config loads the daemon configuration. User preferences of the
// monitor (targets, interval, ...) are not part of it, they live in the
// preferences store selected here.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ErrUnknownBackend is returned for an unsupported preferences backend.
var ErrUnknownBackend = errors.New("unknown preferences backend")

type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Prefs  PrefsConfig  `mapstructure:"prefs"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Probe  ProbeConfig  `mapstructure:"probe"`
	Status StatusConfig `mapstructure:"status"`
	Notify NotifyConfig `mapstructure:"notify"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // console or json
	OutputPath string `mapstructure:"output_path"`
}

type PrefsConfig struct {
	Backend string `mapstructure:"backend"` // memory, file or redis
	Path    string `mapstructure:"path"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

type ProbeConfig struct {
	Mode       string `mapstructure:"mode"` // icmp or exec
	Privileged bool   `mapstructure:"privileged"`
	Bind4      string `mapstructure:"bind4"`
	Bind6      string `mapstructure:"bind6"`
	Mark       uint   `mapstructure:"mark"`
	ExecPath   string `mapstructure:"exec_path"`
}

type StatusConfig struct {
	Listen string `mapstructure:"listen"` // empty disables the status server
}

type NotifyConfig struct {
	Desktop bool `mapstructure:"desktop"`
}

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"

	ProbeModeICMP = "icmp"
	ProbeModeExec = "exec"
)

// New returns a viper instance with all defaults and environment
// overrides (NETCHECK_LOG_LEVEL, NETCHECK_PREFS_BACKEND, ...) applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("NETCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load reads the optional config file into v and decodes the result.
// A missing file is only an error if path was given explicitly.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("netcheck")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/netcheck")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	switch c.Prefs.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Prefs.Backend)
	}
	switch c.Probe.Mode {
	case ProbeModeICMP, ProbeModeExec:
	default:
		return fmt.Errorf("unknown probe mode %q", c.Probe.Mode)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Logger defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_path", "stderr")

	// Preferences defaults
	v.SetDefault("prefs.backend", BackendFile)
	v.SetDefault("prefs.path", "$HOME/.config/netcheck/preferences.yaml")

	// Redis defaults
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key", "netcheck:prefs")

	// Probe defaults
	v.SetDefault("probe.mode", ProbeModeICMP)
	v.SetDefault("probe.privileged", false)
	v.SetDefault("probe.bind4", "0.0.0.0")
	v.SetDefault("probe.bind6", "::")
	v.SetDefault("probe.mark", 0)
	v.SetDefault("probe.exec_path", "ping")

	v.SetDefault("status.listen", "")
	v.SetDefault("notify.desktop", false)
}

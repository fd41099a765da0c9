package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	HostPathStyleWindows = "windows"
	HostPathStylePosix   = "posix"
)

// AppConfig holds application-specific configuration.
type AppConfig struct {
	HostMountRoot  string        `mapstructure:"host_mount_root"`
	HostPathStyle  string        `mapstructure:"host_path_style"`
	Debounce       time.Duration `mapstructure:"debounce"`
	IgnorePatterns []string      `mapstructure:"ignore_patterns"`
	ExecUser       string        `mapstructure:"exec_user"`
}

// LoggingConfig holds the logging-related configuration.
type LoggingConfig struct {
	Level string `mapstructure:"log_level"`
}

// EtcdConfig holds configuration for the optional etcd status publisher.
type EtcdConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Endpoints   []string      `mapstructure:"endpoints"`
	PathPrefix  string        `mapstructure:"path_prefix"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Hostname    string        `mapstructure:"hostname"`
}

// Config is the top-level configuration struct.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Logging LoggingConfig `mapstructure:"log"`
	Etcd    EtcdConfig    `mapstructure:"etcd"`
}

func defaultHostPathStyle() string {
	if runtime.GOOS == "windows" {
		return HostPathStyleWindows
	}
	return HostPathStylePosix
}

// InitConfig performs the initial configuration: setting defaults, specifying the config file, and reading it.
// An empty configFile means config.yaml in the current directory, if present.
func InitConfig(configFile string) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}

	viper.SetDefault("app.host_mount_root", "/host_mnt/")
	viper.SetDefault("app.host_path_style", defaultHostPathStyle())
	viper.SetDefault("app.debounce", 10*time.Millisecond)
	viper.SetDefault("app.ignore_patterns", []string{})
	viper.SetDefault("app.exec_user", "")
	viper.SetDefault("log.log_level", "INFO")
	viper.SetDefault("etcd.enabled", false)
	viper.SetDefault("etcd.endpoints", []string{"localhost:2379"})
	viper.SetDefault("etcd.path_prefix", "/docker-mount-notify")
	viper.SetDefault("etcd.dial_timeout", 2*time.Second)
	viper.SetDefault("etcd.hostname", hostname)

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config") // Looks for config.yaml
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// If the file is not found, just continue with defaults and env vars.
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return nil
}

// Load unmarshals the configuration into the Config struct.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks values viper cannot type-check on its own.
func (c *Config) Validate() error {
	switch c.App.HostPathStyle {
	case HostPathStyleWindows, HostPathStylePosix:
	default:
		return fmt.Errorf("invalid app.host_path_style %q: expected %q or %q", c.App.HostPathStyle, HostPathStyleWindows, HostPathStylePosix)
	}
	if !strings.HasPrefix(c.App.HostMountRoot, "/") {
		return fmt.Errorf("invalid app.host_mount_root %q: must be an absolute path", c.App.HostMountRoot)
	}
	if c.App.Debounce <= 0 {
		return fmt.Errorf("invalid app.debounce %s: must be positive", c.App.Debounce)
	}
	if c.Etcd.Enabled && len(c.Etcd.Endpoints) == 0 {
		return fmt.Errorf("etcd.enabled is set but etcd.endpoints is empty")
	}
	return nil
}

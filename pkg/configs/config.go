// Package configs holds the application configuration: server, database,
// blob storage, KV, message queue and the cross-cutting middleware settings.
// Files in YAML, JSON, TOML or dotenv form are supported, every key can be
// overridden from the environment with the FILEVAULT_ prefix, and the file
// can be hot reloaded.
//
// Example:
//
//	if err := configs.InitConfig("./configs"); err != nil {
//		log.Fatal(err)
//	}
//
//	cfg := configs.GetConfig()
//	fmt.Println(cfg.Server.Port)
//
// Example overriding a nested key from the environment:
//
//	FILEVAULT_BLOB_FS_DIR=/srv/files filevault serve
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/yeisme/filevault/pkg/rule"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "FILEVAULT"

type (
	// AppConfig is the global application configuration.
	AppConfig struct {
		Server         ServerConfig         `mapstructure:"server"`
		DB             DBConfig             `mapstructure:"db"`
		Blob           BlobConfig           `mapstructure:"blob"`
		KV             KVConfig             `mapstructure:"kv"`
		MQ             MQConfig             `mapstructure:"mq"`
		Events         EventsConfig         `mapstructure:"events"`
		Files          FilesConfig          `mapstructure:"files"`
		Auth           AuthConfig           `mapstructure:"auth"`
		CORS           CORSConfig           `mapstructure:"cors"`
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
		Metrics        MetricsConfig        `mapstructure:"metrics"`
		Tracing        TracingConfig        `mapstructure:"tracing"`
		Jobs           JobsConfig           `mapstructure:"jobs"`
		Log            LogConfig            `mapstructure:"log"`
	}
)

var (
	globalConfig AppConfig
	appViper     *viper.Viper
	configMu     sync.RWMutex
)

// InitConfig loads the configuration. path may be a file, or a directory
// searched for config.{yaml,yml,json,toml,env}. A missing file is not an
// error: defaults and environment variables are used instead.
func InitConfig(path string) error {
	v, err := Load(path)
	if err != nil {
		return err
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	configMu.Lock()
	appViper = v
	globalConfig = cfg
	configMu.Unlock()

	reloadConfigs(v, cfg.Server.ReloadConfig)

	return nil
}

// Load builds a viper instance with defaults, environment overrides and,
// when present, the config file at path.
func Load(path string) (*viper.Viper, error) {
	v := viper.New()
	setAllDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		return v, nil
	}

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(path)
		v.AddConfigPath(filepath.Join(path, "configs"))

		for _, ext := range []string{"yaml", "yml", "json", "toml", "env", "dotenv"} {
			candidate := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(candidate); err == nil {
				v.SetConfigFile(candidate)

				break
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return v, nil
		}

		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return v, nil
}

// Default returns the configuration built from defaults only.
func Default() AppConfig {
	v := viper.New()
	setAllDefaults(v)

	var cfg AppConfig
	_ = v.Unmarshal(&cfg)

	return cfg
}

// Validate checks the rule tags of every section.
func (c *AppConfig) Validate() error {
	if err := rule.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

func setAllDefaults(v *viper.Viper) {
	defaulters := []interface{ setDefaults(*viper.Viper) }{
		&ServerConfig{},
		&DBConfig{},
		&BlobConfig{},
		&KVConfig{},
		&MQConfig{},
		&EventsConfig{},
		&FilesConfig{},
		&AuthConfig{},
		&CORSConfig{},
		&RateLimitConfig{},
		&CircuitBreakerConfig{},
		&MetricsConfig{},
		&TracingConfig{},
		&JobsConfig{},
		&LogConfig{},
	}
	for _, d := range defaulters {
		d.setDefaults(v)
	}
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload || v.ConfigFileUsed() == "" {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		var cfg AppConfig
		if err := v.Unmarshal(&cfg); err != nil {
			fmt.Fprintf(os.Stderr, "config reload of %s failed: %v\n", e.Name, err)

			return
		}

		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "config reload of %s rejected: %v\n", e.Name, err)

			return
		}

		configMu.Lock()
		globalConfig = cfg
		configMu.Unlock()
	})
	v.WatchConfig()
}

// GetConfig returns the global configuration.
func GetConfig() *AppConfig {
	configMu.RLock()
	defer configMu.RUnlock()

	cfg := globalConfig

	return &cfg
}

// GetViper returns the viper instance behind the global configuration.
func GetViper() *viper.Viper {
	configMu.RLock()
	defer configMu.RUnlock()

	return appViper
}

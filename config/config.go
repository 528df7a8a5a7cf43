package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Selector SelectorConfig `mapstructure:"selector"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StorageConfig struct {
	Backend    string `mapstructure:"backend"` // file or redis
	ClassesDir string `mapstructure:"classes_dir"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CatalogConfig struct {
	Sort bool `mapstructure:"sort"`
}

type SelectorConfig struct {
	ResetLuckyOnLoad bool `mapstructure:"reset_lucky_on_load"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Load reads config.yaml from ./config or the working directory, when
// present, then applies environment overrides such as STORAGE_BACKEND.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	return load(v)
}

// LoadFile reads the given config file instead of searching for one.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "failed to read config")
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	switch cfg.Storage.Backend {
	case BackendFile, BackendRedis:
	default:
		return nil, errors.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.classes_dir", defaultClassesDir())

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("catalog.sort", false)
	v.SetDefault("selector.reset_lucky_on_load", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.pretty", false)
}

// defaultClassesDir is the Classes folder under the per-user local
// application data root: %LOCALAPPDATA% on Windows, $XDG_DATA_HOME or
// ~/.local/share elsewhere.
func defaultClassesDir() string {
	return filepath.Join(localDataDir(), "Classes")
}

func localDataDir() string {
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return dir
		}
	} else if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(home, "AppData", "Local")
	}
	return filepath.Join(home, ".local", "share")
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pbaille/devlog/internal/logging"
	"github.com/pbaille/devlog/internal/store"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys shared by flags, env vars and config files.
const (
	KeyBackend   = "backend"
	KeyDBPath    = "db"
	KeyDir       = "dir"
	KeyRedisAddr = "redis-addr"
	KeyStoreKey  = "key"
	KeyLogLevel  = "log-level"
	KeyAddr      = "addr"
)

// Config holds runtime settings for the devlog CLI.
type Config struct {
	Backend   string
	DBPath    string
	Dir       string
	RedisAddr string
	Key       string
	LogLevel  string
	Addr      string
}

// BaseDir is where devlog keeps its files unless told otherwise.
func BaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".devlog"
	}
	return filepath.Join(home, ".devlog")
}

// SetDefaults installs built-in values on v.
func SetDefaults(v *viper.Viper) {
	base := BaseDir()
	v.SetDefault(KeyBackend, store.BackendSQLite)
	v.SetDefault(KeyDBPath, filepath.Join(base, "devlog.db"))
	v.SetDefault(KeyDir, filepath.Join(base, "entries"))
	v.SetDefault(KeyRedisAddr, "127.0.0.1:6379")
	v.SetDefault(KeyStoreKey, store.DefaultKey)
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyAddr, ":8080")
}

// New returns a viper instance with defaults and DEVLOG_* env lookup.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("DEVLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file, binds flags and builds a validated
// Config. An explicit configFile must exist; the default one may be missing.
func Load(v *viper.Viper, configFile string, flags *pflag.FlagSet) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(BaseDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	cfg := &Config{
		Backend:   v.GetString(KeyBackend),
		DBPath:    v.GetString(KeyDBPath),
		Dir:       v.GetString(KeyDir),
		RedisAddr: v.GetString(KeyRedisAddr),
		Key:       v.GetString(KeyStoreKey),
		LogLevel:  v.GetString(KeyLogLevel),
		Addr:      v.GetString(KeyAddr),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the settings describe a usable backend.
func (c *Config) Validate() error {
	switch c.Backend {
	case store.BackendSQLite:
		if c.DBPath == "" {
			return errors.New("config: db path is required for the sqlite backend")
		}
	case store.BackendFile:
		if c.Dir == "" {
			return errors.New("config: dir is required for the file backend")
		}
	case store.BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("config: redis-addr is required for the redis backend")
		}
	case store.BackendMemory:
	default:
		return fmt.Errorf("config: %w: %q", store.ErrUnknownBackend, c.Backend)
	}

	if strings.TrimSpace(c.Key) == "" {
		return errors.New("config: key must not be empty")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// StoreOptions maps the config onto slot options
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend:   c.Backend,
		DBPath:    c.DBPath,
		Dir:       c.Dir,
		RedisAddr: c.RedisAddr,
		Key:       c.Key,
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"studyvault/internal/platform/filelock"
	"studyvault/internal/platform/logging"
)

const (
	EnvPrefix = "STUDYVAULT"
	stateDir  = ".studyvault"
)

type Config struct {
	VaultPath string        `mapstructure:"vault_path" yaml:"vault_path"`
	Index     IndexConfig   `mapstructure:"index" yaml:"index"`
	Lock      LockConfig    `mapstructure:"lock" yaml:"lock"`
	Store     StoreConfig   `mapstructure:"store" yaml:"store"`
	Logging   LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Server    ServerConfig  `mapstructure:"server" yaml:"server"`
	Review    ReviewConfig  `mapstructure:"review" yaml:"review"`
}

type IndexConfig struct {
	// DBPath defaults to <vault>/.studyvault/index.db.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

type LockConfig struct {
	// Mode is "sentinel" or "advisory".
	Mode         string `mapstructure:"mode" yaml:"mode"`
	MaxRetries   int    `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelayMs int    `mapstructure:"retry_delay_ms" yaml:"retry_delay_ms"`
	StaleAfterMs int    `mapstructure:"stale_after_ms" yaml:"stale_after_ms"`
}

type StoreConfig struct {
	// MetadataReaders bounds concurrent reads in multi-date metadata loads.
	MetadataReaders int `mapstructure:"metadata_readers" yaml:"metadata_readers"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	// File is relative to the vault; empty logs to stderr.
	File string `mapstructure:"file" yaml:"file"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type ReviewConfig struct {
	ExcludeWeekends bool `mapstructure:"exclude_weekends" yaml:"exclude_weekends"`
}

func Default() *Config {
	return &Config{
		Lock: LockConfig{
			Mode:         string(filelock.ModeSentinel),
			MaxRetries:   filelock.DefaultMaxRetries,
			RetryDelayMs: int(filelock.DefaultRetryDelay / time.Millisecond),
			StaleAfterMs: int(filelock.DefaultStaleAfter / time.Millisecond),
		},
		Store:   StoreConfig{MetadataReaders: 8},
		Logging: LoggingConfig{Level: logging.LevelWarn, File: filepath.Join(stateDir, "studyvault.log")},
		Server:  ServerConfig{Addr: "127.0.0.1:8741"},
		Review:  ReviewConfig{ExcludeWeekends: true},
	}
}

func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("vault_path", d.VaultPath)
	v.SetDefault("index.db_path", d.Index.DBPath)
	v.SetDefault("lock.mode", d.Lock.Mode)
	v.SetDefault("lock.max_retries", d.Lock.MaxRetries)
	v.SetDefault("lock.retry_delay_ms", d.Lock.RetryDelayMs)
	v.SetDefault("lock.stale_after_ms", d.Lock.StaleAfterMs)
	v.SetDefault("store.metadata_readers", d.Store.MetadataReaders)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("review.exclude_weekends", d.Review.ExcludeWeekends)
}

// Load layers defaults, the config file, STUDYVAULT_* environment variables
// and an explicit vault path, in increasing precedence. When configFile is
// empty, <vault>/.studyvault/config.yaml is read if present.
func Load(vaultPath, configFile string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if vaultPath == "" {
		vaultPath = v.GetString("vault_path")
	}
	if configFile == "" && vaultPath != "" {
		candidate := FilePath(vaultPath)
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}
	if vaultPath != "" {
		v.Set("vault_path", vaultPath)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.resolve()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// New is the flag-only configuration used by tests and embedders.
func New(vaultPath string) (*Config, error) {
	cfg := Default()
	cfg.VaultPath = vaultPath
	cfg.resolve()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) resolve() {
	if c.VaultPath == "" {
		return
	}
	if c.Index.DBPath == "" {
		c.Index.DBPath = filepath.Join(c.VaultPath, stateDir, "index.db")
	}
	if c.Logging.File != "" && !filepath.IsAbs(c.Logging.File) {
		c.Logging.File = filepath.Join(c.VaultPath, c.Logging.File)
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.VaultPath == "" {
		errs = append(errs, errors.New("vault path is required"))
	}
	switch filelock.Mode(c.Lock.Mode) {
	case filelock.ModeSentinel, filelock.ModeAdvisory:
	default:
		errs = append(errs, fmt.Errorf("lock.mode must be sentinel or advisory, got %q", c.Lock.Mode))
	}
	if c.Lock.MaxRetries < 1 {
		errs = append(errs, fmt.Errorf("lock.max_retries must be positive, got %d", c.Lock.MaxRetries))
	}
	if c.Lock.RetryDelayMs < 1 {
		errs = append(errs, fmt.Errorf("lock.retry_delay_ms must be positive, got %d", c.Lock.RetryDelayMs))
	}
	if c.Lock.StaleAfterMs < 1 {
		errs = append(errs, fmt.Errorf("lock.stale_after_ms must be positive, got %d", c.Lock.StaleAfterMs))
	}
	if c.Store.MetadataReaders < 1 {
		errs = append(errs, fmt.Errorf("store.metadata_readers must be positive, got %d", c.Store.MetadataReaders))
	}
	if !logging.ValidLevel(c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level %q is not one of DEBUG, INFO, WARN, ERROR", c.Logging.Level))
	}
	return errors.Join(errs...)
}

func (c *Config) LockOptions() filelock.Options {
	return filelock.Options{
		Mode:       filelock.Mode(c.Lock.Mode),
		MaxRetries: c.Lock.MaxRetries,
		RetryDelay: time.Duration(c.Lock.RetryDelayMs) * time.Millisecond,
		StaleAfter: time.Duration(c.Lock.StaleAfterMs) * time.Millisecond,
	}
}

// FilePath is where config init writes and Load looks by default.
func FilePath(vaultPath string) string {
	return filepath.Join(vaultPath, stateDir, "config.yaml")
}

// WriteDefault renders the defaults as YAML at path. It refuses to
// overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}
	raw, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, raw, 0o644)
}

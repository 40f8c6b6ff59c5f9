package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SKILLBRIDGE_STORAGE_DRIVER.
const EnvPrefix = "SKILLBRIDGE"

// Config is the application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Matching MatchingConfig `mapstructure:"matching"`
	Streak   StreakConfig   `mapstructure:"streak"`
	Index    IndexConfig    `mapstructure:"index"`
}

// AppConfig holds process-level settings.
type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// StorageConfig selects the gorm dialect.
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // sqlite | postgres
	DBPath string `mapstructure:"db_path"`
	DSN    string `mapstructure:"dsn"`
}

// MatchingConfig tunes suggestion generation.
type MatchingConfig struct {
	MinScore         int  `mapstructure:"min_score"`
	MaxSuggestions   int  `mapstructure:"max_suggestions"`
	ExcludeConnected bool `mapstructure:"exclude_connected"`
}

// StreakConfig tunes the streak tracker.
type StreakConfig struct {
	WindowDays     int `mapstructure:"window_days"`
	BonusThreshold int `mapstructure:"bonus_threshold"`
	BonusPoints    int `mapstructure:"bonus_points"`
}

// IndexConfig controls the vector candidate shortlist.
type IndexConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	ShortlistSize int  `mapstructure:"shortlist_size"`
}

// Load reads configPath (or ./config/config.yaml, ./config.yaml), a .env file
// when present, and SKILLBRIDGE_* environment overrides.
func Load(configPath string) (*Config, error) {
	_, err := LoadViper(configPath)
	if err != nil {
		return nil, err
	}
	return Current(), nil
}

var (
	mu  sync.RWMutex
	cfg *Config
)

// Current returns a copy of the most recently loaded configuration.
func Current() *Config {
	mu.RLock()
	defer mu.RUnlock()
	c := *cfg
	return &c
}

// LoadViper is Load but also returns the viper instance for Watch.
func LoadViper(configPath string) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to read .env", "error", err)
	}

	v := newDefaultViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Warn("config file not found, using defaults")
		} else {
			return nil, fmt.Errorf("read config failed: %w", err)
		}
	} else {
		slog.Info("config loaded", "path", v.ConfigFileUsed())
	}

	parsed, err := decode(v)
	if err != nil {
		return nil, err
	}
	mu.Lock()
	cfg = parsed
	mu.Unlock()
	return v, nil
}

func newDefaultViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config failed: %w", err)
	}
	c.Storage.DSN = expandEnv(c.Storage.DSN)
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.Driver == "sqlite" {
		c.Storage.DBPath = resolvePath(c.Storage.DBPath)
	}
	return &c, nil
}

// Watch re-decodes the config whenever the file changes and hands the result to fn.
// Only settings that are safe to swap at runtime should be applied by fn.
func Watch(v *viper.Viper, fn func(*Config)) {
	if v == nil || v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		next, err := decode(v)
		if err != nil {
			slog.Warn("config reload failed", "path", e.Name, "error", err)
			return
		}
		mu.Lock()
		cfg = next
		mu.Unlock()
		slog.Info("config reloaded", "path", e.Name)
		if fn != nil {
			fn(next)
		}
	})
	v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "skillbridge")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_path", "")

	v.SetDefault("server.listen_addr", "127.0.0.1:8080")

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.db_path", "./data/skillbridge.db")
	v.SetDefault("storage.dsn", "")

	v.SetDefault("matching.min_score", 20)
	v.SetDefault("matching.max_suggestions", 5)
	v.SetDefault("matching.exclude_connected", true)

	v.SetDefault("streak.window_days", 7)
	v.SetDefault("streak.bonus_threshold", 7)
	v.SetDefault("streak.bonus_points", 50)

	v.SetDefault("index.enabled", false)
	v.SetDefault("index.shortlist_size", 200)
}

// expandEnv expands a whole-value ${VAR} placeholder.
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	return s
}

// resolvePath anchors relative paths at the executable directory.
func resolvePath(path string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	exe, err := os.Executable()
	if err != nil {
		return path
	}
	return filepath.Join(filepath.Dir(exe), path)
}

// LoggerOptions configures SetupLogger.
type LoggerOptions struct {
	Level     string
	Path      string // empty logs to stdout
	Component string
}

var levelVar = new(slog.LevelVar)

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLogLevel changes the level of the logger installed by SetupLogger.
func SetLogLevel(level string) {
	levelVar.Set(ParseLevel(level))
}

// SetupLogger installs the default slog logger and returns the file to close, if any.
func SetupLogger(opts LoggerOptions) (io.Closer, error) {
	levelVar.Set(ParseLevel(opts.Level))

	var out io.Writer = os.Stdout
	var closer io.Closer
	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir failed: %w", err)
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file failed: %w", err)
		}
		out = f
		closer = f
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: levelVar}))
	if opts.Component != "" {
		logger = logger.With("component", opts.Component)
	}
	slog.SetDefault(logger)
	return closer, nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// DefaultConfigPath is where `bridge-cli config init` writes by default.
func DefaultConfigPath() string {
	return filepath.Join("config", "config.yaml")
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	var c Config
	_ = newDefaultViper().Unmarshal(&c)
	return &c
}

// WriteFile serialises cfg as YAML at path.
func WriteFile(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("cfg must not be nil")
	}
	if path == "" {
		return fmt.Errorf("path must not be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir failed: %w", err)
	}

	payload := map[string]any{
		"app": map[string]any{
			"name":      cfg.App.Name,
			"log_level": cfg.App.LogLevel,
			"log_path":  cfg.App.LogPath,
		},
		"server": map[string]any{
			"listen_addr": cfg.Server.ListenAddr,
		},
		"storage": map[string]any{
			"driver":  cfg.Storage.Driver,
			"db_path": cfg.Storage.DBPath,
			"dsn":     cfg.Storage.DSN,
		},
		"matching": map[string]any{
			"min_score":         cfg.Matching.MinScore,
			"max_suggestions":   cfg.Matching.MaxSuggestions,
			"exclude_connected": cfg.Matching.ExcludeConnected,
		},
		"streak": map[string]any{
			"window_days":     cfg.Streak.WindowDays,
			"bonus_threshold": cfg.Streak.BonusThreshold,
			"bonus_points":    cfg.Streak.BonusPoints,
		},
		"index": map[string]any{
			"enabled":        cfg.Index.Enabled,
			"shortlist_size": cfg.Index.ShortlistSize,
		},
	}

	b, err := yaml.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal config failed: %w", err)
	}

	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config failed: %w", err)
	}
	return nil
}

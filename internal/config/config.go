// Package config resolves codesignbot's runtime configuration from flags,
// CODESIGNBOT_* environment variables, an optional YAML file, and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// CODESIGNBOT_CRITIC_PROVIDER.
const EnvPrefix = "CODESIGNBOT"

// Config is the resolved configuration.
type Config struct {
	DataDir     string `mapstructure:"data_dir" validate:"required"`
	LogLevel    string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	MetricsAddr string `mapstructure:"metrics_addr"`

	Merge  MergeConfig  `mapstructure:"merge"`
	Tree   TreeConfig   `mapstructure:"tree"`
	Critic CriticConfig `mapstructure:"critic"`
}

// MergeConfig tunes the point merger.
type MergeConfig struct {
	Threshold        float64 `mapstructure:"threshold" validate:"gt=0,lte=1"`
	JaccardThreshold float64 `mapstructure:"jaccard_threshold" validate:"gt=0,lte=1"`
}

// TreeConfig tunes decision forests.
type TreeConfig struct {
	// KeyBy is "content" (connectors name note text) or "id".
	KeyBy string `mapstructure:"key_by" validate:"oneof=content id"`
	// DecisionFrame is the frame critiques read when none is given.
	DecisionFrame string `mapstructure:"decision_frame"`
}

// CriticConfig selects the language model provider.
type CriticConfig struct {
	Provider  string        `mapstructure:"provider" validate:"oneof=none openai anthropic"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens" validate:"gte=0"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// Enabled reports whether a provider is configured.
func (c CriticConfig) Enabled() bool {
	return c.Provider != "" && c.Provider != "none"
}

// SetDefaults registers every key's default on v.
func SetDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()
	v.SetDefault("data_dir", filepath.Join(home, ".codesignbot"))
	v.SetDefault("log_level", "info")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("merge.threshold", 0.6)
	v.SetDefault("merge.jaccard_threshold", 0.7)
	v.SetDefault("tree.key_by", "content")
	v.SetDefault("tree.decision_frame", "Design Decisions")
	v.SetDefault("critic.provider", "none")
	v.SetDefault("critic.model", "")
	v.SetDefault("critic.max_tokens", 1024)
	v.SetDefault("critic.timeout", 60*time.Second)
}

// Init prepares v: defaults, env binding, and the config file. An explicit
// cfgFile must exist; otherwise config.yml in the data directory or the
// working directory is read if present.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: read %s: %w", cfgFile, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(v.GetString("data_dir"))
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.Critic.Provider = strings.ToLower(strings.TrimSpace(cfg.Critic.Provider))
	cfg.DataDir = expandHome(cfg.DataDir)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Level maps LogLevel onto a charmbracelet/log level.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

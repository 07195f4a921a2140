// Package config loads repo-context settings from defaults, an optional
// YAML file, .env and REPOCTX_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	ErrInvalidDuration  = errors.New("durations must be positive")
	ErrInvalidCacheSize = errors.New("cache size must be positive")
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidLogFormat = errors.New("invalid log format")
)

const envPrefix = "REPOCTX"

// DefaultImportantFiles are offered for every fetch. The ones present in
// the snapshot join the selection automatically.
var DefaultImportantFiles = []string{
	"contexts/AppContext.tsx",
	"hooks/useTelegram.ts",
	"app/layout.tsx",
	"hooks/supabase.ts",
	"app/actions.ts",
	"app/ai_actions/actions.ts",
	"app/webhook-handlers/proxy.ts",
	"package.json",
	"tailwind.config.ts",
}

type Config struct {
	Repo      RepoConfig      `mapstructure:"repo"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Selection SelectionConfig `mapstructure:"selection"`
	Filter    FilterConfig    `mapstructure:"filter"`
	Cache     CacheConfig     `mapstructure:"cache"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type RepoConfig struct {
	URL    string `mapstructure:"url"`
	Token  string `mapstructure:"token"`
	Branch string `mapstructure:"branch"`
}

type FetchConfig struct {
	ExpectedDuration    time.Duration `mapstructure:"expected_duration"`
	ProgressInterval    time.Duration `mapstructure:"progress_interval"`
	CloneTimeout        time.Duration `mapstructure:"clone_timeout"`
	AutoTriggerCooldown time.Duration `mapstructure:"auto_trigger_cooldown"`
}

type SelectionConfig struct {
	Debounce       time.Duration `mapstructure:"debounce"`
	ImportantFiles []string      `mapstructure:"important_files"`
}

type FilterConfig struct {
	AllowedExts      []string `mapstructure:"allowed_exts"`
	ExcludedPrefixes []string `mapstructure:"excluded_prefixes"`
	MaxFileSize      string   `mapstructure:"max_file_size"`
}

type CacheConfig struct {
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

type LLMConfig struct {
	Model  string `mapstructure:"model"`
	APIKey string `mapstructure:"api_key"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads configuration. An empty configPath searches ./repo-context.yaml
// and $HOME/.config/repo-context/. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("repo-context")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.config/repo-context")
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Repo.Token == "" {
		cfg.Repo.Token = os.Getenv("GITHUB_TOKEN")
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("repo.url", "")
	v.SetDefault("repo.token", "")
	v.SetDefault("repo.branch", "")

	v.SetDefault("fetch.expected_duration", "13s")
	v.SetDefault("fetch.progress_interval", "200ms")
	v.SetDefault("fetch.clone_timeout", "2m")
	v.SetDefault("fetch.auto_trigger_cooldown", "500ms")

	v.SetDefault("selection.debounce", "300ms")
	v.SetDefault("selection.important_files", DefaultImportantFiles)

	v.SetDefault("filter.allowed_exts", []string{})
	v.SetDefault("filter.excluded_prefixes", []string{})
	v.SetDefault("filter.max_file_size", "1MB")

	v.SetDefault("cache.size", 16)
	v.SetDefault("cache.ttl", "10m")

	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.api_key", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("metrics.addr", "")
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	f := c.Fetch
	if f.ExpectedDuration <= 0 || f.ProgressInterval <= 0 || f.CloneTimeout <= 0 ||
		f.AutoTriggerCooldown <= 0 || c.Selection.Debounce < 0 || c.Cache.TTL <= 0 {
		return ErrInvalidDuration
	}
	if c.Cache.Size <= 0 {
		return ErrInvalidCacheSize
	}
	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}
	return nil
}

// NewLogger builds the process logger. Output goes to w, stderr when nil,
// so stdout stays free for command output.
func NewLogger(cfg LoggingConfig, w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, s)
	}
	return level, nil
}

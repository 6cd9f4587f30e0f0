package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Gemini   GeminiConfig   `yaml:"gemini" mapstructure:"gemini"`
	Quota    QuotaConfig    `yaml:"quota" mapstructure:"quota"`
	Scout    ScoutConfig    `yaml:"scout" mapstructure:"scout"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Outreach OutreachConfig `yaml:"outreach" mapstructure:"outreach"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	EnumerateModel string  `yaml:"enumerate_model" mapstructure:"enumerate_model"`
	SearchModel    string  `yaml:"search_model" mapstructure:"search_model"`
	ReasonModel    string  `yaml:"reason_model" mapstructure:"reason_model"`
	RateLimit      float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// QuotaConfig bounds API usage for a session.
type QuotaConfig struct {
	WarnThreshold int `yaml:"warn_threshold" mapstructure:"warn_threshold"`
	HardCap       int `yaml:"hard_cap" mapstructure:"hard_cap"`
}

// ScoutConfig paces the batch workflows.
type ScoutConfig struct {
	SearchDelayMS int `yaml:"search_delay_ms" mapstructure:"search_delay_ms"`
	EnrichDelayMS int `yaml:"enrich_delay_ms" mapstructure:"enrich_delay_ms"`
}

// SearchDelay returns the inter-area pause as a duration.
func (c ScoutConfig) SearchDelay() time.Duration {
	return time.Duration(c.SearchDelayMS) * time.Millisecond
}

// EnrichDelay returns the inter-lead pause as a duration.
func (c ScoutConfig) EnrichDelay() time.Duration {
	return time.Duration(c.EnrichDelayMS) * time.Millisecond
}

// ServerConfig holds dashboard server settings.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// OutreachConfig holds campaign settings.
type OutreachConfig struct {
	TemplatePath string `yaml:"template_path" mapstructure:"template_path"`
}

// LogConfig controls the global logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks that the configuration is usable for the given command
// mode ("hunt" or "serve"). All problems are reported at once.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "hunt", "serve":
		if c.Gemini.Key == "" {
			problems = append(problems, "gemini.key is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if mode == "serve" && c.Server.Port <= 0 {
		problems = append(problems, "server.port must be > 0")
	}
	if c.Quota.WarnThreshold < 0 || c.Quota.HardCap < 0 {
		problems = append(problems, "quota values must be >= 0")
	}
	if c.Quota.WarnThreshold > 0 && c.Quota.HardCap > 0 && c.Quota.WarnThreshold > c.Quota.HardCap {
		problems = append(problems, "quota.warn_threshold must not exceed quota.hard_cap")
	}
	if c.Scout.SearchDelayMS < 0 || c.Scout.EnrichDelayMS < 0 {
		problems = append(problems, "scout delays must be >= 0")
	}
	if c.Gemini.RateLimit < 0 {
		problems = append(problems, "gemini.rate_limit must be >= 0")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("gemini.enumerate_model", "gemini-3-flash-preview")
	v.SetDefault("gemini.search_model", "gemini-2.5-flash")
	v.SetDefault("gemini.reason_model", "gemini-3-pro-preview")
	v.SetDefault("gemini.rate_limit", 1.0)
	v.SetDefault("quota.warn_threshold", 35)
	v.SetDefault("quota.hard_cap", 50)
	v.SetDefault("scout.search_delay_ms", 1200)
	v.SetDefault("scout.enrich_delay_ms", 1000)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

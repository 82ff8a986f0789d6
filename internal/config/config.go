package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Serper     SerperConfig     `yaml:"serper" mapstructure:"serper"`
	Scrape     ScrapeConfig     `yaml:"scrape" mapstructure:"scrape"`
	Records    RecordsConfig    `yaml:"records" mapstructure:"records"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Validation ValidationConfig `yaml:"validation" mapstructure:"validation"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds Anthropic API settings for profile extraction.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// SerperConfig holds news search API settings.
type SerperConfig struct {
	Key     string  `yaml:"key" mapstructure:"key"`
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	Country string  `yaml:"country" mapstructure:"country"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
}

// ScrapeConfig configures website fetching.
type ScrapeConfig struct {
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RPS         float64 `yaml:"rps" mapstructure:"rps"`
}

// RecordsConfig configures the public patent and publication registry
// lookups.
type RecordsConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	PatentsURL string `yaml:"patents_url" mapstructure:"patents_url"`
	PubMedURL  string `yaml:"pubmed_url" mapstructure:"pubmed_url"`
	Limit      int    `yaml:"limit" mapstructure:"limit"`
}

// RetryConfig configures backoff for the external producers.
type RetryConfig struct {
	MaxAttempts    int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoff     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// PipelineConfig configures a processing run.
type PipelineConfig struct {
	Mode             string `yaml:"mode" mapstructure:"mode"`
	PilotSize        int    `yaml:"pilot_size" mapstructure:"pilot_size"`
	BatchSize        int    `yaml:"batch_size" mapstructure:"batch_size"`
	Concurrency      int    `yaml:"concurrency" mapstructure:"concurrency"`
	EnableValidation bool   `yaml:"enable_validation" mapstructure:"enable_validation"`
	NewsLimit        int    `yaml:"news_limit" mapstructure:"news_limit"`
	FounderNewsLimit int    `yaml:"founder_news_limit" mapstructure:"founder_news_limit"`
}

// ValidationConfig tunes the admit/reject gate.
type ValidationConfig struct {
	Thresholds      map[string]float64 `yaml:"thresholds" mapstructure:"thresholds"`
	MaxErrors       int                `yaml:"max_errors" mapstructure:"max_errors"`
	MinCompanyScore float64            `yaml:"min_company_score" mapstructure:"min_company_score"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BIGAWARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("serper.base_url", "https://google.serper.dev")
	v.SetDefault("serper.country", "in")
	v.SetDefault("serper.rps", 2.0)
	v.SetDefault("scrape.user_agent", "bigaward-cli/1.0")
	v.SetDefault("scrape.timeout_secs", 30)
	v.SetDefault("scrape.max_retries", 3)
	v.SetDefault("scrape.rps", 1.0)
	v.SetDefault("records.enabled", true)
	v.SetDefault("records.patents_url", "https://patentscope.wipo.int/search/en/result.jsf")
	v.SetDefault("records.pubmed_url", "https://api.ncbi.nlm.nih.gov/lit/ctxp/v1/pubmed/")
	v.SetDefault("records.limit", 10)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 10000)
	v.SetDefault("pipeline.mode", "pilot")
	v.SetDefault("pipeline.pilot_size", 10)
	v.SetDefault("pipeline.batch_size", 50)
	v.SetDefault("pipeline.concurrency", 1)
	v.SetDefault("pipeline.enable_validation", true)
	v.SetDefault("pipeline.news_limit", 10)
	v.SetDefault("pipeline.founder_news_limit", 3)
	v.SetDefault("validation.thresholds", map[string]float64{
		"company":     0.6,
		"person":      0.8,
		"patent":      0.7,
		"publication": 0.7,
		"product":     0.8,
		"news":        0.9,
		"funding":     0.7,
	})
	v.SetDefault("validation.max_errors", 20)
	v.SetDefault("validation.min_company_score", 0.3)

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

// Validate checks the settings the given command mode cannot proceed
// without. Modes: "run", "serve", "store".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for postgres")
		}
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}

	switch mode {
	case "store":
	case "run":
		if c.Pipeline.Mode != "pilot" && c.Pipeline.Mode != "production" {
			problems = append(problems, "pipeline.mode must be pilot or production")
		}
		if c.Pipeline.Concurrency < 1 || c.Pipeline.Concurrency > 32 {
			problems = append(problems, "pipeline.concurrency must be between 1 and 32")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	for kind, th := range c.Validation.Thresholds {
		if th < 0 || th > 1 {
			problems = append(problems, "validation.thresholds."+kind+" must be within [0, 1]")
		}
	}
	if c.Validation.MinCompanyScore < 0 || c.Validation.MinCompanyScore > 1 {
		problems = append(problems, "validation.min_company_score must be within [0, 1]")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
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

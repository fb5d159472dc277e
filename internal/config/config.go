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
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Oracle  OracleConfig  `yaml:"oracle" mapstructure:"oracle"`
	Engine  EngineConfig  `yaml:"engine" mapstructure:"engine"`
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Breaker BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the record store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// OracleConfig holds document-understanding oracle settings.
type OracleConfig struct {
	Key               string  `yaml:"key" mapstructure:"key"`
	Model             string  `yaml:"model" mapstructure:"model"`
	SurveyModel       string  `yaml:"survey_model" mapstructure:"survey_model"`
	MaxTokens         int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// EngineConfig holds the reconciliation engine's recognized options.
// Unrecognized keys in the config file are ignored.
type EngineConfig struct {
	// EnableMultiSourceAnalysis turns on the oracle-backed logo and
	// document-format carrier analyses alongside local text scoring.
	EnableMultiSourceAnalysis bool `yaml:"enable_multi_source_analysis" mapstructure:"enable_multi_source_analysis"`

	// BatchSize is how many documents one wave of batch processing handles.
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`

	// CarrierOverride forces the carrier consensus, skipping identification.
	CarrierOverride string `yaml:"carrier_override" mapstructure:"carrier_override"`

	// StrictAccessFiltering makes scope-resolution failures deny candidates
	// instead of allowing the caller's own company only.
	StrictAccessFiltering bool `yaml:"strict_access_filtering" mapstructure:"strict_access_filtering"`
}

// ExtractConfig tunes the tier pipelines.
type ExtractConfig struct {
	// LargeTierConcurrency caps concurrent page-batch extractions in the
	// large tier.
	LargeTierConcurrency int `yaml:"large_tier_concurrency" mapstructure:"large_tier_concurrency"`

	// MassiveChunkPages is the page-chunk size for the massive tier.
	MassiveChunkPages int `yaml:"massive_chunk_pages" mapstructure:"massive_chunk_pages"`

	// CheckpointEvery is how many massive-tier chunks run between quality
	// checkpoints.
	CheckpointEvery int `yaml:"checkpoint_every" mapstructure:"checkpoint_every"`
}

// BreakerConfig configures the oracle circuit breaker.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
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
	v.SetEnvPrefix("SHIPRECON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "shiprecon.db")
	v.SetDefault("oracle.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("oracle.survey_model", "claude-haiku-4-5-20251001")
	v.SetDefault("oracle.max_tokens", 4096)
	v.SetDefault("oracle.requests_per_second", 2.0)
	v.SetDefault("engine.enable_multi_source_analysis", true)
	v.SetDefault("engine.batch_size", 3)
	v.SetDefault("engine.strict_access_filtering", false)
	v.SetDefault("extract.large_tier_concurrency", 3)
	v.SetDefault("extract.massive_chunk_pages", 10)
	v.SetDefault("extract.checkpoint_every", 5)
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.reset_timeout_secs", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

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
	Source    SourceConfig    `yaml:"source" mapstructure:"source"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Scraping  ScrapingConfig  `yaml:"scraping" mapstructure:"scraping"`
	RefData   RefDataConfig   `yaml:"refdata" mapstructure:"refdata"`
	Summarize SummarizeConfig `yaml:"summarize" mapstructure:"summarize"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// SourceConfig configures the disclosure listing service.
type SourceConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// StorageConfig selects and configures the document sink.
type StorageConfig struct {
	Driver   string `yaml:"driver" mapstructure:"driver"` // "gcs" or "local"
	Bucket   string `yaml:"bucket" mapstructure:"bucket"`
	BasePath string `yaml:"base_path" mapstructure:"base_path"`
	LocalDir string `yaml:"local_dir" mapstructure:"local_dir"`
}

// ScrapingConfig configures the acquisition phase.
type ScrapingConfig struct {
	MaxWorkers           int      `yaml:"max_workers" mapstructure:"max_workers"`
	MaxRequestsPerSecond int      `yaml:"max_requests_per_second" mapstructure:"max_requests_per_second"`
	BatchSize            int      `yaml:"batch_size" mapstructure:"batch_size"`
	Layout               string   `yaml:"layout" mapstructure:"layout"` // "date", "flat", or "sectors"
	ExcludedMarkets      []string `yaml:"excluded_markets" mapstructure:"excluded_markets"`
}

// RefDataConfig locates the issuer reference table.
type RefDataConfig struct {
	CompaniesPath string `yaml:"companies_path" mapstructure:"companies_path"`
}

// SummarizeConfig configures text extraction and the generative stage.
type SummarizeConfig struct {
	Model         string `yaml:"model" mapstructure:"model"`
	MaxWorkers    int    `yaml:"max_workers" mapstructure:"max_workers"`
	Extractor     string `yaml:"extractor" mapstructure:"extractor"` // "pdf" or "pdftotext"
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MaxRetries    int    `yaml:"max_retries" mapstructure:"max_retries"`
	BackoffSecs   int    `yaml:"backoff_secs" mapstructure:"backoff_secs"`
}

// ServerConfig configures the HTTP trigger endpoint.
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
	v.AddConfigPath("./config")

	// Environment
	v.SetEnvPrefix("DISCLOSURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.base_url", "https://www.release.tdnet.info/inbs")
	v.SetDefault("source.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("source.timeout_secs", 10)
	v.SetDefault("storage.driver", "gcs")
	// Empty default so the env override binds through Unmarshal.
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.base_path", "tdnet-analyzer")
	v.SetDefault("storage.local_dir", "downloads")
	v.SetDefault("scraping.max_workers", 5)
	v.SetDefault("scraping.max_requests_per_second", 5)
	v.SetDefault("scraping.batch_size", 50)
	v.SetDefault("scraping.layout", "date")
	v.SetDefault("refdata.companies_path", "inputs/companies.csv")
	v.SetDefault("summarize.model", "gemini-2.0-flash")
	v.SetDefault("summarize.max_workers", 10)
	v.SetDefault("summarize.extractor", "pdf")
	v.SetDefault("summarize.pdftotext_path", "pdftotext")
	v.SetDefault("summarize.max_retries", 5)
	v.SetDefault("summarize.backoff_secs", 2)
	v.SetDefault("server.port", 8080)
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

// Validate checks settings that must be present before a run starts.
// Violations abort the process.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "gcs":
		if c.Storage.Bucket == "" {
			return eris.New("config: storage.bucket is required for the gcs driver")
		}
	case "local":
		if c.Storage.LocalDir == "" {
			return eris.New("config: storage.local_dir is required for the local driver")
		}
	default:
		return eris.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Scraping.Layout {
	case "date", "flat", "sectors":
	default:
		return eris.Errorf("config: unknown layout %q", c.Scraping.Layout)
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

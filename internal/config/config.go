// Package config loads CLI configuration and builds the extraction options.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct"
	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/rows"
	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/template"
)

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig         `yaml:"log" mapstructure:"log"`
	Extract   ExtractConfig     `yaml:"extract" mapstructure:"extract"`
	Batch     BatchConfig       `yaml:"batch" mapstructure:"batch"`
	Templates []template.Preset `yaml:"templates" mapstructure:"templates"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ExtractConfig configures the per-file pipeline.
type ExtractConfig struct {
	Locale              string  `yaml:"locale" mapstructure:"locale"`
	KeywordFile         string  `yaml:"keyword_file" mapstructure:"keyword_file"`
	Template            string  `yaml:"template" mapstructure:"template"`
	Sheet               string  `yaml:"sheet" mapstructure:"sheet"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
	HeaderScanRows      int     `yaml:"header_scan_rows" mapstructure:"header_scan_rows"`
	RowTolerance        int     `yaml:"row_tolerance" mapstructure:"row_tolerance"`
	MagnitudeCorrection bool    `yaml:"magnitude_correction" mapstructure:"magnitude_correction"`
	MagnitudeTarget     string  `yaml:"magnitude_target" mapstructure:"magnitude_target"`
	ImageColumn         string  `yaml:"image_column" mapstructure:"image_column"`
	VerifyWorkers       int     `yaml:"verify_workers" mapstructure:"verify_workers"`
}

// BatchConfig configures multi-file runs.
type BatchConfig struct {
	Workers         int `yaml:"workers" mapstructure:"workers"`
	FileTimeoutSecs int `yaml:"file_timeout_secs" mapstructure:"file_timeout_secs"`
}

// Load reads configuration from path, or from ./config.yaml when path is
// empty, with OFFERSTRUCT_* environment variables taking precedence.
// A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("OFFERSTRUCT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("extract.locale", template.DefaultLocale)
	v.SetDefault("extract.keyword_file", "")
	v.SetDefault("extract.template", template.AutoName)
	v.SetDefault("extract.sheet", "")
	v.SetDefault("extract.confidence_threshold", 0.5)
	v.SetDefault("extract.header_scan_rows", template.DefaultHeaderScanRows)
	v.SetDefault("extract.row_tolerance", 2)
	v.SetDefault("extract.magnitude_correction", true)
	v.SetDefault("extract.magnitude_target", string(rows.TargetQuantity))
	v.SetDefault("extract.image_column", "")
	v.SetDefault("extract.verify_workers", 0)
	v.SetDefault("batch.workers", 4)
	v.SetDefault("batch.file_timeout_secs", 120)

	// Read config file (optional unless named)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// ExtractOptions converts the configuration into pipeline options. The
// keyword file, if any, is read here.
func (c *Config) ExtractOptions() (offerstruct.Options, error) {
	e := c.Extract
	opts := offerstruct.DefaultOptions()
	opts.Sheet = e.Sheet
	opts.Template = e.Template
	opts.Presets = c.Templates
	opts.Locale = e.Locale
	opts.HeaderScanRows = e.HeaderScanRows
	opts.ConfidenceThreshold = e.ConfidenceThreshold
	opts.RowTolerance = e.RowTolerance
	opts.VerifyWorkers = e.VerifyWorkers
	correct := e.MagnitudeCorrection
	opts.MagnitudeCorrection = &correct

	target, err := rows.ParseMagnitudeTarget(e.MagnitudeTarget)
	if err != nil {
		return opts, eris.Wrap(err, "config: extract.magnitude_target")
	}
	opts.MagnitudeTarget = target

	if col := strings.TrimSpace(e.ImageColumn); col != "" {
		n, err := excelize.ColumnNameToNumber(col)
		if err != nil {
			return opts, eris.Wrapf(err, "config: extract.image_column %q", col)
		}
		opts.ImageColumn = n
	}

	if e.KeywordFile != "" {
		kw, err := template.LoadKeywordFile(e.KeywordFile)
		if err != nil {
			return opts, eris.Wrap(err, "config: extract.keyword_file")
		}
		opts.Keywords = kw
	}
	return opts, nil
}

// BatchOptions converts the batch section.
func (c *Config) BatchOptions() offerstruct.BatchOptions {
	return offerstruct.BatchOptions{
		Workers:     c.Batch.Workers,
		FileTimeout: time.Duration(c.Batch.FileTimeoutSecs) * time.Second,
	}
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

package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"bulbank-notification-parser/internal/details"
	"bulbank-notification-parser/internal/locator"
	"bulbank-notification-parser/internal/parsers"
	"bulbank-notification-parser/internal/processor"
	"bulbank-notification-parser/internal/reporter"
	"bulbank-notification-parser/internal/source"
	"bulbank-notification-parser/internal/vocabulary"
	"bulbank-notification-parser/pkg/errors"
	"bulbank-notification-parser/pkg/logger"
)

// EnvPrefix is the prefix of environment variables read by viper
const EnvPrefix = "BANKMAIL"

// AppConfig is the resolved configuration shared by all commands
type AppConfig struct {
	LogLevel  string
	LogFormat string
	LogFile   string

	Timezone       string
	Charset        string
	VocabularyFile string

	Dir            string
	Concurrency    int
	ResolveDetails bool
	MaxErrors      int
	RateLimit      float64
	RateBurst      int
	CacheTTL       time.Duration

	DB           string
	OutputFormat string
	OutputFile   string
	Listen       string
}

// DefaultConcurrency is one worker per CPU
func DefaultConcurrency() int {
	return runtime.NumCPU()
}

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "text")
	v.SetDefault("log-file", "")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("charset", string(locator.CharsetAuto))
	v.SetDefault("vocabulary-file", "")
	v.SetDefault("dir", "")
	v.SetDefault("concurrency", DefaultConcurrency())
	v.SetDefault("resolve-details", true)
	v.SetDefault("max-errors", 0)
	v.SetDefault("rate-limit", 0.0)
	v.SetDefault("rate-burst", 1)
	v.SetDefault("cache-ttl", time.Duration(0))
	v.SetDefault("db", "")
	v.SetDefault("output-format", "console")
	v.SetDefault("output-file", "")
	v.SetDefault("listen", ":8080")
}

// ConfigureEnv makes every key readable as BANKMAIL_<KEY> with dashes as underscores
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// LoadDotEnv loads a .env file into the process environment. A missing file
// is not an error unless it was named explicitly.
func LoadDotEnv(path string, explicit bool) error {
	if _, err := os.Stat(path); os.IsNotExist(err) && !explicit {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "env-file", path, err)
	}
	return nil
}

// Load reads the configuration from viper and validates it
func Load(v *viper.Viper) (*AppConfig, error) {
	c := &AppConfig{
		LogLevel:       v.GetString("log-level"),
		LogFormat:      v.GetString("log-format"),
		LogFile:        v.GetString("log-file"),
		Timezone:       v.GetString("timezone"),
		Charset:        strings.ToLower(v.GetString("charset")),
		VocabularyFile: v.GetString("vocabulary-file"),
		Dir:            v.GetString("dir"),
		Concurrency:    v.GetInt("concurrency"),
		ResolveDetails: v.GetBool("resolve-details"),
		MaxErrors:      v.GetInt("max-errors"),
		RateLimit:      v.GetFloat64("rate-limit"),
		RateBurst:      v.GetInt("rate-burst"),
		CacheTTL:       v.GetDuration("cache-ttl"),
		DB:             v.GetString("db"),
		OutputFormat:   v.GetString("output-format"),
		OutputFile:     v.GetString("output-file"),
		Listen:         v.GetString("listen"),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the settings that do not depend on the command being run
func (c *AppConfig) Validate() error {
	if err := c.LoggerConfig().Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "log-level", c.LogLevel, err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "timezone", c.Timezone, err)
	}
	if !locator.Charset(c.Charset).IsValid() {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "charset", c.Charset, nil).
			WithSuggestion("use auto, utf-8 or windows-1251")
	}
	if c.Concurrency <= 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "concurrency", c.Concurrency, nil)
	}
	if c.MaxErrors < 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "max-errors", c.MaxErrors, nil)
	}
	if c.RateLimit < 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "rate-limit", c.RateLimit, nil)
	}
	if c.CacheTTL < 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "cache-ttl", c.CacheTTL, nil)
	}
	if !reporter.OutputFormat(c.OutputFormat).IsValid() {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "output-format", c.OutputFormat, nil).
			WithSuggestion("valid formats: console, json, csv")
	}
	return nil
}

// LoggerConfig converts the log settings
func (c *AppConfig) LoggerConfig() *logger.Config {
	config := logger.DefaultConfig()
	config.Level = logger.Level(strings.ToLower(c.LogLevel))
	config.Format = logger.Format(strings.ToLower(c.LogFormat))
	if c.LogFile != "" {
		config.Output = logger.FileOutput
		config.File = c.LogFile
	}
	return config
}

// CreateVocabulary returns the built-in vocabulary or the one in VocabularyFile
func CreateVocabulary(c *AppConfig) (*vocabulary.Vocabulary, error) {
	if c.VocabularyFile == "" {
		return vocabulary.Default(), nil
	}
	vocab, err := vocabulary.LoadFile(c.VocabularyFile)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "vocabulary-file", c.VocabularyFile, err)
	}
	return vocab, nil
}

// CreateParserConfig creates the notification parser configuration
func CreateParserConfig(c *AppConfig) (*parsers.NotificationParserConfig, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "timezone", c.Timezone, err)
	}

	config := parsers.DefaultNotificationParserConfig()
	config.Location = loc
	config.Charset = locator.Charset(c.Charset)
	return config, nil
}

// CreateProcessor wires the parser, the details registry and the processor
func CreateProcessor(c *AppConfig) (*processor.Processor, error) {
	vocab, err := CreateVocabulary(c)
	if err != nil {
		return nil, err
	}

	parserConfig, err := CreateParserConfig(c)
	if err != nil {
		return nil, err
	}
	parser, err := parsers.NewNotificationParser(parserConfig, vocab)
	if err != nil {
		return nil, err
	}

	var registry *details.Registry
	if c.ResolveDetails {
		if registry, err = details.NewDefaultRegistry(vocab.Types()); err != nil {
			return nil, err
		}
	}

	config := processor.DefaultConfig()
	config.Concurrency = c.Concurrency
	config.ResolveDetails = c.ResolveDetails
	config.MaxErrors = c.MaxErrors
	return processor.New(parser, registry, config)
}

// CreateProvider opens the document directory and applies the cache and
// rate limit decorators when they are configured
func CreateProvider(c *AppConfig) (source.Provider, error) {
	if c.Dir == "" {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, "dir", nil, nil).
			WithSuggestion("pass --dir or set BANKMAIL_DIR")
	}

	dir, err := source.NewDirectoryProvider(c.Dir)
	if err != nil {
		return nil, err
	}

	var provider source.Provider = dir
	if c.CacheTTL > 0 {
		provider = source.NewCachedProvider(provider, c.CacheTTL)
	}
	if c.RateLimit > 0 {
		provider = source.NewRateLimitedProvider(provider, c.RateLimit, c.RateBurst)
	}
	return provider, nil
}

// CreateReportConfig creates a report configuration for the specified output format
func CreateReportConfig(format string) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()

	switch format {
	case "json":
		config.Format = reporter.FormatJSON
		config.IncludeRawLines = true
	case "csv":
		config.Format = reporter.FormatCSV
		config.CSVHeaders = true
		config.CSVDelimiter = ','
	default:
		config.Format = reporter.FormatConsole
	}

	return config
}

// String renders the configuration for verbose output
func (c *AppConfig) String() string {
	return fmt.Sprintf("dir=%s db=%s format=%s concurrency=%d details=%t charset=%s timezone=%s",
		c.Dir, c.DB, c.OutputFormat, c.Concurrency, c.ResolveDetails, c.Charset, c.Timezone)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"bulbank-notification-parser/internal/locator"
	"bulbank-notification-parser/internal/reporter"
	"bulbank-notification-parser/internal/source"
	"bulbank-notification-parser/pkg/errors"
	"bulbank-notification-parser/pkg/logger"
)

const documentsDir = "../../../testdata/documents"

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load(newViper())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if c.Charset != string(locator.CharsetAuto) {
		t.Errorf("expected auto charset, got %s", c.Charset)
	}
	if c.Timezone != "UTC" || c.OutputFormat != "console" || c.Listen != ":8080" {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if !c.ResolveDetails || c.Concurrency != DefaultConcurrency() {
		t.Errorf("unexpected processing defaults: %+v", c)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BANKMAIL_OUTPUT_FORMAT", "json")
	t.Setenv("BANKMAIL_CACHE_TTL", "5m")
	t.Setenv("BANKMAIL_RESOLVE_DETAILS", "false")

	v := newViper()
	ConfigureEnv(v)
	c, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if c.OutputFormat != "json" {
		t.Errorf("expected json output format, got %s", c.OutputFormat)
	}
	if c.CacheTTL != 5*time.Minute {
		t.Errorf("expected 5m cache ttl, got %v", c.CacheTTL)
	}
	if c.ResolveDetails {
		t.Error("expected details resolution to be disabled")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("BANKMAIL_TEST_LISTEN=:9999\n"), 0644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("BANKMAIL_TEST_LISTEN") })

	if err := LoadDotEnv(path, true); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("BANKMAIL_TEST_LISTEN"); got != ":9999" {
		t.Errorf("expected variable from env file, got %q", got)
	}

	missing := filepath.Join(dir, "missing.env")
	if err := LoadDotEnv(missing, false); err != nil {
		t.Errorf("missing default env file should be ignored, got %v", err)
	}
	if err := LoadDotEnv(missing, true); err == nil {
		t.Error("expected error for missing explicit env file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   interface{}
		setting string
	}{
		{"bad log level", "log-level", "loud", "log-level"},
		{"bad timezone", "timezone", "Mars/Olympus", "timezone"},
		{"bad charset", "charset", "latin-9", "charset"},
		{"zero concurrency", "concurrency", 0, "concurrency"},
		{"negative max errors", "max-errors", -1, "max-errors"},
		{"negative rate", "rate-limit", -2.5, "rate-limit"},
		{"bad output format", "output-format", "xml", "output-format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			appErr, ok := errors.AsAppError(err)
			if !ok {
				t.Fatalf("expected configuration error, got %v", err)
			}
			if appErr.Category != errors.CategoryConfiguration || appErr.Context["setting"] != tt.setting {
				t.Errorf("expected error for %s, got %v (context %v)", tt.setting, appErr, appErr.Context)
			}
		})
	}
}

func TestLoggerConfig(t *testing.T) {
	c := &AppConfig{LogLevel: "DEBUG", LogFormat: "json", LogFile: "/tmp/bankmail.log"}
	lc := c.LoggerConfig()

	if lc.Level != logger.DebugLevel || lc.Format != logger.JSONFormat {
		t.Errorf("unexpected logger config: %+v", lc)
	}
	if lc.Output != logger.FileOutput || lc.File != "/tmp/bankmail.log" {
		t.Errorf("expected file output, got %+v", lc)
	}
}

func TestCreateParserConfig(t *testing.T) {
	c := &AppConfig{Timezone: "Europe/Sofia", Charset: "windows-1251"}
	pc, err := CreateParserConfig(c)
	if err != nil {
		t.Fatalf("CreateParserConfig() error = %v", err)
	}
	if pc.Location.String() != "Europe/Sofia" {
		t.Errorf("expected Europe/Sofia, got %s", pc.Location)
	}
	if pc.Charset != locator.CharsetWindows1251 {
		t.Errorf("expected windows-1251, got %s", pc.Charset)
	}
	if err := pc.Validate(); err != nil {
		t.Errorf("parser config should be valid: %v", err)
	}
}

func TestCreateVocabularyFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocabulary.yaml")
	content := "version: test-1\nlabels:\n  CARD_OPERATION:\n    - Операция с карта\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write vocabulary: %v", err)
	}

	vocab, err := CreateVocabulary(&AppConfig{VocabularyFile: path})
	if err != nil {
		t.Fatalf("CreateVocabulary() error = %v", err)
	}
	if vocab.Version() != "test-1" || vocab.Len() != 1 {
		t.Errorf("unexpected vocabulary %s with %d labels", vocab.Version(), vocab.Len())
	}

	if _, err := CreateVocabulary(&AppConfig{VocabularyFile: filepath.Join(t.TempDir(), "none.yaml")}); err == nil {
		t.Error("expected error for missing vocabulary file")
	}
}

func TestCreateProcessor(t *testing.T) {
	c, err := Load(newViper())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	c.Concurrency = 2
	c.MaxErrors = 3

	proc, err := CreateProcessor(c)
	if err != nil {
		t.Fatalf("CreateProcessor() error = %v", err)
	}
	if proc.Config().Concurrency != 2 || proc.Config().MaxErrors != 3 || !proc.Config().ResolveDetails {
		t.Errorf("unexpected processor config: %+v", proc.Config())
	}
}

func TestCreateProvider(t *testing.T) {
	tests := []struct {
		name    string
		config  AppConfig
		check   func(source.Provider) bool
		wantErr bool
	}{
		{
			name:    "missing dir",
			config:  AppConfig{},
			wantErr: true,
		},
		{
			name:   "plain directory",
			config: AppConfig{Dir: documentsDir},
			check: func(p source.Provider) bool {
				_, ok := p.(*source.DirectoryProvider)
				return ok
			},
		},
		{
			name:   "cached",
			config: AppConfig{Dir: documentsDir, CacheTTL: time.Minute},
			check: func(p source.Provider) bool {
				_, ok := p.(*source.CachedProvider)
				return ok
			},
		},
		{
			name:   "rate limited over cache",
			config: AppConfig{Dir: documentsDir, CacheTTL: time.Minute, RateLimit: 10, RateBurst: 2},
			check: func(p source.Provider) bool {
				_, ok := p.(*source.RateLimitedProvider)
				return ok
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := CreateProvider(&tt.config)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateProvider() error = %v", err)
			}
			if !tt.check(p) {
				t.Errorf("unexpected provider type %T", p)
			}
		})
	}
}

func TestCreateReportConfig(t *testing.T) {
	tests := []struct {
		format string
		want   reporter.OutputFormat
	}{
		{"console", reporter.FormatConsole},
		{"json", reporter.FormatJSON},
		{"csv", reporter.FormatCSV},
		{"", reporter.FormatConsole},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			config := CreateReportConfig(tt.format)
			if config.Format != tt.want {
				t.Errorf("expected %s, got %s", tt.want, config.Format)
			}
			if err := config.Validate(); err != nil {
				t.Errorf("report config should be valid: %v", err)
			}
		})
	}
}

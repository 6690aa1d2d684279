package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

type Config struct {
	YouTubeAPIKey string `envconfig:"YOUTUBE_API_KEY"`
	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`
	GeminiModel   string `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`

	SMTPHost     string `envconfig:"SMTP_HOST" default:"smtp.gmail.com"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser     string `envconfig:"SMTP_USER"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	Recipient    string `envconfig:"RECIPIENT_EMAIL"`

	// Comma-separated channel handles or IDs, e.g. "@somecreator,UCxxxx".
	Channels string `envconfig:"CHANNELS"`
	PageSize int64  `envconfig:"PAGE_SIZE" default:"10"`

	// AlwaysLatest bypasses the dedup check and processes the newest
	// upload; RecordOnOverride controls whether that video is still
	// written to the dedup store afterwards.
	AlwaysLatest     bool `envconfig:"ALWAYS_LATEST" default:"false"`
	RecordOnOverride bool `envconfig:"RECORD_ON_OVERRIDE" default:"true"`
	TestMode         bool `envconfig:"TEST_MODE" default:"false"`

	TranscriptFallbackURL string `envconfig:"TRANSCRIPT_FALLBACK_URL"`
	DataDir               string `envconfig:"DATA_DIR" default:"data"`
	HTTPTimeoutSeconds    int    `envconfig:"HTTP_TIMEOUT_SECONDS" default:"30"`
}

func Load() (*Config, error) {
	// Env vars may be set in the shell (or the CI secret store), so a
	// missing .env file is not an error.
	_ = godotenv.Load(".env")

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.YouTubeAPIKey == "" {
		return fmt.Errorf("%w: YOUTUBE_API_KEY", ErrMissingRequired)
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingRequired)
	}
	if c.SMTPUser == "" {
		return fmt.Errorf("%w: SMTP_USER", ErrMissingRequired)
	}
	if c.SMTPPassword == "" {
		return fmt.Errorf("%w: SMTP_PASSWORD", ErrMissingRequired)
	}
	if c.Recipient == "" {
		return fmt.Errorf("%w: RECIPIENT_EMAIL", ErrMissingRequired)
	}
	if len(c.ChannelList()) == 0 {
		return fmt.Errorf("%w: CHANNELS", ErrMissingRequired)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	return nil
}

// ChannelList splits CHANNELS, dropping empty entries so a trailing comma
// does not produce a phantom channel.
func (c *Config) ChannelList() []string {
	var out []string
	for _, ch := range strings.Split(c.Channels, ",") {
		ch = strings.TrimSpace(ch)
		if ch != "" {
			out = append(out, ch)
		}
	}
	return out
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

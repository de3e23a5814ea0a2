package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LogLevels lists the accepted values of LogLevel
var LogLevels = []interface{}{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

// Config holds every setting of the podcast server
type Config struct {
	RootFolder         string         `yaml:"root_folder"`
	DownloadExtension  string         `yaml:"download_extension"`
	DatabasePath       string         `yaml:"database_path"`
	ConcurrentDownload int            `yaml:"concurrent_download"`
	MaxQueueSize       int            `yaml:"max_queue_size"`
	NumberOfTry        int            `yaml:"number_of_try"`
	DownloadSince      time.Duration  `yaml:"download_since"`
	ListenAddress      string         `yaml:"listen_address"`
	LogLevel           string         `yaml:"log_level"`
	HTTP               HTTPConfig     `yaml:"http"`
	Telegram           TelegramConfig `yaml:"telegram"`
}

// HTTPConfig configures the client used by download strategies
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	RetryMax     int           `yaml:"retry_max"`
	RetryWaitMin time.Duration `yaml:"retry_wait_min"`
	RetryWaitMax time.Duration `yaml:"retry_wait_max"`
	UserAgent    string        `yaml:"user_agent"`
}

// TelegramConfig configures the optional Telegram bot; it is disabled without a token
type TelegramConfig struct {
	BotToken     string `yaml:"bot_token"`
	APIID        int    `yaml:"api_id"`
	APIHash      string `yaml:"api_hash"`
	SessionPath  string `yaml:"session_path"`
	NotifyChatID int64  `yaml:"notify_chat_id"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		RootFolder:         "/tmp/podcast-server",
		DownloadExtension:  ".psdownload",
		DatabasePath:       "podcast-server.db",
		ConcurrentDownload: 3,
		NumberOfTry:        10,
		DownloadSince:      7 * 24 * time.Hour,
		ListenAddress:      ":8080",
		LogLevel:           "INFO",
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			RetryMax:     3,
			RetryWaitMin: time.Second,
			RetryWaitMax: 30 * time.Second,
			UserAgent:    "Podcast-Server",
		},
		Telegram: TelegramConfig{
			SessionPath: "bot_session.db",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file, the .env file
// and PODCAST_SERVER_ environment variables, in that order, then validates it
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.LoadFromFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := NewEnvValidator(EnvPrefix).Apply(cfg); err != nil {
		return nil, fmt.Errorf("environment validation failed: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFromFile overlays the YAML file at path onto c
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	c.LogLevel = strings.ToUpper(c.LogLevel)

	err := validation.ValidateStruct(c,
		validation.Field(&c.RootFolder, validation.Required),
		validation.Field(&c.DatabasePath, validation.Required),
		validation.Field(&c.ConcurrentDownload, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxQueueSize, validation.Min(0)),
		validation.Field(&c.NumberOfTry, validation.Min(0)),
		validation.Field(&c.DownloadSince, validation.Required),
		validation.Field(&c.ListenAddress, validation.Required),
		validation.Field(&c.LogLevel, validation.Required, validation.In(LogLevels...)),
		validation.Field(&c.DownloadExtension, validation.By(temporaryExtension)),
	)
	if err != nil {
		return err
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	if err := c.Telegram.Validate(); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	return nil
}

// Validate checks the HTTP client settings
func (h HTTPConfig) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.Timeout, validation.Required),
		validation.Field(&h.RetryMax, validation.Min(0)),
		validation.Field(&h.RetryWaitMax, validation.By(func(value interface{}) error {
			if h.RetryWaitMax < h.RetryWaitMin {
				return errors.New("must not be lower than retry_wait_min")
			}
			return nil
		})),
	)
}

// Validate checks the credentials when the bot is enabled
func (t TelegramConfig) Validate() error {
	if !t.Enabled() {
		return nil
	}
	return validation.ValidateStruct(&t,
		validation.Field(&t.APIID, validation.Required, validation.Min(1)),
		validation.Field(&t.APIHash, validation.Required),
		validation.Field(&t.SessionPath, validation.Required),
	)
}

// Enabled reports whether a bot token is configured
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != ""
}

func temporaryExtension(value interface{}) error {
	ext, _ := value.(string)
	if ext == "" {
		return nil
	}
	if !strings.HasPrefix(ext, ".") {
		return errors.New("must start with a dot")
	}
	if strings.ContainsAny(ext, `/\*`) {
		return errors.New("must not contain path separators or wildcards")
	}
	return nil
}

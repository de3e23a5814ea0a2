package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvPrefix prefixes every environment variable read by the server
const EnvPrefix = "PODCAST_SERVER_"

// EnvValidator reads and validates environment overrides
type EnvValidator struct {
	prefix string
	errors []string
}

// NewEnvValidator creates a new environment validator instance
func NewEnvValidator(prefix string) *EnvValidator {
	return &EnvValidator{prefix: prefix}
}

// Apply overlays every set variable onto cfg and reports all malformed values at once
func (e *EnvValidator) Apply(cfg *Config) error {
	e.errors = nil

	e.str("ROOT_FOLDER", &cfg.RootFolder)
	e.str("DOWNLOAD_EXTENSION", &cfg.DownloadExtension)
	e.str("DATABASE_PATH", &cfg.DatabasePath)
	e.integer("CONCURRENT_DOWNLOAD", &cfg.ConcurrentDownload)
	e.integer("MAX_QUEUE_SIZE", &cfg.MaxQueueSize)
	e.integer("NUMBER_OF_TRY", &cfg.NumberOfTry)
	e.duration("DOWNLOAD_SINCE", &cfg.DownloadSince)
	e.str("LISTEN_ADDRESS", &cfg.ListenAddress)
	e.str("LOG_LEVEL", &cfg.LogLevel)

	e.duration("HTTP_TIMEOUT", &cfg.HTTP.Timeout)
	e.integer("HTTP_RETRY_MAX", &cfg.HTTP.RetryMax)
	e.duration("HTTP_RETRY_WAIT_MIN", &cfg.HTTP.RetryWaitMin)
	e.duration("HTTP_RETRY_WAIT_MAX", &cfg.HTTP.RetryWaitMax)
	e.str("HTTP_USER_AGENT", &cfg.HTTP.UserAgent)

	e.str("BOT_TOKEN", &cfg.Telegram.BotToken)
	e.integer("API_ID", &cfg.Telegram.APIID)
	e.str("API_HASH", &cfg.Telegram.APIHash)
	e.str("SESSION_PATH", &cfg.Telegram.SessionPath)
	e.int64("NOTIFY_CHAT_ID", &cfg.Telegram.NotifyChatID)

	if len(e.errors) > 0 {
		return fmt.Errorf("invalid environment variables: %v", e.errors)
	}
	return nil
}

// lookup returns the value of the prefixed variable, if set and not empty
func (e *EnvValidator) lookup(name string) (string, bool) {
	value, ok := os.LookupEnv(e.prefix + name)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

func (e *EnvValidator) str(name string, dst *string) {
	if value, ok := e.lookup(name); ok {
		*dst = value
	}
}

func (e *EnvValidator) integer(name string, dst *int) {
	value, ok := e.lookup(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		e.errors = append(e.errors, fmt.Sprintf("%s%s must be a valid integer, got: %s", e.prefix, name, value))
		return
	}
	*dst = n
}

func (e *EnvValidator) int64(name string, dst *int64) {
	value, ok := e.lookup(name)
	if !ok {
		return
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		e.errors = append(e.errors, fmt.Sprintf("%s%s must be a valid integer, got: %s", e.prefix, name, value))
		return
	}
	*dst = n
}

func (e *EnvValidator) duration(name string, dst *time.Duration) {
	value, ok := e.lookup(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		e.errors = append(e.errors, fmt.Sprintf("%s%s must be a valid duration, got: %s", e.prefix, name, value))
		return
	}
	*dst = d
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration should be valid: %v", err)
	}
	if cfg.DownloadExtension != ".psdownload" {
		t.Errorf("Expected default extension .psdownload, got %s", cfg.DownloadExtension)
	}
	if cfg.Telegram.Enabled() {
		t.Error("Telegram should be disabled without a token")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "lower case log level", mutate: func(c *Config) { c.LogLevel = "debug" }},
		{name: "unknown log level", mutate: func(c *Config) { c.LogLevel = "VERBOSE" }, expectError: true},
		{name: "empty root folder", mutate: func(c *Config) { c.RootFolder = "" }, expectError: true},
		{name: "zero parallel downloads", mutate: func(c *Config) { c.ConcurrentDownload = 0 }, expectError: true},
		{name: "negative retries", mutate: func(c *Config) { c.NumberOfTry = -1 }, expectError: true},
		{name: "extension without dot", mutate: func(c *Config) { c.DownloadExtension = "part" }, expectError: true},
		{name: "extension with separator", mutate: func(c *Config) { c.DownloadExtension = ".a/b" }, expectError: true},
		{name: "empty extension", mutate: func(c *Config) { c.DownloadExtension = "" }},
		{name: "retry wait inverted", mutate: func(c *Config) {
			c.HTTP.RetryWaitMin = time.Minute
			c.HTTP.RetryWaitMax = time.Second
		}, expectError: true},
		{name: "telegram without credentials", mutate: func(c *Config) { c.Telegram.BotToken = "token" }, expectError: true},
		{name: "telegram with credentials", mutate: func(c *Config) {
			c.Telegram.BotToken = "token"
			c.Telegram.APIID = 12345
			c.Telegram.APIHash = "abcdef"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.expectError && err == nil {
				t.Error("Expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
root_folder: /data/podcasts
concurrent_download: 5
download_since: 48h
http:
  timeout: 10s
  user_agent: test-agent
telegram:
  notify_chat_id: -42
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := cfg.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.RootFolder != "/data/podcasts" {
		t.Errorf("Expected root folder /data/podcasts, got %s", cfg.RootFolder)
	}
	if cfg.ConcurrentDownload != 5 {
		t.Errorf("Expected 5 parallel downloads, got %d", cfg.ConcurrentDownload)
	}
	if cfg.DownloadSince != 48*time.Hour {
		t.Errorf("Expected 48h window, got %v", cfg.DownloadSince)
	}
	if cfg.HTTP.Timeout != 10*time.Second || cfg.HTTP.UserAgent != "test-agent" {
		t.Errorf("Unexpected http section: %+v", cfg.HTTP)
	}
	if cfg.Telegram.NotifyChatID != -42 {
		t.Errorf("Expected notify chat -42, got %d", cfg.Telegram.NotifyChatID)
	}
	// untouched keys keep their defaults
	if cfg.DownloadExtension != ".psdownload" {
		t.Errorf("Expected default extension to survive, got %s", cfg.DownloadExtension)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	cfg := Default()
	if err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for a missing file")
	}

	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("concurrent_download: [1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := cfg.LoadFromFile(path); err == nil {
		t.Error("Expected error for malformed yaml")
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		envVars     map[string]string
		expectError bool
		errorMsg    string
		check       func(t *testing.T, c *Config)
	}{
		{
			name: "defaults only",
			check: func(t *testing.T, c *Config) {
				if c.ConcurrentDownload != 3 {
					t.Errorf("Expected 3 parallel downloads, got %d", c.ConcurrentDownload)
				}
			},
		},
		{
			name: "environment overrides file",
			file: "concurrent_download: 5\nlog_level: warn\n",
			envVars: map[string]string{
				"PODCAST_SERVER_CONCURRENT_DOWNLOAD": "8",
				"PODCAST_SERVER_HTTP_TIMEOUT":        "5s",
			},
			check: func(t *testing.T, c *Config) {
				if c.ConcurrentDownload != 8 {
					t.Errorf("Expected 8 parallel downloads, got %d", c.ConcurrentDownload)
				}
				if c.LogLevel != "WARN" {
					t.Errorf("Expected WARN, got %s", c.LogLevel)
				}
				if c.HTTP.Timeout != 5*time.Second {
					t.Errorf("Expected 5s timeout, got %v", c.HTTP.Timeout)
				}
			},
		},
		{
			name: "telegram from environment",
			envVars: map[string]string{
				"PODCAST_SERVER_BOT_TOKEN":      "123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11",
				"PODCAST_SERVER_API_ID":         "12345",
				"PODCAST_SERVER_API_HASH":       "abcdef123456",
				"PODCAST_SERVER_NOTIFY_CHAT_ID": "-100",
			},
			check: func(t *testing.T, c *Config) {
				if !c.Telegram.Enabled() {
					t.Error("Expected telegram to be enabled")
				}
				if c.Telegram.APIID != 12345 || c.Telegram.NotifyChatID != -100 {
					t.Errorf("Unexpected telegram section: %+v", c.Telegram)
				}
			},
		},
		{
			name: "invalid integer",
			envVars: map[string]string{
				"PODCAST_SERVER_API_ID": "not_a_number",
			},
			expectError: true,
			errorMsg:    "environment validation failed",
		},
		{
			name: "invalid duration",
			envVars: map[string]string{
				"PODCAST_SERVER_DOWNLOAD_SINCE": "a week",
			},
			expectError: true,
			errorMsg:    "environment validation failed",
		},
		{
			name: "bot token without credentials",
			envVars: map[string]string{
				"PODCAST_SERVER_BOT_TOKEN": "token",
			},
			expectError: true,
			errorMsg:    "invalid configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			path := ""
			if tt.file != "" {
				path = filepath.Join(t.TempDir(), "config.yaml")
				if err := os.WriteFile(path, []byte(tt.file), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			cfg, err := Load(path)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
					return
				}
				if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error message to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestEnvValidatorCollectsAllErrors(t *testing.T) {
	t.Setenv("TEST_CONCURRENT_DOWNLOAD", "many")
	t.Setenv("TEST_HTTP_RETRY_WAIT_MIN", "soon")
	t.Setenv("TEST_ROOT_FOLDER", "/srv")

	cfg := Default()
	err := NewEnvValidator("TEST_").Apply(cfg)
	if err == nil {
		t.Fatal("Expected error but got none")
	}
	for _, name := range []string{"TEST_CONCURRENT_DOWNLOAD", "TEST_HTTP_RETRY_WAIT_MIN"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("Expected error to mention %s, got %v", name, err)
		}
	}
	if cfg.RootFolder != "/srv" {
		t.Errorf("Expected valid variables to be applied, got %s", cfg.RootFolder)
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level       string
		expectError bool
	}{
		{level: "DEBUG"},
		{level: "info"},
		{level: ""},
		{level: "WARN"},
		{level: "ERROR"},
		{level: "TRACE", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := NewLogger(tt.level)
			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			if logger == nil {
				t.Error("Expected a logger")
			}
		})
	}
}

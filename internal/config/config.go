package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration, loaded from YAML with
// environment overrides for deploy-time values.
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	Whisper struct {
		Model   string `yaml:"model"`
		Device  string `yaml:"device"`
		Threads int    `yaml:"threads"`
	} `yaml:"whisper"`

	Storage struct {
		UploadDir     string `yaml:"upload_dir"`
		TranscriptDir string `yaml:"transcript_dir"`
		WebhookDir    string `yaml:"webhook_dir"`
		WatchDir      string `yaml:"watch_dir"`
		Database      string `yaml:"database"`
	} `yaml:"storage"`

	Sheets struct {
		CredentialsFile     string `yaml:"credentials_file"`
		TranscriptSheetID   string `yaml:"transcript_sheet_id"`
		TranscriptWorksheet string `yaml:"transcript_worksheet"`
		VideoAskSheetID     string `yaml:"videoask_sheet_id"`
		VideoAskWorksheet   string `yaml:"videoask_worksheet"`
	} `yaml:"sheets"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	Limits struct {
		MaxFileSizeMB int `yaml:"max_file_size_mb"`
	} `yaml:"limits"`
}

// Load reads the YAML config at path and applies environment overrides.
// A missing file is not an error; defaults plus environment still yield a
// usable configuration.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if raw, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8000
	cfg.Whisper.Model = "base.en"
	cfg.Whisper.Device = "cpu"
	cfg.Whisper.Threads = 4
	cfg.Storage.UploadDir = "uploads"
	cfg.Storage.TranscriptDir = "transcripts"
	cfg.Storage.WebhookDir = "webhook_data"
	cfg.Storage.Database = "voice-intake.db"
	cfg.Sheets.CredentialsFile = "service-account.json"
	cfg.Sheets.TranscriptWorksheet = "TRANSCRIPT FINAL"
	cfg.Sheets.VideoAskWorksheet = "VideoAsk Responses"
	cfg.Cleanup.IntervalMinutes = 30
	cfg.Cleanup.MaxAgeHours = 24
	cfg.Limits.MaxFileSizeMB = 100
	return cfg
}

func (c *Config) applyEnv() {
	setString(&c.Server.Host, "HOST")
	setInt(&c.Server.Port, "PORT")
	setString(&c.Whisper.Model, "WHISPER_MODEL")
	setString(&c.Whisper.Device, "DEVICE")
	setString(&c.Storage.WatchDir, "WATCH_DIR")
	setString(&c.Sheets.CredentialsFile, "GOOGLE_SHEETS_CREDENTIALS")
	setString(&c.Sheets.TranscriptSheetID, "GOOGLE_SHEET_ID")
	setString(&c.Sheets.TranscriptWorksheet, "GSHEET_WORKSHEET_NAME")
	setString(&c.Sheets.VideoAskSheetID, "VIDEOASK_SHEET_ID")
	setString(&c.Sheets.VideoAskWorksheet, "VIDEOASK_WORKSHEET_NAME")
}

// MaterializeCredentials writes the service account key file from the
// GOOGLE_SERVICE_ACCOUNT_JSON environment variable when the file is
// absent. Hosted deployments carry the key in the environment instead of
// the filesystem.
func (c *Config) MaterializeCredentials() error {
	if _, err := os.Stat(c.Sheets.CredentialsFile); err == nil {
		return nil
	}
	raw := os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")
	if raw == "" {
		return nil
	}
	if err := os.WriteFile(c.Sheets.CredentialsFile, []byte(raw), 0600); err != nil {
		return fmt.Errorf("write credentials file: %w", err)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

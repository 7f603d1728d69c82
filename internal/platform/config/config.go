package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	ServerBase string `env:"PROCTOR_SERVER_BASE"`

	StudentID           int64  `env:"STUDENT_ID"`
	ExamID              int64  `env:"EXAM_ID"`
	ExamDate            string `env:"EXAM_DATE"`
	ExamStartTime       string `env:"EXAM_START_TIME"`
	ExamDurationMinutes int    `env:"EXAM_DURATION_MINUTES"`
	ExamTimezone        string `env:"EXAM_TIMEZONE" default:"Local"`

	STUNServers []string `env:"STUN_SERVERS" default:"stun:stun.l.google.com:19302"`

	WarningPollInterval time.Duration `env:"WARNING_POLL_INTERVAL" default:"600ms"`
	CapturePollInterval time.Duration `env:"CAPTURE_POLL_INTERVAL" default:"1200ms"`
	HTTPTimeout         time.Duration `env:"HTTP_TIMEOUT" default:"5s"`
	NegotiationTimeout  time.Duration `env:"NEGOTIATION_TIMEOUT" default:"15s"`

	CameraDevice string `env:"CAMERA_DEVICE" default:"/dev/video0"`
	CameraWidth  int    `env:"CAMERA_WIDTH" default:"640"`
	CameraHeight int    `env:"CAMERA_HEIGHT" default:"480"`
	CameraFPS    int    `env:"CAMERA_FPS" default:"15"`

	AlertTonePath  string `env:"ALERT_TONE_PATH"`
	AlarmSoundPath string `env:"ALARM_SOUND_PATH"`
	AudioPlayer    string `env:"AUDIO_PLAYER" default:"aplay"`

	NeutralLabel   string `env:"NEUTRAL_LABEL" default:"looking_forward"`
	SustainedLabel string `env:"SUSTAINED_LABEL" default:"no_face"`

	StatusAddr string `env:"STATUS_ADDR"`
	LogLevel   string `env:"LOG_LEVEL" default:"info"`
	LogFormat  string `env:"LOG_FORMAT" default:"text"`
}

// Location resolves ExamTimezone.
func (c *Config) Location() (*time.Location, error) {
	if c.ExamTimezone == "" || c.ExamTimezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.ExamTimezone)
	if err != nil {
		return nil, fmt.Errorf("EXAM_TIMEZONE: %w", err)
	}
	return loc, nil
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, &env.Options{SliceSep: ","}); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"PROCTOR_SERVER_BASE": cfg.ServerBase,
		"EXAM_DATE":           cfg.ExamDate,
		"EXAM_START_TIME":     cfg.ExamStartTime,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	u, err := url.Parse(cfg.ServerBase)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("PROCTOR_SERVER_BASE must be an absolute http(s) URL, got %q", cfg.ServerBase)
	}
	cfg.ServerBase = strings.TrimRight(cfg.ServerBase, "/")

	if cfg.StudentID <= 0 || cfg.ExamID <= 0 {
		return errors.New("STUDENT_ID and EXAM_ID must be positive")
	}
	if cfg.ExamDurationMinutes <= 0 {
		return errors.New("EXAM_DURATION_MINUTES must be positive")
	}

	for name, d := range map[string]time.Duration{
		"WARNING_POLL_INTERVAL": cfg.WarningPollInterval,
		"CAPTURE_POLL_INTERVAL": cfg.CapturePollInterval,
		"HTTP_TIMEOUT":          cfg.HTTPTimeout,
		"NEGOTIATION_TIMEOUT":   cfg.NegotiationTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	if cfg.CameraWidth <= 0 || cfg.CameraHeight <= 0 || cfg.CameraFPS <= 0 {
		return errors.New("CAMERA_WIDTH, CAMERA_HEIGHT and CAMERA_FPS must be positive")
	}

	if cfg.NeutralLabel == cfg.SustainedLabel {
		return errors.New("NEUTRAL_LABEL and SUSTAINED_LABEL must differ")
	}

	if _, err := cfg.Location(); err != nil {
		return err
	}

	return nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

type Config struct {
	// Core
	BotToken string  `env:"BOT_TOKEN,required" validate:"required"`
	OwnerIDs []int64 `env:"OWNER_IDS,required" envSeparator:"," validate:"min=1,dive,gt=0"`

	// Channel gate
	ChannelUsername string `env:"CHANNEL_USERNAME"`
	ChannelURL      string `env:"CHANNEL_URL" validate:"omitempty,url"`

	// Branding
	Developer   string   `env:"DEVELOPER"`
	Version     string   `env:"BOT_VERSION" envDefault:"1.0"`
	ShareFooter string   `env:"SHARE_FOOTER" envDefault:"\n\n~ shared via Jaseb bot"`
	MenuImages  []string `env:"MENU_IMAGES" envSeparator:"," validate:"dive,url"`

	// Storage
	DataFile    string `env:"DATA_FILE" envDefault:"data.json" validate:"required"`
	BackupDir   string `env:"BACKUP_DIR" envDefault:"backup" validate:"required"`
	DatabaseURL string `env:"DATABASE_URL"`

	// Observability
	MetricsAddr string `env:"METRICS_ADDR" validate:"omitempty,hostname_port"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
}

// Load reads an optional .env file, parses the environment and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.ChannelUsername = strings.TrimPrefix(strings.TrimSpace(cfg.ChannelUsername), "@")
	cfg.Developer = strings.TrimPrefix(strings.TrimSpace(cfg.Developer), "@")
	if cfg.ChannelURL == "" && cfg.ChannelUsername != "" {
		cfg.ChannelURL = "https://t.me/" + cfg.ChannelUsername
	}
	cfg.MenuImages = lo.Compact(lo.Map(cfg.MenuImages, func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// MainOwner is the owner that receives notifications, backups and relay sessions.
func (c *Config) MainOwner() int64 {
	return c.OwnerIDs[0]
}

func (c *Config) IsMainOwner(telegramID int64) bool {
	return lo.Contains(c.OwnerIDs, telegramID)
}

func (c *Config) OwnerIDsString() string {
	return strings.Join(lo.Map(c.OwnerIDs, func(id int64, _ int) string {
		return strconv.FormatInt(id, 10)
	}), ",")
}

// ChannelChatID is the chat identifier used for membership lookups.
func (c *Config) ChannelChatID() string {
	if c.ChannelUsername == "" {
		return ""
	}
	return "@" + c.ChannelUsername
}

// DeveloperURL is the renewal link attached to premium expiry notices.
func (c *Config) DeveloperURL() string {
	if c.Developer == "" {
		return ""
	}
	return "https://t.me/" + c.Developer
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

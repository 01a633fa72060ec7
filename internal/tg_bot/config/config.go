package config

import (
	"fmt"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Bot modes controlling what happens to plain content that carries no
// destination shortcut.
const (
	ModeAsk   = "ask"   // ask the user which list to use
	ModeInbox = "inbox" // file silently to the stored inbox default
)

// Config holds the application configuration parameters.
// Each field corresponds to an expected environment variable.
type Config struct {
	EnvLogsLevel   string `env:"LOG_LEVEL" envDefault:"info"`                      // Log level for the application (e.g., DEBUG, INFO)
	EnvLogFileName string `env:"LOG_FILE_NAME" envDefault:"trelloBot.log"`         // File's name for log
	EnvStoragePath string `env:"FILE_STORAGE_PATH" envDefault:"./data/user_setup.json"` // File path for persisted user setups
	EnvBotToken    string `env:"TOKEN_BOT"`                                        // Telegram Bot Token for authentication with the Telegram API
	EnvTrelloKey   string `env:"TRELLO_API_KEY"`                                   // Trello application key sent with every API call
	EnvBotMode     string `env:"BOT_MODE" envDefault:"ask"`                        // "ask" or "inbox", see Mode constants
}

// NewConfig initializes a new Config instance by loading environment variables
// from a bot.env file when one is present, falling back to the process
// environment. It returns an error if a required variable is missing or invalid.
func NewConfig() (*Config, error) {
	if err := godotenv.Load("bot.env"); err != nil {
		logrus.Infof("No bot.env file loaded, using process environment: %v", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.EnvBotToken == "" {
		return nil, fmt.Errorf("TOKEN_BOT must be set")
	}
	if cfg.EnvTrelloKey == "" {
		return nil, fmt.Errorf("TRELLO_API_KEY must be set")
	}
	if cfg.EnvBotMode != ModeAsk && cfg.EnvBotMode != ModeInbox {
		return nil, fmt.Errorf("BOT_MODE must be %q or %q, got %q", ModeAsk, ModeInbox, cfg.EnvBotMode)
	}
	return cfg, nil
}

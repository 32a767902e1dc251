// Package config loads settings from the environment, .env included.
package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

const (
	DefaultPrefix = "!!"
	DefaultDBPath = "rockbot.db"
)

type Config struct {
	// Token is the bot authentication token. Startup refuses to proceed
	// without it.
	Token string
	// Prefix introduces text commands.
	Prefix string
	// TextChannelID is the dedicated panel channel. Empty disables the
	// panel feature.
	TextChannelID string
	// ControlsMessageID seeds the panel message lookup; the settings
	// store takes over once a panel has been published.
	ControlsMessageID string
	DBPath            string
	StationsPath      string
	LogLevel          string
}

// Load reads .env (when present) and the process environment.
func Load(envPath string) (Config, error) {
	if envPath != "" {
		godotenv.Load(envPath)
	} else {
		godotenv.Load()
	}

	cfg := Config{
		Token:             os.Getenv("BOT_TOKEN"),
		Prefix:            getenv("PREFIX", DefaultPrefix),
		TextChannelID:     os.Getenv("DEDICATED_TEXT_ID"),
		ControlsMessageID: os.Getenv("RADIO_CONTROLS_ID"),
		DBPath:            getenv("DB_PATH", DefaultDBPath),
		StationsPath:      os.Getenv("STATIONS_PATH"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
	}

	if cfg.Token == "" {
		return Config{}, errors.New("BOT_TOKEN is not set")
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

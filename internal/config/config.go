// Package config loads server settings from the environment, with a
// .env file honored when present.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Addr is the listen address for the HTTP/websocket server.
	Addr string
	// RoomIdleTTL evicts rooms with no subscribers that have been idle
	// this long. Zero keeps every room for the process lifetime, which
	// matches the game's original behavior.
	RoomIdleTTL time.Duration
	// NormalizeTimeout bounds one link-normalization request end to end.
	NormalizeTimeout time.Duration
	// NormalizeMaxRedirects caps the redirect chain followed per link.
	NormalizeMaxRedirects int
}

func defaults() Config {
	return Config{
		Addr:                  ":8080",
		RoomIdleTTL:           0,
		NormalizeTimeout:      10 * time.Second,
		NormalizeMaxRedirects: 8,
	}
}

// Load reads MEME_BATTLE_* variables on top of the defaults. Values
// that fail to parse fall back to the default rather than aborting.
func Load() Config {
	_ = godotenv.Load()

	cfg := defaults()
	if v := os.Getenv("MEME_BATTLE_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("MEME_BATTLE_ROOM_IDLE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.RoomIdleTTL = d
		}
	}
	if v := os.Getenv("MEME_BATTLE_NORMALIZE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.NormalizeTimeout = d
		}
	}
	if v := os.Getenv("MEME_BATTLE_NORMALIZE_MAX_REDIRECTS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			cfg.NormalizeMaxRedirects = i
		}
	}
	return cfg
}

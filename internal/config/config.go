// Package config reads service settings from the environment.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"blogicum/internal/db"
)

type Config struct {
	Port        string
	Driver      db.Dialect
	DatabaseURL string
	MediaDir    string
	PageSize    int
	SessionTTL  time.Duration
	JWTSecret   []byte
	TokenTTL    time.Duration
	NATSURL     string
	// CSRFKey is 32 bytes, given as 64 hex digits in CSRF_KEY.
	CSRFKey       []byte
	SecureCookies bool
}

// Load reads .env if present, then the process environment.
func Load() (*Config, error) {
	LoadEnvFile()
	return FromEnv(os.Getenv)
}

// LoadEnvFile copies .env into the process environment when it exists.
// Variables already set win.
func LoadEnvFile() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}
}

// DatabaseFromEnv returns only the database settings, with defaults.
func DatabaseFromEnv(getenv func(string) string) (db.Dialect, string, error) {
	driver, err := db.ParseDialect(getenv("DB_DRIVER"))
	if err != nil {
		return "", "", err
	}
	dsn := getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "./data/blogicum.db"
	}
	return driver, dsn, nil
}

// FromEnv builds a Config from a lookup function, applying defaults.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	driver, dsn, err := DatabaseFromEnv(getenv)
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		Port:        get("PORT", "8080"),
		Driver:      driver,
		DatabaseURL: dsn,
		MediaDir:    get("MEDIA_DIR", "./media"),
		NATSURL:     getenv("NATS_URL"),
	}

	if cfg.PageSize, err = strconv.Atoi(get("PAGE_SIZE", "10")); err != nil || cfg.PageSize <= 0 {
		return nil, fmt.Errorf("PAGE_SIZE must be a positive integer, got %q", getenv("PAGE_SIZE"))
	}
	if cfg.SessionTTL, err = time.ParseDuration(get("SESSION_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("SESSION_TTL: %w", err)
	}
	if cfg.TokenTTL, err = time.ParseDuration(get("TOKEN_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("TOKEN_TTL: %w", err)
	}

	if secret := getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = []byte(secret)
	} else {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		cfg.JWTSecret = []byte(hex.EncodeToString(buf))
		log.Printf("config: JWT_SECRET not set, API tokens will not survive a restart")
	}

	if key := getenv("CSRF_KEY"); key != "" {
		if cfg.CSRFKey, err = hex.DecodeString(key); err != nil || len(cfg.CSRFKey) != 32 {
			return nil, fmt.Errorf("CSRF_KEY must be 64 hex digits")
		}
	} else {
		cfg.CSRFKey = make([]byte, 32)
		if _, err := rand.Read(cfg.CSRFKey); err != nil {
			return nil, err
		}
		log.Printf("config: CSRF_KEY not set, open forms will expire on restart")
	}
	if cfg.SecureCookies, err = strconv.ParseBool(get("SECURE_COOKIES", "false")); err != nil {
		return nil, fmt.Errorf("SECURE_COOKIES: %w", err)
	}
	return cfg, nil
}

package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
	flag "github.com/spf13/pflag"
)

type Config struct {
	DBURL         string
	ListenAddr    string
	JWTSecret     string
	PlayerKey     string
	FeedPageSize  int
	FeedCacheSize int
	LogLevel      string
}

// LoadConfig reads .env (if present), the environment and then flags, in
// increasing order of precedence.
func LoadConfig(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf(".env not loaded: %v", err)
	}

	cfg := Config{
		DBURL:         envOr("DB_URL", "sqlite://dancevote.db"),
		ListenAddr:    envOr("LISTEN_ADDR", ":3000"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		PlayerKey:     os.Getenv("PLAYER_KEY"),
		FeedPageSize:  envInt("FEED_PAGE_SIZE", 100),
		FeedCacheSize: envInt("FEED_CACHE_SIZE", 200),
		LogLevel:      envOr("LOG_LEVEL", "info"),
	}

	fs := flag.NewFlagSet("dancevote", flag.ContinueOnError)
	fs.StringVar(&cfg.DBURL, "db", cfg.DBURL, "database url (sqlite://path or postgres://...)")
	fs.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "address to serve the API on")
	fs.IntVar(&cfg.FeedPageSize, "page-size", cfg.FeedPageSize, "maximum entries per feed response")
	fs.IntVar(&cfg.FeedCacheSize, "cache-size", cfg.FeedCacheSize, "playlist entries kept in memory")
	fs.StringVar(&cfg.LogLevel, "log", cfg.LogLevel, "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET missing")
	}
	if cfg.PlayerKey == "" {
		return Config{}, errors.New("PLAYER_KEY missing")
	}
	if cfg.FeedPageSize <= 0 {
		return Config{}, fmt.Errorf("page size must be positive, got %d", cfg.FeedPageSize)
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warnf("%s=%q is not a number, using %d", key, v, def)
		return def
	}
	return n
}

func parseLogLevel(s string) log.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	}
	return log.INFO
}

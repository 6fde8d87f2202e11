package config

import (
	"fmt"
	"strconv"
	"strings"

	env "github.com/Netflix/go-env"
)

type Config struct {
	Port           string
	DatabaseURL    string
	BadgerPath     string
	PoolSize       int
	AllowedOrigins []string
	MaxMessageSize int64
	SendBuffer     int // per-client outbound queue
	PersistBuffer  int // pending last-drawn writes
}

// environ is the raw view of the environment. Numbers are kept as strings
// so a bad value falls back to its default instead of failing startup.
type environ struct {
	Port           string `env:"PORT,default=3000"`
	DatabaseURL    string `env:"DATABASE_URL"`
	BadgerPath     string `env:"BADGER_PATH"`
	PoolSize       string `env:"POOL_SIZE"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS,default=*"`
	MaxMessageSize string `env:"MAX_MESSAGE_SIZE"`
	SendBuffer     string `env:"CLIENT_SEND_BUFFER"`
	PersistBuffer  string `env:"PERSIST_BUFFER"`
}

const (
	defaultPort           = "3000"
	defaultPoolSize       = 75
	defaultMaxMessageSize = 512
	defaultSendBuffer     = 16
	defaultPersistBuffer  = 256
)

func Load() (Config, error) {
	var raw environ
	if _, err := env.UnmarshalFromEnviron(&raw); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}

	port := raw.Port
	if port == "" {
		port = defaultPort
	}

	cfg := Config{
		Port:           port,
		DatabaseURL:    raw.DatabaseURL,
		BadgerPath:     raw.BadgerPath,
		PoolSize:       positiveInt(raw.PoolSize, defaultPoolSize),
		AllowedOrigins: splitList(raw.AllowedOrigins),
		MaxMessageSize: int64(positiveInt(raw.MaxMessageSize, defaultMaxMessageSize)),
		SendBuffer:     positiveInt(raw.SendBuffer, defaultSendBuffer),
		PersistBuffer:  positiveInt(raw.PersistBuffer, defaultPersistBuffer),
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	return cfg, nil
}

func positiveInt(v string, fallback int) int {
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || i <= 0 {
		return fallback
	}
	return i
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

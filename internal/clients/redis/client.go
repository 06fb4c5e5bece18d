package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/licensing-crm-backend/internal/pkg/envutil"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

type Config struct {
	Addr        string
	Password    string
	DB          int
	Channel     string
	DialTimeout time.Duration
}

func ConfigFromEnv(log *logger.Logger) Config {
	return Config{
		Addr:        envutil.String("REDIS_ADDR", "", log),
		Password:    envutil.String("REDIS_PASSWORD", "", log),
		DB:          envutil.Int("REDIS_DB", 0, log),
		Channel:     envutil.String("REDIS_CHANNEL", "crm:sse", log),
		DialTimeout: envutil.Duration("REDIS_DIAL_TIMEOUT", 5*time.Second, log),
	}
}

func (c Config) Enabled() bool { return strings.TrimSpace(c.Addr) != "" }

// New dials Redis and pings it once so misconfiguration fails at startup.
func New(ctx context.Context, log *logger.Logger, cfg Config) (*goredis.Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if !cfg.Enabled() {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info("redis connected", "addr", cfg.Addr, "db", cfg.DB)
	return rdb, nil
}

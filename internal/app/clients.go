package app

import (
	"context"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/licensing-crm-backend/internal/clients/email"
	"github.com/yungbote/licensing-crm-backend/internal/clients/gcp"
	"github.com/yungbote/licensing-crm-backend/internal/clients/redis"
	"github.com/yungbote/licensing-crm-backend/internal/clients/stripe"
	"github.com/yungbote/licensing-crm-backend/internal/clients/twilio"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

// Clients holds the outbound integrations. Every field may be nil: a missing
// credential disables the feature instead of failing startup.
type Clients struct {
	Twilio twilio.Client
	Email  email.Sender
	Stripe stripe.Client
	Bucket gcp.BucketService
	Redis  *goredis.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) Clients {
	log.Info("Wiring clients...")
	var out Clients

	// Twilio
	if cfg.Twilio.Configured() {
		c, err := twilio.New(log, cfg.Twilio)
		if err != nil {
			log.Warn("twilio disabled", "error", err)
		} else {
			out.Twilio = c
		}
	} else {
		log.Warn("twilio not configured; SMS notifications will be skipped")
	}

	// Email
	if sender, err := email.NewFromEnv(log); err != nil {
		log.Warn("email disabled", "error", err)
	} else {
		out.Email = sender
		log.Info("email sender ready", "provider", sender.Provider())
	}

	// Stripe
	if cfg.Stripe.SecretKey == "" && cfg.Stripe.WebhookSecret == "" {
		log.Warn("stripe not configured; payments are recorded without payment intents")
	} else if c, err := stripe.New(log, cfg.Stripe); err != nil {
		log.Warn("stripe disabled", "error", err)
	} else {
		out.Stripe = c
	}

	// Gcs
	if cfg.Bucket.Name != "" {
		b, err := gcp.NewBucketService(ctx, log, cfg.Bucket)
		if err != nil {
			log.Warn("document bucket disabled", "error", err)
		} else {
			out.Bucket = b
		}
	} else {
		log.Warn("document bucket not configured; uploads keep metadata only")
	}

	// Redis
	if cfg.Redis.Enabled() {
		rdb, err := redis.New(ctx, log, cfg.Redis)
		if err != nil {
			log.Warn("redis disabled; using in-process cache and local SSE", "error", err)
		} else {
			out.Redis = rdb
		}
	}
	return out
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}

package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/licensing-crm-backend/internal/clients/gcp"
	"github.com/yungbote/licensing-crm-backend/internal/clients/redis"
	"github.com/yungbote/licensing-crm-backend/internal/clients/stripe"
	"github.com/yungbote/licensing-crm-backend/internal/clients/twilio"
	"github.com/yungbote/licensing-crm-backend/internal/data/db"
	httpMW "github.com/yungbote/licensing-crm-backend/internal/http/middleware"
	"github.com/yungbote/licensing-crm-backend/internal/observability"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/envutil"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
	"github.com/yungbote/licensing-crm-backend/internal/services"
)

const Version = "1.0.0"

type Config struct {
	Port     string
	Location *time.Location

	DB       db.Config
	Auth     services.AuthConfig
	Notifier services.NotifierConfig
	Leads    services.LeadServiceConfig

	PersonalSMSTo string
	Twilio        twilio.Config
	Stripe        stripe.Config
	Bucket        gcp.BucketConfig
	Redis         redis.Config
	Otel          observability.OtelConfig

	CORSOrigins       []string
	CacheMaxEntries   int
	AnalyticsCacheTTL time.Duration
	MCPCacheTTL       time.Duration
}

func LoadConfig(log *logger.Logger) (Config, error) {
	tz := envutil.String("CRM_TIMEZONE", "UTC", log)
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Warn("unknown CRM_TIMEZONE; using UTC", "timezone", tz, "error", err)
		loc = time.UTC
	}

	otelCfg := observability.OtelConfigFromEnv(log)
	otelCfg.Version = Version

	cfg := Config{
		Port:     envutil.String("PORT", "8080", log),
		Location: loc,
		DB:       db.ConfigFromEnv(log),
		Auth: services.AuthConfig{
			StaticToken:          envutil.String("MCP_AUTH_TOKEN", "", log),
			JWTSecret:            envutil.String("MCP_JWT_SECRET", "", log),
			AllowUnauthenticated: envutil.Bool("MCP_ALLOW_UNAUTHENTICATED", false, log),
		},
		Notifier: services.NotifierConfig{
			SMSTo:   envutil.List("NOTIFY_SMS_TO", nil, log),
			EmailTo: envutil.List("NOTIFY_EMAIL_TO", nil, log),
			Timeout: envutil.Duration("NOTIFY_TIMEOUT", 10*time.Second, log),
		},
		Leads: services.LeadServiceConfig{
			DefaultLicenseGoal: envutil.String("LEAD_DEFAULT_LICENSE", "", log),
			DefaultSource:      envutil.String("LEAD_DEFAULT_SOURCE", "", log),
			DefaultCohort:      envutil.String("ENROLLMENT_DEFAULT_COHORT", "", log),
			CacheTTL:           envutil.Duration("LEAD_CACHE_TTL", 30*time.Second, log),
		},
		PersonalSMSTo:     envutil.String("PERSONAL_SMS_TO", "", log),
		Twilio:            twilio.ConfigFromEnv(log),
		Stripe:            stripe.ConfigFromEnv(log),
		Bucket:            gcp.BucketConfigFromEnv(log),
		Redis:             redis.ConfigFromEnv(log),
		Otel:              otelCfg,
		CORSOrigins:       envutil.List("CORS_ALLOWED_ORIGINS", httpMW.DefaultAllowedOrigins, log),
		CacheMaxEntries:   envutil.Int("CACHE_MAX_ENTRIES", 1024, log),
		AnalyticsCacheTTL: envutil.Duration("ANALYTICS_CACHE_TTL", 30*time.Second, log),
		MCPCacheTTL:       envutil.Duration("MCP_CACHE_TTL", 15*time.Second, log),
	}

	if path := envutil.String("CRM_CONFIG_FILE", "", log); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
		log.Info("Applied config overlay", "path", path)
	}
	return cfg, nil
}

// fileConfig is the YAML overlay. Only fields present in the file override
// the environment.
type fileConfig struct {
	Notifications services.NotifierConfig `yaml:"notifications"`
	Leads         struct {
		DefaultLicenseGoal string `yaml:"default_license_goal"`
		DefaultSource      string `yaml:"default_source"`
		DefaultCohort      string `yaml:"default_cohort"`
	} `yaml:"leads"`
	Cache struct {
		MaxEntries   int           `yaml:"max_entries"`
		AnalyticsTTL time.Duration `yaml:"analytics_ttl"`
		MCPTTL       time.Duration `yaml:"mcp_ttl"`
		LeadTTL      time.Duration `yaml:"lead_ttl"`
	} `yaml:"cache"`
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	return c.applyYAML(raw)
}

func (c *Config) applyYAML(raw []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	n := fc.Notifications
	if len(n.SMSTo) > 0 {
		c.Notifier.SMSTo = n.SMSTo
	}
	if len(n.EmailTo) > 0 {
		c.Notifier.EmailTo = n.EmailTo
	}
	setString(&c.Notifier.PaidTemplate, n.PaidTemplate)
	setString(&c.Notifier.NotPaidTemplate, n.NotPaidTemplate)
	setString(&c.Notifier.PaymentTemplate, n.PaymentTemplate)
	setDuration(&c.Notifier.Timeout, n.Timeout)

	setString(&c.Leads.DefaultLicenseGoal, fc.Leads.DefaultLicenseGoal)
	setString(&c.Leads.DefaultSource, fc.Leads.DefaultSource)
	setString(&c.Leads.DefaultCohort, fc.Leads.DefaultCohort)

	if fc.Cache.MaxEntries > 0 {
		c.CacheMaxEntries = fc.Cache.MaxEntries
	}
	setDuration(&c.AnalyticsCacheTTL, fc.Cache.AnalyticsTTL)
	setDuration(&c.MCPCacheTTL, fc.Cache.MCPTTL)
	setDuration(&c.Leads.CacheTTL, fc.Cache.LeadTTL)
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

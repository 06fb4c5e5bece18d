package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yungbote/licensing-crm-backend/internal/services"
)

func TestApplyYAMLOverridesOnlyPresentFields(t *testing.T) {
	cfg := Config{
		Notifier: services.NotifierConfig{
			SMSTo:   []string{"+15550001111"},
			Timeout: 10 * time.Second,
		},
		Leads:             services.LeadServiceConfig{DefaultSource: "manual", CacheTTL: 30 * time.Second},
		CacheMaxEntries:   1024,
		AnalyticsCacheTTL: 30 * time.Second,
		MCPCacheTTL:       15 * time.Second,
	}
	raw := []byte(`
notifications:
  email_to: ["owner@example.com", "ops@example.com"]
  paid_template: "PAID {name}"
  timeout: 3s
leads:
  default_license_goal: "2-40"
cache:
  analytics_ttl: 1m
`)
	if err := cfg.applyYAML(raw); err != nil {
		t.Fatalf("applyYAML: %v", err)
	}
	if len(cfg.Notifier.SMSTo) != 1 || cfg.Notifier.SMSTo[0] != "+15550001111" {
		t.Fatalf("sms_to should be kept: %v", cfg.Notifier.SMSTo)
	}
	if len(cfg.Notifier.EmailTo) != 2 || cfg.Notifier.PaidTemplate != "PAID {name}" || cfg.Notifier.Timeout != 3*time.Second {
		t.Fatalf("notifier = %+v", cfg.Notifier)
	}
	if cfg.Leads.DefaultLicenseGoal != "2-40" || cfg.Leads.DefaultSource != "manual" || cfg.Leads.CacheTTL != 30*time.Second {
		t.Fatalf("leads = %+v", cfg.Leads)
	}
	if cfg.AnalyticsCacheTTL != time.Minute || cfg.MCPCacheTTL != 15*time.Second || cfg.CacheMaxEntries != 1024 {
		t.Fatalf("cache = %v %v %d", cfg.AnalyticsCacheTTL, cfg.MCPCacheTTL, cfg.CacheMaxEntries)
	}
}

func TestApplyFileErrors(t *testing.T) {
	var cfg Config
	if err := cfg.applyFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("notifications: [unclosed"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := cfg.applyFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

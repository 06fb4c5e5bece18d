package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/licensing-crm-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureCRMIndexes(db)
}

// EnsureCRMIndexes adds the composite indexes used by the analytics rollups.
// The statements are portable across Postgres and SQLite.
func EnsureCRMIndexes(db *gorm.DB) error {
	stmts := []struct{ name, sql string }{
		{"idx_lead_status_created", `CREATE INDEX IF NOT EXISTS idx_lead_status_created ON lead (status, created_at);`},
		{"idx_lead_source_status", `CREATE INDEX IF NOT EXISTS idx_lead_source_status ON lead (source, status);`},
		{"idx_payment_status_created", `CREATE INDEX IF NOT EXISTS idx_payment_status_created ON payment (status, created_at);`},
		{"idx_appointment_status_date", `CREATE INDEX IF NOT EXISTS idx_appointment_status_date ON appointment (status, date_time);`},
		{"idx_webhook_log_endpoint_created", `CREATE INDEX IF NOT EXISTS idx_webhook_log_endpoint_created ON webhook_log (endpoint, created_at);`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}

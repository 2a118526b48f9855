package database

import (
	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if db.Dialector.Name() == "postgres" {
		if err := createExtensions(db); err != nil {
			logger.Error("Failed to create extensions", zap.Error(err))
			return err
		}
	}

	// subscriptions first, the family tables reference it
	err := db.AutoMigrate(
		&model.Subscription{},
		&model.FamilyPlan{},
		&model.FamilyMember{},
		&model.WebhookEvent{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createCustomIndexes creates partial indexes GORM tags cannot express.
// The syntax is shared by PostgreSQL and SQLite.
func createCustomIndexes(db *gorm.DB) error {
	statements := []string{
		// one live family link per member, removed rows are history
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_family_members_active_member ON family_members (member_user_id) WHERE removed_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_family_members_active_parent ON family_members (parent_user_id) WHERE removed_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_webhook_events_unprocessed ON webhook_events (created_at) WHERE status IN ('pending', 'failed')`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// createExtensions creates required PostgreSQL extensions
func createExtensions(db *gorm.DB) error {
	return db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error
}

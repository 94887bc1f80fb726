package database

import (
	"fmt"

	"github.com/40acres/fossad/database/models"
	"gorm.io/gorm"
)

func CreateEnumRail(db *gorm.DB) error {
	return db.Exec(idempotentEnum(models.RailEnumSQL())).Error
}

func CreateEnumPayoutResult(db *gorm.DB) error {
	return db.Exec(idempotentEnum(models.PayoutResultEnumSQL())).Error
}

// idempotentEnum wraps a CREATE TYPE statement so re-running migrations on an
// already initialized database is a no-op.
func idempotentEnum(createType string) string {
	return fmt.Sprintf(`DO $$ BEGIN %s EXCEPTION WHEN duplicate_object THEN NULL; END $$;`, createType)
}

// MigrateDatabase creates the enum types and migrates all models.
func (d *Database) MigrateDatabase() error {
	if err := CreateEnumRail(d.orm); err != nil {
		return fmt.Errorf("failed to create rail enum: %w", err)
	}
	if err := CreateEnumPayoutResult(d.orm); err != nil {
		return fmt.Errorf("failed to create payout result enum: %w", err)
	}

	if err := d.orm.AutoMigrate(&models.Device{}, &models.AtmTransaction{}); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	return nil
}

// Reset drops all tables and enum types.
func (d *Database) Reset() error {
	if err := d.orm.Migrator().DropTable(&models.AtmTransaction{}, &models.Device{}); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	if err := d.orm.Exec(`DROP TYPE IF EXISTS rail_enum, payout_result_enum`).Error; err != nil {
		return fmt.Errorf("failed to drop enums: %w", err)
	}

	return nil
}

package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createPromotionRecordsTable creates the append-only promotion audit.
// The unique constraint over (content_id, from_tier, to_tier) is the
// storage-level backstop for the one-record-per-transition invariant.
func createPromotionRecordsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "002_create_promotion_records",
		Migrate: func(tx *gorm.DB) error {
			err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS promotion_records (
					id BIGSERIAL PRIMARY KEY,
					content_id VARCHAR(64) NOT NULL,
					from_tier VARCHAR(20) NOT NULL,
					to_tier VARCHAR(20) NOT NULL,
					executed_at TIMESTAMP NOT NULL,

					CONSTRAINT uq_promotion_transition UNIQUE (content_id, from_tier, to_tier)
				);
			`).Error
			if err != nil {
				return err
			}

			return tx.Exec(
				"CREATE INDEX IF NOT EXISTS idx_promotion_records_content_id ON promotion_records(content_id);",
			).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS promotion_records;").Error
		},
	}
}

package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createContentsTable creates the contents table with all indexes.
// In deployments where the content service already owns this table, the
// IF NOT EXISTS guard makes the migration a no-op.
func createContentsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "001_create_contents",
		Migrate: func(tx *gorm.DB) error {
			err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS contents (
					id VARCHAR(64) PRIMARY KEY,
					author_id VARCHAR(64) NOT NULL,
					tier VARCHAR(20) NOT NULL DEFAULT 'post',

					-- Counters (owned by the content service)
					reply_count BIGINT DEFAULT 0,
					like_count BIGINT DEFAULT 0,
					view_count BIGINT DEFAULT 0,

					-- Timestamps
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				);
			`).Error
			if err != nil {
				return err
			}

			indexes := []string{
				"CREATE INDEX IF NOT EXISTS idx_contents_tier ON contents(tier);",
				"CREATE INDEX IF NOT EXISTS idx_contents_author_id ON contents(author_id);",
				"CREATE INDEX IF NOT EXISTS idx_contents_created_at ON contents(created_at DESC);",
			}

			for _, idx := range indexes {
				if err := tx.Exec(idx).Error; err != nil {
					return err
				}
			}

			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS contents;").Error
		},
	}
}

package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createFavoritesTable creates the favorites table with its indexes.
func createFavoritesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "001_create_favorites",
		Migrate: func(tx *gorm.DB) error {
			err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS favorites (
					favorite_id BIGSERIAL PRIMARY KEY,

					offer_id VARCHAR(40) NOT NULL,
					source VARCHAR(20) NOT NULL,
					source_offer_id VARCHAR(300) NOT NULL,

					-- Offer snapshot
					title VARCHAR(500) NOT NULL,
					url TEXT NOT NULL,
					image_url TEXT,
					price_eur DECIMAL(10,2) NOT NULL,
					shipping_eur DECIMAL(10,2) NOT NULL,
					total_eur DECIMAL(10,2) NOT NULL,
					location VARCHAR(200),
					condition_text VARCHAR(200),
					is_recently_added BOOLEAN DEFAULT FALSE,
					query_type VARCHAR(20),

					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,

					-- Toggle semantics key one favorite to one listing
					CONSTRAINT uq_source_offer UNIQUE (source, source_offer_id)
				);
			`).Error
			if err != nil {
				return err
			}

			indexes := []string{
				"CREATE INDEX IF NOT EXISTS idx_favorites_offer_id ON favorites(offer_id);",
				"CREATE INDEX IF NOT EXISTS idx_favorites_total_eur ON favorites(total_eur);",
				"CREATE INDEX IF NOT EXISTS idx_favorites_created_at ON favorites(created_at DESC);",
			}

			for _, idx := range indexes {
				if err := tx.Exec(idx).Error; err != nil {
					return err
				}
			}

			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS favorites;").Error
		},
	}
}

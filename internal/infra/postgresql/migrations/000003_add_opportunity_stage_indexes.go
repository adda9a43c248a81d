package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func addOpportunityStageIndexes() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_add_opportunity_stage_indexes",
		Migrate: func(tx *gorm.DB) error {
			return execAll(tx, []string{
				`CREATE INDEX IF NOT EXISTS idx_opportunities_stage ON opportunities (stage) WHERE deleted_at IS NULL`,
				`ALTER TABLE opportunities ADD CONSTRAINT chk_opportunities_won_stage CHECK (won = (stage = 'closed_won'))`,
			})
		},
		Rollback: func(tx *gorm.DB) error {
			return execAll(tx, []string{
				`ALTER TABLE opportunities DROP CONSTRAINT IF EXISTS chk_opportunities_won_stage`,
				`DROP INDEX IF EXISTS idx_opportunities_stage`,
			})
		},
	}
}

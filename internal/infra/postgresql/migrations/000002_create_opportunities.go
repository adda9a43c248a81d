package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/opportunity-engine/internal/repository"
	"gorm.io/gorm"
)

func createOpportunitiesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_opportunities",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.OpportunityModel{}); err != nil {
				return err
			}
			return execAll(tx, []string{
				`CREATE INDEX IF NOT EXISTS idx_opportunities_organization ON opportunities (organization_id, created_at) WHERE deleted_at IS NULL`,
				`CREATE INDEX IF NOT EXISTS idx_opportunities_principal ON opportunities (principal_id) WHERE principal_id IS NOT NULL AND deleted_at IS NULL`,
				`ALTER TABLE opportunities ADD CONSTRAINT chk_opportunities_probability CHECK (probability BETWEEN 0 AND 100)`,
			})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.OpportunityModel{})
		},
	}
}

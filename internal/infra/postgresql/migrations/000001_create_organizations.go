package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/opportunity-engine/internal/repository"
	"gorm.io/gorm"
)

func createOrganizationsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_organizations",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.OrganizationModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_organizations_principal ON organizations (id) WHERE is_principal AND deleted_at IS NULL`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.OrganizationModel{})
		},
	}
}

package repository

import (
	"context"
	"errors"

	"github.com/kursadbilgin/opportunity-engine/internal/domain"
	"gorm.io/gorm"
)

// DirectoryRepository resolves display names for organizations and
// principals. It never writes.
type DirectoryRepository interface {
	OrganizationName(ctx context.Context, id string) (string, error)
	PrincipalNames(ctx context.Context, ids []string) ([]domain.NamedEntity, error)
}

type GormDirectoryRepo struct {
	db *gorm.DB
}

func NewGormDirectoryRepo(db *gorm.DB) *GormDirectoryRepo {
	return &GormDirectoryRepo{db: db}
}

func (r *GormDirectoryRepo) OrganizationName(ctx context.Context, id string) (string, error) {
	var model OrganizationModel
	err := r.db.WithContext(ctx).
		Select("id", "name").
		First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return model.Name, nil
}

// PrincipalNames returns the principals among ids that exist. Missing ids are
// simply absent from the result; order is not guaranteed.
func (r *GormDirectoryRepo) PrincipalNames(ctx context.Context, ids []string) ([]domain.NamedEntity, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var models []OrganizationModel
	err := r.db.WithContext(ctx).
		Select("id", "name").
		Where("id IN ? AND is_principal = ?", ids, true).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	principals := make([]domain.NamedEntity, 0, len(models))
	for _, m := range models {
		principals = append(principals, domain.NamedEntity{ID: m.ID, Name: m.Name})
	}
	return principals, nil
}

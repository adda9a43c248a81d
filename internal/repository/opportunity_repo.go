package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/kursadbilgin/opportunity-engine/internal/domain"
	"gorm.io/gorm"
)

type ListParams struct {
	OrganizationID *string
	PrincipalID    *string
	Stage          *domain.Stage
	Page           int
	PageSize       int
}

type OpportunityRepository interface {
	Create(ctx context.Context, o *domain.Opportunity) error
	GetByID(ctx context.Context, id string) (*domain.Opportunity, error)
	List(ctx context.Context, params ListParams) ([]domain.Opportunity, int64, error)
	Update(ctx context.Context, id string, payload domain.UpdatePayload) (*domain.Opportunity, error)
	TransitionStage(ctx context.Context, id string, from domain.Stage, to domain.Stage) (*domain.Opportunity, error)
	SoftDelete(ctx context.Context, id string) error
}

type GormOpportunityRepo struct {
	db *gorm.DB
}

func NewGormOpportunityRepo(db *gorm.DB) *GormOpportunityRepo {
	return &GormOpportunityRepo{db: db}
}

func (r *GormOpportunityRepo) Create(ctx context.Context, o *domain.Opportunity) error {
	model := opportunityModelFromDomain(o)
	if model == nil {
		return errors.New("opportunity is required")
	}
	if strings.TrimSpace(model.ID) == "" {
		model.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	*o = *opportunityModelToDomain(model)
	return nil
}

func (r *GormOpportunityRepo) GetByID(ctx context.Context, id string) (*domain.Opportunity, error) {
	var model OpportunityModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return opportunityModelToDomain(&model), nil
}

func (r *GormOpportunityRepo) List(ctx context.Context, params ListParams) ([]domain.Opportunity, int64, error) {
	query := r.db.WithContext(ctx).Model(&OpportunityModel{})

	if params.OrganizationID != nil {
		query = query.Where("organization_id = ?", *params.OrganizationID)
	}
	if params.PrincipalID != nil {
		query = query.Where("principal_id = ?", *params.PrincipalID)
	}
	if params.Stage != nil {
		query = query.Where("stage = ?", *params.Stage)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []OpportunityModel
	err := query.
		Order("created_at DESC").
		Order("id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	opportunities := make([]domain.Opportunity, 0, len(models))
	for i := range models {
		opportunities = append(opportunities, *opportunityModelToDomain(&models[i]))
	}

	return opportunities, total, nil
}

func (r *GormOpportunityRepo) Update(ctx context.Context, id string, payload domain.UpdatePayload) (*domain.Opportunity, error) {
	updates := updateColumns(payload)
	if len(updates) == 0 {
		return r.GetByID(ctx, id)
	}

	result := r.db.WithContext(ctx).
		Model(&OpportunityModel{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// TransitionStage moves the record only while it is still in stage from, so
// two concurrent transitions cannot both succeed against the same prior
// stage.
func (r *GormOpportunityRepo) TransitionStage(
	ctx context.Context,
	id string,
	from domain.Stage,
	to domain.Stage,
) (*domain.Opportunity, error) {
	result := r.db.WithContext(ctx).
		Model(&OpportunityModel{}).
		Where("id = ? AND stage = ?", id, from).
		Updates(map[string]any{
			"stage":       to,
			"probability": to.DefaultProbability(),
			"won":         to == domain.StageClosedWon,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, domain.ErrConflict
	}
	return r.GetByID(ctx, id)
}

func (r *GormOpportunityRepo) SoftDelete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&OpportunityModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func updateColumns(p domain.UpdatePayload) map[string]any {
	updates := make(map[string]any)

	if p.Name != nil {
		updates["name"] = strings.TrimSpace(*p.Name)
		// A hand-edited name no longer follows a template.
		updates["auto_generated"] = false
		updates["name_template"] = nil
	}
	if p.ProductID != nil {
		updates["product_id"] = nullableString(*p.ProductID)
	}
	if p.Probability != nil {
		updates["probability"] = *p.Probability
	}
	if p.ExpectedCloseDate != nil {
		updates["expected_close_date"] = *p.ExpectedCloseDate
	}
	if p.ClearExpectedCloseDate {
		updates["expected_close_date"] = nil
	}
	if p.Owner != nil {
		updates["owner"] = nullableString(*p.Owner)
	}
	if p.Notes != nil {
		updates["notes"] = nullableString(*p.Notes)
	}

	return updates
}

func nullableString(v string) any {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return trimmed
}

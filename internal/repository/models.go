package repository

import (
	"time"

	"github.com/kursadbilgin/opportunity-engine/internal/domain"
	"gorm.io/gorm"
)

// OpportunityModel is the persistence model for the opportunities table.
type OpportunityModel struct {
	ID                string       `gorm:"type:uuid;primaryKey"`
	Name              string       `gorm:"type:varchar(255);not null"`
	OrganizationID    string       `gorm:"type:uuid;not null"`
	PrincipalID       *string      `gorm:"type:uuid"`
	ProductID         *string      `gorm:"type:uuid"`
	Stage             domain.Stage `gorm:"type:varchar(32);not null"`
	Probability       int          `gorm:"not null;default:0"`
	ExpectedCloseDate *time.Time   `gorm:"type:date"`
	Owner             *string      `gorm:"type:varchar(255)"`
	Notes             *string      `gorm:"type:text"`
	Won               bool         `gorm:"not null;default:false"`
	AutoGenerated     bool         `gorm:"not null;default:false"`
	NameTemplate      *string      `gorm:"type:varchar(64)"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         gorm.DeletedAt `gorm:"index"`
}

func (OpportunityModel) TableName() string {
	return "opportunities"
}

// OrganizationModel is the persistence model for organizations. Principals
// (brand owners) live in the same table, flagged by IsPrincipal.
type OrganizationModel struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	Name        string `gorm:"type:varchar(255);not null"`
	IsPrincipal bool   `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (OrganizationModel) TableName() string {
	return "organizations"
}

func opportunityModelFromDomain(o *domain.Opportunity) *OpportunityModel {
	if o == nil {
		return nil
	}

	model := &OpportunityModel{
		ID:                o.ID,
		Name:              o.Name,
		OrganizationID:    o.OrganizationID,
		PrincipalID:       o.PrincipalID,
		ProductID:         o.ProductID,
		Stage:             o.Stage,
		Probability:       o.Probability,
		ExpectedCloseDate: o.ExpectedCloseDate,
		Owner:             o.Owner,
		Notes:             o.Notes,
		Won:               o.Won,
		AutoGenerated:     o.AutoGenerated,
		NameTemplate:      o.NameTemplate,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	if o.DeletedAt != nil {
		model.DeletedAt = gorm.DeletedAt{Time: *o.DeletedAt, Valid: true}
	}
	return model
}

func opportunityModelToDomain(m *OpportunityModel) *domain.Opportunity {
	if m == nil {
		return nil
	}

	o := &domain.Opportunity{
		ID:                m.ID,
		Name:              m.Name,
		OrganizationID:    m.OrganizationID,
		PrincipalID:       m.PrincipalID,
		ProductID:         m.ProductID,
		Stage:             m.Stage,
		Probability:       m.Probability,
		ExpectedCloseDate: m.ExpectedCloseDate,
		Owner:             m.Owner,
		Notes:             m.Notes,
		Won:               m.Won,
		AutoGenerated:     m.AutoGenerated,
		NameTemplate:      m.NameTemplate,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if m.DeletedAt.Valid {
		deletedAt := m.DeletedAt.Time
		o.DeletedAt = &deletedAt
	}
	return o
}

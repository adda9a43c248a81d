package domain

import (
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	MaxNameLength  = 255
	MaxOwnerLength = 255
	MinProbability = 0
	MaxProbability = 100
)

// Opportunity is one sales pursuit of a principal's product line at one
// customer organization.
type Opportunity struct {
	ID                string
	Name              string
	OrganizationID    string
	PrincipalID       *string
	ProductID         *string
	Stage             Stage
	Probability       int
	ExpectedCloseDate *time.Time
	Owner             *string
	Notes             *string
	Won               bool
	AutoGenerated     bool
	NameTemplate      *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         *time.Time
}

func (o *Opportunity) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if n := utf8.RuneCountInString(o.Name); n > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters (got %d)", ErrValidation, MaxNameLength, n)
	}
	if o.OrganizationID == "" {
		return fmt.Errorf("%w: organization id is required", ErrValidation)
	}
	if !o.Stage.IsValid() {
		return fmt.Errorf("%w: invalid stage %q", ErrValidation, o.Stage)
	}
	if err := ValidateProbability(o.Probability); err != nil {
		return err
	}
	if o.Owner != nil && utf8.RuneCountInString(*o.Owner) > MaxOwnerLength {
		return fmt.Errorf("%w: owner exceeds %d characters", ErrValidation, MaxOwnerLength)
	}
	if o.Won != (o.Stage == StageClosedWon) {
		return fmt.Errorf("%w: won flag must match closed-won stage", ErrValidation)
	}
	if o.AutoGenerated {
		if o.NameTemplate == nil || !IsKnownNameTemplate(*o.NameTemplate) {
			return fmt.Errorf("%w: auto-generated name requires a known name template", ErrValidation)
		}
	}
	return nil
}

func (o *Opportunity) IsDeleted() bool {
	return o.DeletedAt != nil
}

func ValidateProbability(p int) error {
	if p < MinProbability || p > MaxProbability {
		return fmt.Errorf("%w: probability must be between %d and %d (got %d)", ErrValidation, MinProbability, MaxProbability, p)
	}
	return nil
}

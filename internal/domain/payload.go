package domain

import (
	"fmt"
	"strings"
	"time"
)

// CreatePayload carries the fields accepted when opening an opportunity.
// A nil Probability means "use the stage default".
type CreatePayload struct {
	Name              string
	OrganizationID    string
	PrincipalID       *string
	ProductID         *string
	Stage             Stage
	Probability       *int
	ExpectedCloseDate *time.Time
	Owner             *string
	Notes             *string
	AutoGenerated     bool
	NameTemplate      *string
}

// UpdatePayload is a partial update. Nil fields are left unchanged; an
// optional text field set to an empty string is cleared. Stage and won are
// deliberately absent: they only change through a StageTransition.
type UpdatePayload struct {
	Name                   *string
	ProductID              *string
	Probability            *int
	ExpectedCloseDate      *time.Time
	ClearExpectedCloseDate bool
	Owner                  *string
	Notes                  *string
}

func (p UpdatePayload) IsEmpty() bool {
	return p.Name == nil &&
		p.ProductID == nil &&
		p.Probability == nil &&
		p.ExpectedCloseDate == nil &&
		!p.ClearExpectedCloseDate &&
		p.Owner == nil &&
		p.Notes == nil
}

func (p UpdatePayload) Validate() error {
	if p.IsEmpty() {
		return fmt.Errorf("%w: update has no fields", ErrValidation)
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return fmt.Errorf("%w: name cannot be blank", ErrValidation)
		}
		if n := len([]rune(name)); n > MaxNameLength {
			return fmt.Errorf("%w: name exceeds %d characters (got %d)", ErrValidation, MaxNameLength, n)
		}
	}
	if p.Probability != nil {
		if err := ValidateProbability(*p.Probability); err != nil {
			return err
		}
	}
	if p.ExpectedCloseDate != nil && p.ClearExpectedCloseDate {
		return fmt.Errorf("%w: expected close date cannot be both set and cleared", ErrValidation)
	}
	if p.Owner != nil && len([]rune(strings.TrimSpace(*p.Owner))) > MaxOwnerLength {
		return fmt.Errorf("%w: owner exceeds %d characters", ErrValidation, MaxOwnerLength)
	}
	return nil
}

// StageTransition moves an opportunity to a new stage, resetting its
// probability to the stage default.
type StageTransition struct {
	OpportunityID string
	Stage         Stage
}

func (t StageTransition) Validate() error {
	if strings.TrimSpace(t.OpportunityID) == "" {
		return fmt.Errorf("%w: opportunity id is required", ErrValidation)
	}
	if !t.Stage.IsValid() {
		return fmt.Errorf("%w: invalid stage %q", ErrValidation, t.Stage)
	}
	return nil
}

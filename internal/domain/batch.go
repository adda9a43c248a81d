package domain

import "time"

// NamedEntity is an id/display-name pair returned by directory lookups.
type NamedEntity struct {
	ID   string
	Name string
}

// NamePreview is the name an opportunity would receive for one principal.
type NamePreview struct {
	PrincipalID   string
	PrincipalName string
	Name          string
	Template      string
}

// BatchFormData describes one opportunity per principal at a single
// organization. Name is only used when AutoGenerateNames is false.
type BatchFormData struct {
	OrganizationID    string
	PrincipalIDs      []string
	Stage             Stage
	ProductID         *string
	ContextTag        ContextTag
	CustomTemplate    *string
	AutoGenerateNames bool
	Name              string
	Probability       *int
	ExpectedCloseDate *time.Time
	Owner             *string
	Notes             *string
}

// BatchFailure explains why no opportunity was created for a principal.
type BatchFailure struct {
	PrincipalID   string
	PrincipalName string
	Error         string
}

// BatchCreationResult summarizes one batch run. Created and Failed preserve
// the caller's principal order.
type BatchCreationResult struct {
	Success      bool
	Created      []Opportunity
	Failed       []BatchFailure
	CreatedCount int
	FailedCount  int
	TotalCount   int
}

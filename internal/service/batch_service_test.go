package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kursadbilgin/opportunity-engine/internal/domain"
	"github.com/kursadbilgin/opportunity-engine/internal/ratelimit"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var testPrincipals = map[string]string{
	"p1": "Kaufholds",
	"p2": "Ore-Ida",
	"p3": "Rich Products",
	"p4": "Lamb Weston",
	"p5": "McCain",
}

func newTestBatchService(t *testing.T, creator OpportunityCreator, limiter ratelimit.RateLimiter) *BatchService {
	t.Helper()

	svc, err := NewBatchService(staticDirectory("Acme Foods", testPrincipals), creator, limiter, 0, nil)
	if err != nil {
		t.Fatalf("NewBatchService() error = %v", err)
	}
	return svc
}

func autoForm(principalIDs ...string) domain.BatchFormData {
	return domain.BatchFormData{
		OrganizationID:    "org-1",
		PrincipalIDs:      principalIDs,
		Stage:             domain.StageNewLead,
		ContextTag:        domain.ContextTagNewLeadOutreach,
		AutoGenerateNames: true,
	}
}

func TestBatchServiceCreateBatchAllSucceed(t *testing.T) {
	t.Parallel()

	creator := &fakeCreator{}
	limiter := &fakeLimiter{}
	svc := newTestBatchService(t, creator, limiter)

	result, err := svc.CreateBatch(context.Background(), autoForm("p1", "p2", "p3"))
	if err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}

	if !result.Success || result.CreatedCount != 3 || result.FailedCount != 0 || result.TotalCount != 3 {
		t.Fatalf("unexpected result %+v", result)
	}

	wantNames := []string{
		"Acme Foods - Kaufholds - New Lead Outreach",
		"Acme Foods - Ore-Ida - New Lead Outreach",
		"Acme Foods - Rich Products - New Lead Outreach",
	}
	for i, created := range result.Created {
		if created.Name != wantNames[i] {
			t.Fatalf("created[%d].Name = %q, want %q", i, created.Name, wantNames[i])
		}
	}

	for _, payload := range creator.calls() {
		if !payload.AutoGenerated {
			t.Fatal("payload should be marked auto-generated")
		}
		if payload.NameTemplate == nil || *payload.NameTemplate != string(domain.ContextTagNewLeadOutreach) {
			t.Fatalf("name template = %v, want new-lead-outreach", payload.NameTemplate)
		}
		if payload.OrganizationID != "org-1" {
			t.Fatalf("organization = %q, want org-1", payload.OrganizationID)
		}
	}
	if limiter.waits != 3 {
		t.Fatalf("limiter waits = %d, want 3", limiter.waits)
	}
}

func TestBatchServiceCreateBatchPartialFailure(t *testing.T) {
	t.Parallel()

	creator := &fakeCreator{
		createFn: func(ctx context.Context, payload domain.CreatePayload) (*domain.Opportunity, error) {
			if *payload.PrincipalID == "p2" {
				return nil, fmt.Errorf("%w: create opportunity: %w", domain.ErrPersistence, errors.New("constraint violation"))
			}
			return opportunityFromPayload(payload), nil
		},
	}
	svc := newTestBatchService(t, creator, nil)

	result, err := svc.CreateBatch(context.Background(), autoForm("p1", "p2", "p3"))
	if err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}

	if !result.Success || result.CreatedCount != 2 || result.FailedCount != 1 || result.TotalCount != 3 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Created[0].PrincipalID == nil || *result.Created[0].PrincipalID != "p1" ||
		*result.Created[1].PrincipalID != "p3" {
		t.Fatalf("created order = %+v, want p1 then p3", result.Created)
	}

	failure := result.Failed[0]
	if failure.PrincipalID != "p2" || failure.PrincipalName != "Ore-Ida" {
		t.Fatalf("failure = %+v, want p2/Ore-Ida", failure)
	}
	if failure.Error != "persistence error: could not save opportunity" {
		t.Fatalf("failure message = %q", failure.Error)
	}
	if len(creator.calls()) != 3 {
		t.Fatalf("create calls = %d, want 3 (no abort after failure)", len(creator.calls()))
	}
}

func TestBatchServiceCreateBatchCountsInvariant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		failing map[string]bool
	}{
		{name: "none failing", failing: map[string]bool{}},
		{name: "first failing", failing: map[string]bool{"p1": true}},
		{name: "last two failing", failing: map[string]bool{"p4": true, "p5": true}},
		{name: "all but one failing", failing: map[string]bool{"p1": true, "p2": true, "p4": true, "p5": true}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			creator := &fakeCreator{
				createFn: func(ctx context.Context, payload domain.CreatePayload) (*domain.Opportunity, error) {
					if tt.failing[*payload.PrincipalID] {
						return nil, fmt.Errorf("%w: rejected", domain.ErrValidation)
					}
					return opportunityFromPayload(payload), nil
				},
			}
			svc := newTestBatchService(t, creator, nil)

			result, err := svc.CreateBatch(context.Background(), autoForm("p1", "p2", "p3", "p4", "p5"))
			if err != nil {
				t.Fatalf("CreateBatch() error = %v", err)
			}

			if result.CreatedCount+result.FailedCount != result.TotalCount {
				t.Fatalf("created %d + failed %d != total %d", result.CreatedCount, result.FailedCount, result.TotalCount)
			}
			if result.FailedCount != len(tt.failing) {
				t.Fatalf("failed = %d, want %d", result.FailedCount, len(tt.failing))
			}
			if result.Success != (result.CreatedCount > 0) {
				t.Fatalf("success = %v with %d created", result.Success, result.CreatedCount)
			}
			for _, failure := range result.Failed {
				if !tt.failing[failure.PrincipalID] {
					t.Fatalf("unexpected failure for %s", failure.PrincipalID)
				}
			}
		})
	}
}

func TestBatchServiceCreateBatchAllFailed(t *testing.T) {
	t.Parallel()

	creator := &fakeCreator{
		createFn: func(ctx context.Context, payload domain.CreatePayload) (*domain.Opportunity, error) {
			return nil, fmt.Errorf("%w: database unavailable", domain.ErrPersistence)
		},
	}
	svc := newTestBatchService(t, creator, nil)

	result, err := svc.CreateBatch(context.Background(), autoForm("p1", "p2"))
	if !errors.Is(err, domain.ErrBatchFailed) {
		t.Fatalf("CreateBatch() error = %v, want ErrBatchFailed", err)
	}
	if result == nil {
		t.Fatal("result should be returned alongside ErrBatchFailed")
	}
	if result.Success || result.CreatedCount != 0 || result.FailedCount != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestBatchServiceCreateBatchMissingPrincipal(t *testing.T) {
	t.Parallel()

	creator := &fakeCreator{}
	svc := newTestBatchService(t, creator, nil)

	result, err := svc.CreateBatch(context.Background(), autoForm("p1", "ghost", "p3"))
	if err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}

	if result.CreatedCount != 2 || result.FailedCount != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Failed[0].PrincipalID != "ghost" || result.Failed[0].Error != "principal not found" {
		t.Fatalf("failure = %+v, want principal not found for ghost", result.Failed[0])
	}
	if len(creator.calls()) != 2 {
		t.Fatalf("create calls = %d, want 2", len(creator.calls()))
	}
}

func TestBatchServiceCreateBatchCancellationStopsBeforeNextPrincipal(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	creator := &fakeCreator{
		createFn: func(createCtx context.Context, payload domain.CreatePayload) (*domain.Opportunity, error) {
			if *payload.PrincipalID == "p2" {
				cancel()
			}
			if createCtx.Err() != nil {
				t.Fatal("an in-flight create should not observe cancellation")
			}
			return opportunityFromPayload(payload), nil
		},
	}
	svc := newTestBatchService(t, creator, nil)

	result, err := svc.CreateBatch(ctx, autoForm("p1", "p2", "p3", "p4", "p5"))
	if err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}

	if result.CreatedCount != 2 || result.FailedCount != 3 || result.TotalCount != 5 {
		t.Fatalf("unexpected result %+v", result)
	}
	for i, want := range []string{"p3", "p4", "p5"} {
		failure := result.Failed[i]
		if failure.PrincipalID != want || failure.Error != msgBatchCanceled {
			t.Fatalf("failed[%d] = %+v, want canceled %s", i, failure, want)
		}
	}
	if len(creator.calls()) != 2 {
		t.Fatalf("create calls = %d, want 2", len(creator.calls()))
	}
}

func TestBatchServiceCreateBatchCancellationKeepsPreparationFailures(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	creator := &fakeCreator{
		createFn: func(createCtx context.Context, payload domain.CreatePayload) (*domain.Opportunity, error) {
			cancel()
			return opportunityFromPayload(payload), nil
		},
	}
	svc := newTestBatchService(t, creator, nil)

	result, err := svc.CreateBatch(ctx, autoForm("p1", "ghost", "p3"))
	if err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}

	if result.CreatedCount != 1 || result.FailedCount != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Failed[0].PrincipalID != "ghost" || result.Failed[0].Error != msgPrincipalNotFound {
		t.Fatalf("failed[0] = %+v, want principal not found for ghost", result.Failed[0])
	}
	if result.Failed[1].PrincipalID != "p3" || result.Failed[1].Error != msgBatchCanceled {
		t.Fatalf("failed[1] = %+v, want canceled p3", result.Failed[1])
	}
}

func TestBatchServiceCreateBatchOverLengthNameFailsBeforeCreate(t *testing.T) {
	t.Parallel()

	creator := &fakeCreator{}
	svc := newTestBatchService(t, creator, nil)

	form := autoForm("p1", "p2")
	// Fits "Ore-Ida" but not "Kaufholds".
	form.CustomTemplate = strPtr("{principal} " + strings.Repeat("x", domain.MaxNameLength-len("Kaufholds")))

	result, err := svc.CreateBatch(context.Background(), form)
	if err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}

	if result.CreatedCount != 1 || result.FailedCount != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Failed[0].PrincipalID != "p1" || result.Created[0].Name[:len("Ore-Ida")] != "Ore-Ida" {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(creator.calls()) != 1 {
		t.Fatalf("create calls = %d, want 1", len(creator.calls()))
	}
}

func TestBatchServiceCreateBatchCanceledWhileThrottled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := &fakeLimiter{
		waitFn: func(waitCtx context.Context, scope string) error {
			if scope != ratelimit.ScopeOpportunityInsert {
				t.Fatalf("scope = %q, want %q", scope, ratelimit.ScopeOpportunityInsert)
			}
			cancel()
			return waitCtx.Err()
		},
	}
	creator := &fakeCreator{}
	svc := newTestBatchService(t, creator, limiter)

	result, err := svc.CreateBatch(ctx, autoForm("p1", "p2"))
	if !errors.Is(err, domain.ErrBatchFailed) {
		t.Fatalf("CreateBatch() error = %v, want ErrBatchFailed", err)
	}
	if result.FailedCount != 2 || len(creator.calls()) != 0 {
		t.Fatalf("unexpected result %+v, calls = %d", result, len(creator.calls()))
	}
}

func TestBatchServiceCreateBatchLimiterErrorDoesNotBlockInserts(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	limiter := &fakeLimiter{
		waitFn: func(ctx context.Context, scope string) error {
			return errors.New("redis: connection refused")
		},
	}
	creator := &fakeCreator{}
	svc, err := NewBatchService(staticDirectory("Acme Foods", testPrincipals), creator, limiter, 0, zap.New(core))
	if err != nil {
		t.Fatalf("NewBatchService() error = %v", err)
	}

	result, err := svc.CreateBatch(context.Background(), autoForm("p1", "p2"))
	if err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}
	if result.CreatedCount != 2 {
		t.Fatalf("created = %d, want 2", result.CreatedCount)
	}
	if logs.FilterMessage("insert rate limiter unavailable, continuing unthrottled").Len() != 2 {
		t.Fatal("expected limiter failures to be logged")
	}
}

func TestBatchServiceCreateBatchRecoversPanics(t *testing.T) {
	t.Parallel()

	creator := &fakeCreator{
		createFn: func(ctx context.Context, payload domain.CreatePayload) (*domain.Opportunity, error) {
			if *payload.PrincipalID == "p1" {
				panic("nil map write")
			}
			return opportunityFromPayload(payload), nil
		},
	}
	svc := newTestBatchService(t, creator, nil)

	result, err := svc.CreateBatch(context.Background(), autoForm("p1", "p2"))
	if err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}
	if result.CreatedCount != 1 || result.FailedCount != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Failed[0].Error != domain.ErrUnknown.Error() {
		t.Fatalf("failure message = %q, want generic unknown error", result.Failed[0].Error)
	}
}

func TestBatchServiceCreateBatchFixedNameAndOverrides(t *testing.T) {
	t.Parallel()

	creator := &fakeCreator{}
	svc := newTestBatchService(t, creator, nil)

	form := domain.BatchFormData{
		OrganizationID: "org-1",
		PrincipalIDs:   []string{"p1", "p2"},
		Stage:          domain.StageSampleVisitOffered,
		Name:           "  Spring menu push  ",
		Probability:    intPtr(55),
		ProductID:      strPtr("prod-1"),
		ContextTag:     "not-a-tag",
	}

	result, err := svc.CreateBatch(context.Background(), form)
	if err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}
	if result.CreatedCount != 2 {
		t.Fatalf("created = %d, want 2", result.CreatedCount)
	}

	for _, payload := range creator.calls() {
		if payload.Name != "Spring menu push" {
			t.Fatalf("name = %q, want trimmed fixed name", payload.Name)
		}
		if payload.AutoGenerated || payload.NameTemplate != nil {
			t.Fatal("fixed names should not carry generation provenance")
		}
		if payload.Probability == nil || *payload.Probability != 55 {
			t.Fatalf("probability = %v, want 55", payload.Probability)
		}
		if payload.ProductID == nil || *payload.ProductID != "prod-1" {
			t.Fatalf("product = %v, want prod-1", payload.ProductID)
		}
	}
}

func TestBatchServiceCreateBatchCustomTemplate(t *testing.T) {
	t.Parallel()

	creator := &fakeCreator{}
	svc := newTestBatchService(t, creator, nil)

	form := autoForm("p1")
	form.CustomTemplate = strPtr("{principal} @ {organization}")

	result, err := svc.CreateBatch(context.Background(), form)
	if err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}
	if result.Created[0].Name != "Kaufholds @ Acme Foods" {
		t.Fatalf("name = %q", result.Created[0].Name)
	}
	if template := creator.calls()[0].NameTemplate; template == nil || *template != domain.TemplateCustom {
		t.Fatalf("name template = %v, want custom", template)
	}
}

func TestBatchServiceCreateBatchValidation(t *testing.T) {
	t.Parallel()

	tooMany := make([]string, DefaultMaxBatchSize+1)
	for i := range tooMany {
		tooMany[i] = fmt.Sprintf("p-%d", i)
	}

	tests := []struct {
		name   string
		mutate func(*domain.BatchFormData)
	}{
		{name: "missing organization", mutate: func(f *domain.BatchFormData) { f.OrganizationID = " " }},
		{name: "no principals", mutate: func(f *domain.BatchFormData) { f.PrincipalIDs = nil }},
		{name: "blank principal", mutate: func(f *domain.BatchFormData) { f.PrincipalIDs = []string{"p1", " "} }},
		{name: "duplicate principal", mutate: func(f *domain.BatchFormData) { f.PrincipalIDs = []string{"p1", "p2", "p1"} }},
		{name: "too many principals", mutate: func(f *domain.BatchFormData) { f.PrincipalIDs = tooMany }},
		{name: "unknown stage", mutate: func(f *domain.BatchFormData) { f.Stage = "closed_lost" }},
		{name: "unknown context tag", mutate: func(f *domain.BatchFormData) { f.ContextTag = "cold-call" }},
		{name: "probability out of range", mutate: func(f *domain.BatchFormData) { f.Probability = intPtr(-1) }},
		{
			name: "fixed name missing",
			mutate: func(f *domain.BatchFormData) {
				f.AutoGenerateNames = false
				f.Name = "   "
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			lookups := 0
			directory := &fakeDirectoryRepo{
				organizationNameFn: func(ctx context.Context, id string) (string, error) {
					lookups++
					return "Acme Foods", nil
				},
			}
			creator := &fakeCreator{}
			svc, err := NewBatchService(directory, creator, nil, 0, nil)
			if err != nil {
				t.Fatalf("NewBatchService() error = %v", err)
			}

			form := autoForm("p1", "p2")
			tt.mutate(&form)

			result, err := svc.CreateBatch(context.Background(), form)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("CreateBatch() error = %v, want ErrValidation", err)
			}
			if result != nil {
				t.Fatalf("result = %+v, want nil on validation failure", result)
			}
			if lookups != 0 || len(creator.calls()) != 0 {
				t.Fatal("no I/O should happen before validation passes")
			}
		})
	}
}

func TestBatchServiceCreateBatchOrganizationLookupFailureAborts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		lookupErr error
		wantErr   error
	}{
		{name: "missing organization", lookupErr: domain.ErrNotFound, wantErr: domain.ErrNotFound},
		{name: "gateway failure", lookupErr: errors.New("timeout"), wantErr: domain.ErrPersistence},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			directory := &fakeDirectoryRepo{
				organizationNameFn: func(ctx context.Context, id string) (string, error) {
					return "", tt.lookupErr
				},
			}
			creator := &fakeCreator{}
			svc, err := NewBatchService(directory, creator, nil, 0, nil)
			if err != nil {
				t.Fatalf("NewBatchService() error = %v", err)
			}

			result, err := svc.CreateBatch(context.Background(), autoForm("p1"))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreateBatch() error = %v, want %v", err, tt.wantErr)
			}
			if result != nil || len(creator.calls()) != 0 {
				t.Fatal("nothing should be created when the organization lookup fails")
			}
		})
	}
}

func TestBatchServicePreviewNamesMatchesCreatedNames(t *testing.T) {
	t.Parallel()

	creator := &fakeCreator{}
	svc := newTestBatchService(t, creator, nil)

	previews, err := svc.PreviewNames(context.Background(), PreviewRequest{
		OrganizationID: "org-1",
		PrincipalIDs:   []string{"p3", "p1"},
		ContextTag:     domain.ContextTagSampleFollowup,
	})
	if err != nil {
		t.Fatalf("PreviewNames() error = %v", err)
	}
	if len(creator.calls()) != 0 {
		t.Fatal("preview must not create anything")
	}

	form := autoForm("p3", "p1")
	form.ContextTag = domain.ContextTagSampleFollowup
	result, err := svc.CreateBatch(context.Background(), form)
	if err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}

	if len(previews) != 2 || previews[0].PrincipalID != "p3" || previews[1].PrincipalID != "p1" {
		t.Fatalf("previews = %+v, want request order", previews)
	}
	for i := range previews {
		if previews[i].Name != result.Created[i].Name {
			t.Fatalf("preview %q != created %q", previews[i].Name, result.Created[i].Name)
		}
	}
	if previews[0].Name != "Acme Foods - Rich Products - Sample Follow-up" {
		t.Fatalf("preview name = %q", previews[0].Name)
	}
}

func TestBatchServicePreviewNamesMissingPrincipal(t *testing.T) {
	t.Parallel()

	svc := newTestBatchService(t, &fakeCreator{}, nil)

	_, err := svc.PreviewNames(context.Background(), PreviewRequest{
		OrganizationID: "org-1",
		PrincipalIDs:   []string{"p1", "ghost"},
		ContextTag:     domain.ContextTagRenewal,
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("PreviewNames() error = %v, want ErrNotFound", err)
	}
}

func TestBatchServicePreviewNamesRejectsUnknownTagBeforeLookups(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		custom *string
	}{
		{name: "default template"},
		{name: "custom template", custom: strPtr("{organization} / {principal}")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			lookups := 0
			directory := &fakeDirectoryRepo{
				organizationNameFn: func(ctx context.Context, id string) (string, error) {
					lookups++
					return "Acme Foods", nil
				},
				principalNamesFn: func(ctx context.Context, ids []string) ([]domain.NamedEntity, error) {
					lookups++
					return []domain.NamedEntity{{ID: "p1", Name: "Kaufholds"}}, nil
				},
			}
			svc, err := NewBatchService(directory, &fakeCreator{}, nil, 0, nil)
			if err != nil {
				t.Fatalf("NewBatchService() error = %v", err)
			}

			_, err = svc.PreviewNames(context.Background(), PreviewRequest{
				OrganizationID: "org-1",
				PrincipalIDs:   []string{"p1"},
				ContextTag:     domain.ContextTag("cold-call"),
				CustomTemplate: tt.custom,
			})
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("PreviewNames() error = %v, want ErrValidation", err)
			}
			if strings.Contains(err.Error(), "p1") {
				t.Fatalf("error = %v, should not name a principal", err)
			}
			if lookups != 0 {
				t.Fatalf("directory lookups = %d, want 0", lookups)
			}
		})
	}
}

func TestBatchServicePreviewNamesRejectsOverLengthName(t *testing.T) {
	t.Parallel()

	svc := newTestBatchService(t, &fakeCreator{}, nil)

	_, err := svc.PreviewNames(context.Background(), PreviewRequest{
		OrganizationID: "org-1",
		PrincipalIDs:   []string{"p1"},
		ContextTag:     domain.ContextTagRenewal,
		CustomTemplate: strPtr(strings.Repeat("x", domain.MaxNameLength) + "{principal}"),
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("PreviewNames() error = %v, want ErrValidation", err)
	}
}

func TestNewBatchServiceDefaults(t *testing.T) {
	t.Parallel()

	if _, err := NewBatchService(nil, &fakeCreator{}, nil, 0, nil); err == nil {
		t.Fatal("NewBatchService() expected error for nil directory")
	}
	if _, err := NewBatchService(&fakeDirectoryRepo{}, nil, nil, 0, nil); err == nil {
		t.Fatal("NewBatchService() expected error for nil creator")
	}

	svc, err := NewBatchService(&fakeDirectoryRepo{}, &fakeCreator{}, nil, 0, nil)
	if err != nil {
		t.Fatalf("NewBatchService() error = %v", err)
	}
	if svc.MaxBatchSize() != DefaultMaxBatchSize {
		t.Fatalf("max batch size = %d, want %d", svc.MaxBatchSize(), DefaultMaxBatchSize)
	}
}

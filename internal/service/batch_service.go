package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kursadbilgin/opportunity-engine/internal/domain"
	"github.com/kursadbilgin/opportunity-engine/internal/naming"
	"github.com/kursadbilgin/opportunity-engine/internal/observability"
	"github.com/kursadbilgin/opportunity-engine/internal/ratelimit"
	"github.com/kursadbilgin/opportunity-engine/internal/repository"
	"go.uber.org/zap"
)

const (
	DefaultMaxBatchSize = 50

	msgPrincipalNotFound = "principal not found"
	msgBatchCanceled     = "batch canceled before this principal was processed"
)

// OpportunityCreator is the single-record create used for every principal.
type OpportunityCreator interface {
	Create(ctx context.Context, payload domain.CreatePayload) (*domain.Opportunity, error)
}

// PreviewRequest asks for the names a batch would generate.
type PreviewRequest struct {
	OrganizationID string
	PrincipalIDs   []string
	ContextTag     domain.ContextTag
	CustomTemplate *string
}

type BatchService struct {
	directory    repository.DirectoryRepository
	creator      OpportunityCreator
	limiter      ratelimit.RateLimiter
	metrics      *observability.Metrics
	logger       *zap.Logger
	maxBatchSize int
	now          func() time.Time
}

func NewBatchService(
	directory repository.DirectoryRepository,
	creator OpportunityCreator,
	limiter ratelimit.RateLimiter,
	maxBatchSize int,
	logger *zap.Logger,
) (*BatchService, error) {
	if directory == nil {
		return nil, fmt.Errorf("directory repository is required")
	}
	if creator == nil {
		return nil, fmt.Errorf("opportunity creator is required")
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	if maxBatchSize <= 0 {
		maxBatchSize = DefaultMaxBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &BatchService{
		directory:    directory,
		creator:      creator,
		limiter:      limiter,
		logger:       logger,
		maxBatchSize: maxBatchSize,
		now:          time.Now,
	}, nil
}

func (s *BatchService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

func (s *BatchService) MaxBatchSize() int {
	return s.maxBatchSize
}

// PreviewNames resolves display names and returns the names CreateBatch
// would assign. Nothing is written.
func (s *BatchService) PreviewNames(ctx context.Context, req PreviewRequest) ([]domain.NamePreview, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	organizationID := strings.TrimSpace(req.OrganizationID)
	if organizationID == "" {
		return nil, fmt.Errorf("%w: organization id is required", domain.ErrValidation)
	}
	principalIDs, err := s.normalizePrincipalIDs(req.PrincipalIDs)
	if err != nil {
		return nil, err
	}
	if !req.ContextTag.IsValid() {
		return nil, fmt.Errorf("%w: invalid context tag %q", domain.ErrValidation, req.ContextTag)
	}

	organizationName, err := s.organizationName(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	principals, err := s.directory.PrincipalNames(ctx, principalIDs)
	if err != nil {
		return nil, persistenceError("lookup principal names", err)
	}
	found := indexByID(principals)

	ordered := make([]domain.NamedEntity, 0, len(principalIDs))
	var missing []string
	for _, id := range principalIDs {
		principal, ok := found[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		ordered = append(ordered, principal)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: principals %s", domain.ErrNotFound, strings.Join(missing, ", "))
	}

	return naming.GenerateBatchNamePreviews(organizationName, ordered, req.ContextTag, req.CustomTemplate)
}

// batchEntry is one principal slot of a batch, in request order.
type batchEntry struct {
	principalID   string
	principalName string
	preview       domain.NamePreview
	err           error
}

// CreateBatch creates one opportunity per principal, sequentially and
// best-effort. Successful creates are never undone. If every principal
// fails the result is returned together with an ErrBatchFailed error.
func (s *BatchService) CreateBatch(ctx context.Context, form domain.BatchFormData) (*domain.BatchCreationResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := s.now()

	principalIDs, err := s.validateForm(&form)
	if err != nil {
		return nil, err
	}

	organizationName, err := s.organizationName(ctx, form.OrganizationID)
	if err != nil {
		return nil, err
	}

	entries, err := s.prepareEntries(ctx, organizationName, principalIDs, form)
	if err != nil {
		return nil, err
	}

	logger := observability.WithContextLogger(s.logger, ctx).With(
		zap.String("organizationId", form.OrganizationID),
		zap.Int("principals", len(entries)),
	)

	result := &domain.BatchCreationResult{
		Created:    make([]domain.Opportunity, 0, len(entries)),
		Failed:     make([]domain.BatchFailure, 0),
		TotalCount: len(entries),
	}
	createCtx := withCreateSource(ctx, observability.SourceBatch)

	for i, entry := range entries {
		if ctx.Err() != nil {
			s.failRemaining(result, entries[i:], msgBatchCanceled)
			logger.Warn("batch canceled", zap.Int("processed", i), zap.Error(ctx.Err()))
			break
		}

		if entry.err != nil {
			s.recordFailure(result, entry, entry.err)
			continue
		}

		if err := s.limiter.Wait(ctx, ratelimit.ScopeOpportunityInsert); err != nil {
			if ctx.Err() != nil {
				s.failRemaining(result, entries[i:], msgBatchCanceled)
				logger.Warn("batch canceled while throttled", zap.Int("processed", i), zap.Error(ctx.Err()))
				break
			}
			logger.Warn("insert rate limiter unavailable, continuing unthrottled", zap.Error(err))
		}

		// An in-flight create is allowed to finish even if ctx is canceled.
		created, err := s.safeCreate(context.WithoutCancel(createCtx), s.buildPayload(form, entry))
		if err != nil {
			logger.Warn("batch item failed",
				zap.String("principalId", entry.principalID),
				zap.Error(err),
			)
			s.recordFailure(result, entry, err)
			continue
		}
		result.Created = append(result.Created, *created)
	}

	result.CreatedCount = len(result.Created)
	result.FailedCount = len(result.Failed)
	result.Success = result.CreatedCount > 0

	s.metrics.ObserveBatch(result.TotalCount, result.CreatedCount, s.now().Sub(start))
	logger.Info("batch processed",
		zap.Int("created", result.CreatedCount),
		zap.Int("failed", result.FailedCount),
	)

	if !result.Success {
		return result, fmt.Errorf("%w: 0 of %d opportunities created", domain.ErrBatchFailed, result.TotalCount)
	}
	return result, nil
}

func (s *BatchService) validateForm(form *domain.BatchFormData) ([]string, error) {
	form.OrganizationID = strings.TrimSpace(form.OrganizationID)
	if form.OrganizationID == "" {
		return nil, fmt.Errorf("%w: organization id is required", domain.ErrValidation)
	}

	principalIDs, err := s.normalizePrincipalIDs(form.PrincipalIDs)
	if err != nil {
		return nil, err
	}

	if !form.Stage.IsValid() {
		return nil, fmt.Errorf("%w: invalid stage %q", domain.ErrValidation, form.Stage)
	}
	if form.Probability != nil {
		if err := domain.ValidateProbability(*form.Probability); err != nil {
			return nil, err
		}
	}

	if form.AutoGenerateNames {
		if !form.ContextTag.IsValid() {
			return nil, fmt.Errorf("%w: invalid context tag %q", domain.ErrValidation, form.ContextTag)
		}
	} else {
		form.Name = strings.TrimSpace(form.Name)
		if form.Name == "" {
			return nil, fmt.Errorf("%w: name is required when names are not auto-generated", domain.ErrValidation)
		}
		if len([]rune(form.Name)) > domain.MaxNameLength {
			return nil, fmt.Errorf("%w: name must be at most %d characters", domain.ErrValidation, domain.MaxNameLength)
		}
	}

	return principalIDs, nil
}

func (s *BatchService) normalizePrincipalIDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one principal is required", domain.ErrValidation)
	}
	if len(ids) > s.maxBatchSize {
		return nil, fmt.Errorf("%w: at most %d principals per batch", domain.ErrValidation, s.maxBatchSize)
	}

	normalized := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for i, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("%w: principal id at position %d is blank", domain.ErrValidation, i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate principal id %s", domain.ErrValidation, id)
		}
		seen[id] = struct{}{}
		normalized = append(normalized, id)
	}
	return normalized, nil
}

func (s *BatchService) organizationName(ctx context.Context, organizationID string) (string, error) {
	name, err := s.directory.OrganizationName(ctx, organizationID)
	if err != nil {
		return "", persistenceError("lookup organization name", err)
	}
	return name, nil
}

// prepareEntries resolves principal names and computes every preview before
// the first create, so stored names match what a preview returns.
func (s *BatchService) prepareEntries(
	ctx context.Context,
	organizationName string,
	principalIDs []string,
	form domain.BatchFormData,
) ([]batchEntry, error) {
	principals, err := s.directory.PrincipalNames(ctx, principalIDs)
	if err != nil {
		return nil, persistenceError("lookup principal names", err)
	}
	found := indexByID(principals)

	entries := make([]batchEntry, 0, len(principalIDs))
	for _, id := range principalIDs {
		entry := batchEntry{principalID: id}

		principal, ok := found[id]
		if !ok {
			entry.err = fmt.Errorf("%w: %s", domain.ErrNotFound, msgPrincipalNotFound)
			entries = append(entries, entry)
			continue
		}
		entry.principalName = strings.TrimSpace(principal.Name)

		if form.AutoGenerateNames {
			previews, err := naming.GenerateBatchNamePreviews(
				organizationName,
				[]domain.NamedEntity{principal},
				form.ContextTag,
				form.CustomTemplate,
			)
			if err != nil {
				entry.err = err
			} else {
				entry.preview = previews[0]
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *BatchService) buildPayload(form domain.BatchFormData, entry batchEntry) domain.CreatePayload {
	principalID := entry.principalID
	payload := domain.CreatePayload{
		Name:              form.Name,
		OrganizationID:    form.OrganizationID,
		PrincipalID:       &principalID,
		ProductID:         form.ProductID,
		Stage:             form.Stage,
		Probability:       form.Probability,
		ExpectedCloseDate: form.ExpectedCloseDate,
		Owner:             form.Owner,
		Notes:             form.Notes,
	}
	if form.AutoGenerateNames {
		template := entry.preview.Template
		payload.Name = entry.preview.Name
		payload.AutoGenerated = true
		payload.NameTemplate = &template
	}
	return payload
}

func (s *BatchService) safeCreate(ctx context.Context, payload domain.CreatePayload) (created *domain.Opportunity, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("recovered panic while creating opportunity", zap.Any("panic", r), zap.Stack("stack"))
			created = nil
			err = fmt.Errorf("%w: %v", domain.ErrUnknown, r)
		}
	}()

	created, err = s.creator.Create(ctx, payload)
	if err == nil && created == nil {
		err = fmt.Errorf("%w: create returned no opportunity", domain.ErrUnknown)
	}
	return created, err
}

func (s *BatchService) recordFailure(result *domain.BatchCreationResult, entry batchEntry, err error) {
	message := PublicErrorMessage(err)
	if errors.Is(err, domain.ErrNotFound) && entry.principalName == "" {
		message = msgPrincipalNotFound
	}

	result.Failed = append(result.Failed, domain.BatchFailure{
		PrincipalID:   entry.principalID,
		PrincipalName: entry.principalName,
		Error:         message,
	})
	s.metrics.IncBatchFailure(failureReason(err))
}

// failRemaining marks every unprocessed entry as failed with message. Entries
// that already failed during preparation keep their own error.
func (s *BatchService) failRemaining(result *domain.BatchCreationResult, remaining []batchEntry, message string) {
	for _, entry := range remaining {
		if entry.err != nil {
			s.recordFailure(result, entry, entry.err)
			continue
		}
		result.Failed = append(result.Failed, domain.BatchFailure{
			PrincipalID:   entry.principalID,
			PrincipalName: entry.principalName,
			Error:         message,
		})
		s.metrics.IncBatchFailure(reasonCanceled)
	}
}

func indexByID(entities []domain.NamedEntity) map[string]domain.NamedEntity {
	index := make(map[string]domain.NamedEntity, len(entities))
	for _, entity := range entities {
		index[entity.ID] = entity
	}
	return index
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kursadbilgin/opportunity-engine/internal/domain"
	"github.com/kursadbilgin/opportunity-engine/internal/events"
	"github.com/kursadbilgin/opportunity-engine/internal/observability"
	"github.com/kursadbilgin/opportunity-engine/internal/repository"
	"go.uber.org/zap"
)

// publishTimeout bounds the best-effort event publish, including broker
// reconnects.
const publishTimeout = 2 * time.Second

type createSourceKey struct{}

// OpportunityService owns single-record operations on opportunities.
type OpportunityService struct {
	opportunities repository.OpportunityRepository
	publisher     events.Publisher
	metrics       *observability.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

func NewOpportunityService(
	opportunities repository.OpportunityRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) (*OpportunityService, error) {
	if opportunities == nil {
		return nil, fmt.Errorf("opportunity repository is required")
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OpportunityService{
		opportunities: opportunities,
		publisher:     publisher,
		logger:        logger,
		now:           time.Now,
	}, nil
}

func (s *OpportunityService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

func (s *OpportunityService) Create(ctx context.Context, payload domain.CreatePayload) (*domain.Opportunity, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	opportunity, err := prepareOpportunityForCreate(payload)
	if err != nil {
		return nil, err
	}

	if err := s.opportunities.Create(ctx, opportunity); err != nil {
		observability.WithContextLogger(s.logger, ctx).Error("failed to create opportunity",
			zap.String("organizationId", opportunity.OrganizationID),
			zap.Error(err),
		)
		return nil, persistenceError("create opportunity", err)
	}

	s.metrics.IncOpportunityCreated(createSource(ctx))
	s.publish(ctx, events.NewOpportunityEvent(events.EventOpportunityCreated, opportunity, s.now()))

	return opportunity, nil
}

func (s *OpportunityService) GetByID(ctx context.Context, id string) (*domain.Opportunity, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: opportunity id is required", domain.ErrValidation)
	}

	opportunity, err := s.opportunities.GetByID(ctx, id)
	if err != nil {
		return nil, persistenceError("get opportunity", err)
	}
	return opportunity, nil
}

func (s *OpportunityService) List(
	ctx context.Context,
	params repository.ListParams,
) ([]domain.Opportunity, int64, error) {
	if params.Stage != nil && !params.Stage.IsValid() {
		return nil, 0, fmt.Errorf("%w: invalid stage %q", domain.ErrValidation, *params.Stage)
	}

	opportunities, total, err := s.opportunities.List(ctx, params)
	if err != nil {
		return nil, 0, persistenceError("list opportunities", err)
	}
	return opportunities, total, nil
}

// UpdateStage moves an opportunity to stage and resets its probability to
// the stage default. Closed-Won is terminal.
func (s *OpportunityService) UpdateStage(ctx context.Context, id string, stage domain.Stage) (*domain.Opportunity, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	transition := domain.StageTransition{OpportunityID: strings.TrimSpace(id), Stage: stage}
	if err := transition.Validate(); err != nil {
		return nil, err
	}

	current, err := s.opportunities.GetByID(ctx, transition.OpportunityID)
	if err != nil {
		return nil, persistenceError("get opportunity", err)
	}
	if current.Stage.IsTerminal() {
		return nil, fmt.Errorf("%w: opportunity %s is %s and cannot change stage", domain.ErrConflict, current.ID, current.Stage.Label())
	}

	updated, err := s.opportunities.TransitionStage(ctx, transition.OpportunityID, current.Stage, transition.Stage)
	if err != nil {
		return nil, persistenceError("transition opportunity stage", err)
	}

	s.metrics.IncStageTransition(updated.Stage.String())

	event := events.NewOpportunityEvent(events.EventOpportunityStageChanged, updated, s.now())
	event.PreviousStage = current.Stage
	s.publish(ctx, event)

	return updated, nil
}

func (s *OpportunityService) Update(ctx context.Context, id string, payload domain.UpdatePayload) (*domain.Opportunity, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: opportunity id is required", domain.ErrValidation)
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	payload.ExpectedCloseDate = normalizeDate(payload.ExpectedCloseDate)

	updated, err := s.opportunities.Update(ctx, id, payload)
	if err != nil {
		return nil, persistenceError("update opportunity", err)
	}

	s.publish(ctx, events.NewOpportunityEvent(events.EventOpportunityUpdated, updated, s.now()))
	return updated, nil
}

// SoftDelete marks the opportunity deleted. Related records are untouched.
func (s *OpportunityService) SoftDelete(ctx context.Context, id string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: opportunity id is required", domain.ErrValidation)
	}

	if err := s.opportunities.SoftDelete(ctx, id); err != nil {
		return persistenceError("delete opportunity", err)
	}

	s.publish(ctx, events.NewOpportunityEvent(events.EventOpportunityDeleted, &domain.Opportunity{ID: id}, s.now()))
	return nil
}

// publish never fails the calling operation; the record is already stored.
func (s *OpportunityService) publish(ctx context.Context, event events.OpportunityEvent) {
	if correlationID, ok := observability.CorrelationIDFromContext(ctx); ok {
		event.CorrelationID = correlationID
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(publishCtx, event); err != nil {
		observability.WithContextLogger(s.logger, ctx).Warn("failed to publish opportunity event",
			zap.String("type", string(event.Type)),
			zap.String("opportunityId", event.OpportunityID),
			zap.Error(err),
		)
	}
}

func prepareOpportunityForCreate(p domain.CreatePayload) (*domain.Opportunity, error) {
	o := &domain.Opportunity{
		Name:              strings.TrimSpace(p.Name),
		OrganizationID:    strings.TrimSpace(p.OrganizationID),
		PrincipalID:       normalizeOptionalString(p.PrincipalID),
		ProductID:         normalizeOptionalString(p.ProductID),
		Stage:             p.Stage,
		ExpectedCloseDate: normalizeDate(p.ExpectedCloseDate),
		Owner:             normalizeOptionalString(p.Owner),
		Notes:             normalizeOptionalString(p.Notes),
		Won:               p.Stage == domain.StageClosedWon,
		AutoGenerated:     p.AutoGenerated,
	}

	if p.Probability != nil {
		o.Probability = *p.Probability
	} else {
		o.Probability = p.Stage.DefaultProbability()
	}
	if p.AutoGenerated {
		o.NameTemplate = normalizeOptionalString(p.NameTemplate)
	}

	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

func normalizeOptionalString(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// normalizeDate drops the time of day; close dates are calendar dates.
func normalizeDate(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	y, m, d := v.Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &date
}

func withCreateSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, createSourceKey{}, source)
}

func createSource(ctx context.Context) string {
	if source, ok := ctx.Value(createSourceKey{}).(string); ok && source != "" {
		return source
	}
	return observability.SourceSingle
}

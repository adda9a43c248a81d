package service

import (
	"context"
	"sync"

	"github.com/kursadbilgin/opportunity-engine/internal/domain"
	"github.com/kursadbilgin/opportunity-engine/internal/events"
	"github.com/kursadbilgin/opportunity-engine/internal/repository"
)

type fakeOpportunityRepo struct {
	createFn          func(ctx context.Context, o *domain.Opportunity) error
	getByIDFn         func(ctx context.Context, id string) (*domain.Opportunity, error)
	listFn            func(ctx context.Context, params repository.ListParams) ([]domain.Opportunity, int64, error)
	updateFn          func(ctx context.Context, id string, payload domain.UpdatePayload) (*domain.Opportunity, error)
	transitionStageFn func(ctx context.Context, id string, from domain.Stage, to domain.Stage) (*domain.Opportunity, error)
	softDeleteFn      func(ctx context.Context, id string) error
}

func (f *fakeOpportunityRepo) Create(ctx context.Context, o *domain.Opportunity) error {
	if f.createFn != nil {
		return f.createFn(ctx, o)
	}
	return nil
}

func (f *fakeOpportunityRepo) GetByID(ctx context.Context, id string) (*domain.Opportunity, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeOpportunityRepo) List(ctx context.Context, params repository.ListParams) ([]domain.Opportunity, int64, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params)
	}
	return nil, 0, nil
}

func (f *fakeOpportunityRepo) Update(ctx context.Context, id string, payload domain.UpdatePayload) (*domain.Opportunity, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, payload)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeOpportunityRepo) TransitionStage(
	ctx context.Context,
	id string,
	from domain.Stage,
	to domain.Stage,
) (*domain.Opportunity, error) {
	if f.transitionStageFn != nil {
		return f.transitionStageFn(ctx, id, from, to)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeOpportunityRepo) SoftDelete(ctx context.Context, id string) error {
	if f.softDeleteFn != nil {
		return f.softDeleteFn(ctx, id)
	}
	return nil
}

type fakeDirectoryRepo struct {
	organizationNameFn func(ctx context.Context, id string) (string, error)
	principalNamesFn   func(ctx context.Context, ids []string) ([]domain.NamedEntity, error)
}

func (f *fakeDirectoryRepo) OrganizationName(ctx context.Context, id string) (string, error) {
	if f.organizationNameFn != nil {
		return f.organizationNameFn(ctx, id)
	}
	return "", domain.ErrNotFound
}

func (f *fakeDirectoryRepo) PrincipalNames(ctx context.Context, ids []string) ([]domain.NamedEntity, error) {
	if f.principalNamesFn != nil {
		return f.principalNamesFn(ctx, ids)
	}
	return nil, nil
}

// staticDirectory serves a fixed organization name and principal table.
func staticDirectory(organizationName string, principals map[string]string) *fakeDirectoryRepo {
	return &fakeDirectoryRepo{
		organizationNameFn: func(ctx context.Context, id string) (string, error) {
			return organizationName, nil
		},
		principalNamesFn: func(ctx context.Context, ids []string) ([]domain.NamedEntity, error) {
			out := make([]domain.NamedEntity, 0, len(ids))
			for _, id := range ids {
				if name, ok := principals[id]; ok {
					out = append(out, domain.NamedEntity{ID: id, Name: name})
				}
			}
			return out, nil
		},
	}
}

type fakeCreator struct {
	createFn func(ctx context.Context, payload domain.CreatePayload) (*domain.Opportunity, error)

	mu       sync.Mutex
	payloads []domain.CreatePayload
}

func (f *fakeCreator) Create(ctx context.Context, payload domain.CreatePayload) (*domain.Opportunity, error) {
	f.mu.Lock()
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()

	if f.createFn != nil {
		return f.createFn(ctx, payload)
	}
	return opportunityFromPayload(payload), nil
}

func (f *fakeCreator) calls() []domain.CreatePayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.CreatePayload(nil), f.payloads...)
}

func opportunityFromPayload(p domain.CreatePayload) *domain.Opportunity {
	o := &domain.Opportunity{
		ID:             "opp-" + *p.PrincipalID,
		Name:           p.Name,
		OrganizationID: p.OrganizationID,
		PrincipalID:    p.PrincipalID,
		Stage:          p.Stage,
		Probability:    p.Stage.DefaultProbability(),
		AutoGenerated:  p.AutoGenerated,
		NameTemplate:   p.NameTemplate,
	}
	if p.Probability != nil {
		o.Probability = *p.Probability
	}
	return o
}

type fakePublisher struct {
	publishFn func(ctx context.Context, event events.OpportunityEvent) error

	mu        sync.Mutex
	published []events.OpportunityEvent
}

func (f *fakePublisher) Publish(ctx context.Context, event events.OpportunityEvent) error {
	f.mu.Lock()
	f.published = append(f.published, event)
	f.mu.Unlock()

	if f.publishFn != nil {
		return f.publishFn(ctx, event)
	}
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) events() []events.OpportunityEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]events.OpportunityEvent(nil), f.published...)
}

type fakeLimiter struct {
	waitFn func(ctx context.Context, scope string) error

	mu    sync.Mutex
	waits int
}

func (f *fakeLimiter) Allow(context.Context, string) (bool, error) { return true, nil }

func (f *fakeLimiter) Wait(ctx context.Context, scope string) error {
	f.mu.Lock()
	f.waits++
	f.mu.Unlock()

	if f.waitFn != nil {
		return f.waitFn(ctx, scope)
	}
	return nil
}

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }

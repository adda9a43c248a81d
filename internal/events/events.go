// Package events publishes opportunity lifecycle events for downstream
// consumers such as principal analytics.
package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kursadbilgin/opportunity-engine/internal/domain"
)

type EventType string

const (
	EventOpportunityCreated      EventType = "opportunity.created"
	EventOpportunityUpdated      EventType = "opportunity.updated"
	EventOpportunityStageChanged EventType = "opportunity.stage_changed"
	EventOpportunityDeleted      EventType = "opportunity.deleted"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventOpportunityCreated, EventOpportunityUpdated, EventOpportunityStageChanged, EventOpportunityDeleted:
		return true
	}
	return false
}

// RoutingKey is the topic routing key, identical to the event type.
func (t EventType) RoutingKey() string {
	return string(t)
}

// OpportunityEvent is the broker payload describing one opportunity change.
type OpportunityEvent struct {
	Type           EventType    `json:"type"`
	OpportunityID  string       `json:"opportunityId"`
	OrganizationID string       `json:"organizationId,omitempty"`
	PrincipalID    *string      `json:"principalId,omitempty"`
	Stage          domain.Stage `json:"stage,omitempty"`
	PreviousStage  domain.Stage `json:"previousStage,omitempty"`
	Probability    int          `json:"probability"`
	Won            bool         `json:"won"`
	CorrelationID  string       `json:"correlationId,omitempty"`
	OccurredAt     time.Time    `json:"occurredAt"`
}

func (e OpportunityEvent) Validate() error {
	if !e.Type.IsValid() {
		return fmt.Errorf("invalid event type %q", e.Type)
	}
	if strings.TrimSpace(e.OpportunityID) == "" {
		return fmt.Errorf("opportunityId is required")
	}
	if e.OccurredAt.IsZero() {
		return fmt.Errorf("occurredAt is required")
	}
	return nil
}

// NewOpportunityEvent snapshots o into an event of type t.
func NewOpportunityEvent(t EventType, o *domain.Opportunity, occurredAt time.Time) OpportunityEvent {
	event := OpportunityEvent{
		Type:       t,
		OccurredAt: occurredAt.UTC(),
	}
	if o == nil {
		return event
	}
	event.OpportunityID = o.ID
	event.OrganizationID = o.OrganizationID
	event.PrincipalID = o.PrincipalID
	event.Stage = o.Stage
	event.Probability = o.Probability
	event.Won = o.Won
	return event
}

// Publisher publishes opportunity events.
type Publisher interface {
	Publish(ctx context.Context, event OpportunityEvent) error
	Close() error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OpportunityEvent) error { return nil }

func (NopPublisher) Close() error { return nil }

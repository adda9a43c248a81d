package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/opportunity-engine/internal/domain"
	"github.com/kursadbilgin/opportunity-engine/internal/repository"
)

const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 100
)

type OpportunityService interface {
	Create(ctx context.Context, payload domain.CreatePayload) (*domain.Opportunity, error)
	GetByID(ctx context.Context, id string) (*domain.Opportunity, error)
	List(ctx context.Context, params repository.ListParams) ([]domain.Opportunity, int64, error)
	Update(ctx context.Context, id string, payload domain.UpdatePayload) (*domain.Opportunity, error)
	UpdateStage(ctx context.Context, id string, stage domain.Stage) (*domain.Opportunity, error)
	SoftDelete(ctx context.Context, id string) error
}

type OpportunityHandler struct {
	service OpportunityService
}

func NewOpportunityHandler(service OpportunityService) (*OpportunityHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("opportunity service is required")
	}
	return &OpportunityHandler{service: service}, nil
}

// RegisterOpportunityRoutes mounts the opportunity and batch endpoints under
// /v1. Batch routes are registered first so "batch" is never read as an id.
func RegisterOpportunityRoutes(router fiber.Router, opportunities OpportunityService, batches BatchService) error {
	h, err := NewOpportunityHandler(opportunities)
	if err != nil {
		return err
	}
	bh, err := NewBatchHandler(batches)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/opportunities/batch/preview", bh.PreviewNames)
	v1.Post("/opportunities/batch", bh.CreateBatch)

	v1.Post("/opportunities", h.CreateOpportunity)
	v1.Get("/opportunities", h.ListOpportunities)
	v1.Get("/opportunities/:id", h.GetOpportunity)
	v1.Patch("/opportunities/:id", h.UpdateOpportunity)
	v1.Post("/opportunities/:id/stage", h.UpdateStage)
	v1.Delete("/opportunities/:id", h.DeleteOpportunity)

	return nil
}

type createOpportunityRequest struct {
	Name              string  `json:"name" validate:"required,max=255"`
	OrganizationID    string  `json:"organizationId" validate:"required,uuid"`
	PrincipalID       *string `json:"principalId" validate:"omitempty,optional_uuid"`
	ProductID         *string `json:"productId" validate:"omitempty,optional_uuid"`
	Stage             string  `json:"stage" validate:"required"`
	Probability       *int    `json:"probability" validate:"omitempty,min=0,max=100"`
	ExpectedCloseDate *string `json:"expectedCloseDate" validate:"omitempty,optional_date"`
	Owner             *string `json:"owner" validate:"omitempty,max=255"`
	Notes             *string `json:"notes"`
}

// updateOpportunityRequest is a partial update. An empty expectedCloseDate
// clears the date.
type updateOpportunityRequest struct {
	Name              *string `json:"name" validate:"omitempty,max=255"`
	ProductID         *string `json:"productId" validate:"omitempty,optional_uuid"`
	Probability       *int    `json:"probability" validate:"omitempty,min=0,max=100"`
	ExpectedCloseDate *string `json:"expectedCloseDate" validate:"omitempty,optional_date"`
	Owner             *string `json:"owner" validate:"omitempty,max=255"`
	Notes             *string `json:"notes"`
}

type updateStageRequest struct {
	Stage string `json:"stage" validate:"required"`
}

type opportunityResponse struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	OrganizationID    string     `json:"organizationId"`
	PrincipalID       *string    `json:"principalId,omitempty"`
	ProductID         *string    `json:"productId,omitempty"`
	Stage             string     `json:"stage"`
	StageLabel        string     `json:"stageLabel"`
	Probability       int        `json:"probability"`
	ExpectedCloseDate *string    `json:"expectedCloseDate,omitempty"`
	Owner             *string    `json:"owner,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
	Won               bool       `json:"won"`
	AutoGenerated     bool       `json:"autoGenerated"`
	NameTemplate      *string    `json:"nameTemplate,omitempty"`
	CreatedAt         time.Time  `json:"createdAt,omitempty"`
	UpdatedAt         time.Time  `json:"updatedAt,omitempty"`
	DeletedAt         *time.Time `json:"deletedAt,omitempty"`
}

type listOpportunitiesResponse struct {
	Data []opportunityResponse `json:"data"`
	Meta listMeta              `json:"meta"`
}

type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

func (h *OpportunityHandler) CreateOpportunity(c *fiber.Ctx) error {
	var req createOpportunityRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validateRequest(req); err != nil {
		return toHTTPError(err)
	}

	payload, err := requestToCreatePayload(req)
	if err != nil {
		return toHTTPError(err)
	}

	created, err := h.service.Create(c.UserContext(), payload)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toOpportunityResponse(created))
}

func (h *OpportunityHandler) GetOpportunity(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	opportunity, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toOpportunityResponse(opportunity))
}

func (h *OpportunityHandler) ListOpportunities(c *fiber.Ctx) error {
	params, err := parseListParams(c)
	if err != nil {
		return toHTTPError(err)
	}

	opportunities, total, err := h.service.List(c.UserContext(), params)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(listOpportunitiesResponse{
		Data: toOpportunityResponses(opportunities),
		Meta: listMeta{
			Page:     params.Page,
			PageSize: params.PageSize,
			Total:    total,
		},
	})
}

func (h *OpportunityHandler) UpdateOpportunity(c *fiber.Ctx) error {
	var req updateOpportunityRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validateRequest(req); err != nil {
		return toHTTPError(err)
	}

	payload, err := requestToUpdatePayload(req)
	if err != nil {
		return toHTTPError(err)
	}

	id := strings.TrimSpace(c.Params("id"))
	updated, err := h.service.Update(c.UserContext(), id, payload)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toOpportunityResponse(updated))
}

func (h *OpportunityHandler) UpdateStage(c *fiber.Ctx) error {
	var req updateStageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validateRequest(req); err != nil {
		return toHTTPError(err)
	}

	stage, err := domain.ParseStageFromString(req.Stage)
	if err != nil {
		return toHTTPError(err)
	}

	id := strings.TrimSpace(c.Params("id"))
	updated, err := h.service.UpdateStage(c.UserContext(), id, stage)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toOpportunityResponse(updated))
}

func (h *OpportunityHandler) DeleteOpportunity(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if err := h.service.SoftDelete(c.UserContext(), id); err != nil {
		return toHTTPError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func parseListParams(c *fiber.Ctx) (repository.ListParams, error) {
	params := repository.ListParams{
		Page:     c.QueryInt("page", defaultPage),
		PageSize: c.QueryInt("pageSize", defaultPageSize),
	}

	if params.Page < 1 {
		return repository.ListParams{}, fmt.Errorf("%w: page must be >= 1", domain.ErrValidation)
	}
	if params.PageSize < 1 || params.PageSize > maxPageSize {
		return repository.ListParams{}, fmt.Errorf("%w: pageSize must be between 1 and %d", domain.ErrValidation, maxPageSize)
	}

	if organizationID := strings.TrimSpace(c.Query("organizationId")); organizationID != "" {
		params.OrganizationID = &organizationID
	}
	if principalID := strings.TrimSpace(c.Query("principalId")); principalID != "" {
		params.PrincipalID = &principalID
	}

	if rawStage := strings.TrimSpace(c.Query("stage")); rawStage != "" {
		stage, err := domain.ParseStageFromString(rawStage)
		if err != nil {
			return repository.ListParams{}, err
		}
		params.Stage = &stage
	}

	return params, nil
}

func requestToCreatePayload(req createOpportunityRequest) (domain.CreatePayload, error) {
	stage, err := domain.ParseStageFromString(req.Stage)
	if err != nil {
		return domain.CreatePayload{}, err
	}

	closeDate, err := parseDate(req.ExpectedCloseDate, "expectedCloseDate")
	if err != nil {
		return domain.CreatePayload{}, err
	}

	return domain.CreatePayload{
		Name:              req.Name,
		OrganizationID:    req.OrganizationID,
		PrincipalID:       req.PrincipalID,
		ProductID:         req.ProductID,
		Stage:             stage,
		Probability:       req.Probability,
		ExpectedCloseDate: closeDate,
		Owner:             req.Owner,
		Notes:             req.Notes,
	}, nil
}

func requestToUpdatePayload(req updateOpportunityRequest) (domain.UpdatePayload, error) {
	payload := domain.UpdatePayload{
		Name:        req.Name,
		ProductID:   req.ProductID,
		Probability: req.Probability,
		Owner:       req.Owner,
		Notes:       req.Notes,
	}

	if req.ExpectedCloseDate != nil {
		if strings.TrimSpace(*req.ExpectedCloseDate) == "" {
			payload.ClearExpectedCloseDate = true
		} else {
			closeDate, err := parseDate(req.ExpectedCloseDate, "expectedCloseDate")
			if err != nil {
				return domain.UpdatePayload{}, err
			}
			payload.ExpectedCloseDate = closeDate
		}
	}

	return payload, nil
}

func toOpportunityResponses(opportunities []domain.Opportunity) []opportunityResponse {
	responses := make([]opportunityResponse, 0, len(opportunities))
	for _, opportunity := range opportunities {
		o := opportunity
		responses = append(responses, toOpportunityResponse(&o))
	}
	return responses
}

func toOpportunityResponse(o *domain.Opportunity) opportunityResponse {
	if o == nil {
		return opportunityResponse{}
	}

	return opportunityResponse{
		ID:                o.ID,
		Name:              o.Name,
		OrganizationID:    o.OrganizationID,
		PrincipalID:       o.PrincipalID,
		ProductID:         o.ProductID,
		Stage:             o.Stage.String(),
		StageLabel:        o.Stage.Label(),
		Probability:       o.Probability,
		ExpectedCloseDate: formatDate(o.ExpectedCloseDate),
		Owner:             o.Owner,
		Notes:             o.Notes,
		Won:               o.Won,
		AutoGenerated:     o.AutoGenerated,
		NameTemplate:      o.NameTemplate,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
		DeletedAt:         o.DeletedAt,
	}
}

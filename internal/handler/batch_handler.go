package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/opportunity-engine/internal/domain"
	"github.com/kursadbilgin/opportunity-engine/internal/service"
)

type BatchService interface {
	PreviewNames(ctx context.Context, req service.PreviewRequest) ([]domain.NamePreview, error)
	CreateBatch(ctx context.Context, form domain.BatchFormData) (*domain.BatchCreationResult, error)
}

type BatchHandler struct {
	service BatchService
}

func NewBatchHandler(service BatchService) (*BatchHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("batch service is required")
	}
	return &BatchHandler{service: service}, nil
}

type previewNamesRequest struct {
	OrganizationID string   `json:"organizationId" validate:"required,uuid"`
	PrincipalIDs   []string `json:"principalIds" validate:"required,min=1,dive,uuid"`
	ContextTag     string   `json:"contextTag" validate:"required"`
	CustomTemplate *string  `json:"customTemplate" validate:"omitempty,max=255"`
}

type createBatchRequest struct {
	OrganizationID    string   `json:"organizationId" validate:"required,uuid"`
	PrincipalIDs      []string `json:"principalIds" validate:"required,min=1,dive,uuid"`
	Stage             string   `json:"stage" validate:"required"`
	ProductID         *string  `json:"productId" validate:"omitempty,optional_uuid"`
	ContextTag        string   `json:"contextTag"`
	CustomTemplate    *string  `json:"customTemplate" validate:"omitempty,max=255"`
	AutoGenerateNames *bool    `json:"autoGenerateNames"`
	Name              string   `json:"name" validate:"max=255"`
	Probability       *int     `json:"probability" validate:"omitempty,min=0,max=100"`
	ExpectedCloseDate *string  `json:"expectedCloseDate" validate:"omitempty,optional_date"`
	Owner             *string  `json:"owner" validate:"omitempty,max=255"`
	Notes             *string  `json:"notes"`
}

type namePreviewResponse struct {
	PrincipalID   string `json:"principalId"`
	PrincipalName string `json:"principalName"`
	Name          string `json:"name"`
	Template      string `json:"template"`
}

type previewNamesResponse struct {
	Previews []namePreviewResponse `json:"previews"`
}

type batchFailureResponse struct {
	PrincipalID   string `json:"principalId"`
	PrincipalName string `json:"principalName,omitempty"`
	Error         string `json:"error"`
}

type createBatchResponse struct {
	Success      bool                   `json:"success"`
	CreatedCount int                    `json:"createdCount"`
	FailedCount  int                    `json:"failedCount"`
	TotalCount   int                    `json:"totalCount"`
	Created      []opportunityResponse  `json:"created"`
	Failed       []batchFailureResponse `json:"failed"`
}

func (h *BatchHandler) PreviewNames(c *fiber.Ctx) error {
	var req previewNamesRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validateRequest(req); err != nil {
		return toHTTPError(err)
	}

	tag, err := domain.ParseContextTagFromString(req.ContextTag)
	if err != nil {
		return toHTTPError(err)
	}

	previews, err := h.service.PreviewNames(c.UserContext(), service.PreviewRequest{
		OrganizationID: req.OrganizationID,
		PrincipalIDs:   req.PrincipalIDs,
		ContextTag:     tag,
		CustomTemplate: req.CustomTemplate,
	})
	if err != nil {
		return toHTTPError(err)
	}

	items := make([]namePreviewResponse, 0, len(previews))
	for _, preview := range previews {
		items = append(items, namePreviewResponse{
			PrincipalID:   preview.PrincipalID,
			PrincipalName: preview.PrincipalName,
			Name:          preview.Name,
			Template:      preview.Template,
		})
	}

	return c.Status(fiber.StatusOK).JSON(previewNamesResponse{Previews: items})
}

// CreateBatch answers 201 when every principal got an opportunity, 207 when
// some failed and 422 when none were created. The body always carries the
// full per-principal result once processing started.
func (h *BatchHandler) CreateBatch(c *fiber.Ctx) error {
	var req createBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validateRequest(req); err != nil {
		return toHTTPError(err)
	}

	form, err := requestToBatchForm(req)
	if err != nil {
		return toHTTPError(err)
	}

	result, err := h.service.CreateBatch(c.UserContext(), form)
	if err != nil {
		if errors.Is(err, domain.ErrBatchFailed) && result != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(toCreateBatchResponse(result))
		}
		return toHTTPError(err)
	}

	status := fiber.StatusCreated
	if result.FailedCount > 0 {
		status = fiber.StatusMultiStatus
	}
	return c.Status(status).JSON(toCreateBatchResponse(result))
}

func requestToBatchForm(req createBatchRequest) (domain.BatchFormData, error) {
	stage, err := domain.ParseStageFromString(req.Stage)
	if err != nil {
		return domain.BatchFormData{}, err
	}

	closeDate, err := parseDate(req.ExpectedCloseDate, "expectedCloseDate")
	if err != nil {
		return domain.BatchFormData{}, err
	}

	autoGenerate := true
	if req.AutoGenerateNames != nil {
		autoGenerate = *req.AutoGenerateNames
	}

	form := domain.BatchFormData{
		OrganizationID:    req.OrganizationID,
		PrincipalIDs:      req.PrincipalIDs,
		Stage:             stage,
		ProductID:         req.ProductID,
		ContextTag:        domain.ContextTag(strings.TrimSpace(req.ContextTag)),
		CustomTemplate:    req.CustomTemplate,
		AutoGenerateNames: autoGenerate,
		Name:              req.Name,
		Probability:       req.Probability,
		ExpectedCloseDate: closeDate,
		Owner:             req.Owner,
		Notes:             req.Notes,
	}

	if autoGenerate {
		tag, err := domain.ParseContextTagFromString(req.ContextTag)
		if err != nil {
			return domain.BatchFormData{}, err
		}
		form.ContextTag = tag
	}

	return form, nil
}

func toCreateBatchResponse(result *domain.BatchCreationResult) createBatchResponse {
	failed := make([]batchFailureResponse, 0, len(result.Failed))
	for _, failure := range result.Failed {
		failed = append(failed, batchFailureResponse{
			PrincipalID:   failure.PrincipalID,
			PrincipalName: failure.PrincipalName,
			Error:         failure.Error,
		})
	}

	return createBatchResponse{
		Success:      result.Success,
		CreatedCount: result.CreatedCount,
		FailedCount:  result.FailedCount,
		TotalCount:   result.TotalCount,
		Created:      toOpportunityResponses(result.Created),
		Failed:       failed,
	}
}

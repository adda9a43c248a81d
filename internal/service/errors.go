package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/kursadbilgin/opportunity-engine/internal/domain"
	"gorm.io/gorm"
)

// Failure reasons used for metrics labels and logs.
const (
	reasonValidation  = "validation"
	reasonNotFound    = "not_found"
	reasonConflict    = "conflict"
	reasonPersistence = "persistence"
	reasonCanceled    = "canceled"
	reasonUnknown     = "unknown"
)

// persistenceError passes domain errors through and wraps anything else the
// gateway returned as ErrPersistence.
func persistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, op, err)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return reasonValidation
	case errors.Is(err, domain.ErrNotFound):
		return reasonNotFound
	case errors.Is(err, domain.ErrConflict):
		return reasonConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return reasonCanceled
	case errors.Is(err, domain.ErrPersistence):
		return reasonPersistence
	default:
		return reasonUnknown
	}
}

// PublicErrorMessage renders err for API callers. Validation, not-found and
// conflict messages are produced by this service and are shown as is;
// gateway and unexpected errors are reduced to a fixed description.
func PublicErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	switch failureReason(err) {
	case reasonValidation, reasonNotFound, reasonConflict:
		return err.Error()
	case reasonCanceled:
		return "request canceled"
	case reasonPersistence:
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return "persistence error: record already exists"
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			return "persistence error: referenced record does not exist"
		case errors.Is(err, gorm.ErrCheckConstraintViolated):
			return "persistence error: record violates a data constraint"
		default:
			return "persistence error: could not save opportunity"
		}
	default:
		return domain.ErrUnknown.Error()
	}
}

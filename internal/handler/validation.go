package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/kursadbilgin/opportunity-engine/internal/domain"
	"github.com/kursadbilgin/opportunity-engine/internal/service"
)

const dateLayout = time.DateOnly

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Optional fields accept an empty string, which means "clear".
	_ = v.RegisterValidation("optional_uuid", func(fl validator.FieldLevel) bool {
		value := strings.TrimSpace(fl.Field().String())
		if value == "" {
			return true
		}
		_, err := uuid.Parse(value)
		return err == nil
	})
	_ = v.RegisterValidation("optional_date", func(fl validator.FieldLevel) bool {
		value := strings.TrimSpace(fl.Field().String())
		if value == "" {
			return true
		}
		_, err := time.Parse(dateLayout, value)
		return err == nil
	})
	return v
}

// validateRequest runs struct tag validation and reports the first failing
// field as ErrValidation.
func validateRequest(req any) error {
	err := requestValidator.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrValidation, describeFieldError(fieldErrors[0]))
	}
	return fmt.Errorf("%w: %v", domain.ErrValidation, err)
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "uuid", "optional_uuid":
		return field + " must be a UUID"
	case "optional_date":
		return field + " must be a date formatted YYYY-MM-DD"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return field + " is invalid"
	}
}

func parseDate(value *string, field string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil, nil
	}

	t, err := time.Parse(dateLayout, trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a date formatted YYYY-MM-DD", domain.ErrValidation, field)
	}
	return &t, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(dateLayout)
	return &formatted
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrBatchFailed):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrPersistence):
		return fiber.NewError(fiber.StatusBadGateway, service.PublicErrorMessage(err))
	default:
		return err
	}
}

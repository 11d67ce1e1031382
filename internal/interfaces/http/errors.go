package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Biblioteca-api/internal/application/dto"
	"github.com/jhoicas/Biblioteca-api/internal/domain"
)

// writeError traduce errores de dominio a respuesta HTTP. Es el único punto de mapeo.
func writeError(c *fiber.Ctx, err error) error {
	var limitErr *domain.LimitError
	if errors.As(err, &limitErr) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Code:    "LIMIT_REACHED",
			Message: limitErr.Error(),
			Upgrade: limitErr.Upgrade(),
			Limit: &dto.LimitDetail{
				Resource: limitErr.Resource,
				Plan:     limitErr.Plan,
				Current:  limitErr.Current,
				Max:      limitErr.Max,
			},
		})
	}

	var field string
	var fieldErr *domain.FieldError
	if errors.As(err, &fieldErr) {
		field = fieldErr.Field
	}

	status, code := fiber.StatusInternalServerError, "INTERNAL"
	msg := "error interno"
	switch {
	case errors.Is(err, domain.ErrSlugTaken):
		status, code, msg = fiber.StatusConflict, "SLUG_TAKEN", domain.ErrSlugTaken.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, code, msg = fiber.StatusNotFound, "NOT_FOUND", err.Error()
	case errors.Is(err, domain.ErrInvalidSignature):
		status, code, msg = fiber.StatusBadRequest, "INVALID_SIGNATURE", domain.ErrInvalidSignature.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		status, code, msg = fiber.StatusBadRequest, "VALIDATION", err.Error()
	case errors.Is(err, domain.ErrConflict):
		status, code, msg = fiber.StatusConflict, "CONFLICT", err.Error()
	case errors.Is(err, domain.ErrForbidden):
		status, code, msg = fiber.StatusForbidden, "FORBIDDEN", domain.ErrForbidden.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		status, code, msg = fiber.StatusUnauthorized, "UNAUTHORIZED", domain.ErrUnauthorized.Error()
	case errors.Is(err, domain.ErrBillingUnavailable):
		c.Set(fiber.HeaderRetryAfter, "30")
		status, code, msg = fiber.StatusServiceUnavailable, "BILLING_UNAVAILABLE", domain.ErrBillingUnavailable.Error()
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg, Field: field})
}

// badRequest respuesta 400 con código propio (cuerpo ilegible, parámetro faltante).
func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

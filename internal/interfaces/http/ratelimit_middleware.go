package http

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Biblioteca-api/internal/application/dto"
	"github.com/jhoicas/Biblioteca-api/internal/application/ratelimit"
	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/plan"
	"github.com/jhoicas/Biblioteca-api/pkg/logger"
)

// quotaChecker contrato mínimo del middleware; lo implementa *ratelimit.Limiter.
type quotaChecker interface {
	Allow(ctx context.Context, orgID string) (ratelimit.Decision, error)
}

// RequireQuota cuenta la petición contra la cuota diaria de la organización del token.
// Debe usarse DESPUÉS de AuthMiddleware.
//
// Comportamiento:
//   - Sin organización en el token (administradores, usuarios sin tenant) → pasa sin contar.
//   - 429 RATE_LIMITED con upgrade:true → cuota agotada; X-RateLimit-* siempre presentes.
//   - Error al leer la organización → pasa (el contador ya es fail-open) y se registra.
func RequireQuota(checker quotaChecker, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := GetOrganizationID(c)
		if orgID == "" {
			return c.Next()
		}

		d, err := checker.Allow(c.UserContext(), orgID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				log.Warn().Err(err).Str("org_id", orgID).Msg("no se pudo evaluar la cuota, se admite la petición")
			}
			return c.Next()
		}

		if d.Limit != plan.Unlimited {
			c.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			c.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
		}
		if !d.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secondsUntil(d.ResetAt)))
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Code:    "RATE_LIMITED",
				Message: "cuota diaria de peticiones agotada para el plan " + d.Plan.String(),
				Upgrade: d.Plan != plan.Enterprise,
			})
		}
		return c.Next()
	}
}

func secondsUntil(t time.Time) int {
	s := int(time.Until(t).Seconds())
	if s < 1 {
		return 1
	}
	return s
}

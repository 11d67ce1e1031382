package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/plan"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
	"github.com/jhoicas/Biblioteca-api/pkg/logger"
	"github.com/jhoicas/Biblioteca-api/pkg/metrics"
)

// keyGrace margen tras el fin del día UTC antes de que expire la clave del contador.
const keyGrace = time.Hour

// Counter contador atómico con expiración absoluta.
type Counter interface {
	// Incr incrementa key y devuelve el valor tras el incremento. expireAt fija la expiración de la clave.
	Incr(ctx context.Context, key string, expireAt time.Time) (int64, error)
}

// Decision resultado de Allow. Limit -1 = ilimitado (Remaining también -1).
type Decision struct {
	Allowed   bool
	Plan      plan.Plan
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter cuota diaria de peticiones por organización en ventana fija de día calendario UTC.
// Los rechazos de hoy no cuentan contra mañana: la clave cambia con la fecha.
type Limiter struct {
	orgs    repository.OrganizationRepository
	counter Counter
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewLimiter construye el limitador.
func NewLimiter(orgs repository.OrganizationRepository, counter Counter, log *logger.Logger, m *metrics.Metrics) *Limiter {
	return &Limiter{
		orgs:    orgs,
		counter: counter,
		log:     log.Component("ratelimit"),
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Key clave del contador para la organización en el día UTC de t.
func Key(orgID string, t time.Time) string {
	return fmt.Sprintf("ratelimit:org:%s:%s", orgID, t.UTC().Format("2006-01-02"))
}

// Allow cuenta una petición de la organización y decide si entra en la cuota del plan vigente.
// Si el contador falla la petición se admite (fail-open) y se registra el error.
func (l *Limiter) Allow(ctx context.Context, orgID string) (Decision, error) {
	org, err := l.orgs.GetByID(ctx, orgID)
	if err != nil {
		return Decision{}, err
	}
	if org == nil {
		return Decision{}, domain.ErrNotFound
	}

	now := l.now()
	reset := startOfNextDay(now)
	ceiling := plan.LimitsFor(org.Plan).DailyRequests
	d := Decision{Allowed: true, Plan: org.Plan, Limit: ceiling, Remaining: plan.Unlimited, ResetAt: reset}
	if ceiling == plan.Unlimited {
		return d, nil
	}

	n, err := l.counter.Incr(ctx, Key(orgID, now), reset.Add(keyGrace))
	if err != nil {
		l.metrics.RecordRateLimitFailOpen()
		l.log.Warn().Err(err).Str("org_id", orgID).Msg("contador de cuota no disponible, se admite la petición")
		d.Remaining = ceiling
		return d, nil
	}

	d.Allowed = n <= int64(ceiling)
	d.Remaining = max(ceiling-int(n), 0)
	if !d.Allowed {
		l.metrics.RecordRateLimited(org.Plan.String())
		l.log.Debug().Str("org_id", orgID).Str("plan", org.Plan.String()).Int64("count", n).Msg("cuota diaria agotada")
	}
	return d, nil
}

func startOfNextDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}

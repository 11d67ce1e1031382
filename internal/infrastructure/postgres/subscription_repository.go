package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/plan"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

var _ repository.SubscriptionRepository = (*SubscriptionRepo)(nil)

const subColumns = `id, organization_id, billing_customer_id, billing_subscription_id, billing_price_id,
	plan, status, current_period_start, current_period_end, cancel_at_period_end, created_at, updated_at`

// SubscriptionRepo implementación de SubscriptionRepository sobre PostgreSQL (usable con pool o tx).
type SubscriptionRepo struct {
	q Querier
}

// NewSubscriptionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSubscriptionRepository(q Querier) *SubscriptionRepo {
	return &SubscriptionRepo{q: q}
}

// GetByOrganization obtiene la suscripción de una organización.
func (r *SubscriptionRepo) GetByOrganization(ctx context.Context, organizationID string) (*entity.Subscription, error) {
	return r.getOne(ctx, `SELECT `+subColumns+` FROM subscriptions WHERE organization_id = $1`, organizationID)
}

// GetByCustomerID obtiene la suscripción por ID de cliente del proveedor de cobro.
func (r *SubscriptionRepo) GetByCustomerID(ctx context.Context, customerID string) (*entity.Subscription, error) {
	return r.getOne(ctx, `SELECT `+subColumns+` FROM subscriptions WHERE billing_customer_id = $1`, customerID)
}

func (r *SubscriptionRepo) getOne(ctx context.Context, query, arg string) (*entity.Subscription, error) {
	s, err := scanSubscription(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return s, nil
}

// Upsert inserta o actualiza la suscripción por organization_id. Reescribe todos los campos
// con la foto recibida; re-aplicar la misma foto deja la fila igual.
func (r *SubscriptionRepo) Upsert(ctx context.Context, sub *entity.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, organization_id, billing_customer_id, billing_subscription_id, billing_price_id,
			plan, status, current_period_start, current_period_end, cancel_at_period_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (organization_id) DO UPDATE SET
			billing_customer_id     = EXCLUDED.billing_customer_id,
			billing_subscription_id = EXCLUDED.billing_subscription_id,
			billing_price_id        = EXCLUDED.billing_price_id,
			plan                    = EXCLUDED.plan,
			status                  = EXCLUDED.status,
			current_period_start    = EXCLUDED.current_period_start,
			current_period_end      = EXCLUDED.current_period_end,
			cancel_at_period_end    = EXCLUDED.cancel_at_period_end,
			updated_at              = EXCLUDED.updated_at
		RETURNING id, created_at`
	err := r.q.QueryRow(ctx, query,
		sub.ID, sub.OrganizationID,
		nullIfEmpty(sub.BillingCustomerID), nullIfEmpty(sub.BillingSubscriptionID), nullIfEmpty(sub.BillingPriceID),
		string(sub.Plan), sub.Status, sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CancelAtPeriodEnd,
		sub.UpdatedAt,
	).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) && violatedConstraint(err) == constraintSubCustomerID {
			return fmt.Errorf("cliente de cobro %s ya asociado a otra organización: %w", sub.BillingCustomerID, domain.ErrConflict)
		}
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

func scanSubscription(row pgx.Row) (*entity.Subscription, error) {
	var (
		s                          entity.Subscription
		customerID, subID, priceID *string
		planID                     string
	)
	err := row.Scan(&s.ID, &s.OrganizationID, &customerID, &subID, &priceID,
		&planID, &s.Status, &s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.CancelAtPeriodEnd,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.BillingCustomerID = derefString(customerID)
	s.BillingSubscriptionID = derefString(subID)
	s.BillingPriceID = derefString(priceID)
	s.Plan = plan.Plan(planID)
	return &s, nil
}

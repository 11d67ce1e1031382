package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

var _ repository.BillingEventRepository = (*BillingEventRepo)(nil)

// BillingEventRepo bitácora de eventos de cobro sobre PostgreSQL. amount es NUMERIC (codec shopspring).
type BillingEventRepo struct {
	q Querier
}

// NewBillingEventRepository construye el adaptador.
func NewBillingEventRepository(q Querier) *BillingEventRepo {
	return &BillingEventRepo{q: q}
}

// Record inserta o, si el proveedor re-entrega el mismo id, actualiza el resultado.
func (r *BillingEventRepo) Record(ctx context.Context, ev *entity.BillingEvent) error {
	query := `
		INSERT INTO billing_events (id, type, customer_id, amount, currency, outcome, reason, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET outcome = EXCLUDED.outcome, reason = EXCLUDED.reason`
	_, err := r.q.Exec(ctx, query,
		ev.ID, ev.Type, nullIfEmpty(ev.CustomerID), ev.Amount, nullIfEmpty(ev.Currency),
		ev.Outcome, ev.Reason, ev.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("insert billing event: %w", err)
	}
	return nil
}

// ListByCustomer últimos eventos de un cliente, más recientes primero.
func (r *BillingEventRepo) ListByCustomer(ctx context.Context, customerID string, limit int) ([]*entity.BillingEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, type, customer_id, amount, currency, outcome, reason, received_at
		FROM billing_events WHERE customer_id = $1
		ORDER BY received_at DESC LIMIT $2`, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list billing events: %w", err)
	}
	defer rows.Close()

	var list []*entity.BillingEvent
	for rows.Next() {
		ev, err := scanBillingEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan billing event: %w", err)
		}
		list = append(list, ev)
	}
	return list, rows.Err()
}

func scanBillingEvent(row pgx.Row) (*entity.BillingEvent, error) {
	var (
		ev                   entity.BillingEvent
		customerID, currency *string
		amount               decimal.NullDecimal
	)
	if err := row.Scan(&ev.ID, &ev.Type, &customerID, &amount, &currency, &ev.Outcome, &ev.Reason, &ev.ReceivedAt); err != nil {
		return nil, err
	}
	ev.CustomerID = derefString(customerID)
	ev.Currency = derefString(currency)
	if amount.Valid {
		ev.Amount = &amount.Decimal
	}
	return &ev, nil
}

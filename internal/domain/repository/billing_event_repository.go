package repository

import (
	"context"

	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
)

// BillingEventRepository bitácora de eventos de cobro.
type BillingEventRepository interface {
	// Record inserta el evento; si el id ya existe actualiza outcome/reason (re-entregas).
	Record(ctx context.Context, ev *entity.BillingEvent) error
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]*entity.BillingEvent, error)
}

package repository

import (
	"context"

	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
)

// SubscriptionRepository puerto de persistencia para Subscription.
// Solo el sincronizador de suscripciones escribe por este puerto.
type SubscriptionRepository interface {
	GetByOrganization(ctx context.Context, organizationID string) (*entity.Subscription, error)
	GetByCustomerID(ctx context.Context, customerID string) (*entity.Subscription, error)
	// Upsert inserta o actualiza por organization_id (nunca duplica la fila 1:1).
	Upsert(ctx context.Context, sub *entity.Subscription) error
}

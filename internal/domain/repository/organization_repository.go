package repository

import (
	"context"

	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/plan"
)

// OrganizationRepository define el puerto de persistencia para Organization (DIP).
// La implementación vive en infrastructure. Los Get* devuelven nil, nil si no existe.
type OrganizationRepository interface {
	// Create inserta la organización. Una violación del índice único de slug se devuelve como domain.ErrSlugTaken.
	Create(ctx context.Context, org *entity.Organization) error
	GetByID(ctx context.Context, id string) (*entity.Organization, error)
	// GetForUpdate bloquea la fila de la organización hasta el fin de la transacción (SELECT FOR UPDATE).
	// Es el punto de serialización por organización: límites y sincronización de cobro lo toman primero.
	GetForUpdate(ctx context.Context, id string) (*entity.Organization, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Organization, error)
	// Update persiste name, slug y status (no el plan). domain.ErrNotFound si no existe,
	// domain.ErrSlugTaken si el slug choca.
	Update(ctx context.Context, org *entity.Organization) error
	// SetPlan cambia plan y estado. Solo lo invoca el sincronizador de suscripciones.
	SetPlan(ctx context.Context, id string, p plan.Plan, status string) error
	List(ctx context.Context, filter entity.OrganizationFilter) ([]*entity.Organization, error)
	// Delete elimina la organización en cascada (suscripción, libros) y desvincula sus miembros.
	Delete(ctx context.Context, id string) error
}

package organization

import (
	"context"

	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción con el repositorio de organizaciones atado a ella.
// Update toma el bloqueo de fila de la organización para no pisar escrituras concurrentes.
type TxRunner interface {
	RunOrganization(ctx context.Context, fn func(orgs repository.OrganizationRepository) error) error
}

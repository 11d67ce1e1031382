package limits

import (
	"context"

	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Contar y admitir ocurren en la misma transacción, después de bloquear la fila de la organización.
type TxRunner interface {
	RunLimits(ctx context.Context, fn func(
		orgs repository.OrganizationRepository,
		members repository.MembershipRepository,
		books repository.BookRepository,
	) error) error
}

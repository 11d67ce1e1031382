package repository

import (
	"context"

	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
)

// BookRepository puerto mínimo de libros: alta, baja y conteo por organización.
type BookRepository interface {
	Create(ctx context.Context, book *entity.Book) error
	CountByOrganization(ctx context.Context, organizationID string) (int, error)
	// Delete devuelve domain.ErrNotFound si el libro no existe en esa organización.
	Delete(ctx context.Context, organizationID, bookID string) error
}

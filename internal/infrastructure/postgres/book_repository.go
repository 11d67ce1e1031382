package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

var _ repository.BookRepository = (*BookRepo)(nil)

// BookRepo implementación de BookRepository sobre PostgreSQL (usable con pool o tx).
type BookRepo struct {
	q Querier
}

// NewBookRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBookRepository(q Querier) *BookRepo {
	return &BookRepo{q: q}
}

// Create persiste un libro.
func (r *BookRepo) Create(ctx context.Context, book *entity.Book) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO books (id, organization_id, title, author, created_at) VALUES ($1, $2, $3, $4, $5)`,
		book.ID, book.OrganizationID, book.Title, book.Author, book.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

// CountByOrganization cuenta los libros de la organización.
func (r *BookRepo) CountByOrganization(ctx context.Context, organizationID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM books WHERE organization_id = $1`, organizationID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

// Delete elimina un libro de la organización.
func (r *BookRepo) Delete(ctx context.Context, organizationID, bookID string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM books WHERE id = $1 AND organization_id = $2`, bookID, organizationID)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

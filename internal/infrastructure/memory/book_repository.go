package memory

import (
	"context"

	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

var _ repository.BookRepository = (*BookRepo)(nil)

// BookRepo libros en memoria.
type BookRepo struct{ v view }

func (r *BookRepo) Create(ctx context.Context, book *entity.Book) error {
	return r.v.write(ctx, func(st *state) error {
		if _, ok := st.orgs[book.OrganizationID]; !ok {
			return domain.ErrNotFound
		}
		if _, ok := st.books[book.ID]; ok {
			return domain.ErrConflict
		}
		st.books[book.ID] = *book
		return nil
	})
}

func (r *BookRepo) CountByOrganization(_ context.Context, organizationID string) (int, error) {
	n := 0
	r.v.read(func(st *state) {
		for _, b := range st.books {
			if b.OrganizationID == organizationID {
				n++
			}
		}
	})
	return n, nil
}

func (r *BookRepo) Delete(ctx context.Context, organizationID, bookID string) error {
	return r.v.write(ctx, func(st *state) error {
		b, ok := st.books[bookID]
		if !ok || b.OrganizationID != organizationID {
			return domain.ErrNotFound
		}
		delete(st.books, bookID)
		return nil
	})
}

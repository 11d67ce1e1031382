package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/plan"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

var _ repository.OrganizationRepository = (*OrganizationRepo)(nil)

// OrganizationRepo organizaciones en memoria. El slug es único igual que con el índice de PostgreSQL.
type OrganizationRepo struct{ v view }

func (r *OrganizationRepo) Create(ctx context.Context, org *entity.Organization) error {
	return r.v.write(ctx, func(st *state) error {
		if _, ok := st.orgs[org.ID]; ok {
			return domain.ErrConflict
		}
		for _, o := range st.orgs {
			if o.Slug == org.Slug {
				return domain.SlugTaken()
			}
		}
		st.orgs[org.ID] = *org
		return nil
	})
}

func (r *OrganizationRepo) GetByID(_ context.Context, id string) (*entity.Organization, error) {
	var out *entity.Organization
	r.v.read(func(st *state) {
		if o, ok := st.orgs[id]; ok {
			out = &o
		}
	})
	return out, nil
}

// GetForUpdate dentro de una transacción equivale a GetByID: la transacción ya es exclusiva.
func (r *OrganizationRepo) GetForUpdate(ctx context.Context, id string) (*entity.Organization, error) {
	return r.GetByID(ctx, id)
}

func (r *OrganizationRepo) GetBySlug(_ context.Context, slug string) (*entity.Organization, error) {
	var out *entity.Organization
	r.v.read(func(st *state) {
		for _, o := range st.orgs {
			if o.Slug == slug {
				o := o
				out = &o
				return
			}
		}
	})
	return out, nil
}

func (r *OrganizationRepo) Update(ctx context.Context, org *entity.Organization) error {
	return r.v.write(ctx, func(st *state) error {
		cur, ok := st.orgs[org.ID]
		if !ok {
			return domain.ErrNotFound
		}
		for id, o := range st.orgs {
			if id != org.ID && o.Slug == org.Slug {
				return domain.SlugTaken()
			}
		}
		cur.Name, cur.Slug, cur.Status, cur.UpdatedAt = org.Name, org.Slug, org.Status, org.UpdatedAt
		st.orgs[org.ID] = cur
		return nil
	})
}

func (r *OrganizationRepo) SetPlan(ctx context.Context, id string, p plan.Plan, status string) error {
	return r.v.write(ctx, func(st *state) error {
		cur, ok := st.orgs[id]
		if !ok {
			return domain.ErrNotFound
		}
		cur.Plan, cur.Status = p, status
		st.orgs[id] = cur
		return nil
	})
}

func (r *OrganizationRepo) List(_ context.Context, filter entity.OrganizationFilter) ([]*entity.Organization, error) {
	var list []*entity.Organization
	r.v.read(func(st *state) {
		for _, o := range st.orgs {
			if filter.Plan != nil && o.Plan != *filter.Plan {
				continue
			}
			if filter.Status != nil && o.Status != *filter.Status {
				continue
			}
			o := o
			list = append(list, &o)
		}
	})
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return page(list, filter.Limit, filter.Offset), nil
}

// Delete replica las FK de PostgreSQL: borra suscripción y libros, desvincula usuarios.
func (r *OrganizationRepo) Delete(ctx context.Context, id string) error {
	return r.v.write(ctx, func(st *state) error {
		if _, ok := st.orgs[id]; !ok {
			return domain.ErrNotFound
		}
		delete(st.orgs, id)
		delete(st.subs, id)
		for bid, b := range st.books {
			if b.OrganizationID == id {
				delete(st.books, bid)
			}
		}
		for uid, u := range st.users {
			if u.OrganizationID == id {
				u.OrganizationID = ""
				st.users[uid] = u
			}
		}
		return nil
	})
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

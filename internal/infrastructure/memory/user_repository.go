package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

var _ repository.MembershipRepository = (*UserRepo)(nil)

// UserRepo usuarios y su vínculo con organizaciones en memoria.
type UserRepo struct{ v view }

func (r *UserRepo) CreateUser(ctx context.Context, user *entity.User) error {
	return r.v.write(ctx, func(st *state) error {
		if _, ok := st.users[user.ID]; ok {
			return domain.ErrConflict
		}
		for _, u := range st.users {
			if u.Email == user.Email {
				return domain.ErrConflict
			}
		}
		if user.OrganizationID != "" {
			if _, ok := st.orgs[user.OrganizationID]; !ok {
				return domain.ErrNotFound
			}
		}
		st.users[user.ID] = *user
		return nil
	})
}

func (r *UserRepo) GetUser(_ context.Context, userID string) (*entity.User, error) {
	var out *entity.User
	r.v.read(func(st *state) {
		if u, ok := st.users[userID]; ok {
			out = &u
		}
	})
	return out, nil
}

func (r *UserRepo) GetUserForUpdate(ctx context.Context, userID string) (*entity.User, error) {
	return r.GetUser(ctx, userID)
}

func (r *UserRepo) CountByOrganization(_ context.Context, organizationID string) (int, error) {
	n := 0
	r.v.read(func(st *state) {
		for _, u := range st.users {
			if u.OrganizationID == organizationID {
				n++
			}
		}
	})
	return n, nil
}

func (r *UserRepo) SetOrganization(ctx context.Context, userID, organizationID string) (*entity.User, error) {
	var out *entity.User
	err := r.v.write(ctx, func(st *state) error {
		u, ok := st.users[userID]
		if !ok {
			return domain.ErrNotFound
		}
		if organizationID != "" {
			if _, ok := st.orgs[organizationID]; !ok {
				return domain.ErrNotFound
			}
		}
		u.OrganizationID = organizationID
		u.UpdatedAt = time.Now().UTC()
		st.users[userID] = u
		out = &u
		return nil
	})
	return out, err
}

func (r *UserRepo) ListByOrganization(_ context.Context, organizationID string) ([]*entity.User, error) {
	var list []*entity.User
	r.v.read(func(st *state) {
		for _, u := range st.users {
			if u.OrganizationID == organizationID {
				u := u
				list = append(list, &u)
			}
		}
	})
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

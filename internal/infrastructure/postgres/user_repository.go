package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

var _ repository.MembershipRepository = (*UserRepo)(nil)

// UserRepo implementación del puerto MembershipRepository sobre PostgreSQL (usable con pool o tx).
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de usuarios. Pasar pool o tx (Querier).
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

// CreateUser persiste un nuevo usuario.
func (r *UserRepo) CreateUser(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, email, name, organization_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query,
		user.ID, user.Email, user.Name, nullIfEmpty(user.OrganizationID), user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser obtiene un usuario por ID.
func (r *UserRepo) GetUser(ctx context.Context, userID string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT id, email, name, organization_id, created_at, updated_at FROM users WHERE id = $1`, userID)
}

// GetUserForUpdate obtiene el usuario y bloquea su fila (SELECT FOR UPDATE).
func (r *UserRepo) GetUserForUpdate(ctx context.Context, userID string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT id, email, name, organization_id, created_at, updated_at FROM users WHERE id = $1 FOR UPDATE`, userID)
}

func (r *UserRepo) getOne(ctx context.Context, query, id string) (*entity.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// CountByOrganization cuenta los miembros vivos de la organización (sin caché).
func (r *UserRepo) CountByOrganization(ctx context.Context, organizationID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM users WHERE organization_id = $1`, organizationID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}

// SetOrganization vincula o desvincula (organizationID vacío) al usuario.
func (r *UserRepo) SetOrganization(ctx context.Context, userID, organizationID string) (*entity.User, error) {
	query := `
		UPDATE users SET organization_id = $2, updated_at = $3
		WHERE id = $1
		RETURNING id, email, name, organization_id, created_at, updated_at`
	u, err := scanUser(r.q.QueryRow(ctx, query, userID, nullIfEmpty(organizationID), time.Now().UTC()))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("set user organization: %w", err)
	}
	return u, nil
}

// ListByOrganization lista los miembros de una organización.
func (r *UserRepo) ListByOrganization(ctx context.Context, organizationID string) ([]*entity.User, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, email, name, organization_id, created_at, updated_at
		FROM users WHERE organization_id = $1 ORDER BY created_at ASC`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var list []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		u     entity.User
		orgID *string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &orgID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.OrganizationID = derefString(orgID)
	return &u, nil
}

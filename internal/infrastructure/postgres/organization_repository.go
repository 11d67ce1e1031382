package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/plan"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

// Asegura que OrganizationRepo implementa repository.OrganizationRepository.
var _ repository.OrganizationRepository = (*OrganizationRepo)(nil)

const orgColumns = `id, name, slug, plan, status, trial_ends_at, created_at, updated_at`

// OrganizationRepo implementación del puerto OrganizationRepository sobre PostgreSQL (usable con pool o tx).
type OrganizationRepo struct {
	q Querier
}

// NewOrganizationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrganizationRepository(q Querier) *OrganizationRepo {
	return &OrganizationRepo{q: q}
}

// Create persiste una nueva organización. El índice único de slug es la autoridad:
// cualquier chequeo previo es solo para fallar rápido.
func (r *OrganizationRepo) Create(ctx context.Context, org *entity.Organization) error {
	query := `
		INSERT INTO organizations (id, name, slug, plan, status, trial_ends_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		org.ID, org.Name, org.Slug, string(org.Plan), org.Status,
		org.TrialEndsAt, org.CreatedAt, org.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) && violatedConstraint(err) == constraintOrgSlug {
			return domain.SlugTaken()
		}
		return fmt.Errorf("insert organization: %w", err)
	}
	return nil
}

// GetByID obtiene una organización por ID.
func (r *OrganizationRepo) GetByID(ctx context.Context, id string) (*entity.Organization, error) {
	return r.getOne(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id)
}

// GetForUpdate obtiene la organización y bloquea su fila (SELECT FOR UPDATE).
func (r *OrganizationRepo) GetForUpdate(ctx context.Context, id string) (*entity.Organization, error) {
	return r.getOne(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = $1 FOR UPDATE`, id)
}

// GetBySlug obtiene una organización por slug.
func (r *OrganizationRepo) GetBySlug(ctx context.Context, slug string) (*entity.Organization, error) {
	return r.getOne(ctx, `SELECT `+orgColumns+` FROM organizations WHERE slug = $1`, slug)
}

func (r *OrganizationRepo) getOne(ctx context.Context, query string, arg string) (*entity.Organization, error) {
	org, err := scanOrganization(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return org, nil
}

// Update actualiza name, slug y status. El plan solo cambia vía SetPlan.
func (r *OrganizationRepo) Update(ctx context.Context, org *entity.Organization) error {
	query := `
		UPDATE organizations SET name = $2, slug = $3, status = $4, updated_at = $5
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, org.ID, org.Name, org.Slug, org.Status, org.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) && violatedConstraint(err) == constraintOrgSlug {
			return domain.SlugTaken()
		}
		return fmt.Errorf("update organization: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetPlan cambia plan y estado de la organización.
func (r *OrganizationRepo) SetPlan(ctx context.Context, id string, p plan.Plan, status string) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE organizations SET plan = $2, status = $3, updated_at = now() WHERE id = $1`,
		id, string(p), status,
	)
	if err != nil {
		return fmt.Errorf("set organization plan: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List devuelve organizaciones filtradas por plan/estado con paginación.
func (r *OrganizationRepo) List(ctx context.Context, filter entity.OrganizationFilter) ([]*entity.Organization, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Plan != nil {
		args = append(args, string(*filter.Plan))
		conds = append(conds, fmt.Sprintf("plan = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + orgColumns + ` FROM organizations`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var list []*entity.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		list = append(list, org)
	}
	return list, rows.Err()
}

// Delete elimina la organización. Las FK hacen el resto en la misma sentencia:
// subscriptions y books ON DELETE CASCADE, users.organization_id ON DELETE SET NULL.
func (r *OrganizationRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanOrganization(row pgx.Row) (*entity.Organization, error) {
	var (
		o      entity.Organization
		planID string
	)
	if err := row.Scan(&o.ID, &o.Name, &o.Slug, &planID, &o.Status, &o.TrialEndsAt, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Plan = plan.Plan(planID)
	return &o, nil
}

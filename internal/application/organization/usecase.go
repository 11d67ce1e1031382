package organization

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Biblioteca-api/internal/application/dto"
	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/plan"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
	"github.com/jhoicas/Biblioteca-api/pkg/logger"
	"github.com/jhoicas/Biblioteca-api/pkg/metrics"
	"github.com/jhoicas/Biblioteca-api/pkg/slug"
)

// OrganizationUseCase alta, lectura, edición y baja de organizaciones (tenants).
type OrganizationUseCase struct {
	orgs      repository.OrganizationRepository
	members   repository.MembershipRepository
	subs      repository.SubscriptionRepository
	tx        TxRunner
	trialDays int
	log       *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewOrganizationUseCase construye el caso de uso. trialDays < 0 usa entity.DefaultTrialDays.
func NewOrganizationUseCase(
	orgs repository.OrganizationRepository,
	members repository.MembershipRepository,
	subs repository.SubscriptionRepository,
	tx TxRunner,
	trialDays int,
	log *logger.Logger,
	m *metrics.Metrics,
) *OrganizationUseCase {
	if trialDays < 0 {
		trialDays = entity.DefaultTrialDays
	}
	return &OrganizationUseCase{
		orgs:      orgs,
		members:   members,
		subs:      subs,
		tx:        tx,
		trialDays: trialDays,
		log:       log.Component("organization"),
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create da de alta una organización en TRIAL/ACTIVE con fin de prueba now+trialDays.
// La consulta previa por slug solo adelanta el error; la garantía es el índice único.
func (uc *OrganizationUseCase) Create(ctx context.Context, in dto.CreateOrganizationRequest) (*dto.OrganizationResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, &domain.FieldError{Field: "name", Err: domain.ErrInvalidInput}
	}
	s, err := normalizeSlug(in.Slug, name)
	if err != nil {
		return nil, err
	}

	p := plan.Trial
	if in.Plan != "" {
		if p, err = plan.Parse(in.Plan); err != nil {
			return nil, &domain.FieldError{Field: "plan", Err: domain.ErrInvalidInput}
		}
	}
	trialDays := uc.trialDays
	if in.TrialDays != nil {
		if *in.TrialDays < 0 {
			return nil, &domain.FieldError{Field: "trial_days", Err: domain.ErrInvalidInput}
		}
		trialDays = *in.TrialDays
	}

	existing, err := uc.orgs.GetBySlug(ctx, s)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.SlugTaken()
	}

	now := uc.now()
	org := &entity.Organization{
		ID:        uuid.New().String(),
		Name:      name,
		Slug:      s,
		Plan:      p,
		Status:    entity.OrgStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if p == plan.Trial {
		ends := now.AddDate(0, 0, trialDays)
		org.TrialEndsAt = &ends
	}
	if err := uc.orgs.Create(ctx, org); err != nil {
		return nil, err
	}

	uc.metrics.RecordOrganizationCreated()
	uc.log.Info().Str("org_id", org.ID).Str("slug", org.Slug).Str("plan", org.Plan.String()).Msg("organización creada")
	return uc.toResponse(org), nil
}

// Update aplica el parche bajo el bloqueo de fila de la organización.
// El plan no es parcheable. domain.ErrNotFound si no existe; conflicto de slug como domain.SlugTaken().
func (uc *OrganizationUseCase) Update(ctx context.Context, id string, in dto.UpdateOrganizationRequest) (*dto.OrganizationResponse, error) {
	var updated *entity.Organization
	err := uc.tx.RunOrganization(ctx, func(orgs repository.OrganizationRepository) error {
		org, err := orgs.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if org == nil {
			return domain.ErrNotFound
		}

		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return &domain.FieldError{Field: "name", Err: domain.ErrInvalidInput}
			}
			org.Name = name
		}
		if in.Slug != nil {
			s := slug.Make(*in.Slug)
			if !slug.Valid(s) {
				return &domain.FieldError{Field: "slug", Err: domain.ErrInvalidInput}
			}
			if s != org.Slug {
				other, err := orgs.GetBySlug(ctx, s)
				if err != nil {
					return err
				}
				if other != nil && other.ID != org.ID {
					return domain.SlugTaken()
				}
				org.Slug = s
			}
		}
		if in.Status != nil {
			if !entity.ValidOrgStatus(*in.Status) {
				return &domain.FieldError{Field: "status", Err: domain.ErrInvalidInput}
			}
			org.Status = *in.Status
		}
		org.UpdatedAt = uc.now()

		if err := orgs.Update(ctx, org); err != nil {
			return err
		}
		updated = org
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uc.toResponse(updated), nil
}

// GetByID obtiene una organización. domain.ErrNotFound si no existe.
func (uc *OrganizationUseCase) GetByID(ctx context.Context, id string) (*dto.OrganizationResponse, error) {
	org, err := uc.orgs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	return uc.toResponse(org), nil
}

// GetBySlug obtiene una organización por slug. domain.ErrNotFound si no existe.
func (uc *OrganizationUseCase) GetBySlug(ctx context.Context, s string) (*dto.OrganizationResponse, error) {
	org, err := uc.orgs.GetBySlug(ctx, slug.Make(s))
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	return uc.toResponse(org), nil
}

// GetDetail devuelve la organización con su número de miembros y el resumen de suscripción.
func (uc *OrganizationUseCase) GetDetail(ctx context.Context, id string) (*dto.OrganizationDetailResponse, error) {
	org, err := uc.orgs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	count, err := uc.members.CountByOrganization(ctx, id)
	if err != nil {
		return nil, err
	}
	sub, err := uc.subs.GetByOrganization(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &dto.OrganizationDetailResponse{
		OrganizationResponse: *uc.toResponse(org),
		MemberCount:          count,
	}
	if sub != nil {
		out.Subscription = &dto.SubscriptionSummary{
			Plan:              sub.Plan.String(),
			Status:            sub.Status,
			CurrentPeriodEnd:  sub.CurrentPeriodEnd,
			CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		}
	}
	return out, nil
}

// List lista organizaciones con filtros opcionales de plan y estado.
func (uc *OrganizationUseCase) List(ctx context.Context, in dto.ListOrganizationsRequest) (*dto.OrganizationListResponse, error) {
	in.DefaultPage()
	filter := entity.OrganizationFilter{Limit: in.Limit, Offset: in.Offset}
	if in.Plan != "" {
		p, err := plan.Parse(in.Plan)
		if err != nil {
			return nil, &domain.FieldError{Field: "plan", Err: domain.ErrInvalidInput}
		}
		filter.Plan = &p
	}
	if in.Status != "" {
		if !entity.ValidOrgStatus(in.Status) {
			return nil, &domain.FieldError{Field: "status", Err: domain.ErrInvalidInput}
		}
		filter.Status = &in.Status
	}

	list, err := uc.orgs.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.OrganizationResponse, 0, len(list))
	for _, o := range list {
		items = append(items, *uc.toResponse(o))
	}
	return &dto.OrganizationListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset},
	}, nil
}

// Delete elimina la organización: suscripción y libros en cascada, miembros desvinculados. Irreversible.
func (uc *OrganizationUseCase) Delete(ctx context.Context, id string) error {
	if err := uc.orgs.Delete(ctx, id); err != nil {
		return err
	}
	uc.log.Warn().Str("org_id", id).Msg("organización eliminada")
	return nil
}

// normalizeSlug usa el slug explícito o, si falta, lo deriva del nombre.
func normalizeSlug(raw, name string) (string, error) {
	src := raw
	if strings.TrimSpace(src) == "" {
		src = name
	}
	s := slug.Make(src)
	if !slug.Valid(s) {
		return "", &domain.FieldError{Field: "slug", Err: fmt.Errorf("%w: %q no produce un slug válido", domain.ErrInvalidInput, src)}
	}
	return s, nil
}

func (uc *OrganizationUseCase) toResponse(o *entity.Organization) *dto.OrganizationResponse {
	if o == nil {
		return nil
	}
	return &dto.OrganizationResponse{
		ID:          o.ID,
		Name:        o.Name,
		Slug:        o.Slug,
		Plan:        o.Plan.String(),
		Status:      o.Status,
		TrialEndsAt: o.TrialEndsAt,
		TrialActive: o.TrialActive(uc.now()),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

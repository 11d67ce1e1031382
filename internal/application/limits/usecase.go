package limits

import (
	"context"
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
)

// LimitsUseCase aplica los techos del plan a las altas de miembros y libros.
//
// Cada alta toma primero el bloqueo de la organización (GetForUpdate) y cuenta dentro de la
// misma transacción: dos altas concurrentes de la misma organización se serializan y la segunda
// ve el conteo de la primera. Una bajada de plan nunca expulsa recursos existentes; solo bloquea
// altas nuevas mientras el conteo supere el techo.
type LimitsUseCase struct {
	orgs    repository.OrganizationRepository
	members repository.MembershipRepository
	books   repository.BookRepository
	tx      TxRunner
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewLimitsUseCase construye el caso de uso. Los repositorios sueltos sirven solo para lecturas.
func NewLimitsUseCase(
	orgs repository.OrganizationRepository,
	members repository.MembershipRepository,
	books repository.BookRepository,
	tx TxRunner,
	log *logger.Logger,
	m *metrics.Metrics,
) *LimitsUseCase {
	return &LimitsUseCase{
		orgs:    orgs,
		members: members,
		books:   books,
		tx:      tx,
		log:     log.Component("limits"),
		metrics: m,
	}
}

// CheckLimits devuelve el uso actual frente a los techos del plan vigente. Conteos frescos en cada llamada.
func (uc *LimitsUseCase) CheckLimits(ctx context.Context, orgID string) (*dto.LimitReportResponse, error) {
	org, err := uc.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	users, err := uc.members.CountByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	books, err := uc.books.CountByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	lim := plan.LimitsFor(org.Plan)
	return &dto.LimitReportResponse{
		OrganizationID: org.ID,
		Plan:           org.Plan.String(),
		Users:          usage(users, lim.MaxUsers),
		Books:          usage(books, lim.MaxBooks),
		DailyRequests:  lim.DailyRequests,
	}, nil
}

// AddUserToOrganization vincula userID a la organización si el plan lo permite.
// Idempotente si ya es miembro. domain.ErrConflict si pertenece a otra organización;
// *domain.LimitError si el techo de usuarios está alcanzado.
func (uc *LimitsUseCase) AddUserToOrganization(ctx context.Context, orgID, userID string) (*dto.MembershipResponse, error) {
	var out *entity.User
	err := uc.tx.RunLimits(ctx, func(orgs repository.OrganizationRepository, members repository.MembershipRepository, _ repository.BookRepository) error {
		org, err := lockOrganization(ctx, orgs, orgID)
		if err != nil {
			return err
		}
		user, err := members.GetUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ErrNotFound
		}
		if user.OrganizationID == org.ID {
			out = user
			return nil
		}
		if user.OrganizationID != "" {
			return domain.ErrConflict
		}

		current, err := members.CountByOrganization(ctx, org.ID)
		if err != nil {
			return err
		}
		if err := uc.admit(org, domain.ResourceUsers, current, plan.LimitsFor(org.Plan).MaxUsers); err != nil {
			return err
		}
		out, err = members.SetOrganization(ctx, userID, org.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("org_id", orgID).Str("user_id", userID).Msg("miembro agregado")
	return toMembership(out), nil
}

// RemoveUserFromOrganization limpia el vínculo del usuario; el usuario no se borra.
// domain.ErrNotFound si el usuario no es miembro de esa organización.
func (uc *LimitsUseCase) RemoveUserFromOrganization(ctx context.Context, orgID, userID string) (*dto.MembershipResponse, error) {
	var out *entity.User
	err := uc.tx.RunLimits(ctx, func(orgs repository.OrganizationRepository, members repository.MembershipRepository, _ repository.BookRepository) error {
		if _, err := lockOrganization(ctx, orgs, orgID); err != nil {
			return err
		}
		user, err := members.GetUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil || user.OrganizationID != orgID {
			return domain.ErrNotFound
		}
		out, err = members.SetOrganization(ctx, userID, "")
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("org_id", orgID).Str("user_id", userID).Msg("miembro removido")
	return toMembership(out), nil
}

// AddBookToOrganization crea un libro si el techo de libros lo permite.
func (uc *LimitsUseCase) AddBookToOrganization(ctx context.Context, orgID string, in dto.CreateBookRequest) (*dto.BookResponse, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, &domain.FieldError{Field: "title", Err: domain.ErrInvalidInput}
	}

	var book *entity.Book
	err := uc.tx.RunLimits(ctx, func(orgs repository.OrganizationRepository, _ repository.MembershipRepository, books repository.BookRepository) error {
		org, err := lockOrganization(ctx, orgs, orgID)
		if err != nil {
			return err
		}
		current, err := books.CountByOrganization(ctx, org.ID)
		if err != nil {
			return err
		}
		if err := uc.admit(org, domain.ResourceBooks, current, plan.LimitsFor(org.Plan).MaxBooks); err != nil {
			return err
		}
		book = &entity.Book{
			ID:             uuid.New().String(),
			OrganizationID: org.ID,
			Title:          title,
			Author:         strings.TrimSpace(in.Author),
			CreatedAt:      time.Now().UTC(),
		}
		return books.Create(ctx, book)
	})
	if err != nil {
		return nil, err
	}
	return &dto.BookResponse{
		ID:             book.ID,
		OrganizationID: book.OrganizationID,
		Title:          book.Title,
		Author:         book.Author,
		CreatedAt:      book.CreatedAt,
	}, nil
}

// RemoveBook elimina un libro de la organización. Sin chequeo de techo.
func (uc *LimitsUseCase) RemoveBook(ctx context.Context, orgID, bookID string) error {
	return uc.tx.RunLimits(ctx, func(orgs repository.OrganizationRepository, _ repository.MembershipRepository, books repository.BookRepository) error {
		if _, err := lockOrganization(ctx, orgs, orgID); err != nil {
			return err
		}
		return books.Delete(ctx, orgID, bookID)
	})
}

func (uc *LimitsUseCase) admit(org *entity.Organization, resource string, current, ceiling int) error {
	if plan.Allows(current, ceiling) {
		return nil
	}
	uc.metrics.RecordLimitDenied(resource, org.Plan.String())
	uc.log.Info().
		Str("org_id", org.ID).
		Str("resource", resource).
		Str("plan", org.Plan.String()).
		Int("current", current).
		Int("max", ceiling).
		Msg("límite del plan alcanzado")
	return &domain.LimitError{Resource: resource, Plan: org.Plan.String(), Current: current, Max: ceiling}
}

func lockOrganization(ctx context.Context, orgs repository.OrganizationRepository, orgID string) (*entity.Organization, error) {
	org, err := orgs.GetForUpdate(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	return org, nil
}

func usage(current, ceiling int) dto.ResourceUsage {
	return dto.ResourceUsage{Current: current, Max: ceiling, CanAdd: plan.Allows(current, ceiling)}
}

func toMembership(u *entity.User) *dto.MembershipResponse {
	return &dto.MembershipResponse{
		UserID:         u.ID,
		OrganizationID: u.OrganizationID,
		Email:          u.Email,
		Name:           u.Name,
		UpdatedAt:      u.UpdatedAt,
	}
}

package organization_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Biblioteca-api/internal/application/dto"
	"github.com/jhoicas/Biblioteca-api/internal/application/organization"
	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/plan"
	"github.com/jhoicas/Biblioteca-api/internal/infrastructure/memory"
	"github.com/jhoicas/Biblioteca-api/pkg/logger"
)

func newUseCase(t *testing.T) (*organization.OrganizationUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	uc := organization.NewOrganizationUseCase(store.Organizations(), store.Users(), store.Subscriptions(), store, 14, logger.Nop(), nil)
	return uc, store
}

func ptr[T any](v T) *T { return &v }

// ─────────────────────────────────────────────────────────────────────────────
// Create
// ─────────────────────────────────────────────────────────────────────────────

func TestCreate_PorDefectoTrialConPrueba(t *testing.T) {
	uc, _ := newUseCase(t)

	out, err := uc.Create(context.Background(), dto.CreateOrganizationRequest{Name: "  Acme Library "})
	require.NoError(t, err)

	assert.NotEmpty(t, out.ID)
	assert.Equal(t, "Acme Library", out.Name)
	assert.Equal(t, "acme-library", out.Slug)
	assert.Equal(t, "TRIAL", out.Plan)
	assert.Equal(t, entity.OrgStatusActive, out.Status)
	require.NotNil(t, out.TrialEndsAt)
	assert.WithinDuration(t, out.CreatedAt.AddDate(0, 0, 14), *out.TrialEndsAt, 0)
	assert.True(t, out.TrialActive)
}

func TestCreate_SlugExplicitoSeNormaliza(t *testing.T) {
	uc, _ := newUseCase(t)

	out, err := uc.Create(context.Background(), dto.CreateOrganizationRequest{Name: "X", Slug: "Biblioteca Pública Ñuñoa"})
	require.NoError(t, err)
	assert.Equal(t, "biblioteca-publica-nunoa", out.Slug)
}

func TestCreate_NombreVacio(t *testing.T) {
	uc, _ := newUseCase(t)

	_, err := uc.Create(context.Background(), dto.CreateOrganizationRequest{Name: "   "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	var fe *domain.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "name", fe.Field)
}

func TestCreate_SlugInvalido(t *testing.T) {
	uc, _ := newUseCase(t)

	_, err := uc.Create(context.Background(), dto.CreateOrganizationRequest{Name: "ok", Slug: "!!"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestCreate_PlanExplicitoSinPrueba(t *testing.T) {
	uc, _ := newUseCase(t)

	out, err := uc.Create(context.Background(), dto.CreateOrganizationRequest{Name: "Pro Org", Plan: "pro"})
	require.NoError(t, err)
	assert.Equal(t, "PRO", out.Plan)
	assert.Nil(t, out.TrialEndsAt)
	assert.False(t, out.TrialActive)
}

func TestCreate_PlanDesconocido(t *testing.T) {
	uc, _ := newUseCase(t)

	_, err := uc.Create(context.Background(), dto.CreateOrganizationRequest{Name: "X", Plan: "GOLD"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestCreate_PruebaDeCeroDiasNoEstaActiva(t *testing.T) {
	uc, _ := newUseCase(t)

	out, err := uc.Create(context.Background(), dto.CreateOrganizationRequest{Name: "Sin prueba", TrialDays: ptr(0)})
	require.NoError(t, err)
	require.NotNil(t, out.TrialEndsAt)
	assert.False(t, out.TrialActive)
}

func TestCreate_SlugDuplicado(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, dto.CreateOrganizationRequest{Name: "Acme"})
	require.NoError(t, err)

	_, err = uc.Create(ctx, dto.CreateOrganizationRequest{Name: "Otra", Slug: "ACME"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSlugTaken))
}

// Creaciones concurrentes con el mismo slug: exactamente una gana.
func TestCreate_ConcurrenteMismoSlug(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()

	var ok, taken atomic.Int32
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		i := i
		g.Go(func() error {
			_, err := uc.Create(ctx, dto.CreateOrganizationRequest{Name: fmt.Sprintf("Org %d", i), Slug: "carrera"})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrSlugTaken):
				taken.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 1, ok.Load())
	assert.EqualValues(t, 15, taken.Load())

	list, err := store.Organizations().List(ctx, entity.OrganizationFilter{Limit: 100})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

// ─────────────────────────────────────────────────────────────────────────────
// Update / Get / List / Delete
// ─────────────────────────────────────────────────────────────────────────────

func TestUpdate_NombreSlugYEstado(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()
	created, err := uc.Create(ctx, dto.CreateOrganizationRequest{Name: "Vieja"})
	require.NoError(t, err)

	out, err := uc.Update(ctx, created.ID, dto.UpdateOrganizationRequest{
		Name:   ptr("Nueva"),
		Slug:   ptr("nueva"),
		Status: ptr(entity.OrgStatusSuspended),
	})
	require.NoError(t, err)
	assert.Equal(t, "Nueva", out.Name)
	assert.Equal(t, "nueva", out.Slug)
	assert.Equal(t, entity.OrgStatusSuspended, out.Status)
	assert.Equal(t, "TRIAL", out.Plan, "el plan no cambia por update")

	_, err = uc.GetBySlug(ctx, "vieja")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	got, err := uc.GetBySlug(ctx, "Nueva")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestUpdate_SlugDeOtraOrganizacion(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()
	_, err := uc.Create(ctx, dto.CreateOrganizationRequest{Name: "Uno"})
	require.NoError(t, err)
	dos, err := uc.Create(ctx, dto.CreateOrganizationRequest{Name: "Dos"})
	require.NoError(t, err)

	_, err = uc.Update(ctx, dos.ID, dto.UpdateOrganizationRequest{Slug: ptr("uno")})
	assert.True(t, errors.Is(err, domain.ErrSlugTaken))

	// Reasignar su propio slug no es conflicto.
	_, err = uc.Update(ctx, dos.ID, dto.UpdateOrganizationRequest{Slug: ptr("dos")})
	assert.NoError(t, err)
}

func TestUpdate_EstadoInvalido(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()
	created, err := uc.Create(ctx, dto.CreateOrganizationRequest{Name: "X1"})
	require.NoError(t, err)

	_, err = uc.Update(ctx, created.ID, dto.UpdateOrganizationRequest{Status: ptr("DELETED")})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestUpdate_NoExiste(t *testing.T) {
	uc, _ := newUseCase(t)
	_, err := uc.Update(context.Background(), "nope", dto.UpdateOrganizationRequest{Name: ptr("x")})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestGetDetail_MiembrosYSuscripcion(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()
	created, err := uc.Create(ctx, dto.CreateOrganizationRequest{Name: "Detalle"})
	require.NoError(t, err)

	require.NoError(t, store.Users().CreateUser(ctx, &entity.User{ID: "u1", Email: "u1@x.io"}))
	_, err = store.Users().SetOrganization(ctx, "u1", created.ID)
	require.NoError(t, err)

	out, err := uc.GetDetail(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, out.MemberCount)
	assert.Nil(t, out.Subscription)

	require.NoError(t, store.Subscriptions().Upsert(ctx, &entity.Subscription{
		ID: "s1", OrganizationID: created.ID, BillingCustomerID: "cus_1", Plan: plan.Basic, Status: entity.SubStatusActive,
	}))
	out, err = uc.GetDetail(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, out.Subscription)
	assert.Equal(t, "BASIC", out.Subscription.Plan)
}

func TestGetByID_NoExiste(t *testing.T) {
	uc, _ := newUseCase(t)
	_, err := uc.GetByID(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestList_FiltraPorPlan(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()
	_, err := uc.Create(ctx, dto.CreateOrganizationRequest{Name: "A1"})
	require.NoError(t, err)
	_, err = uc.Create(ctx, dto.CreateOrganizationRequest{Name: "B1", Plan: "PRO"})
	require.NoError(t, err)

	out, err := uc.List(ctx, dto.ListOrganizationsRequest{Plan: "PRO"})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "b1", out.Items[0].Slug)

	all, err := uc.List(ctx, dto.ListOrganizationsRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
	assert.Equal(t, 20, all.Page.Limit)

	_, err = uc.List(ctx, dto.ListOrganizationsRequest{Status: "??"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestDelete_CascadaYMiembrosDesvinculados(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()
	created, err := uc.Create(ctx, dto.CreateOrganizationRequest{Name: "Borrar"})
	require.NoError(t, err)
	require.NoError(t, store.Users().CreateUser(ctx, &entity.User{ID: "u1", Email: "u1@x.io"}))
	_, err = store.Users().SetOrganization(ctx, "u1", created.ID)
	require.NoError(t, err)

	require.NoError(t, uc.Delete(ctx, created.ID))

	_, err = uc.GetByID(ctx, created.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	u, err := store.Users().GetUser(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, u, "el usuario no se borra")
	assert.Empty(t, u.OrganizationID)

	assert.True(t, errors.Is(uc.Delete(ctx, created.ID), domain.ErrNotFound))
}

package limits_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Biblioteca-api/internal/application/dto"
	"github.com/jhoicas/Biblioteca-api/internal/application/limits"
	"github.com/jhoicas/Biblioteca-api/internal/application/organization"
	"github.com/jhoicas/Biblioteca-api/internal/application/subscription"
	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/plan"
	"github.com/jhoicas/Biblioteca-api/internal/infrastructure/memory"
	"github.com/jhoicas/Biblioteca-api/pkg/logger"
)

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

type fixture struct {
	uc    *limits.LimitsUseCase
	store *memory.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	return &fixture{
		uc:    limits.NewLimitsUseCase(store.Organizations(), store.Users(), store.Books(), store, logger.Nop(), nil),
		store: store,
	}
}

func (f *fixture) org(t *testing.T, id string, p plan.Plan) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, f.store.Organizations().Create(context.Background(), &entity.Organization{
		ID: id, Name: id, Slug: id, Plan: p, Status: entity.OrgStatusActive, CreatedAt: now, UpdatedAt: now,
	}))
}

func (f *fixture) user(t *testing.T, id, orgID string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.Users().CreateUser(ctx, &entity.User{ID: id, Email: id + "@test.io", Name: id}))
	if orgID != "" {
		_, err := f.store.Users().SetOrganization(ctx, id, orgID)
		require.NoError(t, err)
	}
}

func limitErr(t *testing.T, err error) *domain.LimitError {
	t.Helper()
	var le *domain.LimitError
	require.True(t, errors.As(err, &le), "se esperaba *domain.LimitError, llegó %v", err)
	assert.True(t, errors.Is(err, domain.ErrLimitReached))
	return le
}

// ─────────────────────────────────────────────────────────────────────────────
// CheckLimits
// ─────────────────────────────────────────────────────────────────────────────

func TestCheckLimits_ReporteBasic(t *testing.T) {
	f := newFixture(t)
	f.org(t, "acme", plan.Basic)
	f.user(t, "u1", "acme")
	f.user(t, "u2", "acme")
	for i := 0; i < 4; i++ {
		_, err := f.uc.AddBookToOrganization(context.Background(), "acme", dto.CreateBookRequest{Title: fmt.Sprintf("Libro %d", i)})
		require.NoError(t, err)
	}

	out, err := f.uc.CheckLimits(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "BASIC", out.Plan)
	assert.Equal(t, dto.ResourceUsage{Current: 2, Max: 3, CanAdd: true}, out.Users)
	assert.Equal(t, dto.ResourceUsage{Current: 4, Max: 1000, CanAdd: true}, out.Books)
	assert.Equal(t, 5000, out.DailyRequests)
}

func TestCheckLimits_EnterpriseIlimitado(t *testing.T) {
	f := newFixture(t)
	f.org(t, "big", plan.Enterprise)

	out, err := f.uc.CheckLimits(context.Background(), "big")
	require.NoError(t, err)
	assert.Equal(t, plan.Unlimited, out.Users.Max)
	assert.True(t, out.Users.CanAdd)
	assert.True(t, out.Books.CanAdd)
	assert.Equal(t, plan.Unlimited, out.DailyRequests)
}

func TestCheckLimits_NoExiste(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.CheckLimits(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// ─────────────────────────────────────────────────────────────────────────────
// Usuarios
// ─────────────────────────────────────────────────────────────────────────────

func TestAddUser_HastaElTecho(t *testing.T) {
	f := newFixture(t)
	f.org(t, "acme", plan.Basic)
	f.user(t, "u1", "acme")
	f.user(t, "u2", "acme")
	f.user(t, "u3", "")
	f.user(t, "u4", "")
	ctx := context.Background()

	out, err := f.uc.AddUserToOrganization(ctx, "acme", "u3")
	require.NoError(t, err)
	assert.Equal(t, "acme", out.OrganizationID)

	_, err = f.uc.AddUserToOrganization(ctx, "acme", "u4")
	le := limitErr(t, err)
	assert.Equal(t, domain.ResourceUsers, le.Resource)
	assert.Equal(t, "BASIC", le.Plan)
	assert.Equal(t, 3, le.Current)
	assert.Equal(t, 3, le.Max)
	assert.True(t, le.Upgrade())

	u4, err := f.store.Users().GetUser(ctx, "u4")
	require.NoError(t, err)
	assert.Empty(t, u4.OrganizationID, "un rechazo no deja efectos")
}

func TestAddUser_Idempotente(t *testing.T) {
	f := newFixture(t)
	f.org(t, "solo", plan.Trial)
	f.user(t, "u1", "solo")

	// TRIAL está lleno con u1, pero re-agregarlo no es una alta nueva.
	out, err := f.uc.AddUserToOrganization(context.Background(), "solo", "u1")
	require.NoError(t, err)
	assert.Equal(t, "solo", out.OrganizationID)
}

func TestAddUser_DeOtraOrganizacion(t *testing.T) {
	f := newFixture(t)
	f.org(t, "a", plan.Pro)
	f.org(t, "b", plan.Pro)
	f.user(t, "u1", "a")

	_, err := f.uc.AddUserToOrganization(context.Background(), "b", "u1")
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestAddUser_UsuarioUOrganizacionInexistente(t *testing.T) {
	f := newFixture(t)
	f.org(t, "a", plan.Pro)
	f.user(t, "u1", "")

	_, err := f.uc.AddUserToOrganization(context.Background(), "a", "ghost")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = f.uc.AddUserToOrganization(context.Background(), "ghost", "u1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestAddUser_EnterpriseSinTecho(t *testing.T) {
	f := newFixture(t)
	f.org(t, "big", plan.Enterprise)
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("u%d", i)
		f.user(t, id, "")
		_, err := f.uc.AddUserToOrganization(context.Background(), "big", id)
		require.NoError(t, err)
	}
	n, err := f.store.Users().CountByOrganization(context.Background(), "big")
	require.NoError(t, err)
	assert.Equal(t, 25, n)
}

// Con 2 de 3 plazas ocupadas, cinco altas simultáneas admiten exactamente una.
func TestAddUser_ConcurrenteNoSuperaElTecho(t *testing.T) {
	f := newFixture(t)
	f.org(t, "acme", plan.Basic)
	f.user(t, "u1", "acme")
	f.user(t, "u2", "acme")
	for i := 0; i < 5; i++ {
		f.user(t, fmt.Sprintf("c%d", i), "")
	}

	var admitted, denied atomic.Int32
	var g errgroup.Group
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("c%d", i)
		g.Go(func() error {
			_, err := f.uc.AddUserToOrganization(context.Background(), "acme", id)
			switch {
			case err == nil:
				admitted.Add(1)
			case errors.Is(err, domain.ErrLimitReached):
				denied.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 1, admitted.Load())
	assert.EqualValues(t, 4, denied.Load())
	n, err := f.store.Users().CountByOrganization(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

// Bajar de plan no expulsa a nadie: solo bloquea nuevas altas.
func TestAddUser_DowngradeSinExpulsion(t *testing.T) {
	f := newFixture(t)
	f.org(t, "acme", plan.Pro)
	for i := 0; i < 5; i++ {
		f.user(t, fmt.Sprintf("u%d", i), "acme")
	}
	f.user(t, "nuevo", "")
	ctx := context.Background()
	require.NoError(t, f.store.Organizations().SetPlan(ctx, "acme", plan.Basic, entity.OrgStatusActive))

	report, err := f.uc.CheckLimits(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, 5, report.Users.Current)
	assert.False(t, report.Users.CanAdd)

	_, err = f.uc.AddUserToOrganization(ctx, "acme", "nuevo")
	le := limitErr(t, err)
	assert.Equal(t, 5, le.Current)
	assert.Equal(t, 3, le.Max)

	// Las bajas siguen permitidas por encima del techo.
	_, err = f.uc.RemoveUserFromOrganization(ctx, "acme", "u0")
	require.NoError(t, err)
}

func TestRemoveUser(t *testing.T) {
	f := newFixture(t)
	f.org(t, "a", plan.Basic)
	f.org(t, "b", plan.Basic)
	f.user(t, "u1", "a")
	ctx := context.Background()

	_, err := f.uc.RemoveUserFromOrganization(ctx, "b", "u1")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "no es miembro de b")

	out, err := f.uc.RemoveUserFromOrganization(ctx, "a", "u1")
	require.NoError(t, err)
	assert.Empty(t, out.OrganizationID)

	u, err := f.store.Users().GetUser(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, u, "el usuario se desvincula, no se borra")
}

// ─────────────────────────────────────────────────────────────────────────────
// Libros
// ─────────────────────────────────────────────────────────────────────────────

func TestAddBook_TechoDeLibros(t *testing.T) {
	f := newFixture(t)
	f.org(t, "t", plan.Trial)
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		_, err := f.uc.AddBookToOrganization(ctx, "t", dto.CreateBookRequest{Title: fmt.Sprintf("L%d", i)})
		require.NoError(t, err)
	}

	_, err := f.uc.AddBookToOrganization(ctx, "t", dto.CreateBookRequest{Title: "uno más"})
	le := limitErr(t, err)
	assert.Equal(t, domain.ResourceBooks, le.Resource)
	assert.Equal(t, 100, le.Current)
	assert.Equal(t, 100, le.Max)
}

func TestAddBook_ProSinTechoDeLibros(t *testing.T) {
	f := newFixture(t)
	f.org(t, "p", plan.Pro)

	out, err := f.uc.AddBookToOrganization(context.Background(), "p", dto.CreateBookRequest{Title: " Ficciones ", Author: "Borges"})
	require.NoError(t, err)
	assert.Equal(t, "Ficciones", out.Title)
	assert.Equal(t, "p", out.OrganizationID)
}

func TestAddBook_TituloVacio(t *testing.T) {
	f := newFixture(t)
	f.org(t, "p", plan.Pro)
	_, err := f.uc.AddBookToOrganization(context.Background(), "p", dto.CreateBookRequest{Title: "  "})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestRemoveBook_DeOtraOrganizacion(t *testing.T) {
	f := newFixture(t)
	f.org(t, "a", plan.Pro)
	f.org(t, "b", plan.Pro)
	ctx := context.Background()
	book, err := f.uc.AddBookToOrganization(ctx, "a", dto.CreateBookRequest{Title: "x"})
	require.NoError(t, err)

	assert.True(t, errors.Is(f.uc.RemoveBook(ctx, "b", book.ID), domain.ErrNotFound))
	assert.NoError(t, f.uc.RemoveBook(ctx, "a", book.ID))
}

// ─────────────────────────────────────────────────────────────────────────────
// Escenario completo: alta en TRIAL, techo de usuarios, upgrade por checkout
// ─────────────────────────────────────────────────────────────────────────────

func TestEscenarioAcme_TrialLimiteYUpgrade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orgUC := organization.NewOrganizationUseCase(f.store.Organizations(), f.store.Users(), f.store.Subscriptions(), f.store, 14, logger.Nop(), nil)
	sync := subscription.NewSynchronizer(f.store, f.store.Subscriptions(), f.store.BillingEvents(),
		subscription.PriceTable{plan.Basic: "price_basic"}, logger.Nop(), nil)

	acme, err := orgUC.Create(ctx, dto.CreateOrganizationRequest{Name: "Acme", Slug: "acme"})
	require.NoError(t, err)
	assert.Equal(t, "TRIAL", acme.Plan)
	require.NotNil(t, acme.TrialEndsAt)
	assert.WithinDuration(t, time.Now().Add(14*24*time.Hour), *acme.TrialEndsAt, time.Minute)

	f.user(t, "u1", "")
	f.user(t, "u2", "")

	_, err = f.uc.AddUserToOrganization(ctx, acme.ID, "u1")
	require.NoError(t, err)

	_, err = f.uc.AddUserToOrganization(ctx, acme.ID, "u2")
	le := limitErr(t, err)
	assert.Equal(t, 1, le.Max)

	out, err := sync.Apply(ctx, subscription.CheckoutCompleted{
		EventMeta:      subscription.EventMeta{ID: "evt_acme", Type: subscription.TypeCheckoutCompleted},
		OrganizationID: acme.ID,
		Plan:           plan.Basic,
		CustomerID:     "cus_acme",
		SubscriptionID: "sub_acme",
	})
	require.NoError(t, err)
	assert.Equal(t, subscription.OutcomeApplied, out.Result)

	_, err = f.uc.AddUserToOrganization(ctx, acme.ID, "u2")
	require.NoError(t, err)

	report, err := f.uc.CheckLimits(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, "BASIC", report.Plan)
	assert.Equal(t, dto.ResourceUsage{Current: 2, Max: 3, CanAdd: true}, report.Users)
}

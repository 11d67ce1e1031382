package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/plan"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
	"github.com/jhoicas/Biblioteca-api/pkg/logger"
	"github.com/jhoicas/Biblioteca-api/pkg/metrics"
)

// ─────────────────────────────────────────────────────────────────────────────
// Dobles de prueba
// ─────────────────────────────────────────────────────────────────────────────

// orgStub solo implementa GetByID; cualquier otro método entra en pánico.
type orgStub struct {
	repository.OrganizationRepository
	orgs map[string]*entity.Organization
	err  error
}

func (s *orgStub) GetByID(_ context.Context, id string) (*entity.Organization, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.orgs[id], nil
}

type mapCounter struct {
	mu      sync.Mutex
	n       map[string]int64
	expires map[string]time.Time
	err     error
}

func newMapCounter() *mapCounter {
	return &mapCounter{n: map[string]int64{}, expires: map[string]time.Time{}}
}

func (c *mapCounter) Incr(_ context.Context, key string, expireAt time.Time) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	c.n[key]++
	c.expires[key] = expireAt
	return c.n[key], nil
}

func newTestLimiter(t *testing.T, p plan.Plan, counter Counter, at time.Time) (*Limiter, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	orgs := &orgStub{orgs: map[string]*entity.Organization{"org-1": {ID: "org-1", Plan: p}}}
	l := NewLimiter(orgs, counter, logger.Nop(), m)
	l.now = func() time.Time { return at }
	return l, m
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestKey_DiaUTC(t *testing.T) {
	bogota := time.FixedZone("COT", -5*3600)
	// 22:00 en Bogotá del 1 de marzo ya es 2 de marzo en UTC.
	at := time.Date(2026, 3, 1, 22, 0, 0, 0, bogota)
	assert.Equal(t, "ratelimit:org:abc:2026-03-02", Key("abc", at))
}

func TestAllow_HastaElTechoYRechazo(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	counter := newMapCounter()
	l, m := newTestLimiter(t, plan.Trial, counter, at)
	ctx := context.Background()

	for i := 1; i <= 1000; i++ {
		d, err := l.Allow(ctx, "org-1")
		require.NoError(t, err)
		require.True(t, d.Allowed, "petición %d", i)
		if i == 1 {
			assert.Equal(t, 999, d.Remaining)
		}
	}

	d, err := l.Allow(ctx, "org-1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 1000, d.Limit)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, plan.Trial, d.Plan)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), d.ResetAt)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited.WithLabelValues("TRIAL")))

	key := Key("org-1", at)
	assert.Equal(t, time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC), counter.expires[key], "la clave vive una hora tras el reinicio")
}

func TestAllow_NuevoDiaNuevaVentana(t *testing.T) {
	counter := newMapCounter()
	day1 := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	l, _ := newTestLimiter(t, plan.Basic, counter, day1)
	ctx := context.Background()

	counter.n[Key("org-1", day1)] = 5000
	d, err := l.Allow(ctx, "org-1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	l.now = func() time.Time { return day1.Add(2 * time.Minute) }
	d, err = l.Allow(ctx, "org-1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 4999, d.Remaining)
}

func TestAllow_EnterpriseNoConsultaElContador(t *testing.T) {
	counter := newMapCounter()
	counter.err = errors.New("no debería llamarse")
	l, _ := newTestLimiter(t, plan.Enterprise, counter, time.Now().UTC())

	d, err := l.Allow(context.Background(), "org-1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, plan.Unlimited, d.Limit)
	assert.Equal(t, plan.Unlimited, d.Remaining)
	assert.Empty(t, counter.n)
}

func TestAllow_ContadorCaidoAdmite(t *testing.T) {
	counter := newMapCounter()
	counter.err = errors.New("redis: connection refused")
	l, m := newTestLimiter(t, plan.Pro, counter, time.Now().UTC())

	d, err := l.Allow(context.Background(), "org-1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 50000, d.Remaining)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitFailOpen))
}

func TestAllow_OrganizacionInexistente(t *testing.T) {
	l, _ := newTestLimiter(t, plan.Pro, newMapCounter(), time.Now().UTC())
	_, err := l.Allow(context.Background(), "ghost")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestAllow_ConcurrenteCuentaExacto(t *testing.T) {
	counter := newMapCounter()
	at := time.Now().UTC()
	l, _ := newTestLimiter(t, plan.Trial, counter, at)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 1200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.Allow(context.Background(), "org-1")
			if err == nil && d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, allowed)
	assert.EqualValues(t, 1200, counter.n[Key("org-1", at)])
}

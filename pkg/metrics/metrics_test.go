package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_Contadores(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordLimitDenied("users", "TRIAL")
	m.RecordLimitDenied("users", "TRIAL")
	m.RecordBillingEvent("checkout.session.completed", "applied")
	m.RecordRateLimitFailOpen()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LimitDenials.WithLabelValues("users", "TRIAL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BillingEvents.WithLabelValues("checkout.session.completed", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitFailOpen))
}

func TestRecord_NilNoPanica(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordOrganizationCreated()
		m.RecordLimitDenied("books", "BASIC")
		m.RecordRateLimited("TRIAL")
		m.RecordCheckoutStarted("PRO")
	})
}

func TestMiddleware_UsaPatronDeRuta(t *testing.T) {
	m := New(prometheus.NewRegistry())
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/api/organizations/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest("GET", "/api/organizations/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/organizations/:id", "200")))
}

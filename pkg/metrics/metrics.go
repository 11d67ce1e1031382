package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics agrupa las métricas Prometheus del servicio.
// Todos los Record* aceptan receptor nil (métricas deshabilitadas).
type Metrics struct {
	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Negocio
	OrganizationsCreated prometheus.Counter
	LimitDenials         *prometheus.CounterVec
	RateLimited          *prometheus.CounterVec
	RateLimitFailOpen    prometheus.Counter
	BillingEvents        *prometheus.CounterVec
	CheckoutsStarted     *prometheus.CounterVec
}

// New registra las métricas en reg. Con reg nil se usa el registro por defecto.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total de peticiones HTTP",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Latencia de las peticiones HTTP en segundos",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		OrganizationsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "organizations_created_total",
			Help: "Organizaciones creadas",
		}),
		LimitDenials: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plan_limit_denials_total",
				Help: "Altas rechazadas por límite de plan",
			},
			[]string{"resource", "plan"},
		),
		RateLimited: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_limited_requests_total",
				Help: "Peticiones rechazadas por cuota diaria",
			},
			[]string{"plan"},
		),
		RateLimitFailOpen: f.NewCounter(prometheus.CounterOpts{
			Name: "rate_limit_fail_open_total",
			Help: "Peticiones admitidas porque el contador no respondió",
		}),
		BillingEvents: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_events_total",
				Help: "Eventos del proveedor de cobro por tipo y resultado",
			},
			[]string{"type", "outcome"}, // applied, ignored, dropped, failed
		),
		CheckoutsStarted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_checkouts_started_total",
				Help: "Sesiones de checkout creadas por plan",
			},
			[]string{"plan"},
		),
	}
}

// Middleware registra conteo y latencia por ruta (patrón, no path concreto).
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		path := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		m.HTTPRequestsTotal.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}

// RecordOrganizationCreated incrementa el contador de organizaciones.
func (m *Metrics) RecordOrganizationCreated() {
	if m == nil {
		return
	}
	m.OrganizationsCreated.Inc()
}

// RecordLimitDenied cuenta un alta rechazada por límite.
func (m *Metrics) RecordLimitDenied(resource, plan string) {
	if m == nil {
		return
	}
	m.LimitDenials.WithLabelValues(resource, plan).Inc()
}

// RecordRateLimited cuenta una petición rechazada por cuota.
func (m *Metrics) RecordRateLimited(plan string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(plan).Inc()
}

// RecordRateLimitFailOpen cuenta una petición admitida sin contador.
func (m *Metrics) RecordRateLimitFailOpen() {
	if m == nil {
		return
	}
	m.RateLimitFailOpen.Inc()
}

// RecordBillingEvent cuenta un evento procesado con su resultado.
func (m *Metrics) RecordBillingEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.BillingEvents.WithLabelValues(eventType, outcome).Inc()
}

// RecordCheckoutStarted cuenta una sesión de checkout creada.
func (m *Metrics) RecordCheckoutStarted(plan string) {
	if m == nil {
		return
	}
	m.CheckoutsStarted.WithLabelValues(plan).Inc()
}

package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Biblioteca-api/internal/application/limits"
	"github.com/jhoicas/Biblioteca-api/internal/application/organization"
	"github.com/jhoicas/Biblioteca-api/internal/application/ratelimit"
	"github.com/jhoicas/Biblioteca-api/internal/application/subscription"
	"github.com/jhoicas/Biblioteca-api/pkg/jwt"
	"github.com/jhoicas/Biblioteca-api/pkg/logger"
	"github.com/jhoicas/Biblioteca-api/pkg/metrics"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	OrganizationUC *organization.OrganizationUseCase
	LimitsUC       *limits.LimitsUseCase
	BillingUC      *subscription.BillingUseCase
	Synchronizer   *subscription.Synchronizer
	Decoder        subscription.Decoder
	RateLimiter    *ratelimit.Limiter
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer // nil = sin /metrics
	Logger         *logger.Logger
	JWTSecret      string
	WebhookTimeout time.Duration
	ServiceName    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(RequestLogger(deps.Logger))
	if deps.Metrics != nil {
		app.Use(deps.Metrics.Middleware())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	billingHandler := NewBillingHandler(deps.BillingUC, deps.Synchronizer, deps.Decoder, deps.WebhookTimeout, deps.Logger)

	// Webhook del proveedor: autenticado por firma, no por token.
	app.Post("/webhooks/billing", billingHandler.Webhook)

	api := app.Group("/api")

	// Catálogo de planes (público)
	api.Get("/plans", billingHandler.Plans)

	// Rutas protegidas (requieren Bearer Token y consumen cuota diaria)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret), RequireQuota(deps.RateLimiter, deps.Logger))

	orgHandler := NewOrganizationHandler(deps.OrganizationUC)
	limitsHandler := NewLimitsHandler(deps.LimitsUC)
	tenant := RequireOrganizationAccess("id")
	admin := RequireRole(jwt.RoleAdmin)

	orgs := protected.Group("/organizations")
	orgs.Post("/", orgHandler.Create)
	orgs.Get("/", admin, orgHandler.List)
	orgs.Get("/by-slug/:slug", admin, orgHandler.GetBySlug)
	orgs.Get("/:id", tenant, orgHandler.GetByID)
	orgs.Patch("/:id", tenant, orgHandler.Update)
	orgs.Delete("/:id", admin, orgHandler.Delete)

	// Límites del plan
	orgs.Get("/:id/limits", tenant, limitsHandler.Check)
	orgs.Post("/:id/members", tenant, limitsHandler.AddMember)
	orgs.Delete("/:id/members/:userId", tenant, limitsHandler.RemoveMember)
	orgs.Post("/:id/books", tenant, limitsHandler.AddBook)
	orgs.Delete("/:id/books/:bookId", tenant, limitsHandler.RemoveBook)

	// Cobro
	orgs.Post("/:id/billing/checkout", tenant, billingHandler.Checkout)
	orgs.Post("/:id/billing/portal", tenant, billingHandler.Portal)
	orgs.Get("/:id/billing/events", tenant, billingHandler.Events)
}

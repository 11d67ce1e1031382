package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jhoicas/Biblioteca-api/internal/application/limits"
	"github.com/jhoicas/Biblioteca-api/internal/application/organization"
	"github.com/jhoicas/Biblioteca-api/internal/application/ratelimit"
	"github.com/jhoicas/Biblioteca-api/internal/application/subscription"
	"github.com/jhoicas/Biblioteca-api/internal/domain/plan"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
	"github.com/jhoicas/Biblioteca-api/internal/infrastructure/memory"
	"github.com/jhoicas/Biblioteca-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/Biblioteca-api/internal/infrastructure/redis"
	infrastripe "github.com/jhoicas/Biblioteca-api/internal/infrastructure/stripe"
	httpRouter "github.com/jhoicas/Biblioteca-api/internal/interfaces/http"
	"github.com/jhoicas/Biblioteca-api/pkg/config"
	"github.com/jhoicas/Biblioteca-api/pkg/logger"
	"github.com/jhoicas/Biblioteca-api/pkg/metrics"
)

// storage agrupa los puertos de persistencia del driver elegido.
type storage struct {
	orgs    repository.OrganizationRepository
	members repository.MembershipRepository
	subs    repository.SubscriptionRepository
	books   repository.BookRepository
	events  repository.BillingEventRepository
	tx      interface {
		limits.TxRunner
		subscription.TxRunner
		organization.TxRunner
	}
	close func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st, err := openStorage(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer st.close()

	counter, closeCounter := openCounter(ctx, cfg.Redis, log)
	defer closeCounter()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	prices := subscription.PriceTable{
		plan.Basic:      cfg.Billing.PriceBasic,
		plan.Pro:        cfg.Billing.PricePro,
		plan.Enterprise: cfg.Billing.PriceEnterprise,
	}
	if cfg.Billing.SecretKey == "" {
		log.Warn().Msg("STRIPE_SECRET_KEY vacío: checkout y portal fallarán")
	}
	if cfg.Billing.WebhookSecret == "" {
		log.Warn().Msg("STRIPE_WEBHOOK_SECRET vacío: todos los webhooks se rechazarán")
	}
	gateway := infrastripe.NewGateway(cfg.Billing.SecretKey, nil)
	decoder := infrastripe.NewDecoder(cfg.Billing.WebhookSecret)

	orgUC := organization.NewOrganizationUseCase(st.orgs, st.members, st.subs, st.tx, cfg.Tenancy.TrialDays, log, m)
	limitsUC := limits.NewLimitsUseCase(st.orgs, st.members, st.books, st.tx, log, m)
	billingUC := subscription.NewBillingUseCase(gateway, st.orgs, st.subs, st.events, prices, subscription.URLs{
		Success:      cfg.Billing.SuccessURL,
		Cancel:       cfg.Billing.CancelURL,
		PortalReturn: cfg.Billing.PortalReturnURL,
	}, cfg.Billing.Timeout, log, m)
	synchronizer := subscription.NewSynchronizer(st.tx, st.subs, st.events, prices, log, m)
	limiter := ratelimit.NewLimiter(st.orgs, counter, log, m)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Biblioteca API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		OrganizationUC: orgUC,
		LimitsUC:       limitsUC,
		BillingUC:      billingUC,
		Synchronizer:   synchronizer,
		Decoder:        decoder,
		RateLimiter:    limiter,
		Metrics:        m,
		Gatherer:       reg,
		Logger:         log,
		JWTSecret:      cfg.JWT.Secret,
		WebhookTimeout: cfg.Billing.WebhookTimeout,
		ServiceName:    cfg.App.Name,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (*storage, error) {
	if cfg.Driver == "memory" {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		s := memory.NewStore()
		return &storage{
			orgs:    s.Organizations(),
			members: s.Users(),
			subs:    s.Subscriptions(),
			books:   s.Books(),
			events:  s.BillingEvents(),
			tx:      s,
			close:   func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("esquema aplicado")
	}
	return &storage{
		orgs:    postgres.NewOrganizationRepository(pool),
		members: postgres.NewUserRepository(pool),
		subs:    postgres.NewSubscriptionRepository(pool),
		books:   postgres.NewBookRepository(pool),
		events:  postgres.NewBillingEventRepository(pool),
		tx:      postgres.NewTxRunner(pool),
		close:   pool.Close,
	}, nil
}

// openCounter usa Redis si hay REDIS_URL; si no, o si Redis no responde, un contador local.
func openCounter(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (ratelimit.Counter, func()) {
	if cfg.URL == "" {
		log.Info().Msg("REDIS_URL vacío: cuota diaria en memoria de este proceso")
		return memory.NewCounter(), func() {}
	}
	client, err := infraredis.NewClient(ctx, cfg.URL)
	if err != nil {
		log.Error().Err(err).Msg("Redis no disponible: cuota diaria en memoria de este proceso")
		return memory.NewCounter(), func() {}
	}
	return infraredis.NewCounter(client), func() { _ = client.Close() }
}

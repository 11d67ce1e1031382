package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/Biblioteca-api/internal/application/dto"
	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/plan"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
	"github.com/jhoicas/Biblioteca-api/pkg/logger"
	"github.com/jhoicas/Biblioteca-api/pkg/metrics"
)

// DefaultGatewayTimeout límite de una llamada síncrona al proveedor si no se configura otro.
const DefaultGatewayTimeout = 10 * time.Second

// URLs destinos de retorno del flujo alojado.
type URLs struct {
	Success      string
	Cancel       string
	PortalReturn string
}

// BillingUseCase inicia checkouts y abre el portal del proveedor. No escribe estado local:
// el resultado llega después por webhook al Synchronizer.
type BillingUseCase struct {
	gateway Gateway
	orgs    repository.OrganizationRepository
	subs    repository.SubscriptionRepository
	events  repository.BillingEventRepository
	prices  PriceTable
	urls    URLs
	timeout time.Duration
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewBillingUseCase construye el caso de uso. timeout <= 0 usa DefaultGatewayTimeout.
func NewBillingUseCase(
	gateway Gateway,
	orgs repository.OrganizationRepository,
	subs repository.SubscriptionRepository,
	events repository.BillingEventRepository,
	prices PriceTable,
	urls URLs,
	timeout time.Duration,
	log *logger.Logger,
	m *metrics.Metrics,
) *BillingUseCase {
	if timeout <= 0 {
		timeout = DefaultGatewayTimeout
	}
	return &BillingUseCase{
		gateway: gateway,
		orgs:    orgs,
		subs:    subs,
		events:  events,
		prices:  prices,
		urls:    urls,
		timeout: timeout,
		log:     log.Component("billing"),
		metrics: m,
	}
}

// StartCheckout crea una sesión de checkout para contratar planName. La sesión lleva
// organization_id y plan como metadatos, que el webhook de checkout completado devuelve.
func (uc *BillingUseCase) StartCheckout(ctx context.Context, orgID, planName string) (*dto.CheckoutResponse, error) {
	p, err := plan.Parse(planName)
	if err != nil || !p.Purchasable() {
		return nil, &domain.FieldError{Field: "plan", Err: domain.ErrInvalidInput}
	}
	priceID, ok := uc.prices.PriceFor(p)
	if !ok {
		return nil, &domain.FieldError{Field: "plan", Err: fmt.Errorf("%w: plan %s sin precio configurado", domain.ErrInvalidInput, p)}
	}

	org, err := uc.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	params := CheckoutParams{
		OrganizationID:   org.ID,
		OrganizationName: org.Name,
		Plan:             p,
		PriceID:          priceID,
		SuccessURL:       uc.urls.Success,
		CancelURL:        uc.urls.Cancel,
	}
	sub, err := uc.subs.GetByOrganization(ctx, org.ID)
	if err != nil {
		return nil, err
	}
	if sub != nil {
		params.CustomerID = sub.BillingCustomerID
	}

	cctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	session, err := uc.gateway.CreateCheckoutSession(cctx, params)
	if err != nil {
		return nil, uc.gatewayError(cctx, "checkout", orgID, err)
	}

	uc.metrics.RecordCheckoutStarted(p.String())
	uc.log.Info().Str("org_id", org.ID).Str("plan", p.String()).Str("session_id", session.ID).Msg("checkout iniciado")
	return &dto.CheckoutResponse{SessionID: session.ID, URL: session.URL, ExpiresAt: session.ExpiresAt}, nil
}

// OpenPortal abre el portal de autoservicio del cliente. domain.ErrNotFound si la organización
// aún no es cliente del proveedor.
func (uc *BillingUseCase) OpenPortal(ctx context.Context, orgID, returnURL string) (*dto.PortalResponse, error) {
	sub, err := uc.subs.GetByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if sub == nil || sub.BillingCustomerID == "" {
		return nil, fmt.Errorf("%w: la organización no tiene cliente de cobro", domain.ErrNotFound)
	}
	if returnURL == "" {
		returnURL = uc.urls.PortalReturn
	}

	cctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	session, err := uc.gateway.CreatePortalSession(cctx, sub.BillingCustomerID, returnURL)
	if err != nil {
		return nil, uc.gatewayError(cctx, "portal", orgID, err)
	}
	return &dto.PortalResponse{URL: session.URL}, nil
}

// DefaultEventsLimit tamaño de página de la bitácora si no se indica otro.
const DefaultEventsLimit = 50

// ListEvents últimos eventos de cobro recibidos para la organización, más recientes primero.
// Una organización que nunca fue cliente del proveedor devuelve lista vacía.
func (uc *BillingUseCase) ListEvents(ctx context.Context, orgID string, limit int) ([]dto.BillingEventResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = DefaultEventsLimit
	}
	org, err := uc.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	out := []dto.BillingEventResponse{}
	sub, err := uc.subs.GetByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if sub == nil || sub.BillingCustomerID == "" || uc.events == nil {
		return out, nil
	}
	list, err := uc.events.ListByCustomer(ctx, sub.BillingCustomerID, limit)
	if err != nil {
		return nil, err
	}
	for _, e := range list {
		out = append(out, dto.BillingEventResponse{
			ID:         e.ID,
			Type:       e.Type,
			Amount:     e.Amount,
			Currency:   e.Currency,
			Outcome:    e.Outcome,
			Reason:     e.Reason,
			ReceivedAt: e.ReceivedAt,
		})
	}
	return out, nil
}

// Plans lista el catálogo para la página de precios.
func (uc *BillingUseCase) Plans() []dto.PlanResponse {
	entries := plan.All()
	out := make([]dto.PlanResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.PlanResponse{
			Plan:          e.Plan.String(),
			MaxUsers:      e.Limits.MaxUsers,
			MaxBooks:      e.Limits.MaxBooks,
			DailyRequests: e.Limits.DailyRequests,
			MonthlyPrice:  e.Limits.MonthlyPrice,
			Purchasable:   e.Plan.Purchasable(),
		})
	}
	return out
}

// gatewayError normaliza los fallos del proveedor: un timeout propio se reporta como no disponible.
func (uc *BillingUseCase) gatewayError(ctx context.Context, op, orgID string, err error) error {
	uc.log.Error().Err(err).Str("org_id", orgID).Str("op", op).Msg("error llamando al proveedor de cobro")
	if errors.Is(err, domain.ErrBillingUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s excedió %s", domain.ErrBillingUnavailable, op, uc.timeout)
	}
	return err
}

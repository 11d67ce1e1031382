package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Biblioteca-api/internal/application/dto"
	"github.com/jhoicas/Biblioteca-api/internal/application/subscription"
	"github.com/jhoicas/Biblioteca-api/pkg/logger"
)

// BillingHandler checkout, portal, catálogo de planes y webhook del proveedor.
type BillingHandler struct {
	uc             *subscription.BillingUseCase
	sync           *subscription.Synchronizer
	decoder        subscription.Decoder
	webhookTimeout time.Duration
	log            *logger.Logger
}

// NewBillingHandler construye el handler. webhookTimeout <= 0 usa 30s.
func NewBillingHandler(
	uc *subscription.BillingUseCase,
	sync *subscription.Synchronizer,
	decoder subscription.Decoder,
	webhookTimeout time.Duration,
	log *logger.Logger,
) *BillingHandler {
	if webhookTimeout <= 0 {
		webhookTimeout = 30 * time.Second
	}
	return &BillingHandler{uc: uc, sync: sync, decoder: decoder, webhookTimeout: webhookTimeout, log: log.Component("webhook")}
}

// Plans godoc
// @Summary      Catálogo de planes
// @Tags         billing
// @Produce      json
// @Success      200  {array}  dto.PlanResponse
// @Router       /api/plans [get]
func (h *BillingHandler) Plans(c *fiber.Ctx) error {
	return c.JSON(h.uc.Plans())
}

// Checkout godoc
// @Summary      Iniciar checkout
// @Description  Devuelve la URL alojada por el proveedor. El plan cambia cuando llega el webhook.
// @Tags         billing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "ID de la organización"
// @Param        body  body      dto.CheckoutRequest  true  "Plan"
// @Success      200   {object}  dto.CheckoutResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse  "BILLING_UNAVAILABLE"
// @Router       /api/organizations/{id}/billing/checkout [post]
func (h *BillingHandler) Checkout(c *fiber.Ctx) error {
	var in dto.CheckoutRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.StartCheckout(c.UserContext(), c.Params("id"), in.Plan)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Portal godoc
// @Summary      Abrir portal de autoservicio
// @Tags         billing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true   "ID de la organización"
// @Param        body  body      dto.PortalRequest  false  "URL de retorno"
// @Success      200   {object}  dto.PortalResponse
// @Failure      404   {object}  dto.ErrorResponse  "sin cliente de cobro"
// @Failure      503   {object}  dto.ErrorResponse  "BILLING_UNAVAILABLE"
// @Router       /api/organizations/{id}/billing/portal [post]
func (h *BillingHandler) Portal(c *fiber.Ctx) error {
	var in dto.PortalRequest
	if len(c.Body()) > 0 {
		if ok, err := parseBody(c, &in); !ok {
			return err
		}
	}
	out, err := h.uc.OpenPortal(c.UserContext(), c.Params("id"), in.ReturnURL)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Events godoc
// @Summary      Bitácora de eventos de cobro
// @Tags         billing
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "ID de la organización"
// @Param        limit  query     int     false  "Máximo de eventos (1-200, por defecto 50)"
// @Success      200    {array}   dto.BillingEventResponse
// @Failure      404    {object}  dto.ErrorResponse
// @Router       /api/organizations/{id}/billing/events [get]
func (h *BillingHandler) Events(c *fiber.Ctx) error {
	out, err := h.uc.ListEvents(c.UserContext(), c.Params("id"), c.QueryInt("limit", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Webhook godoc
// @Summary      Webhook del proveedor de cobro
// @Description  Verifica la firma y aplica el evento. Tras verificar responde 200 siempre, para que el proveedor no reintente eventos descartados.
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature  header    string  true  "Firma del evento"
// @Success      200               {object}  dto.WebhookAck
// @Failure      400               {object}  dto.ErrorResponse  "INVALID_SIGNATURE"
// @Router       /webhooks/billing [post]
func (h *BillingHandler) Webhook(c *fiber.Ctx) error {
	// fasthttp reutiliza el buffer del cuerpo al terminar la petición.
	payload := append([]byte(nil), c.Body()...)

	ev, err := h.decoder.Decode(payload, c.Get("Stripe-Signature"))
	if err != nil {
		h.log.Warn().Err(err).Str("ip", c.IP()).Msg("webhook rechazado")
		return writeError(c, err)
	}

	// El procesamiento no se corta si el proveedor cierra la conexión.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.UserContext()), h.webhookTimeout)
	defer cancel()

	out, err := h.sync.Apply(ctx, ev)
	if err != nil {
		h.log.Error().Err(err).Str("event_id", ev.Meta().ID).Str("event_type", ev.Meta().Type).Msg("fallo aplicando webhook")
	}
	return c.JSON(dto.WebhookAck{Received: true, Outcome: out.Result})
}

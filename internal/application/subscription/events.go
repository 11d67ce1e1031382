package subscription

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/plan"
)

// Tipos de evento del proveedor que el sincronizador reconoce.
const (
	TypeCheckoutCompleted    = "checkout.session.completed"
	TypeSubscriptionCreated  = "customer.subscription.created"
	TypeSubscriptionUpdated  = "customer.subscription.updated"
	TypeSubscriptionDeleted  = "customer.subscription.deleted"
	TypeInvoicePaymentFailed = "invoice.payment_failed"
	TypeInvoicePaid          = "invoice.paid"
)

// Event conjunto cerrado de eventos ya verificados y decodificados en el borde.
type Event interface {
	Meta() EventMeta
	isEvent()
}

// EventMeta datos comunes a todo evento.
type EventMeta struct {
	ID      string
	Type    string
	Created time.Time
}

func (m EventMeta) Meta() EventMeta { return m }
func (EventMeta) isEvent()          {}

// CheckoutCompleted el cliente completó el pago inicial. OrganizationID y Plan vienen de los
// metadatos que StartCheckout adjuntó; vacíos o inválidos si faltaban.
type CheckoutCompleted struct {
	EventMeta
	OrganizationID string
	Plan           plan.Plan
	CustomerID     string
	SubscriptionID string
	PriceID        string
}

// SubscriptionUpdated instantánea de la suscripción tras crearse o cambiar.
type SubscriptionUpdated struct {
	EventMeta
	CustomerID         string
	SubscriptionID     string
	PriceID            string
	ProviderStatus     string // active, past_due, canceled, unpaid, trialing, ...
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
}

// SubscriptionDeleted la suscripción terminó.
type SubscriptionDeleted struct {
	EventMeta
	CustomerID     string
	SubscriptionID string
}

// InvoicePaymentFailed falló el cobro de una factura.
type InvoicePaymentFailed struct {
	EventMeta
	CustomerID     string
	SubscriptionID string
	InvoiceID      string
	AmountDue      decimal.Decimal
	Currency       string
}

// InvoicePaid factura cobrada (solo informativo).
type InvoicePaid struct {
	EventMeta
	CustomerID string
	InvoiceID  string
	AmountPaid decimal.Decimal
	Currency   string
}

// Unknown cualquier otro tipo de evento.
type Unknown struct {
	EventMeta
}

// Malformed evento con firma válida cuyo cuerpo no se pudo interpretar. Se descarta sin
// reportar fallo al proveedor.
type Malformed struct {
	EventMeta
	Reason string
}

// MapProviderStatus traduce el estado del proveedor al estado local.
func MapProviderStatus(s string) string {
	switch s {
	case "past_due":
		return entity.SubStatusPastDue
	case "canceled", "cancelled":
		return entity.SubStatusCancelled
	case "unpaid":
		return entity.SubStatusUnpaid
	default:
		return entity.SubStatusActive
	}
}

package stripe

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/jhoicas/Biblioteca-api/internal/application/subscription"
	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/plan"
)

var _ subscription.Decoder = (*Decoder)(nil)

// Decoder verifica la firma Stripe-Signature y traduce el evento a las variantes tipadas.
type Decoder struct {
	secret    string
	tolerance time.Duration
}

// NewDecoder construye el decodificador con el secreto del endpoint.
func NewDecoder(webhookSecret string) *Decoder {
	return &Decoder{secret: webhookSecret, tolerance: webhook.DefaultTolerance}
}

// Decode verifica y decodifica. Firma ausente, inválida o vencida → domain.ErrInvalidSignature.
// Un cuerpo con firma válida que no se puede interpretar se entrega como subscription.Malformed.
func (d *Decoder) Decode(payload []byte, signature string) (subscription.Event, error) {
	if signature == "" {
		return nil, fmt.Errorf("%w: cabecera Stripe-Signature ausente", domain.ErrInvalidSignature)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, d.secret, webhook.ConstructEventOptions{
		Tolerance:                d.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	meta := subscription.EventMeta{
		ID:      event.ID,
		Type:    string(event.Type),
		Created: time.Unix(event.Created, 0).UTC(),
	}
	if event.Data == nil {
		return subscription.Unknown{EventMeta: meta}, nil
	}

	switch meta.Type {
	case subscription.TypeCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return malformed(meta, err), nil
		}
		return checkoutCompleted(meta, &sess), nil

	case subscription.TypeSubscriptionCreated, subscription.TypeSubscriptionUpdated:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return malformed(meta, err), nil
		}
		return subscriptionUpdated(meta, &sub), nil

	case subscription.TypeSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return malformed(meta, err), nil
		}
		return subscription.SubscriptionDeleted{
			EventMeta:      meta,
			CustomerID:     customerID(sub.Customer),
			SubscriptionID: sub.ID,
		}, nil

	case subscription.TypeInvoicePaymentFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return malformed(meta, err), nil
		}
		out := subscription.InvoicePaymentFailed{
			EventMeta:  meta,
			CustomerID: customerID(inv.Customer),
			InvoiceID:  inv.ID,
			AmountDue:  minorUnits(inv.AmountDue),
			Currency:   strings.ToUpper(string(inv.Currency)),
		}
		if inv.Subscription != nil {
			out.SubscriptionID = inv.Subscription.ID
		}
		return out, nil

	case subscription.TypeInvoicePaid:
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return malformed(meta, err), nil
		}
		return subscription.InvoicePaid{
			EventMeta:  meta,
			CustomerID: customerID(inv.Customer),
			InvoiceID:  inv.ID,
			AmountPaid: minorUnits(inv.AmountPaid),
			Currency:   strings.ToUpper(string(inv.Currency)),
		}, nil
	}
	return subscription.Unknown{EventMeta: meta}, nil
}

// checkoutCompleted toma organization_id y plan de los metadatos. Si faltan o el plan no existe,
// los campos quedan vacíos y el sincronizador descarta el evento.
func checkoutCompleted(meta subscription.EventMeta, sess *stripe.CheckoutSession) subscription.CheckoutCompleted {
	out := subscription.CheckoutCompleted{
		EventMeta:      meta,
		OrganizationID: sess.Metadata[MetaOrganizationID],
		CustomerID:     customerID(sess.Customer),
	}
	if p, err := plan.Parse(sess.Metadata[MetaPlan]); err == nil {
		out.Plan = p
	}
	if sess.Subscription != nil {
		out.SubscriptionID = sess.Subscription.ID
		out.PriceID = firstPrice(sess.Subscription)
	}
	return out
}

func subscriptionUpdated(meta subscription.EventMeta, sub *stripe.Subscription) subscription.SubscriptionUpdated {
	out := subscription.SubscriptionUpdated{
		EventMeta:         meta,
		CustomerID:        customerID(sub.Customer),
		SubscriptionID:    sub.ID,
		PriceID:           firstPrice(sub),
		ProviderStatus:    string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.CurrentPeriodStart > 0 {
		t := time.Unix(sub.CurrentPeriodStart, 0).UTC()
		out.CurrentPeriodStart = &t
	}
	if sub.CurrentPeriodEnd > 0 {
		t := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		out.CurrentPeriodEnd = &t
	}
	return out
}

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

func firstPrice(sub *stripe.Subscription) string {
	if sub == nil || sub.Items == nil {
		return ""
	}
	for _, item := range sub.Items.Data {
		if item != nil && item.Price != nil {
			return item.Price.ID
		}
	}
	return ""
}

// minorUnits convierte centavos a unidades (2 decimales).
func minorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

func malformed(meta subscription.EventMeta, err error) subscription.Malformed {
	return subscription.Malformed{EventMeta: meta, Reason: fmt.Sprintf("decodificar %s: %v", meta.Type, err)}
}

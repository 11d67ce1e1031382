// Package stripe adapta el proveedor de cobro Stripe a los puertos de suscripción.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/jhoicas/Biblioteca-api/internal/application/subscription"
	"github.com/jhoicas/Biblioteca-api/internal/domain"
)

var _ subscription.Gateway = (*Gateway)(nil)

// Claves de metadatos que viajan en la sesión de checkout y vuelven en el webhook.
const (
	MetaOrganizationID = "organization_id"
	MetaPlan           = "plan"
)

// Gateway crea sesiones de checkout y de portal con la API de Stripe.
type Gateway struct {
	api *client.API
}

// NewGateway construye el adaptador con la clave secreta. backends nil usa los de Stripe.
func NewGateway(secretKey string, backends *stripe.Backends) *Gateway {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &Gateway{api: api}
}

// CreateCheckoutSession crea una sesión de suscripción para el precio del plan.
// Reutiliza el cliente si la organización ya lo tiene; si no, Stripe lo crea al pagar.
func (g *Gateway) CreateCheckoutSession(ctx context.Context, p subscription.CheckoutParams) (*subscription.CheckoutSession, error) {
	metadata := map[string]string{
		MetaOrganizationID: p.OrganizationID,
		MetaPlan:           p.Plan.String(),
	}
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(p.SuccessURL),
		CancelURL:         stripe.String(p.CancelURL),
		ClientReferenceID: stripe.String(p.OrganizationID),
		Metadata:          metadata,
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	if p.CustomerID != "" {
		params.Customer = stripe.String(p.CustomerID)
	}
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, classify("crear sesión de checkout", err)
	}

	out := &subscription.CheckoutSession{ID: sess.ID, URL: sess.URL}
	if sess.ExpiresAt > 0 {
		exp := time.Unix(sess.ExpiresAt, 0).UTC()
		out.ExpiresAt = &exp
	}
	return out, nil
}

// CreatePortalSession abre el portal de autoservicio para el cliente.
func (g *Gateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*subscription.PortalSession, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := g.api.BillingPortalSessions.New(params)
	if err != nil {
		return nil, classify("crear sesión de portal", err)
	}
	return &subscription.PortalSession{URL: sess.URL}, nil
}

// classify marca como no disponible lo transitorio: timeout, red o 5xx/429 del proveedor.
func classify(op string, err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		if serr.HTTPStatusCode >= 500 || serr.HTTPStatusCode == 429 {
			return fmt.Errorf("%s: %w: %v", op, domain.ErrBillingUnavailable, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	// Sin respuesta del proveedor: timeout de ctx o error de red.
	return fmt.Errorf("%s: %w: %v", op, domain.ErrBillingUnavailable, err)
}

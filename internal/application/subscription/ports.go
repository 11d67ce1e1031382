package subscription

import (
	"context"
	"time"

	"github.com/jhoicas/Biblioteca-api/internal/domain/plan"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

// TxRunner ejecuta fn en una transacción. El sincronizador bloquea primero la organización
// (orgs.GetForUpdate) y después toca la suscripción: orden de bloqueo org → suscripción.
type TxRunner interface {
	RunSync(ctx context.Context, fn func(
		orgs repository.OrganizationRepository,
		subs repository.SubscriptionRepository,
	) error) error
}

// CheckoutParams datos de una sesión de checkout.
type CheckoutParams struct {
	OrganizationID   string
	OrganizationName string
	Plan             plan.Plan
	PriceID          string
	CustomerID       string // vacío si la organización aún no es cliente
	SuccessURL       string
	CancelURL        string
}

// CheckoutSession sesión alojada por el proveedor.
type CheckoutSession struct {
	ID        string
	URL       string
	ExpiresAt *time.Time
}

// PortalSession sesión del portal de autoservicio.
type PortalSession struct {
	URL string
}

// Gateway llamadas salientes al proveedor de cobro. Debe respetar la cancelación de ctx
// y devolver domain.ErrBillingUnavailable (envuelto) ante fallos transitorios.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (*PortalSession, error)
}

// Decoder verifica la firma de un webhook y lo decodifica en un Event tipado.
// Firma inválida o ausente → domain.ErrInvalidSignature.
type Decoder interface {
	Decode(payload []byte, signature string) (Event, error)
}

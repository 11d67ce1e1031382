package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutRequest plan a contratar.
type CheckoutRequest struct {
	Plan string `json:"plan" validate:"required,oneof=BASIC PRO ENTERPRISE"`
}

// CheckoutResponse sesión de checkout alojada por el proveedor.
type CheckoutResponse struct {
	SessionID string     `json:"session_id"`
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// PortalRequest URL de retorno opcional; por defecto la configurada.
type PortalRequest struct {
	ReturnURL string `json:"return_url" validate:"omitempty,url"`
}

// PortalResponse sesión del portal de autoservicio.
type PortalResponse struct {
	URL string `json:"url"`
}

// SubscriptionSummary estado visible de la suscripción.
type SubscriptionSummary struct {
	Plan              string     `json:"plan"`
	Status            string     `json:"status"`
	CurrentPeriodEnd  *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
}

// PlanResponse entrada del catálogo de planes. -1 = ilimitado.
type PlanResponse struct {
	Plan          string          `json:"plan"`
	MaxUsers      int             `json:"max_users"`
	MaxBooks      int             `json:"max_books"`
	DailyRequests int             `json:"daily_requests"`
	MonthlyPrice  decimal.Decimal `json:"monthly_price"`
	Purchasable   bool            `json:"purchasable"`
}

// BillingEventResponse entrada de la bitácora de cobro.
type BillingEventResponse struct {
	ID         string           `json:"id"`
	Type       string           `json:"type"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Currency   string           `json:"currency,omitempty"`
	Outcome    string           `json:"outcome"`
	Reason     string           `json:"reason,omitempty"`
	ReceivedAt time.Time        `json:"received_at"`
}

// WebhookAck respuesta al proveedor tras verificar un evento.
type WebhookAck struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome,omitempty"`
}

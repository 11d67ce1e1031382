package entity

import (
	"time"

	"github.com/jhoicas/Biblioteca-api/internal/domain/plan"
)

// Estados de la suscripción local (espejo del proveedor de cobro).
const (
	SubStatusActive    = "ACTIVE"
	SubStatusPastDue   = "PAST_DUE"
	SubStatusCancelled = "CANCELLED"
	SubStatusUnpaid    = "UNPAID"
)

// Subscription espejo local del objeto de cobro recurrente de una organización.
// Relación 1:1 con Organization (OrganizationID único).
type Subscription struct {
	ID                    string
	OrganizationID        string
	BillingCustomerID     string
	BillingSubscriptionID string
	BillingPriceID        string
	Plan                  plan.Plan
	Status                string
	CurrentPeriodStart    *time.Time
	CurrentPeriodEnd      *time.Time
	CancelAtPeriodEnd     bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

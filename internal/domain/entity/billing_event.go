package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingEvent registro de auditoría de un evento del proveedor ya verificado y procesado.
// ID es el id del evento en el proveedor; registrar dos veces el mismo id no duplica.
type BillingEvent struct {
	ID         string
	Type       string
	CustomerID string
	Amount     *decimal.Decimal // solo eventos de factura
	Currency   string
	Outcome    string // applied, ignored, dropped, failed
	Reason     string
	ReceivedAt time.Time
}

package subscription

import "github.com/jhoicas/Biblioteca-api/internal/domain/plan"

// PriceTable relación plan ↔ identificador de precio del proveedor (configuración).
type PriceTable map[plan.Plan]string

// PriceFor devuelve el precio configurado para el plan.
func (t PriceTable) PriceFor(p plan.Plan) (string, bool) {
	id, ok := t[p]
	return id, ok && id != ""
}

// PlanFor resuelve el plan de un precio. false si el precio no está configurado.
func (t PriceTable) PlanFor(priceID string) (plan.Plan, bool) {
	if priceID == "" {
		return "", false
	}
	for p, id := range t {
		if id == priceID {
			return p, true
		}
	}
	return "", false
}

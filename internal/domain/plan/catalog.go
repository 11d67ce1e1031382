// Package plan contiene el catálogo estático de planes y sus techos de recursos.
// Es dato puro: sin estado, seguro para lectura concurrente.
package plan

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Plan identifica un nivel de suscripción.
type Plan string

const (
	Trial      Plan = "TRIAL"
	Basic      Plan = "BASIC"
	Pro        Plan = "PRO"
	Enterprise Plan = "ENTERPRISE"
)

// Unlimited es el centinela de "sin techo".
const Unlimited = -1

// Limits techos de un plan. -1 significa ilimitado.
type Limits struct {
	MaxUsers      int
	MaxBooks      int
	DailyRequests int
	MonthlyPrice  decimal.Decimal // USD
}

var catalog = map[Plan]Limits{
	Trial:      {MaxUsers: 1, MaxBooks: 100, DailyRequests: 1000, MonthlyPrice: decimal.Zero},
	Basic:      {MaxUsers: 3, MaxBooks: 1000, DailyRequests: 5000, MonthlyPrice: decimal.NewFromInt(19)},
	Pro:        {MaxUsers: 10, MaxBooks: Unlimited, DailyRequests: 50000, MonthlyPrice: decimal.NewFromInt(49)},
	Enterprise: {MaxUsers: Unlimited, MaxBooks: Unlimited, DailyRequests: Unlimited, MonthlyPrice: decimal.NewFromInt(199)},
}

// order para listados estables (de menor a mayor).
var order = []Plan{Trial, Basic, Pro, Enterprise}

// LimitsFor devuelve los techos del plan. Un plan desconocido recibe los de TRIAL.
func LimitsFor(p Plan) Limits {
	if l, ok := catalog[p]; ok {
		return l
	}
	return catalog[Trial]
}

// Parse normaliza y valida un identificador de plan.
func Parse(s string) (Plan, error) {
	p := Plan(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := catalog[p]; !ok {
		return "", fmt.Errorf("plan desconocido: %q", s)
	}
	return p, nil
}

// Valid informa si el plan existe en el catálogo.
func (p Plan) Valid() bool {
	_, ok := catalog[p]
	return ok
}

// Purchasable informa si el plan se contrata vía checkout (todos menos TRIAL).
func (p Plan) Purchasable() bool {
	return p.Valid() && p != Trial
}

func (p Plan) String() string { return string(p) }

// Entry par plan/techos para listados.
type Entry struct {
	Plan   Plan
	Limits Limits
}

// All devuelve el catálogo completo ordenado de menor a mayor.
func All() []Entry {
	out := make([]Entry, 0, len(order))
	for _, p := range order {
		out = append(out, Entry{Plan: p, Limits: catalog[p]})
	}
	return out
}

// Allows decide si con `current` recursos en uso se admite uno más bajo el techo `ceiling`.
func Allows(current, ceiling int) bool {
	return ceiling == Unlimited || current < ceiling
}

package entity

import (
	"time"

	"github.com/jhoicas/Biblioteca-api/internal/domain/plan"
)

// Estados de una organización.
const (
	OrgStatusActive    = "ACTIVE"
	OrgStatusSuspended = "SUSPENDED"
)

// DefaultTrialDays duración del periodo de prueba si no se indica otra.
const DefaultTrialDays = 14

// Organization representa un tenant: frontera de cobro que agrupa usuarios y libros.
type Organization struct {
	ID          string
	Name        string
	Slug        string // único global, editable
	Plan        plan.Plan
	Status      string // ACTIVE, SUSPENDED
	TrialEndsAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrganizationPatch campos modificables por un handler de usuario. El plan no está aquí:
// solo el sincronizador de suscripciones lo cambia.
type OrganizationPatch struct {
	Name   *string
	Slug   *string
	Status *string
}

// OrganizationFilter filtro de listado.
type OrganizationFilter struct {
	Plan   *plan.Plan
	Status *string
	Limit  int
	Offset int
}

// ValidOrgStatus informa si s es un estado de organización conocido.
func ValidOrgStatus(s string) bool {
	return s == OrgStatusActive || s == OrgStatusSuspended
}

// TrialActive indica si la organización sigue en un periodo de prueba vigente en `now`.
func (o *Organization) TrialActive(now time.Time) bool {
	return o.Plan == plan.Trial && o.TrialEndsAt != nil && now.Before(*o.TrialEndsAt)
}

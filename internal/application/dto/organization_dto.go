package dto

import "time"

// CreateOrganizationRequest entrada para crear una organización.
// Slug es opcional: si falta se deriva del nombre. Plan solo lo acepta un administrador.
type CreateOrganizationRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=200"`
	Slug      string `json:"slug" validate:"omitempty,max=100"`
	Plan      string `json:"plan" validate:"omitempty,oneof=TRIAL BASIC PRO ENTERPRISE"`
	TrialDays *int   `json:"trial_days" validate:"omitempty,min=0,max=365"`
}

// UpdateOrganizationRequest entrada para actualizar una organización (campos opcionales).
// El plan no es editable: solo cambia por eventos del proveedor de cobro.
type UpdateOrganizationRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=200"`
	Slug   *string `json:"slug" validate:"omitempty,min=1,max=100"`
	Status *string `json:"status" validate:"omitempty,oneof=ACTIVE SUSPENDED"`
}

// ListOrganizationsRequest filtros del listado (solo administradores).
type ListOrganizationsRequest struct {
	PageRequest
	Plan   string `query:"plan" validate:"omitempty,oneof=TRIAL BASIC PRO ENTERPRISE"`
	Status string `query:"status" validate:"omitempty,oneof=ACTIVE SUSPENDED"`
}

// OrganizationResponse salida de una organización.
type OrganizationResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Plan        string     `json:"plan"`
	Status      string     `json:"status"`
	TrialEndsAt *time.Time `json:"trial_ends_at,omitempty"`
	TrialActive bool       `json:"trial_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// OrganizationDetailResponse organización con miembros y resumen de suscripción.
type OrganizationDetailResponse struct {
	OrganizationResponse
	MemberCount  int                  `json:"member_count"`
	Subscription *SubscriptionSummary `json:"subscription,omitempty"`
}

// OrganizationListResponse lista paginada de organizaciones.
type OrganizationListResponse struct {
	Items []OrganizationResponse `json:"items"`
	Page  PageResponse           `json:"page"`
}

package dto

import "time"

// ResourceUsage uso actual frente al techo del plan. Max -1 = ilimitado.
type ResourceUsage struct {
	Current int  `json:"current"`
	Max     int  `json:"max"`
	CanAdd  bool `json:"can_add"`
}

// LimitReportResponse reporte de límites de una organización.
type LimitReportResponse struct {
	OrganizationID string        `json:"organization_id"`
	Plan           string        `json:"plan"`
	Users          ResourceUsage `json:"users"`
	Books          ResourceUsage `json:"books"`
	DailyRequests  int           `json:"daily_requests"`
}

// AddMemberRequest vincula un usuario existente a la organización.
type AddMemberRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// MembershipResponse vínculo usuario → organización. OrganizationID vacío = desvinculado.
type MembershipResponse struct {
	UserID         string    `json:"user_id"`
	OrganizationID string    `json:"organization_id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateBookRequest alta mínima de libro.
type CreateBookRequest struct {
	Title  string `json:"title" validate:"required,min=1,max=300"`
	Author string `json:"author" validate:"omitempty,max=200"`
}

// BookResponse salida de un libro.
type BookResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	CreatedAt      time.Time `json:"created_at"`
}

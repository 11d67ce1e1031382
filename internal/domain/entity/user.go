package entity

import "time"

// User usuario del sistema. Pertenece como máximo a una Organization (OrganizationID vacío = sin organización).
type User struct {
	ID             string
	Email          string
	Name           string
	OrganizationID string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

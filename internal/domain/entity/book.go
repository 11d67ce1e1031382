package entity

import "time"

// Book libro del catálogo de una organización. Solo lo necesario para el techo por plan.
type Book struct {
	ID             string
	OrganizationID string
	Title          string
	Author         string
	CreatedAt      time.Time
}

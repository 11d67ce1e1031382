package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrSlugTaken          = errors.New("el slug ya está en uso")
	ErrLimitReached       = errors.New("límite del plan alcanzado")
	ErrBillingUnavailable = errors.New("proveedor de cobro no disponible, intente más tarde")
	ErrInvalidSignature   = errors.New("firma del webhook inválida")
)

// Recursos con techo por plan.
const (
	ResourceUsers = "users"
	ResourceBooks = "books"
)

// LimitError detalla un rechazo por techo del plan. errors.Is(err, ErrLimitReached) es true.
type LimitError struct {
	Resource string
	Plan     string
	Current  int
	Max      int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s: %s %d/%d en plan %s", ErrLimitReached.Error(), e.Resource, e.Current, e.Max, e.Plan)
}

func (e *LimitError) Unwrap() error { return ErrLimitReached }

// Upgrade indica si existe un plan superior que levantaría el techo.
func (e *LimitError) Upgrade() bool { return e.Plan != "ENTERPRISE" }

// FieldError asocia un error de dominio al campo que lo provocó (ej. slug duplicado).
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Err.Error() }

func (e *FieldError) Unwrap() error { return e.Err }

// SlugTaken construye el error de conflicto de slug con el campo identificado.
func SlugTaken() error {
	return &FieldError{Field: "slug", Err: ErrSlugTaken}
}

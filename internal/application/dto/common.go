package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int `query:"offset" validate:"omitempty,min=0"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP.
// Field nombra el campo en conflicto (p. ej. slug); Upgrade sugiere mejorar el plan.
type ErrorResponse struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Field   string       `json:"field,omitempty"`
	Upgrade bool         `json:"upgrade,omitempty"`
	Limit   *LimitDetail `json:"limit,omitempty"`
}

// LimitDetail detalle del límite alcanzado.
type LimitDetail struct {
	Resource string `json:"resource"`
	Plan     string `json:"plan"`
	Current  int    `json:"current"`
	Max      int    `json:"max"`
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Biblioteca-api/internal/application/dto"
	"github.com/jhoicas/Biblioteca-api/internal/application/organization"
)

// OrganizationHandler maneja las peticiones HTTP para el recurso Organization.
type OrganizationHandler struct {
	uc *organization.OrganizationUseCase
}

// NewOrganizationHandler construye el handler inyectando el caso de uso.
func NewOrganizationHandler(uc *organization.OrganizationUseCase) *OrganizationHandler {
	return &OrganizationHandler{uc: uc}
}

// Create godoc
// @Summary      Crear organización
// @Description  Alta en plan TRIAL con periodo de prueba. El slug se deriva del nombre si no se envía. Solo un administrador puede fijar plan.
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.CreateOrganizationRequest  true  "Datos de la organización"
// @Success      201   {object}  dto.OrganizationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "SLUG_TAKEN"
// @Router       /api/organizations [post]
func (h *OrganizationHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrganizationRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	if in.Plan != "" && !GetIdentity(c).IsAdmin() {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "solo un administrador puede fijar el plan", Field: "plan"})
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener organización
// @Description  Incluye número de miembros y resumen de la suscripción.
// @Tags         organizations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "ID de la organización"
// @Success      200  {object}  dto.OrganizationDetailResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/organizations/{id} [get]
func (h *OrganizationHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetDetail(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetBySlug godoc
// @Summary      Obtener organización por slug
// @Tags         organizations
// @Produce      json
// @Security     BearerAuth
// @Param        slug  path      string  true  "Slug"
// @Success      200   {object}  dto.OrganizationResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/organizations/by-slug/{slug} [get]
func (h *OrganizationHandler) GetBySlug(c *fiber.Ctx) error {
	out, err := h.uc.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar organizaciones (administradores)
// @Tags         organizations
// @Produce      json
// @Security     BearerAuth
// @Param        plan    query     string  false  "TRIAL | BASIC | PRO | ENTERPRISE"
// @Param        status  query     string  false  "ACTIVE | SUSPENDED"
// @Param        limit   query     int     false  "Límite"  default(20)
// @Param        offset  query     int     false  "Offset"  default(0)
// @Success      200     {object}  dto.OrganizationListResponse
// @Failure      403     {object}  dto.ErrorResponse
// @Router       /api/organizations [get]
func (h *OrganizationHandler) List(c *fiber.Ctx) error {
	var in dto.ListOrganizationsRequest
	if ok, err := parseQuery(c, &in); !ok {
		return err
	}
	out, err := h.uc.List(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar organización
// @Description  Nombre y slug. El estado solo lo cambia un administrador; el plan no es editable.
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                         true  "ID de la organización"
// @Param        body  body      dto.UpdateOrganizationRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.OrganizationResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "SLUG_TAKEN"
// @Router       /api/organizations/{id} [patch]
func (h *OrganizationHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateOrganizationRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	if in.Status != nil && !GetIdentity(c).IsAdmin() {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "solo un administrador puede cambiar el estado", Field: "status"})
	}
	out, err := h.uc.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar organización (administradores)
// @Description  Irreversible: borra suscripción y libros, desvincula miembros.
// @Tags         organizations
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la organización"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/organizations/{id} [delete]
func (h *OrganizationHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

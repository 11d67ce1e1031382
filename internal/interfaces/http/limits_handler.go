package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Biblioteca-api/internal/application/dto"
	"github.com/jhoicas/Biblioteca-api/internal/application/limits"
)

// LimitsHandler expone el reporte de límites y las altas/bajas sujetas a techo.
type LimitsHandler struct {
	uc *limits.LimitsUseCase
}

// NewLimitsHandler construye el handler.
func NewLimitsHandler(uc *limits.LimitsUseCase) *LimitsHandler {
	return &LimitsHandler{uc: uc}
}

// Check godoc
// @Summary      Límites de la organización
// @Tags         limits
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "ID de la organización"
// @Success      200  {object}  dto.LimitReportResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/organizations/{id}/limits [get]
func (h *LimitsHandler) Check(c *fiber.Ctx) error {
	out, err := h.uc.CheckLimits(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AddMember godoc
// @Summary      Agregar miembro
// @Description  Vincula un usuario existente. 403 LIMIT_REACHED con upgrade si el plan no admite más usuarios.
// @Tags         limits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "ID de la organización"
// @Param        body  body      dto.AddMemberRequest  true  "Usuario"
// @Success      200   {object}  dto.MembershipResponse
// @Failure      403   {object}  dto.ErrorResponse  "LIMIT_REACHED | FORBIDDEN"
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "usuario en otra organización"
// @Router       /api/organizations/{id}/members [post]
func (h *LimitsHandler) AddMember(c *fiber.Ctx) error {
	var in dto.AddMemberRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.AddUserToOrganization(c.UserContext(), c.Params("id"), in.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// RemoveMember godoc
// @Summary      Quitar miembro
// @Tags         limits
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string  true  "ID de la organización"
// @Param        userId  path      string  true  "ID del usuario"
// @Success      200     {object}  dto.MembershipResponse
// @Failure      403     {object}  dto.ErrorResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/organizations/{id}/members/{userId} [delete]
func (h *LimitsHandler) RemoveMember(c *fiber.Ctx) error {
	out, err := h.uc.RemoveUserFromOrganization(c.UserContext(), c.Params("id"), c.Params("userId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AddBook godoc
// @Summary      Agregar libro
// @Tags         limits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "ID de la organización"
// @Param        body  body      dto.CreateBookRequest  true  "Libro"
// @Success      201   {object}  dto.BookResponse
// @Failure      403   {object}  dto.ErrorResponse  "LIMIT_REACHED"
// @Router       /api/organizations/{id}/books [post]
func (h *LimitsHandler) AddBook(c *fiber.Ctx) error {
	var in dto.CreateBookRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.AddBookToOrganization(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// RemoveBook godoc
// @Summary      Quitar libro
// @Tags         limits
// @Security     BearerAuth
// @Param        id      path  string  true  "ID de la organización"
// @Param        bookId  path  string  true  "ID del libro"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/organizations/{id}/books/{bookId} [delete]
func (h *LimitsHandler) RemoveBook(c *fiber.Ctx) error {
	if err := h.uc.RemoveBook(c.UserContext(), c.Params("id"), c.Params("bookId")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

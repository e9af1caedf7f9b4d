package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/academic-erp/internal/api/dto"
	"github.com/spec-kit/academic-erp/internal/auth"
	"github.com/spec-kit/academic-erp/internal/service"
	apperrors "github.com/spec-kit/academic-erp/pkg/util"
)

// EmployeesHandler serves the caller's own directory record.
type EmployeesHandler struct {
	directory *service.DirectoryService
}

// NewEmployeesHandler constructs handler.
func NewEmployeesHandler(directory *service.DirectoryService) *EmployeesHandler {
	return &EmployeesHandler{directory: directory}
}

// Me handles GET /api/employees/me.
func (h *EmployeesHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	employee, err := h.directory.FindByEmail(c.UserContext(), principal.Email)
	if err != nil {
		return err
	}
	if employee == nil {
		return apperrors.NewNotFound("employee", nil)
	}
	return c.JSON(fiber.Map{"data": dto.NewEmployeeResponse(employee, principal.Roles)})
}

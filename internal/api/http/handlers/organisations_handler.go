package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/academic-erp/internal/api/dto"
	"github.com/spec-kit/academic-erp/internal/auth"
	"github.com/spec-kit/academic-erp/internal/repository"
	"github.com/spec-kit/academic-erp/internal/service"
	apperrors "github.com/spec-kit/academic-erp/pkg/util"
)

// OrganisationsHandler exposes organisation CRUD to the outreach department.
type OrganisationsHandler struct {
	orgs *service.OrganisationService
}

// NewOrganisationsHandler constructs handler.
func NewOrganisationsHandler(orgs *service.OrganisationService) *OrganisationsHandler {
	return &OrganisationsHandler{orgs: orgs}
}

// Create handles POST /api/organisations.
func (h *OrganisationsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateOrganisationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	org, err := h.orgs.Create(c.UserContext(), req.ToDomain(), actor(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewOrganisationResponse(org)})
}

// Get handles GET /api/organisations/:id.
func (h *OrganisationsHandler) Get(c *fiber.Ctx) error {
	id, err := organisationID(c)
	if err != nil {
		return err
	}
	org, err := h.orgs.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrganisationResponse(org)})
}

// List handles GET /api/organisations.
func (h *OrganisationsHandler) List(c *fiber.Ctx) error {
	orgs, err := h.orgs.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrganisationResponses(orgs)})
}

// ListPage handles GET /api/organisations/paginated.
func (h *OrganisationsHandler) ListPage(c *fiber.Ctx) error {
	page, err := h.orgs.ListPage(c.UserContext(), repository.PageRequest{
		Page:    c.QueryInt("page", 0),
		Size:    c.QueryInt("size", 10),
		SortBy:  c.Query("sortBy", "id"),
		SortDir: c.Query("sortDir", "asc"),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrganisationPageResponse(page)})
}

// Search handles GET /api/organisations/search?searchTerm=.
func (h *OrganisationsHandler) Search(c *fiber.Ctx) error {
	orgs, err := h.orgs.Search(c.UserContext(), c.Query("searchTerm"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrganisationResponses(orgs)})
}

// SearchByName handles GET /api/organisations/search/name?name=.
func (h *OrganisationsHandler) SearchByName(c *fiber.Ctx) error {
	orgs, err := h.orgs.SearchByName(c.UserContext(), c.Query("name"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrganisationResponses(orgs)})
}

// Update handles PUT /api/organisations/:id.
func (h *OrganisationsHandler) Update(c *fiber.Ctx) error {
	id, err := organisationID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateOrganisationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	org, err := h.orgs.Update(c.UserContext(), id, req.ToPatch(), actor(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrganisationResponse(org)})
}

// Delete handles DELETE /api/organisations/:id.
func (h *OrganisationsHandler) Delete(c *fiber.Ctx) error {
	id, err := organisationID(c)
	if err != nil {
		return err
	}
	if err := h.orgs.Delete(c.UserContext(), id, actor(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "organisation deleted"}})
}

// Exists handles GET /api/organisations/:id/exists.
func (h *OrganisationsHandler) Exists(c *fiber.Ctx) error {
	id, err := organisationID(c)
	if err != nil {
		return err
	}
	exists, err := h.orgs.Exists(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"exists": exists}})
}

// CheckEmail handles GET /api/organisations/check-email?email=.
func (h *OrganisationsHandler) CheckEmail(c *fiber.Ctx) error {
	exists, err := h.orgs.HREmailExists(c.UserContext(), c.Query("email"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"exists": exists}})
}

func organisationID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid organisation id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

func actor(c *fiber.Ctx) string {
	if principal, ok := auth.PrincipalFromContext(c); ok {
		return principal.Email
	}
	return ""
}

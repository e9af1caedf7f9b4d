package dto

import (
	"github.com/spec-kit/academic-erp/internal/domain"
	"github.com/spec-kit/academic-erp/internal/service"
)

// HRRequest describes an organisation's HR contact.
type HRRequest struct {
	FirstName     string `json:"firstName" validate:"required,max=100"`
	LastName      string `json:"lastName" validate:"required,max=100"`
	Email         string `json:"email" validate:"required,email,max=255"`
	ContactNumber string `json:"contactNumber" validate:"omitempty,max=32"`
}

// CreateOrganisationRequest payload for POST /api/organisations.
type CreateOrganisationRequest struct {
	Name      string    `json:"name" validate:"required,max=255"`
	Address   string    `json:"address" validate:"omitempty,max=500"`
	HRDetails HRRequest `json:"hrDetails" validate:"required"`
}

// ToDomain builds the organisation to store.
func (r CreateOrganisationRequest) ToDomain() *domain.Organisation {
	return &domain.Organisation{
		Name:    r.Name,
		Address: r.Address,
		HR: &domain.OrganisationHR{
			FirstName:     r.HRDetails.FirstName,
			LastName:      r.HRDetails.LastName,
			Email:         r.HRDetails.Email,
			ContactNumber: r.HRDetails.ContactNumber,
		},
	}
}

// UpdateHRRequest carries optional HR contact changes.
type UpdateHRRequest struct {
	FirstName     *string `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName      *string `json:"lastName" validate:"omitempty,min=1,max=100"`
	Email         *string `json:"email" validate:"omitempty,email,max=255"`
	ContactNumber *string `json:"contactNumber" validate:"omitempty,max=32"`
}

// UpdateOrganisationRequest payload for PUT /api/organisations/:id. Absent fields are kept.
type UpdateOrganisationRequest struct {
	Name      *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Address   *string          `json:"address" validate:"omitempty,max=500"`
	HRDetails *UpdateHRRequest `json:"hrDetails"`
}

// ToPatch converts the request to a service patch.
func (r UpdateOrganisationRequest) ToPatch() service.OrganisationPatch {
	patch := service.OrganisationPatch{Name: r.Name, Address: r.Address}
	if r.HRDetails != nil {
		patch.HRFirstName = r.HRDetails.FirstName
		patch.HRLastName = r.HRDetails.LastName
		patch.HREmail = r.HRDetails.Email
		patch.HRContactNumber = r.HRDetails.ContactNumber
	}
	return patch
}

// HRResponse is the HR contact as returned to clients.
type HRResponse struct {
	ID            int64  `json:"id"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	ContactNumber string `json:"contactNumber"`
}

// OrganisationResponse is an organisation as returned to clients.
type OrganisationResponse struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Address   string      `json:"address"`
	HRDetails *HRResponse `json:"hrDetails,omitempty"`
}

// NewOrganisationResponse converts a domain organisation.
func NewOrganisationResponse(org *domain.Organisation) OrganisationResponse {
	resp := OrganisationResponse{ID: org.ID, Name: org.Name, Address: org.Address}
	if org.HR != nil {
		resp.HRDetails = &HRResponse{
			ID:            org.HR.ID,
			FirstName:     org.HR.FirstName,
			LastName:      org.HR.LastName,
			Email:         org.HR.Email,
			ContactNumber: org.HR.ContactNumber,
		}
	}
	return resp
}

// NewOrganisationResponses converts a list.
func NewOrganisationResponses(orgs []domain.Organisation) []OrganisationResponse {
	out := make([]OrganisationResponse, len(orgs))
	for i := range orgs {
		out[i] = NewOrganisationResponse(&orgs[i])
	}
	return out
}

// OrganisationPageResponse is one page of organisations.
type OrganisationPageResponse struct {
	Content       []OrganisationResponse `json:"content"`
	Page          int                    `json:"page"`
	Size          int                    `json:"size"`
	TotalElements int64                  `json:"totalElements"`
	TotalPages    int                    `json:"totalPages"`
}

// NewOrganisationPageResponse converts a service page.
func NewOrganisationPageResponse(page *service.OrganisationPage) OrganisationPageResponse {
	return OrganisationPageResponse{
		Content:       NewOrganisationResponses(page.Items),
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
	}
}

package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/academic-erp/internal/domain"
	"github.com/spec-kit/academic-erp/internal/events"
	"github.com/spec-kit/academic-erp/internal/repository"
	apperrors "github.com/spec-kit/academic-erp/pkg/util"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// OrganisationPage is one page of a sorted organisation listing.
type OrganisationPage struct {
	Items         []domain.Organisation
	Page          int
	Size          int
	TotalElements int64
	TotalPages    int
}

// OrganisationPatch carries the fields of a partial update; nil fields are left alone.
type OrganisationPatch struct {
	Name            *string
	Address         *string
	HRFirstName     *string
	HRLastName      *string
	HREmail         *string
	HRContactNumber *string
}

// OrganisationService manages the partner organisations of the outreach department.
type OrganisationService struct {
	orgs       repository.OrganisationRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewOrganisationService builds the service.
func NewOrganisationService(orgs repository.OrganisationRepository, dispatcher events.Dispatcher, logger *zap.Logger) *OrganisationService {
	return &OrganisationService{orgs: orgs, dispatcher: dispatcher, logger: logger}
}

// Create stores an organisation with its HR contact. The HR email must be unused.
func (s *OrganisationService) Create(ctx context.Context, org *domain.Organisation, actor string) (*domain.Organisation, error) {
	if org.HR == nil {
		return nil, apperrors.NewValidationError("hr contact required", nil)
	}
	taken, err := s.orgs.HREmailExists(ctx, org.HR.Email)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if taken {
		return nil, hrEmailConflict(org.HR.Email)
	}

	if err := s.orgs.Create(ctx, org); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, hrEmailConflict(org.HR.Email)
		}
		return nil, mapRepositoryError(err)
	}

	s.publish(ctx, events.EventOrganisationCreated, actor, org)
	return org, nil
}

// Get returns one organisation.
func (s *OrganisationService) Get(ctx context.Context, id int64) (*domain.Organisation, error) {
	org, err := s.orgs.GetByID(ctx, id)
	if err != nil {
		return nil, mapOrganisationError(err, id)
	}
	return org, nil
}

// List returns every organisation ordered by id.
func (s *OrganisationService) List(ctx context.Context) ([]domain.Organisation, error) {
	orgs, err := s.orgs.List(ctx)
	return orgs, mapRepositoryError(err)
}

// ListPage returns one page; out-of-range sizes are clamped and unknown sort keys fall back to id.
func (s *OrganisationService) ListPage(ctx context.Context, page repository.PageRequest) (*OrganisationPage, error) {
	if page.Page < 0 {
		page.Page = 0
	}
	if page.Size <= 0 {
		page.Size = defaultPageSize
	}
	if page.Size > maxPageSize {
		page.Size = maxPageSize
	}
	if page.Page > math.MaxInt/page.Size {
		return nil, apperrors.NewValidationError("page out of range", map[string]any{"page": page.Page})
	}

	items, total, err := s.orgs.ListPage(ctx, page)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	totalPages := int((total + int64(page.Size) - 1) / int64(page.Size))
	return &OrganisationPage{
		Items:         items,
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: total,
		TotalPages:    totalPages,
	}, nil
}

// Search matches name, address and HR contact fields case-insensitively.
func (s *OrganisationService) Search(ctx context.Context, term string) ([]domain.Organisation, error) {
	if strings.TrimSpace(term) == "" {
		return s.List(ctx)
	}
	orgs, err := s.orgs.Search(ctx, term)
	return orgs, mapRepositoryError(err)
}

// SearchByName matches the organisation name case-insensitively.
func (s *OrganisationService) SearchByName(ctx context.Context, name string) ([]domain.Organisation, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	orgs, err := s.orgs.SearchByName(ctx, name)
	return orgs, mapRepositoryError(err)
}

// Update applies a partial change. A changed HR email must be unused.
func (s *OrganisationService) Update(ctx context.Context, id int64, patch OrganisationPatch, actor string) (*domain.Organisation, error) {
	org, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.HREmail != nil && !strings.EqualFold(*patch.HREmail, org.HR.Email) {
		taken, err := s.orgs.HREmailExists(ctx, *patch.HREmail)
		if err != nil {
			return nil, mapRepositoryError(err)
		}
		if taken {
			return nil, hrEmailConflict(*patch.HREmail)
		}
	}
	patch.apply(org)

	if err := s.orgs.Update(ctx, org); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, hrEmailConflict(org.HR.Email)
		}
		return nil, mapOrganisationError(err, id)
	}

	s.publish(ctx, events.EventOrganisationUpdated, actor, org)
	return org, nil
}

// Delete removes an organisation and its HR contact.
func (s *OrganisationService) Delete(ctx context.Context, id int64, actor string) error {
	if err := s.orgs.Delete(ctx, id); err != nil {
		return mapOrganisationError(err, id)
	}
	s.publish(ctx, events.EventOrganisationDeleted, actor, &domain.Organisation{ID: id})
	return nil
}

// Exists reports whether the organisation id is known.
func (s *OrganisationService) Exists(ctx context.Context, id int64) (bool, error) {
	exists, err := s.orgs.Exists(ctx, id)
	return exists, mapRepositoryError(err)
}

// HREmailExists reports whether an HR contact already uses email.
func (s *OrganisationService) HREmailExists(ctx context.Context, email string) (bool, error) {
	if strings.TrimSpace(email) == "" {
		return false, apperrors.NewValidationError("email required", nil)
	}
	exists, err := s.orgs.HREmailExists(ctx, email)
	return exists, mapRepositoryError(err)
}

func (p OrganisationPatch) apply(org *domain.Organisation) {
	if p.Name != nil {
		org.Name = *p.Name
	}
	if p.Address != nil {
		org.Address = *p.Address
	}
	if org.HR == nil {
		org.HR = &domain.OrganisationHR{OrganisationID: org.ID}
	}
	if p.HRFirstName != nil {
		org.HR.FirstName = *p.HRFirstName
	}
	if p.HRLastName != nil {
		org.HR.LastName = *p.HRLastName
	}
	if p.HREmail != nil {
		org.HR.Email = *p.HREmail
	}
	if p.HRContactNumber != nil {
		org.HR.ContactNumber = *p.HRContactNumber
	}
}

func (s *OrganisationService) publish(ctx context.Context, eventType events.EventType, actor string, org *domain.Organisation) {
	if s.dispatcher == nil {
		return
	}
	event := events.New(eventType, actor, events.OrganisationPayload{OrganisationID: org.ID, Name: org.Name})
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func hrEmailConflict(email string) error {
	return apperrors.NewConflict("hr email already in use", map[string]any{"email": email})
}

func mapOrganisationError(err error, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("organisation", map[string]any{"id": id})
	}
	return mapRepositoryError(err)
}

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrDatabaseUnavailable) {
		return apperrors.NewServiceUnavailable("organisation store unavailable", err)
	}
	return err
}

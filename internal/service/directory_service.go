package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/academic-erp/internal/domain"
	"github.com/spec-kit/academic-erp/internal/repository"
)

// DirectoryService answers identity questions about employees. It is the only
// place roles are derived from, and it never caches.
type DirectoryService struct {
	employees repository.EmployeeRepository
}

// NewDirectoryService builds the service.
func NewDirectoryService(employees repository.EmployeeRepository) *DirectoryService {
	return &DirectoryService{employees: employees}
}

// Exists reports whether an employee record carries this exact email.
func (s *DirectoryService) Exists(ctx context.Context, email string) (bool, error) {
	if strings.TrimSpace(email) == "" {
		return false, nil
	}
	return s.employees.ExistsByEmail(ctx, email)
}

// FindByEmail returns the record or nil when the email is unknown.
func (s *DirectoryService) FindByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	if strings.TrimSpace(email) == "" {
		return nil, nil
	}
	employee, err := s.employees.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return employee, nil
}

// IsOutreach reports whether the employee belongs to the outreach department.
// Unknown emails are not outreach.
func (s *DirectoryService) IsOutreach(ctx context.Context, email string) (bool, error) {
	employee, err := s.FindByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return employee.IsOutreach(), nil
}

// ResolveRoles derives the current roles from one lookup; unknown emails hold none.
func (s *DirectoryService) ResolveRoles(ctx context.Context, email string) (domain.Roles, error) {
	employee, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return domain.RolesFor(employee), nil
}

// CreateIfAbsent returns the record for email, creating a minimal one on first
// sight. Blank names become placeholders. The bool reports whether this call created it.
func (s *DirectoryService) CreateIfAbsent(ctx context.Context, email, firstName, lastName string) (*domain.Employee, bool, error) {
	if strings.TrimSpace(email) == "" {
		return nil, false, errors.New("email is required")
	}
	employee := domain.NewEmployee(email, firstName, lastName)
	created, err := s.employees.InsertIfAbsent(ctx, employee)
	if err != nil {
		return nil, false, err
	}
	return employee, created, nil
}

package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/academic-erp/internal/domain"
)

// EmployeeRepository defines persistence access for the employee directory.
type EmployeeRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.Employee, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// InsertIfAbsent stores employee unless its email is taken. On return employee
	// holds the stored record, whichever call created it.
	InsertIfAbsent(ctx context.Context, employee *domain.Employee) (bool, error)
}

type employeeRepository struct {
	db DBTX
}

// NewEmployeeRepository returns a Postgres-backed implementation.
func NewEmployeeRepository(db DBTX) EmployeeRepository {
	return &employeeRepository{db: db}
}

const employeeColumns = `employee_id, email, first_name, last_name,
        COALESCE(department, ''), COALESCE(title, ''), COALESCE(photograph_path, '')`

func (r *employeeRepository) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	if r.db == nil {
		return nil, ErrDatabaseUnavailable
	}
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE email=$1`

	var employee domain.Employee
	if err := r.db.QueryRow(ctx, query, email).Scan(
		&employee.ID,
		&employee.Email,
		&employee.FirstName,
		&employee.LastName,
		&employee.Department,
		&employee.Title,
		&employee.PhotographPath,
	); err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *employeeRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if r.db == nil {
		return false, ErrDatabaseUnavailable
	}
	const query = `SELECT EXISTS (SELECT 1 FROM employees WHERE email=$1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *employeeRepository) InsertIfAbsent(ctx context.Context, employee *domain.Employee) (bool, error) {
	if r.db == nil {
		return false, ErrDatabaseUnavailable
	}
	const query = `
        INSERT INTO employees (email, first_name, last_name)
        VALUES ($1, $2, $3)
        ON CONFLICT (email) DO NOTHING
        RETURNING employee_id`

	err := r.db.QueryRow(ctx, query,
		employee.Email,
		employee.FirstName,
		employee.LastName,
	).Scan(&employee.ID)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}

	existing, err := r.GetByEmail(ctx, employee.Email)
	if err != nil {
		return false, err
	}
	*employee = *existing
	return false, nil
}

package repository

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/academic-erp/internal/domain"
)

// MemoryEmployeeRepository keeps the directory in process memory. It backs the
// service when no database is configured and the concurrency tests.
type MemoryEmployeeRepository struct {
	mu      sync.RWMutex
	nextID  int64
	byEmail map[string]domain.Employee
}

// NewMemoryEmployeeRepository returns a repository seeded with the given records.
func NewMemoryEmployeeRepository(seed ...domain.Employee) *MemoryEmployeeRepository {
	r := &MemoryEmployeeRepository{byEmail: make(map[string]domain.Employee, len(seed))}
	for _, employee := range seed {
		if employee.ID == 0 {
			r.nextID++
			employee.ID = r.nextID
		} else if employee.ID > r.nextID {
			r.nextID = employee.ID
		}
		r.byEmail[employee.Email] = employee
	}
	return r
}

func (r *MemoryEmployeeRepository) GetByEmail(_ context.Context, email string) (*domain.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	employee, ok := r.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &employee, nil
}

func (r *MemoryEmployeeRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byEmail[email]
	return ok, nil
}

func (r *MemoryEmployeeRepository) InsertIfAbsent(_ context.Context, employee *domain.Employee) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byEmail[employee.Email]; ok {
		*employee = existing
		return false, nil
	}
	r.nextID++
	employee.ID = r.nextID
	r.byEmail[employee.Email] = *employee
	return true, nil
}

// SetDepartment moves an employee to another department. It reports whether the email exists.
func (r *MemoryEmployeeRepository) SetDepartment(email, department string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	employee, ok := r.byEmail[email]
	if !ok {
		return false
	}
	employee.Department = department
	r.byEmail[email] = employee
	return true
}

// Len returns the number of stored employees.
func (r *MemoryEmployeeRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byEmail)
}

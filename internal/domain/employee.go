package domain

import "strings"

// OutreachDepartment is the department name that grants RoleOutreach.
const OutreachDepartment = "Outreach"

// Placeholders used when the identity provider omits a name claim.
const (
	DefaultFirstName = "Unknown"
	DefaultLastName  = "User"
)

// Employee is a directory record. Email is the case-sensitive identity key.
type Employee struct {
	ID             int64
	Email          string
	FirstName      string
	LastName       string
	Department     string
	Title          string
	PhotographPath string
}

// IsOutreach reports whether the employee belongs to the outreach department.
func (e *Employee) IsOutreach() bool {
	return e != nil && strings.EqualFold(e.Department, OutreachDepartment)
}

// NewEmployee builds a minimal record for a first login, filling blank names with placeholders.
func NewEmployee(email, firstName, lastName string) *Employee {
	if strings.TrimSpace(firstName) == "" {
		firstName = DefaultFirstName
	}
	if strings.TrimSpace(lastName) == "" {
		lastName = DefaultLastName
	}
	return &Employee{Email: email, FirstName: firstName, LastName: lastName}
}

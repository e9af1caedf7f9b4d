package domain

// Role is a coarse capability label derived from directory state.
type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleOutreach Role = "OUTREACH"
)

// Roles is the set of roles held by a caller, EMPLOYEE first when present.
type Roles []Role

// Has reports whether role is part of the set.
func (r Roles) Has(role Role) bool {
	for _, held := range r {
		if held == role {
			return true
		}
	}
	return false
}

// Strings returns the role names, mostly for logging.
func (r Roles) Strings() []string {
	out := make([]string, len(r))
	for i, role := range r {
		out[i] = string(role)
	}
	return out
}

// RolesFor derives the role set of an employee record. A nil record holds no roles.
func RolesFor(employee *Employee) Roles {
	if employee == nil {
		return Roles{}
	}
	roles := Roles{RoleEmployee}
	if employee.IsOutreach() {
		roles = append(roles, RoleOutreach)
	}
	return roles
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmployee_IsOutreach(t *testing.T) {
	tests := []struct {
		department string
		want       bool
	}{
		{department: "Outreach", want: true},
		{department: "outreach", want: true},
		{department: "OUTREACH", want: true},
		{department: "Engineering", want: false},
		{department: "", want: false},
		{department: " Outreach", want: false},
		{department: "Outreach Team", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.department, func(t *testing.T) {
			e := &Employee{Email: "a@x.com", Department: tt.department}
			assert.Equal(t, tt.want, e.IsOutreach())
		})
	}

	var missing *Employee
	assert.False(t, missing.IsOutreach())
}

func TestRolesFor(t *testing.T) {
	assert.Empty(t, RolesFor(nil))

	engineer := RolesFor(&Employee{Department: "Engineering"})
	assert.Equal(t, Roles{RoleEmployee}, engineer)
	assert.False(t, engineer.Has(RoleOutreach))

	outreach := RolesFor(&Employee{Department: "outreach"})
	assert.Equal(t, Roles{RoleEmployee, RoleOutreach}, outreach)
	assert.True(t, outreach.Has(RoleEmployee))
	assert.Equal(t, []string{"EMPLOYEE", "OUTREACH"}, outreach.Strings())
}

func TestNewEmployee_Placeholders(t *testing.T) {
	e := NewEmployee("a@x.com", "", "   ")
	assert.Equal(t, DefaultFirstName, e.FirstName)
	assert.Equal(t, DefaultLastName, e.LastName)

	named := NewEmployee("b@x.com", "Ada", "Lovelace")
	assert.Equal(t, "Ada", named.FirstName)
	assert.Equal(t, "Lovelace", named.LastName)
}

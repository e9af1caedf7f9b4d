package domain

// Organisation is a partner organisation tracked by the outreach department.
type Organisation struct {
	ID      int64
	Name    string
	Address string
	HR      *OrganisationHR
}

// OrganisationHR is the HR contact of an organisation. Email is unique across contacts.
type OrganisationHR struct {
	ID             int64
	OrganisationID int64
	FirstName      string
	LastName       string
	Email          string
	ContactNumber  string
}

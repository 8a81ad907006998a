package model

// Credentials identifies the student account on the portal.
type Credentials struct {
	SchoolName string `json:"school_name"`
	SchoolID   string `json:"school_id"` // empty until resolved from SchoolName
	Username   string `json:"username"`
	Password   string `json:"-"`
	AuthCode   string `json:"-"`
}

// SchoolResolved reports whether the school has been looked up already.
func (c *Credentials) SchoolResolved() bool {
	return c.SchoolID != ""
}

// Profile holds the account owner details exposed by a portal session.
type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

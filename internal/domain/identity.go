package domain

type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
	RoleRider    Role = "rider"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleVendor, RoleAdmin, RoleRider:
		return true
	}
	return false
}

// Identity is the authenticated caller of an operation.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

package enums

// Role identifies the kind of account behind an access token.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleMerchant Role = "merchant"
	RoleAgent    Role = "agent"
)

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleMerchant, RoleAgent:
		return true
	default:
		return false
	}
}

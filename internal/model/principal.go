package model

// Role is the caller's access level for candidate filtering.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
)

// Principal identifies the caller on whose behalf matching runs.
type Principal struct {
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`
	Role      Role   `json:"role"`

	// ConnectedCompanyIDs is the explicit company scope for admin roles.
	ConnectedCompanyIDs []string `json:"connected_company_ids,omitempty"`
}

// Scope is the resolved set of company ids the caller may view. A nil
// Companies map with All=true means unrestricted.
type Scope struct {
	All       bool
	Companies map[string]bool
}

// Allows reports whether the scope covers the given company.
func (s Scope) Allows(companyID string) bool {
	if s.All {
		return true
	}
	return s.Companies[companyID]
}

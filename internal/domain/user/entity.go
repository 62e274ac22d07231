package user

type Role string

const (
	RoleAdmin    Role = "admin"    // Company administrator - full access
	RoleManager  Role = "manager"  // Sees the team board, adjusts punches
	RoleEmployee Role = "employee" // Punches in and out
)

// IsValid checks if the role is one of the known roles
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleEmployee
}

// IsManager checks if role is manager or admin
func (r Role) IsManager() bool {
	return r == RoleManager || r == RoleAdmin
}

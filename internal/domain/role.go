package domain

// Role is a permission tier scoped to a workspace.
type Role string

const (
	RoleLeader  Role = "Leader"
	RoleManager Role = "Manager"
	RoleMember  Role = "Member"
	// RoleNone is returned for non-members and unknown workspaces alike.
	RoleNone Role = ""
)

// Valid reports whether r is one of the stored workspace roles.
func (r Role) Valid() bool {
	switch r {
	case RoleLeader, RoleManager, RoleMember:
		return true
	}
	return false
}

// IsManagement reports whether r belongs to the Leader/Manager tier.
func (r Role) IsManagement() bool {
	return r == RoleLeader || r == RoleManager
}

package auth

// Role represents a user role.
type Role string

const (
	RoleNurse      Role = "nurse"
	RoleTechnician Role = "technician"
	RoleSupervisor Role = "supervisor"
)

// NormalizeRole validates and normalizes a role string.
func NormalizeRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleNurse, RoleTechnician, RoleSupervisor:
		return Role(value), true
	default:
		return "", false
	}
}

// RoleAtLeast returns true when role satisfies required role.
func RoleAtLeast(role Role, required Role) bool {
	return roleRank(role) >= roleRank(required)
}

func roleRank(role Role) int {
	switch role {
	case RoleNurse:
		return 1
	case RoleTechnician:
		return 2
	case RoleSupervisor:
		return 3
	default:
		return 0
	}
}

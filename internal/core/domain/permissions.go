package domain

// Role determines a user's default permission set.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleServer  Role = "server"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleServer:
		return true
	}
	return false
}

// rolePermissions is the static role → permission lookup. There are no
// per-user overrides.
var rolePermissions = map[Role][]string{
	RoleAdmin: {
		"read:all",
		"write:all",
		"delete:all",
		"manage:users",
		"manage:establishments",
	},
	RoleServer: {
		"read:establishment",
		"write:menus",
		"write:orders",
		"read:products",
	},
}

// defaultPermissions applies to any role without an explicit entry.
var defaultPermissions = []string{"read:public"}

// PermissionsForRole returns a copy of the permission set for the role.
func PermissionsForRole(r Role) []string {
	perms, ok := rolePermissions[r]
	if !ok {
		perms = defaultPermissions
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

package models

import "fmt"

type Role string

const (
	RoleUser       Role = "USER"
	RoleModerator  Role = "MODERATOR"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

var roleLevels = map[Role]int{
	RoleUser:       1,
	RoleModerator:  2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

// ParseRole validates a stored or user-supplied role string.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if _, ok := roleLevels[role]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}

// Level returns the numeric rank of the role, or 0 for an unknown role.
func (r Role) Level() int {
	return roleLevels[r]
}

func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// Privilege describes what a role may do within the hierarchy.
type Privilege struct {
	Level           int    `json:"level"`
	Description     string `json:"description"`
	CanManage       []Role `json:"canManage"`
	CanPromote      bool   `json:"canPromote"`
	CanDemote       bool   `json:"canDemote"`
	CanAccessSystem bool   `json:"canAccessSystem"`
}

var privilegeHierarchy = map[Role]Privilege{
	RoleSuperAdmin: {
		Level:           4,
		Description:     "Maximum privileges - full system control",
		CanManage:       []Role{RoleUser, RoleModerator, RoleAdmin},
		CanPromote:      true,
		CanDemote:       true,
		CanAccessSystem: true,
	},
	RoleAdmin: {
		Level:       3,
		Description: "Administrator - user management",
		CanManage:   []Role{RoleUser, RoleModerator},
	},
	RoleModerator: {
		Level:       2,
		Description: "Moderator - content management",
		CanManage:   []Role{RoleUser},
	},
	RoleUser: {
		Level:       1,
		Description: "Standard user",
		CanManage:   []Role{},
	},
}

// PrivilegeHierarchy returns a copy of the static privilege table.
func PrivilegeHierarchy() map[Role]Privilege {
	out := make(map[Role]Privilege, len(privilegeHierarchy))
	for role, priv := range privilegeHierarchy {
		out[role] = priv
	}
	return out
}

// CanUserManage reports whether manager outranks target. Peers never manage
// each other.
func CanUserManage(manager, target Role) bool {
	return manager.Level() > target.Level()
}

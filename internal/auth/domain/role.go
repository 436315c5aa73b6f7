package domain

import (
	"fmt"
	"slices"
)

// Role is a closed set. Comparisons are case-sensitive.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleStaff   Role = "STAFF"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
	RoleParent  Role = "PARENT"
)

// Roles lists every role in declaration order.
var Roles = []Role{RoleAdmin, RoleStaff, RoleTeacher, RoleStudent, RoleParent}

// SelfAssignableRoles may be picked at registration. Elevated roles are
// granted by an administrator.
var SelfAssignableRoles = []Role{RoleTeacher, RoleStudent, RoleParent}

// ParseRole accepts only the exact upper-case spelling.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool { return slices.Contains(Roles, r) }

func (r Role) SelfAssignable() bool { return slices.Contains(SelfAssignableRoles, r) }

func (r Role) String() string { return string(r) }

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "strings"

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Full directory administration
	RoleAdmin UserRole = "admin"

	// Can onboard new accounts
	RoleManager UserRole = "manager"

	// Default role for self-registered and newly created accounts
	RoleEmployee UserRole = "employee"
)

// Roles lists every known role, most privileged first.
var Roles = []UserRole{RoleAdmin, RoleManager, RoleEmployee}

// ParseRole maps an input string to a known role. Matching ignores case and
// surrounding whitespace; ok is false for anything else.
func ParseRole(value string) (UserRole, bool) {
	candidate := UserRole(strings.ToLower(strings.TrimSpace(value)))
	for _, role := range Roles {
		if role == candidate {
			return role, true
		}
	}
	return "", false
}

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

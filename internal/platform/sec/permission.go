// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # Permissions

// Permission is an enumerated capability granted to a role.
type Permission string

const (
	PermViewAllUsers   Permission = "view_all_users"
	PermCreateUser     Permission = "create_user"
	PermUpdateUser     Permission = "update_user"
	PermDeleteUser     Permission = "delete_user"
	PermViewOwnProfile Permission = "view_own_profile"
)

// rolePermissions is the static role to permission table. Order inside each
// slice is the order reported to clients.
var rolePermissions = map[UserRole][]Permission{
	RoleAdmin: {
		PermViewAllUsers,
		PermCreateUser,
		PermUpdateUser,
		PermDeleteUser,
		PermViewOwnProfile,
	},
	RoleManager: {
		PermViewOwnProfile,
		PermCreateUser,
	},
	RoleEmployee: {
		PermViewOwnProfile,
	},
}

// HasPermission reports whether role grants permission. Unknown roles are denied.
func HasPermission(role UserRole, permission Permission) bool {
	for _, granted := range rolePermissions[role] {
		if granted == permission {
			return true
		}
	}
	return false
}

// PermissionsFor returns a copy of the permission set of role, or nil for an unknown role.
func PermissionsFor(role UserRole) []Permission {
	granted := rolePermissions[role]
	if granted == nil {
		return nil
	}
	return append([]Permission(nil), granted...)
}

// # Field Grants

// Field names a mutable attribute of an account.
type Field string

const (
	FieldFirstName Field = "first_name"
	FieldLastName  Field = "last_name"
	FieldEmail     Field = "email"
	FieldRole      Field = "role"
	FieldIsActive  Field = "is_active"
)

// UpdatableFields is the fixed order in which field grants are evaluated.
var UpdatableFields = []Field{FieldFirstName, FieldLastName, FieldEmail, FieldRole, FieldIsActive}

// fieldGrant declares the two independent ways a field may be edited.
type fieldGrant struct {
	self       bool
	privileged bool
}

// fieldGrants keeps role and is_active out of reach of self-service edits.
var fieldGrants = map[Field]fieldGrant{
	FieldFirstName: {self: true, privileged: true},
	FieldLastName:  {self: true, privileged: true},
	FieldEmail:     {self: true, privileged: true},
	FieldRole:      {self: false, privileged: true},
	FieldIsActive:  {self: false, privileged: true},
}

// CanUpdateField reports whether an actor may change field.
//
// The edit is allowed iff (the field is self-editable and the actor is editing
// their own account) or (the field is privileged-editable and the actor holds
// update permission). Unknown fields are denied.
func CanUpdateField(field Field, isSelf, hasUpdatePermission bool) bool {
	grant, ok := fieldGrants[field]
	if !ok {
		return false
	}
	return (grant.self && isSelf) || (grant.privileged && hasUpdatePermission)
}

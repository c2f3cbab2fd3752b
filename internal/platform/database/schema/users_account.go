// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema holds table and column identifiers so SQL is built from
// constants instead of scattered string literals.
package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table                      string
	ID                         string
	FirstName                  string
	LastName                   string
	Email                      string
	Password                   string
	Role                       string
	IsActive                   string
	CreatedAt                  string
	UpdatedAt                  string
	LastPasswordResetTokenHash string
	LastPasswordResetAt        string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:                      "users.account",
	ID:                         "id",
	FirstName:                  "firstname",
	LastName:                   "lastname",
	Email:                      "email",
	Password:                   "passwordhash",
	Role:                       "role",
	IsActive:                   "isactive",
	CreatedAt:                  "createdat",
	UpdatedAt:                  "updatedat",
	LastPasswordResetTokenHash: "lastpasswordresettokenhash",
	LastPasswordResetAt:        "lastpasswordresetat",
}

// Columns returns all standard column names in scan order.
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.FirstName, t.LastName, t.Email, t.Password, t.Role, t.IsActive,
		t.CreatedAt, t.UpdatedAt, t.LastPasswordResetTokenHash, t.LastPasswordResetAt,
	}
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// # Credential Codec

// Hasher turns plain-text passwords into salted bcrypt digests.
//
// A fresh salt is generated on every call to [Hasher.Hash], so hashing the same
// password twice yields two different digests that both verify.
type Hasher struct {
	cost int
}

// DefaultHasher uses bcrypt's default cost.
var DefaultHasher = &Hasher{cost: bcrypt.DefaultCost}

// NewHasher returns a [Hasher] with the given bcrypt cost.
func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("sec: bcrypt cost %d outside [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Hasher{cost: cost}, nil
}

// Hash produces a one-way digest of the password.
func (hasher *Hasher) Hash(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), hasher.cost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// Verify reports whether the password matches the digest.
//
// Any failure (mismatch, malformed digest, empty input) is reported as false.
// The comparison inside bcrypt runs in constant time.
func (hasher *Hasher) Verify(plainTextPassword, digest string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plainTextPassword))
	return err == nil
}

// HashPassword hashes a plain-text password with [DefaultHasher].
func HashPassword(plainTextPassword string) (string, error) {
	return DefaultHasher.Hash(plainTextPassword)
}

// CheckPasswordHash compares a plain-text password with its hashed version.
func CheckPasswordHash(plainTextPassword, existingHash string) bool {
	return DefaultHasher.Verify(plainTextPassword, existingHash)
}

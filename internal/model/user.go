package model

import (
	"fmt"
	"time"
)

// User represents an authentication user. The user ID is the caller
// identity recorded on transactions and reservations.
type User struct {
	ID           string     `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	DeletedAt    *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleAdmin   = "admin"
	RoleStaff   = "staff"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

var roleLevels = map[string]int{
	RoleAdmin:   4,
	RoleStaff:   3,
	RoleTeacher: 2,
	RoleStudent: 1,
}

// ValidRole checks that role is a known role.
func ValidRole(role string) bool {
	_, ok := roleLevels[role]
	return ok
}

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	level, ok := roleLevels[role]
	if !ok {
		return false
	}
	required, ok := roleLevels[minimum]
	if !ok {
		return false
	}
	return level >= required
}

// Privileged reports whether role may approve reservations and edit
// items and resources.
func Privileged(role string) bool {
	return RoleAtLeast(role, RoleStaff)
}

// ValidatePassword checks password strength requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

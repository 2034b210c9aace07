package models

import "time"

type UserRole string

const (
	UserRoleStudent UserRole = "student"
	UserRoleTutor   UserRole = "tutor"
	UserRoleAdmin   UserRole = "admin"
)

func ParseRole(s string) (UserRole, bool) {
	switch UserRole(s) {
	case UserRoleStudent, UserRoleTutor, UserRoleAdmin:
		return UserRole(s), true
	}
	return "", false
}

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusPending   UserStatus = "pending_activation"
)

func ParseStatus(s string) (UserStatus, bool) {
	switch UserStatus(s) {
	case UserStatusActive, UserStatusInactive, UserStatusSuspended, UserStatusPending:
		return UserStatus(s), true
	}
	return "", false
}

type User struct {
	ID                  string
	Email               string
	PasswordHash        []byte // nil for accounts provisioned via Google only
	FirstName           string
	LastName            string
	GoogleID            *string
	Role                UserRole
	Status              UserStatus
	AvatarURL           *string
	Phone               *string
	Bio                 *string
	EmailVerified       bool
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLoginAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// GoogleIdentity is the profile asserted by Google after a completed
// OAuth code exchange.
type GoogleIdentity struct {
	GoogleID  string
	Email     string
	FirstName string
	LastName  string
	AvatarURL *string
}

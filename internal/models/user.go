package models

import (
	"time"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User is a registered principal. Email is the identifier carried in tokens.
type User struct {
	ID           string     `bson:"_id" json:"id"`
	Name         string     `bson:"name" json:"name"`
	Email        string     `bson:"email" json:"email"`
	Password     string     `bson:"password,omitempty" json:"-"`
	USN          string     `bson:"usn,omitempty" json:"usn,omitempty"`
	Course       string     `bson:"course,omitempty" json:"course,omitempty"`
	Semester     string     `bson:"semester,omitempty" json:"semester,omitempty"`
	ProfilePhoto string     `bson:"profile_photo,omitempty" json:"profile_photo,omitempty"`
	Role         string     `bson:"role" json:"role"`
	IsAdmin      bool       `bson:"is_admin" json:"is_admin"`
	Verified     bool       `bson:"verified" json:"verified"`
	VerifiedAt   *time.Time `bson:"verified_at,omitempty" json:"verified_at,omitempty"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// Admin reports whether the stored record grants admin privileges.
func (u *User) Admin() bool {
	return u.IsAdmin || u.Role == RoleAdmin
}

// EffectiveRole returns the stored role, defaulting to student.
func (u *User) EffectiveRole() string {
	if u.Role == "" {
		return RoleStudent
	}
	return u.Role
}

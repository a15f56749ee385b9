package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin      = "Admin"
	RoleStudent    = "Student"
	RoleInstructor = "Instructor"
	RoleDeveloper  = "Developer"
)

type User struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email         string    `json:"email" gorm:"uniqueIndex;not null"`
	Name          string    `json:"name" gorm:"not null"`
	PasswordHash  string    `json:"-" gorm:"not null"`
	PasswordSalt  string    `json:"-" gorm:"not null"`
	Role          string    `json:"role" gorm:"not null;default:'Student'"`
	EmailVerified bool      `json:"email_verified" gorm:"not null;default:false"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	if u.Role == "" {
		u.Role = RoleStudent
	}
	return nil
}

func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleStudent, RoleInstructor, RoleDeveloper:
		return true
	}
	return false
}

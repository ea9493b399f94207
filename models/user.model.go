package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// User is an authentication principal. Admins author courses, users (learners) buy them.
// The same email may be registered once per role.
type User struct {
	ID        uuid.UUID  `gorm:"type:varchar(36);primaryKey" json:"_id"`
	FirstName string     `gorm:"not null" json:"firstName"`
	LastName  string     `gorm:"not null" json:"lastName"`
	Email     string     `gorm:"not null;uniqueIndex:idx_users_email_role" json:"email"`
	Role      string     `gorm:"not null;default:'USER';uniqueIndex:idx_users_email_role" json:"role"`
	Password  string     `gorm:"not null" json:"-"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Creator is the minimal projection of a course owner exposed to browsers.
type Creator struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"_id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
}

func (Creator) TableName() string { return "users" }

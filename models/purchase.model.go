package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Purchase grants a learner access to a course. At most one exists per (user, course).
type Purchase struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"_id"`
	UserID    uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_purchases_user_course" json:"userId"`
	CourseID  uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_purchases_user_course;index" json:"courseId"`
	OrderID   string    `gorm:"size:64" json:"orderId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

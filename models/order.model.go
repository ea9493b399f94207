package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderPending OrderStatus = "PENDING"
	OrderPaid    OrderStatus = "PAID"
	OrderExpired OrderStatus = "EXPIRED"
)

// Order records a payment intent opened with the processor. It is not an access grant;
// only a Purchase is.
type Order struct {
	ID           string      `gorm:"primaryKey;size:64" json:"orderId"`
	UserID       uuid.UUID   `gorm:"type:varchar(36);not null;index" json:"userId"`
	CourseID     uuid.UUID   `gorm:"type:varchar(36);not null;index" json:"courseId"`
	Amount       int64       `gorm:"not null" json:"amount"`
	Currency     string      `gorm:"size:8;not null" json:"currency"`
	ClientSecret string      `gorm:"size:255" json:"-"`
	RedirectURL  string      `gorm:"size:512" json:"redirectUrl,omitempty"`
	Status       OrderStatus `gorm:"size:16;not null;default:'PENDING';index" json:"status"`
	PaidAt       *time.Time  `json:"paidAt,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

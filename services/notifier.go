package services

import (
	"context"
	"coursehub/models"
)

// Notifier tells a learner about a completed purchase.
type Notifier interface {
	PurchaseCompleted(ctx context.Context, user *models.User, course *models.Course, order *models.Order) error
}

type nopNotifier struct{}

func (nopNotifier) PurchaseCompleted(context.Context, *models.User, *models.Course, *models.Order) error {
	return nil
}

package repository

import (
	"context"
	"coursehub/models"
	"time"

	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkPaid flips a pending or expired order to PAID. It reports false when the order was already paid.
func (r *OrderRepository) MarkPaid(ctx context.Context, id string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status IN ?", id, []models.OrderStatus{models.OrderPending, models.OrderExpired}).
		Updates(map[string]interface{}{"status": models.OrderPaid, "paid_at": at})
	return result.RowsAffected > 0, result.Error
}

// ExpireStale marks pending orders created before cutoff as EXPIRED.
func (r *OrderRepository) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("status = ? AND created_at < ?", models.OrderPending, cutoff).
		Update("status", models.OrderExpired)
	return result.RowsAffected, result.Error
}

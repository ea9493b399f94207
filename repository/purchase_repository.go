package repository

import (
	"context"
	"coursehub/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

func (r *PurchaseRepository) Exists(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

// Create inserts the purchase. A second row for the same (user, course) fails with
// gorm.ErrDuplicatedKey through the unique index.
func (r *PurchaseRepository) Create(ctx context.Context, purchase *models.Purchase) error {
	return r.db.WithContext(ctx).Create(purchase).Error
}

// CoursesForUser returns every course the user has purchased, newest purchase first.
func (r *PurchaseRepository) CoursesForUser(ctx context.Context, userID uuid.UUID) ([]models.Course, error) {
	var courses []models.Course
	err := withCreator(r.db.WithContext(ctx)).
		Joins("JOIN purchases ON purchases.course_id = courses.id").
		Where("purchases.user_id = ?", userID).
		Order("purchases.created_at desc").
		Find(&courses).Error
	return courses, err
}

func (r *PurchaseRepository) Find(ctx context.Context, userID, courseID uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

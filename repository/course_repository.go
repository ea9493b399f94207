package repository

import (
	"context"
	"coursehub/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// withCreator joins the owner's name fields, never credentials.
func withCreator(db *gorm.DB) *gorm.DB {
	return db.Preload("Creator", func(tx *gorm.DB) *gorm.DB {
		return tx.Select("id", "first_name", "last_name")
	})
}

func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(course).Error
}

func (r *CourseRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	var course models.Course
	err := withCreator(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	err := withCreator(r.db.WithContext(ctx)).
		Order("created_at desc").
		Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.Course, error) {
	var courses []models.Course
	err := withCreator(r.db.WithContext(ctx)).
		Where("creator_id = ?", creatorID).
		Order("created_at desc").
		Find(&courses).Error
	return courses, err
}

// UpdateOwned applies fields and appends content to the course matching both id and owner.
// The manifest is re-read inside the transaction so appended items land after whatever
// is stored at commit time. Returns gorm.ErrRecordNotFound when nothing matches.
func (r *CourseRepository) UpdateOwned(ctx context.Context, id, ownerID uuid.UUID, fields map[string]interface{}, appended []models.ContentItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course models.Course
		if err := tx.Where("id = ? AND creator_id = ?", id, ownerID).First(&course).Error; err != nil {
			return err
		}

		updates := make(map[string]interface{}, len(fields)+1)
		for k, v := range fields {
			updates[k] = v
		}
		if len(appended) > 0 {
			content := append(course.Content, appended...)
			updates["content"] = content
		}
		if len(updates) == 0 {
			return nil
		}

		return tx.Model(&models.Course{}).
			Where("id = ? AND creator_id = ?", id, ownerID).
			Updates(updates).Error
	})
}

// DeleteOwned removes the course only when id and owner both match, in one statement.
func (r *CourseRepository) DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND creator_id = ?", id, ownerID).
		Delete(&models.Course{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

package services

import (
	"context"
	"coursehub/apperror"
	"coursehub/logger"
	"coursehub/models"
	"coursehub/repository"
	"coursehub/services/events"
	"coursehub/services/ingestion"
	"coursehub/services/media"
	"errors"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CourseInput carries a parsed course form. Nil fields were not sent.
type CourseInput struct {
	Title       *string
	Description *string
	Price       *int64
	Image       *multipart.FileHeader
	Content     []*multipart.FileHeader
	Metadata    []string
}

type CourseService struct {
	courses           *repository.CourseRepository
	purchases         *repository.PurchaseRepository
	pipeline          *ingestion.Pipeline
	uploader          media.Uploader
	events            events.Publisher
	coverMaxDimension int
}

func NewCourseService(
	courses *repository.CourseRepository,
	purchases *repository.PurchaseRepository,
	uploader media.Uploader,
	publisher events.Publisher,
	uploadConcurrency int,
	coverMaxDimension int,
) *CourseService {
	return &CourseService{
		courses:           courses,
		purchases:         purchases,
		pipeline:          ingestion.NewPipeline(uploader, uploadConcurrency),
		uploader:          uploader,
		events:            publisher,
		coverMaxDimension: coverMaxDimension,
	}
}

// Create validates the whole request, uploads the cover and content, then stores the course.
// Nothing is stored when any step fails.
func (s *CourseService) Create(ctx context.Context, ownerID uuid.UUID, in CourseInput) (*models.Course, error) {
	problems := make(map[string]string)
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		problems["title"] = "Title is required!"
	}
	if in.Description == nil || strings.TrimSpace(*in.Description) == "" {
		problems["description"] = "Description is required!"
	}
	if in.Price == nil {
		problems["price"] = "Price is required!"
	}
	if in.Image == nil {
		problems["image"] = "Image is required!"
	}
	checkFields(in, problems)
	if len(problems) > 0 {
		return nil, apperror.Validation("Validation failed!", problems)
	}

	pending, err := s.pipeline.Validate(in.Content, in.Metadata, 0)
	if err != nil {
		return nil, err
	}

	cover, err := s.uploadCover(ctx, in.Image)
	if err != nil {
		return nil, err
	}
	items, err := s.pipeline.Upload(ctx, pending)
	if err != nil {
		s.pipeline.Discard(cover)
		return nil, err
	}

	course := &models.Course{
		Title:       strings.TrimSpace(*in.Title),
		Description: strings.TrimSpace(*in.Description),
		Price:       *in.Price,
		Image:       models.Image{PublicID: cover.PublicID, URL: cover.URL},
		Content:     items,
		CreatorID:   ownerID,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		s.pipeline.Discard(append(fileRefs(items), cover)...)
		return nil, apperror.Internal("Failed to create course", err)
	}

	created, err := s.courses.FindByID(ctx, course.ID)
	if err != nil {
		return nil, apperror.Internal("Failed to load course", err)
	}

	logger.Log.WithFields(logrus.Fields{"courseId": created.ID, "creatorId": ownerID, "items": len(items)}).Info("course created")
	s.events.Publish(ctx, events.Event{Type: events.CourseCreated, Key: created.ID.String(), Payload: created.Public()})
	return created, nil
}

// Update applies the provided fields and appends new content. Ownership is checked before
// any upload; new content is stored all together or not at all.
func (s *CourseService) Update(ctx context.Context, ownerID, courseID uuid.UUID, in CourseInput) (*models.Course, error) {
	existing, err := s.load(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if existing.CreatorID != ownerID {
		return nil, apperror.Forbidden("You are not allowed to update this course")
	}

	problems := make(map[string]string)
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		problems["title"] = "Title cannot be empty!"
	}
	checkFields(in, problems)
	if len(problems) > 0 {
		return nil, apperror.Validation("Validation failed!", problems)
	}

	pending, err := s.pipeline.Validate(in.Content, in.Metadata, len(existing.Content))
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if in.Title != nil {
		fields["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		fields["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		fields["price"] = *in.Price
	}

	var cover *models.FileRef
	if in.Image != nil {
		if cover, err = s.uploadCover(ctx, in.Image); err != nil {
			return nil, err
		}
		fields["image_public_id"] = cover.PublicID
		fields["image_url"] = cover.URL
	}

	items, err := s.pipeline.Upload(ctx, pending)
	if err != nil {
		s.pipeline.Discard(cover)
		return nil, err
	}

	if err := s.courses.UpdateOwned(ctx, courseID, ownerID, fields, items); err != nil {
		s.pipeline.Discard(append(fileRefs(items), cover)...)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Course not found!")
		}
		return nil, apperror.Internal("Failed to update course", err)
	}
	if cover != nil && existing.Image.PublicID != "" {
		s.pipeline.Discard(&models.FileRef{PublicID: existing.Image.PublicID})
	}

	updated, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, apperror.Internal("Failed to load course", err)
	}

	logger.Log.WithFields(logrus.Fields{"courseId": courseID, "appended": len(items)}).Info("course updated")
	s.events.Publish(ctx, events.Event{Type: events.CourseUpdated, Key: courseID.String(), Payload: updated.Public()})
	return updated, nil
}

// Delete removes the course when it exists and belongs to ownerID, in one conditional statement.
// Purchases and stored media are left in place.
func (s *CourseService) Delete(ctx context.Context, ownerID, courseID uuid.UUID) error {
	deleted, err := s.courses.DeleteOwned(ctx, courseID, ownerID)
	if err != nil {
		return apperror.Internal("Failed to delete course", err)
	}
	if !deleted {
		return apperror.NotFound("Course not found!")
	}

	logger.Log.WithFields(logrus.Fields{"courseId": courseID, "creatorId": ownerID}).Info("course deleted")
	s.events.Publish(ctx, events.Event{Type: events.CourseDeleted, Key: courseID.String()})
	return nil
}

// List returns the catalog without file references.
func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, apperror.Internal("Failed to list courses", err)
	}
	return publicCourses(courses), nil
}

// ListOwn returns every course created by ownerID, including file references.
func (s *CourseService) ListOwn(ctx context.Context, ownerID uuid.UUID) ([]models.Course, error) {
	courses, err := s.courses.ListByCreator(ctx, ownerID)
	if err != nil {
		return nil, apperror.Internal("Failed to list courses", err)
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return courses, nil
}

func (s *CourseService) Get(ctx context.Context, courseID uuid.UUID) (*models.Course, error) {
	course, err := s.load(ctx, courseID)
	if err != nil {
		return nil, err
	}
	public := course.Public()
	return &public, nil
}

// Content returns the course with file references to a learner who bought it or to its owner.
func (s *CourseService) Content(ctx context.Context, principalID uuid.UUID, role string, courseID uuid.UUID) (*models.Course, error) {
	course, err := s.load(ctx, courseID)
	if err != nil {
		return nil, err
	}

	switch role {
	case models.RoleAdmin:
		if course.CreatorID != principalID {
			return nil, apperror.Forbidden("You are not allowed to view this course content")
		}
	case models.RoleUser:
		bought, err := s.purchases.Exists(ctx, principalID, courseID)
		if err != nil {
			return nil, apperror.Internal("Failed to check purchase", err)
		}
		if !bought {
			return nil, apperror.Forbidden("Purchase this course to view its content")
		}
	default:
		return nil, apperror.Forbidden("You are not allowed to view this course content")
	}
	return course, nil
}

func (s *CourseService) load(ctx context.Context, courseID uuid.UUID) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Course not found!")
		}
		return nil, apperror.Internal("Failed to load course", err)
	}
	return course, nil
}

func (s *CourseService) uploadCover(ctx context.Context, file *multipart.FileHeader) (*models.FileRef, error) {
	src, err := file.Open()
	if err != nil {
		return nil, apperror.Validation("Validation failed!", map[string]string{"image": "Image could not be read!"})
	}
	defer src.Close()

	obj, err := media.NormalizeImage(media.Object{
		Filename:    file.Filename,
		ContentType: imageType(file),
		Size:        file.Size,
		Body:        src,
	}, s.coverMaxDimension)
	if err != nil {
		return nil, apperror.Validation("Validation failed!", map[string]string{"image": "Image could not be decoded!"})
	}
	return s.uploader.Upload(ctx, obj, media.KindImage)
}

// checkFields validates the optional fields that were sent.
func checkFields(in CourseInput, problems map[string]string) {
	if in.Price != nil && *in.Price <= 0 {
		problems["price"] = "Price must be greater than 0!"
	}
	if in.Image != nil && !media.IsSupportedImage(imageType(in.Image)) {
		problems["image"] = "Image must be a PNG or JPEG file!"
	}
}

func imageType(file *multipart.FileHeader) string {
	declared := strings.ToLower(file.Header.Get("Content-Type"))
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil {
		return mediaType
	}
	return declared
}

func fileRefs(items []models.ContentItem) []*models.FileRef {
	refs := make([]*models.FileRef, 0, len(items))
	for _, item := range items {
		refs = append(refs, item.File)
	}
	return refs
}

func publicCourses(courses []models.Course) []models.Course {
	out := make([]models.Course, len(courses))
	for i, c := range courses {
		out[i] = c.Public()
	}
	return out
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ContentKind string

const (
	ContentVideo    ContentKind = "video"
	ContentDocument ContentKind = "document"
)

// FileRef points at an object held by the media store.
type FileRef struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	Format   string `json:"format"`
}

type ContentItem struct {
	Kind        ContentKind `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	File        *FileRef    `json:"file,omitempty"`
}

type Image struct {
	PublicID string `gorm:"not null" json:"public_id"`
	URL      string `gorm:"not null" json:"url"`
}

// Course is a catalog entry. Its content manifest is embedded in the row and only ever grows.
type Course struct {
	ID          uuid.UUID                        `gorm:"type:varchar(36);primaryKey" json:"_id"`
	Title       string                           `gorm:"not null" json:"title"`
	Description string                           `gorm:"type:text;not null" json:"description"`
	Price       int64                            `gorm:"not null" json:"price"` // smallest currency unit
	Image       Image                            `gorm:"embedded;embeddedPrefix:image_" json:"image"`
	Content     datatypes.JSONSlice[ContentItem] `gorm:"not null" json:"content"`
	CreatorID   uuid.UUID                        `gorm:"type:varchar(36);index;not null" json:"creatorId"`
	Creator     *Creator                         `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	CreatedAt   time.Time                        `json:"createdAt"`
	UpdatedAt   time.Time                        `json:"updatedAt"`
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// BeforeSave keeps the manifest column non-null.
func (c *Course) BeforeSave(tx *gorm.DB) error {
	if c.Content == nil {
		c.Content = datatypes.JSONSlice[ContentItem]{}
	}
	return nil
}

// Public returns a copy safe for unauthenticated browsing: manifest entries keep
// their kind, title and description but lose their file references.
func (c Course) Public() Course {
	items := make(datatypes.JSONSlice[ContentItem], len(c.Content))
	for i, item := range c.Content {
		item.File = nil
		items[i] = item
	}
	c.Content = items
	return c
}

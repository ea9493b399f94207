// Package media stores course files in an external object store and hands back stable references.
package media

import (
	"context"
	"coursehub/models"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"
)

type ResourceKind string

const (
	KindImage ResourceKind = "image"
	KindVideo ResourceKind = "video"
	KindRaw   ResourceKind = "raw"
)

// Folder is the key prefix objects of the kind are stored under.
func (k ResourceKind) Folder() string {
	switch k {
	case KindImage:
		return "course_images"
	case KindVideo:
		return "course_videos"
	default:
		return "course_files"
	}
}

type tuning struct {
	partSize uint64
	timeout  time.Duration
}

// Video gets a larger chunk and time budget than images and documents.
var tuningByKind = map[ResourceKind]tuning{
	KindVideo: {partSize: 6 << 20, timeout: 2 * time.Minute},
	KindImage: {timeout: time.Minute},
	KindRaw:   {timeout: time.Minute},
}

func tuningFor(kind ResourceKind) tuning {
	if t, ok := tuningByKind[kind]; ok {
		return t
	}
	return tuningByKind[KindRaw]
}

// Object is a file ready to be stored.
type Object struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Uploader is the media store port. Upload creates a remote object; the caller owns cleanup
// of objects it no longer references.
type Uploader interface {
	Upload(ctx context.Context, obj Object, kind ResourceKind) (*models.FileRef, error)
	Delete(ctx context.Context, publicID string) error
}

// UploadFile streams a multipart part to the store. An empty contentType falls back to the
// type the part declared.
func UploadFile(ctx context.Context, u Uploader, file *multipart.FileHeader, contentType string, kind ResourceKind) (*models.FileRef, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if contentType == "" {
		contentType = file.Header.Get("Content-Type")
	}
	return u.Upload(ctx, Object{
		Filename:    file.Filename,
		ContentType: contentType,
		Size:        file.Size,
		Body:        src,
	}, kind)
}

// formatOf derives the encoded format from the file extension, then the media subtype.
func formatOf(filename, contentType string) string {
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."); ext != "" {
		return ext
	}
	if i := strings.LastIndex(contentType, "/"); i >= 0 {
		return strings.ToLower(contentType[i+1:])
	}
	return ""
}

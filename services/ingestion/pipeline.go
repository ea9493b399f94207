// Package ingestion turns uploaded content files and their metadata into an ordered manifest.
package ingestion

import (
	"context"
	"coursehub/apperror"
	"coursehub/logger"
	"coursehub/models"
	"coursehub/services/media"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const MaxVideoSize int64 = 500 << 20

var (
	videoTypes = map[string]bool{
		"video/mp4":       true,
		"video/quicktime": true,
		"video/x-msvideo": true,
	}
	documentTypes = map[string]bool{
		"application/pdf": true,
	}
)

// Metadata is the optional per-file title and description sent alongside the files.
type Metadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Pending is a validated file waiting to be uploaded.
type Pending struct {
	File        *multipart.FileHeader
	ContentType string
	Kind        models.ContentKind
	Title       string
	Description string
}

type Pipeline struct {
	uploader    media.Uploader
	concurrency int
}

func NewPipeline(uploader media.Uploader, concurrency int) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{uploader: uploader, concurrency: concurrency}
}

// Validate checks every file and pairs it with its metadata entry. offset is the number of
// items already in the manifest, so default titles continue the existing numbering.
// Any rejected file fails the whole batch; details name each offending file.
func (p *Pipeline) Validate(files []*multipart.FileHeader, metadata []string, offset int) ([]Pending, error) {
	pending := make([]Pending, 0, len(files))
	problems := make(map[string]string)
	var first string

	reject := func(name, reason string) {
		if first == "" {
			first = fmt.Sprintf("%s: %s", name, reason)
		}
		problems[name] = reason
	}

	for i, file := range files {
		contentType, err := declaredType(file)
		if err != nil {
			reject(file.Filename, "file could not be read")
			continue
		}

		kind, reason := classify(contentType, file.Size)
		if reason != "" {
			reject(file.Filename, reason)
			continue
		}

		meta, err := metadataAt(metadata, i)
		if err != nil {
			reject(file.Filename, "metadata is not valid JSON")
			continue
		}

		title := strings.TrimSpace(meta.Title)
		if title == "" {
			title = fmt.Sprintf("Lecture %d", offset+i+1)
		}
		pending = append(pending, Pending{
			File:        file,
			ContentType: contentType,
			Kind:        kind,
			Title:       title,
			Description: strings.TrimSpace(meta.Description),
		})
	}

	if len(problems) > 0 {
		return nil, apperror.Validation("Invalid content file "+first, problems)
	}
	return pending, nil
}

// classify applies the size ceiling, then the allow-lists, then derives the kind.
func classify(contentType string, size int64) (models.ContentKind, string) {
	isVideo := strings.HasPrefix(contentType, "video/")
	if isVideo && size > MaxVideoSize {
		return "", "video exceeds the 500MB limit"
	}
	if isVideo {
		if !videoTypes[contentType] {
			return "", fmt.Sprintf("unsupported video format %q", contentType)
		}
		return models.ContentVideo, ""
	}
	if !documentTypes[contentType] {
		return "", fmt.Sprintf("unsupported file type %q, documents must be PDF", contentType)
	}
	return models.ContentDocument, ""
}

// declaredType returns the part's media type, sniffing the bytes when the client sent none.
func declaredType(file *multipart.FileHeader) (string, error) {
	declared := strings.ToLower(strings.TrimSpace(file.Header.Get("Content-Type")))
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil {
		declared = mediaType
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared, nil
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	detected, err := mimetype.DetectReader(src)
	if err != nil {
		return "", err
	}
	sniffed := detected.String()
	if i := strings.Index(sniffed, ";"); i >= 0 {
		sniffed = sniffed[:i]
	}
	return sniffed, nil
}

func metadataAt(metadata []string, i int) (Metadata, error) {
	var meta Metadata
	if i >= len(metadata) || strings.TrimSpace(metadata[i]) == "" {
		return meta, nil
	}
	err := json.Unmarshal([]byte(metadata[i]), &meta)
	return meta, err
}

// Upload stores every pending file and returns manifest items in input order.
// When any upload fails the objects already stored are removed and nothing is returned.
func (p *Pipeline) Upload(ctx context.Context, pending []Pending) ([]models.ContentItem, error) {
	items := make([]models.ContentItem, len(pending))
	refs := make([]*models.FileRef, len(pending))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i := range pending {
		i := i
		g.Go(func() error {
			item := pending[i]
			ref, err := media.UploadFile(gctx, p.uploader, item.File, item.ContentType, resourceKind(item.Kind))
			if err != nil {
				return err
			}
			refs[i] = ref
			items[i] = models.ContentItem{
				Kind:        item.Kind,
				Title:       item.Title,
				Description: item.Description,
				File:        ref,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		p.Discard(refs...)
		if errors.Is(err, apperror.ErrUpload) {
			return nil, err
		}
		return nil, apperror.Upload("Failed to upload course content", err)
	}
	return items, nil
}

// Discard removes stored objects that will not be referenced by any manifest.
func (p *Pipeline) Discard(refs ...*models.FileRef) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, ref := range refs {
		if ref == nil {
			continue
		}
		if err := p.uploader.Delete(ctx, ref.PublicID); err != nil {
			logger.Log.WithFields(logrus.Fields{"publicId": ref.PublicID}).WithError(err).Warn("failed to discard uploaded object")
		}
	}
}

func resourceKind(kind models.ContentKind) media.ResourceKind {
	if kind == models.ContentVideo {
		return media.KindVideo
	}
	return media.KindRaw
}

package media

import (
	"context"
	"coursehub/apperror"
	"coursehub/metrics"
	"coursehub/models"
	"coursehub/utils"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalUploader keeps objects on disk under root and serves them below baseURL.
type LocalUploader struct {
	root    string
	baseURL string
}

func NewLocalUploader(root, baseURL string) *LocalUploader {
	if baseURL == "" {
		baseURL = "/uploads"
	}
	return &LocalUploader{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (u *LocalUploader) Upload(ctx context.Context, obj Object, kind ResourceKind) (*models.FileRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperror.Upload(fmt.Sprintf("Failed to upload %s", obj.Filename), err)
	}

	format := formatOf(obj.Filename, obj.ContentType)
	name, size, err := utils.SaveUploadedFile(obj.Body, filepath.Join(u.root, kind.Folder()), format)
	metrics.RecordUpload(string(kind), size, err)
	if err != nil {
		return nil, apperror.Upload(fmt.Sprintf("Failed to upload %s", obj.Filename), err)
	}

	publicID := kind.Folder() + "/" + name
	return &models.FileRef{
		PublicID: publicID,
		URL:      utils.GetFileURL(u.baseURL, publicID),
		Size:     size,
		Format:   format,
	}, nil
}

func (u *LocalUploader) Delete(ctx context.Context, publicID string) error {
	target := filepath.Join(u.root, filepath.FromSlash(publicID))
	if !strings.HasPrefix(target, filepath.Clean(u.root)+string(os.PathSeparator)) {
		return fmt.Errorf("invalid public id %q", publicID)
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

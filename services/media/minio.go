package media

import (
	"context"
	"coursehub/apperror"
	"coursehub/config"
	"coursehub/logger"
	"coursehub/metrics"
	"coursehub/models"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

type MinioUploader struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioUploader connects to the object store and makes sure the bucket exists.
func NewMinioUploader(ctx context.Context, cfg *config.Config) (*MinioUploader, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Log.WithField("bucket", cfg.MinioBucket).Info("created media bucket")
	}

	baseURL := strings.TrimRight(cfg.MediaPublicURL, "/")
	if baseURL == "" {
		scheme := "http"
		if cfg.MinioUseSSL {
			scheme = "https"
		}
		baseURL = scheme + "://" + cfg.MinioEndpoint
	}

	return &MinioUploader{client: client, bucket: cfg.MinioBucket, baseURL: baseURL}, nil
}

func (u *MinioUploader) Upload(ctx context.Context, obj Object, kind ResourceKind) (*models.FileRef, error) {
	t := tuningFor(kind)
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	format := formatOf(obj.Filename, obj.ContentType)
	key := path.Join(kind.Folder(), uuid.NewString())
	if format != "" {
		key += "." + format
	}

	info, err := u.client.PutObject(ctx, u.bucket, key, obj.Body, obj.Size, minio.PutObjectOptions{
		ContentType: obj.ContentType,
		PartSize:    t.partSize,
	})
	if err != nil {
		metrics.RecordUpload(string(kind), 0, err)
		logger.Log.WithFields(logrus.Fields{"key": key, "file": obj.Filename}).WithError(err).Error("media upload failed")
		return nil, apperror.Upload(fmt.Sprintf("Failed to upload %s", obj.Filename), err)
	}
	metrics.RecordUpload(string(kind), info.Size, nil)

	return &models.FileRef{
		PublicID: key,
		URL:      u.baseURL + "/" + u.bucket + "/" + key,
		Size:     info.Size,
		Format:   format,
	}, nil
}

func (u *MinioUploader) Delete(ctx context.Context, publicID string) error {
	if err := u.client.RemoveObject(ctx, u.bucket, publicID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", publicID, err)
	}
	return nil
}

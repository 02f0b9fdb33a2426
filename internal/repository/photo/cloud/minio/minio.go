package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"photobooth/internal/config"
	"photobooth/internal/repository/photo"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

type FileRepository struct {
	client    *minio.Client
	bucket    string
	publicURL string
	retries   retry.Strategy
	logger    *zlog.Zerolog
}

func NewMinIORepository(cfg config.StorageConfig, retries retry.Strategy, logger *zlog.Zerolog) (*FileRepository, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		publicURL = client.EndpointURL().String()
	}

	return &FileRepository{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicURL,
		retries:   retries,
		logger:    logger,
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (r *FileRepository) EnsureBucket(ctx context.Context) error {
	exists, err := r.client.BucketExists(ctx, r.bucket)
	if err != nil {
		return fmt.Errorf("%w: failed to check bucket: %v", photo.ErrStorageError, err)
	}
	if exists {
		return nil
	}

	if err := r.client.MakeBucket(ctx, r.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("%w: failed to create bucket: %v", photo.ErrStorageError, err)
	}

	r.logger.Info().Str("bucket", r.bucket).Msg("Bucket created")
	return nil
}

// Upload stores data under objectName and returns its public URL.
func (r *FileRepository) Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	err := retry.Do(func() error {
		_, err := r.client.PutObject(ctx, r.bucket, objectName, bytes.NewReader(data), int64(len(data)),
			minio.PutObjectOptions{ContentType: contentType})
		return err
	}, r.retries)
	if err != nil {
		return "", fmt.Errorf("%w: failed to upload %s: %v", photo.ErrStorageError, objectName, err)
	}

	r.logger.Debug().
		Str("bucket", r.bucket).
		Str("object", objectName).
		Int("size", len(data)).
		Msg("Object uploaded")

	return r.ObjectURL(objectName), nil
}

func (r *FileRepository) Get(ctx context.Context, objectName string) (io.ReadCloser, error) {
	obj, err := r.client.GetObject(ctx, r.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", photo.ErrStorageError, err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, photo.ErrObjectNotFound
		}
		return nil, fmt.Errorf("%w: %v", photo.ErrStorageError, err)
	}
	return obj, nil
}

func (r *FileRepository) Delete(ctx context.Context, objectName string) error {
	err := retry.Do(func() error {
		return r.client.RemoveObject(ctx, r.bucket, objectName, minio.RemoveObjectOptions{})
	}, r.retries)
	if err != nil {
		return fmt.Errorf("%w: failed to delete %s: %v", photo.ErrStorageError, objectName, err)
	}
	return nil
}

func (r *FileRepository) ObjectURL(objectName string) string {
	return r.publicURL + "/" + url.PathEscape(r.bucket) + "/" + escapeObjectPath(objectName)
}

func escapeObjectPath(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

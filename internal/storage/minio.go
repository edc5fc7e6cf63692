package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/smbops/invoice-copilot/internal/models"
)

// MinIO keeps raw documents in an S3 compatible bucket.
type MinIO struct {
	client *minio.Client
	bucket string
	prefix string
	now    func() time.Time
}

// NewMinIO connects and verifies the bucket exists
func NewMinIO(ctx context.Context, cfg models.MinIOConfig) (*MinIO, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", cfg.Bucket)
	}

	return &MinIO{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix, now: time.Now}, nil
}

func (m *MinIO) Backend() string { return "minio" }

// Save uploads a document under {prefix}/YYYY/MM/{name} and returns "{bucket}/{object}".
func (m *MinIO) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	objectName := datedObjectName(m.prefix, name, m.now())
	if contentType == "" {
		contentType = ContentTypeFor(name)
	}

	_, err := m.client.PutObject(ctx, m.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload document: %w", err)
	}
	return m.bucket + "/" + objectName, nil
}

// Open streams a stored document back
func (m *MinIO) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, m.objectName(ref), minio.GetObjectOptions{})
	if err != nil {
		return nil, openError(ref, err)
	}
	// GetObject is lazy; Stat surfaces a missing key now.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, openError(ref, err)
	}
	return obj, nil
}

// openError maps a missing object onto ErrNotFound.
func openError(ref string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return fmt.Errorf("failed to open document: %w", err)
}

// PresignedURL generates a time-limited download link
func (m *MinIO) PresignedURL(ctx context.Context, ref string, ttl time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucket, m.objectName(ref), ttl, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url.String(), nil
}

// Delete removes a stored document
func (m *MinIO) Delete(ctx context.Context, ref string) error {
	return m.client.RemoveObject(ctx, m.bucket, m.objectName(ref), minio.RemoveObjectOptions{})
}

// objectName strips the bucket prefix from a reference returned by Save
func (m *MinIO) objectName(ref string) string {
	return strings.TrimPrefix(ref, m.bucket+"/")
}

func datedObjectName(prefix, name string, now time.Time) string {
	objectName := fmt.Sprintf("%d/%02d/%s", now.Year(), now.Month(), name)
	if prefix != "" {
		objectName = strings.TrimRight(prefix, "/") + "/" + objectName
	}
	return objectName
}

// Package archive keeps a copy of each sync run's normalized batch in
// S3-compatible object storage. When no bucket is configured the
// NoopArchiver is used and every operation is skipped.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hyperengineering/vortex/internal/config"
	"github.com/hyperengineering/vortex/internal/types"
)

// ErrNotConfigured is returned when archive storage is not configured.
var ErrNotConfigured = errors.New("archive storage not configured")

// Batch is the archived payload of one sync run.
type Batch struct {
	RunID           string                `json:"run_id"`
	Trigger         types.SyncTrigger     `json:"trigger"`
	StartedAt       time.Time             `json:"started_at"`
	TimeEntries     []types.TimeEntry     `json:"time_entries"`
	PlanningEntries []types.PlanningEntry `json:"planning_entries"`
}

// Archiver stores run batches and hands out download links for them.
type Archiver interface {
	// Archive writes the batch under the run's object key.
	Archive(ctx context.Context, batch Batch) error

	// PresignedURL returns a pre-signed URL for downloading a run's batch.
	// Returns ErrNotConfigured when storage is not configured.
	PresignedURL(ctx context.Context, runID string) (url string, expiry time.Time, err error)
}

// s3Client defines the minimal minio.Client operations used by S3Archiver.
type s3Client interface {
	PutObject(ctx context.Context, bucket, objectName string, data []byte, contentType string) error
	PresignedGetObject(ctx context.Context, bucket, objectName string, expiry time.Duration) (*url.URL, error)
}

// minioClientWrapper wraps *minio.Client to satisfy the s3Client interface.
type minioClientWrapper struct {
	client *minio.Client
}

func (w *minioClientWrapper) PutObject(ctx context.Context, bucket, objectName string, data []byte, contentType string) error {
	_, err := w.client.PutObject(ctx, bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (w *minioClientWrapper) PresignedGetObject(ctx context.Context, bucket, objectName string, expiry time.Duration) (*url.URL, error) {
	return w.client.PresignedGetObject(ctx, bucket, objectName, expiry, nil)
}

// S3Archiver writes run batches to S3-compatible storage.
type S3Archiver struct {
	client    s3Client
	bucket    string
	urlExpiry time.Duration
}

// Archive uploads the batch as JSON.
func (a *S3Archiver) Archive(ctx context.Context, batch Batch) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	if err := a.client.PutObject(ctx, a.bucket, ObjectKey(batch.RunID), data, "application/json"); err != nil {
		return fmt.Errorf("upload batch to S3: %w", err)
	}
	return nil
}

// PresignedURL returns a pre-signed GET URL for a run's batch.
func (a *S3Archiver) PresignedURL(ctx context.Context, runID string) (string, time.Time, error) {
	presigned, err := a.client.PresignedGetObject(ctx, a.bucket, ObjectKey(runID), a.urlExpiry)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate pre-signed URL: %w", err)
	}
	return presigned.String(), time.Now().Add(a.urlExpiry), nil
}

// NoopArchiver is used when archive storage is not configured.
type NoopArchiver struct{}

// Archive is a no-op when storage is not configured.
func (a *NoopArchiver) Archive(ctx context.Context, batch Batch) error {
	return nil
}

// PresignedURL returns ErrNotConfigured.
func (a *NoopArchiver) PresignedURL(ctx context.Context, runID string) (string, time.Time, error) {
	return "", time.Time{}, ErrNotConfigured
}

// New creates the appropriate Archiver based on configuration.
// Returns NoopArchiver when bucket is empty, S3Archiver otherwise.
func New(cfg config.ArchiveConfig) (Archiver, error) {
	if cfg.Bucket == "" {
		return &NoopArchiver{}, nil
	}

	useSSL := true
	if cfg.UseSSL != nil {
		useSSL = *cfg.UseSSL
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	return &S3Archiver{
		client:    &minioClientWrapper{client: client},
		bucket:    cfg.Bucket,
		urlExpiry: time.Duration(cfg.URLExpiry),
	}, nil
}

// ObjectKey returns the object key for a run's batch.
// Convention: sync-runs/{run_id}.json
func ObjectKey(runID string) string {
	return "sync-runs/" + runID + ".json"
}

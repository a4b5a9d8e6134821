// Package objectstore mirrors generated reports to an S3-compatible bucket.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/AI2HU/satlens/internal/config"
	"github.com/AI2HU/satlens/internal/db"
)

const reportPrefix = "reports"

// Mirror stores report JSON in a MinIO bucket
type Mirror struct {
	client *minio.Client
	bucket string
	region string
}

// New connects to the object store and makes sure the bucket exists
func New(ctx context.Context, cfg config.ObjectStoreConfig) (*Mirror, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &Mirror{client: cli, bucket: cfg.Bucket, region: cfg.Region}, nil
}

// ReportKey is the object key of a report snapshot
func ReportKey(name string, at time.Time) string {
	return path.Join(reportPrefix, name, at.UTC().Format("20060102T150405Z")+".json")
}

// LatestKey is the object key always holding the newest report of a kind
func LatestKey(name string) string {
	return path.Join(reportPrefix, name, "latest.json")
}

// PutReport writes a timestamped snapshot and replaces the latest copy. It
// returns the snapshot key.
func (m *Mirror) PutReport(ctx context.Context, name string, data []byte) (string, error) {
	key := ReportKey(name, time.Now())
	for _, k := range []string{key, LatestKey(name)} {
		_, err := m.client.PutObject(ctx, m.bucket, k, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: "application/json",
		})
		if err != nil {
			return "", classifyError(err, "upload "+k)
		}
	}
	return key, nil
}

// GetReport reads the latest report of a kind
func (m *Mirror) GetReport(ctx context.Context, name string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, LatestKey(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyError(err, "download")
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classifyError(err, "read")
	}
	return data, nil
}

// classifyError maps missing objects to db.ErrNotFound
func classifyError(err error, operation string) error {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.Code {
		case "NoSuchKey", "NoSuchBucket":
			return fmt.Errorf("%s: %w", operation, db.ErrNotFound)
		}
	}
	return fmt.Errorf("failed to %s: %w", operation, err)
}

package store

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/i474232898/surfspots/internal/config"
)

// MinioStore keeps rendered images in an S3-compatible bucket and hands out
// presigned GET URLs.
type MinioStore struct {
	cli    *minio.Client
	bucket string
	expiry time.Duration
	logger zerolog.Logger
}

// NewMinioStore connects to the configured endpoint and creates the bucket
// when it does not exist yet.
func NewMinioStore(ctx context.Context, conf config.MinIO, logger zerolog.Logger) (*MinioStore, error) {
	client, err := minio.New(conf.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(conf.User, conf.Pass, ""),
		Secure: conf.UseSSL,
		Region: conf.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, conf.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, conf.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio bucket creation: %w", err)
		}
		logger.Info().Str("bucket", conf.Bucket).Msg("created image bucket")
	}

	expiry := conf.URLExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &MinioStore{cli: client, bucket: conf.Bucket, expiry: expiry, logger: logger}, nil
}

// Put uploads data under a fresh uuid object name.
func (s *MinioStore) Put(ctx context.Context, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}

	objectName := uuid.New().String() + extension(contentType)
	info, err := s.cli.PutObject(
		ctx,
		s.bucket,
		objectName,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return "", fmt.Errorf("minio put %s: %w", objectName, err)
	}

	url, err := s.cli.PresignedGetObject(ctx, s.bucket, objectName, s.expiry, nil)
	if err != nil {
		return "", fmt.Errorf("minio presign %s: %w", objectName, err)
	}

	s.logger.Debug().Str("object", objectName).Int64("size", info.Size).Msg("image uploaded")
	return url.String(), nil
}

func extension(contentType string) string {
	if contentType == "image/png" {
		return ".png"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

package blob

import (
	"context"
	"fmt"
	"io"
	"path"

	"myGroupBuy/business/recommendation"
	"myGroupBuy/pkg/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3 stores artifact payloads in any S3-compatible bucket.
type S3 struct {
	*minio.Client
	bucket string
	prefix string
}

var _ recommendation.BlobStore = (*S3)(nil)

func NewS3(cfg config.BlobConfig) (*S3, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	return &S3{
		Client: minioClient,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (s *S3) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	fullPath := path.Join(s.prefix, key)
	_, err := s.Client.PutObject(ctx, s.bucket, fullPath, r, size, minio.PutObjectOptions{
		ContentType: "application/gzip",
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to s3: %w", fullPath, err)
	}
	return nil
}

func (s *S3) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	object, err := s.Client.GetObject(ctx, s.bucket, path.Join(s.prefix, key), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	return object, nil
}

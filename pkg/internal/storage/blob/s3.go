package blob

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path"

	minio "github.com/minio/minio-go/v7"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/apperr"
	s3c "github.com/yeisme/filevault/pkg/internal/storage/s3"
)

// S3Store keeps blobs as objects of one bucket. The storage path is the
// object key.
type S3Store struct {
	client *s3c.Client
}

// NewS3Store wraps an initialized client.
func NewS3Store(client *s3c.Client) *S3Store {
	return &S3Store{client: client}
}

func newS3FromConfig(ctx context.Context, cfg *configs.BlobConfig) (Store, error) {
	client, err := s3c.New(ctx, cfg.S3)
	if err != nil {
		return nil, err
	}

	return NewS3Store(client), nil
}

func (s *S3Store) key(storedName string) string {
	if s.client.Prefix == "" {
		return storedName
	}

	return path.Join(s.client.Prefix, storedName)
}

func (s *S3Store) Put(ctx context.Context, data []byte, suggestedName string) (string, string, error) {
	storedName := NewStoredName(suggestedName)
	key := s.key(storedName)

	_, err := s.client.PutObject(ctx, s.client.Bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return "", "", apperr.IO("put object", err)
	}

	return storedName, key, nil
}

func (s *S3Store) Get(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.client.Bucket, storagePath, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapS3Error("get object", err)
	}

	// GetObject is lazy; Stat surfaces a missing key before the caller
	// starts streaming.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()

		return nil, mapS3Error("get object", err)
	}

	return obj, nil
}

func (s *S3Store) Stat(ctx context.Context, storagePath string) (int64, error) {
	info, err := s.client.StatObject(ctx, s.client.Bucket, storagePath, minio.StatObjectOptions{})
	if err != nil {
		return 0, mapS3Error("stat object", err)
	}

	return info.Size, nil
}

func (s *S3Store) Delete(ctx context.Context, storagePath string) error {
	err := s.client.RemoveObject(ctx, s.client.Bucket, storagePath, minio.RemoveObjectOptions{})
	if err != nil {
		if isS3NotFound(err) {
			return nil
		}

		return apperr.IO("remove object", err)
	}

	return nil
}

func (s *S3Store) Walk(ctx context.Context, fn func(Object) error) error {
	opts := minio.ListObjectsOptions{Prefix: s.client.Prefix, Recursive: true}

	for info := range s.client.ListObjects(ctx, s.client.Bucket, opts) {
		if info.Err != nil {
			return apperr.IO("list objects", info.Err)
		}

		if err := fn(Object{Path: info.Key, Size: info.Size, ModTime: info.LastModified}); err != nil {
			return err
		}
	}

	return nil
}

func (s *S3Store) Ping(ctx context.Context) error {
	return s.client.HealthCheck(ctx)
}

func isS3NotFound(err error) bool {
	resp := minio.ToErrorResponse(err)

	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}

func mapS3Error(op string, err error) error {
	if isS3NotFound(err) {
		return apperr.NotFound("file not found")
	}

	return apperr.IO(op, err)
}

func init() {
	RegisterFactory(configs.BlobTypeS3, newS3FromConfig)
}

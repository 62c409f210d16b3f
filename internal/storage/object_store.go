package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"

	"warehouse-service/internal/apperr"
)

// ObjectStore abstracts the content store holding item assets, thumbnails
// and staged generation artifacts.
type ObjectStore interface {
	Put(ctx context.Context, path string, reader io.Reader, size int64, contentType string) (string, error)
	Get(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) (bool, error)
	Delete(ctx context.Context, paths ...string) error
	DeleteAll(ctx context.Context, prefix string) (int, error)
	List(ctx context.Context, prefix string) ([]string, error)
	URL(path string) string
}

// MinioStore implements ObjectStore on a single MinIO bucket.
type MinioStore struct {
	Client *minio.Client
	Bucket string
}

// NewMinioStore creates a MinioStore over an initialized client and bucket.
func NewMinioStore(client *minio.Client, bucket string) *MinioStore {
	return &MinioStore{Client: client, Bucket: bucket}
}

// Put uploads an object and returns its public URL.
func (s *MinioStore) Put(ctx context.Context, path string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := s.Client.PutObject(ctx, s.Bucket, path, reader, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", apperr.Wrap(errors.Wrapf(err, "put %s", path), apperr.KindStorage, "failed to store file")
	}
	return s.URL(path), nil
}

// Get reads a whole object into memory. A missing object reports
// KindNotFound, any other failure KindStorage.
func (s *MinioStore) Get(ctx context.Context, path string) ([]byte, error) {
	obj, err := s.Client.GetObject(ctx, s.Bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, apperr.Wrap(errors.Wrapf(err, "get %s", path), apperr.KindStorage, "unable to retrieve file")
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, apperr.New(apperr.KindNotFound, "file not found")
		}
		return nil, apperr.Wrap(errors.Wrapf(err, "read %s", path), apperr.KindStorage, "failed to read file")
	}
	return data, nil
}

// Exists reports whether an object is present at path.
func (s *MinioStore) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.Client.StatObject(ctx, s.Bucket, path, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, apperr.Wrap(errors.Wrapf(err, "stat %s", path), apperr.KindStorage, "failed to check file")
	}
	return true, nil
}

// Delete removes the given objects. Missing objects are not an error.
func (s *MinioStore) Delete(ctx context.Context, paths ...string) error {
	for _, p := range paths {
		err := s.Client.RemoveObject(ctx, s.Bucket, p, minio.RemoveObjectOptions{})
		if err != nil {
			return apperr.Wrap(errors.Wrapf(err, "delete %s", p), apperr.KindStorage, "failed to delete file")
		}
	}
	return nil
}

// DeleteAll removes every object under prefix and returns how many went away.
func (s *MinioStore) DeleteAll(ctx context.Context, prefix string) (int, error) {
	paths, err := s.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	if err := s.Delete(ctx, paths...); err != nil {
		return 0, err
	}
	log.Printf("Deleted %d objects under prefix %s", len(paths), prefix)
	return len(paths), nil
}

// List enumerates all object paths under prefix.
func (s *MinioStore) List(ctx context.Context, prefix string) ([]string, error) {
	var paths []string
	for obj := range s.Client.ListObjects(ctx, s.Bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, apperr.Wrap(errors.Wrapf(obj.Err, "list %s", prefix), apperr.KindStorage, "failed to list files")
		}
		paths = append(paths, obj.Key)
	}
	return paths, nil
}

// URL returns the direct object URL for path.
func (s *MinioStore) URL(path string) string {
	endpoint := s.Client.EndpointURL().String()
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(endpoint, "/"), s.Bucket, path)
}

// PutBytes is a convenience wrapper for in-memory payloads.
func PutBytes(ctx context.Context, store ObjectStore, path string, data []byte, contentType string) (string, error) {
	return store.Put(ctx, path, bytes.NewReader(data), int64(len(data)), contentType)
}

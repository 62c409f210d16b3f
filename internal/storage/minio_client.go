package storage

import (
	"context"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"warehouse-service/internal/config"
)

// ConnectMinio dials MinIO and returns a store over the warehouse bucket,
// creating the bucket when it does not exist yet.
func ConnectMinio(cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect to MinIO")
	}

	store := NewMinioStore(client, cfg.MinioBucket)
	if err := store.ensureBucket(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *MinioStore) ensureBucket(ctx context.Context) error {
	exists, err := s.Client.BucketExists(ctx, s.Bucket)
	if err != nil {
		return errors.Wrapf(err, "check bucket %s", s.Bucket)
	}
	if exists {
		return nil
	}
	if err := s.Client.MakeBucket(ctx, s.Bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.Wrapf(err, "create bucket %s", s.Bucket)
	}
	log.Printf("Created bucket %s", s.Bucket)
	return nil
}

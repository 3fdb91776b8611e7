package zones

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/models"
)

// ObjectStore keeps the zone text file as a single object in S3/MinIO.
type ObjectStore struct {
	client *minio.Client
	bucket string
	key    string
}

func NewObjectStore(endpoint, accessKey, secretKey, bucket, key string, secure bool) (*ObjectStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &ObjectStore{client: client, bucket: bucket, key: key}, nil
}

func (s *ObjectStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		log.Info().Str("bucket", s.bucket).Msg("Creating zone bucket")
		return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

func (s *ObjectStore) Save(ctx context.Context, polygons [][]models.Point) error {
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("bucket error: %w", err)
	}

	data := encodePolygons(polygons)
	_, err := s.client.PutObject(ctx, s.bucket, s.key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "text/plain"})
	if err != nil {
		return fmt.Errorf("upload error: %w", err)
	}
	return nil
}

func (s *ObjectStore) Load(ctx context.Context) ([][]models.Point, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("download error: %w", err)
	}
	defer obj.Close()

	polygons, err := decodePolygons(obj)
	if err != nil {
		return nil, fmt.Errorf("download error: %w", err)
	}
	return polygons, nil
}

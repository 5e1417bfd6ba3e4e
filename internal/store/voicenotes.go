package store

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// VoiceNoteStore keeps uploaded voice notes in a MinIO bucket. Each object is
// keyed by the owning user so notes from different users never collide.
type VoiceNoteStore struct {
	client *minio.Client
	bucket string
}

func NewVoiceNoteStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*VoiceNoteStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	return &VoiceNoteStore{client: client, bucket: bucket}, nil
}

// Save streams a voice note into the bucket and returns a presigned URL the
// client can play it back from.
func (s *VoiceNoteStore) Save(ctx context.Context, userID uuid.UUID, r io.Reader, size int64, contentType string) (string, error) {
	key := fmt.Sprintf("%s/%s", userID, uuid.New())
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("minio put: %w", err)
	}

	url, err := s.client.PresignedGetObject(ctx, s.bucket, key, 7*24*time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("minio presign: %w", err)
	}
	return url.String(), nil
}

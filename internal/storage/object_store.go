package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/SG-STD/ofox-backend/internal/config"
)

type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ObjectStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *ObjectStore) EnsureBuckets(ctx context.Context) error {
	bucket := s.cfg.BucketProfiles
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return nil
}

// ProfileImageKey addresses a profile picture inside the profiles bucket.
func ProfileImageKey(userID, imageID string) string {
	return path.Join("profile_images", userID, imageID+".jpg")
}

// PutProfileImage stores a JPEG and returns its retrievable URL.
func (s *ObjectStore) PutProfileImage(ctx context.Context, userID, imageID string, data []byte) (string, error) {
	key := ProfileImageKey(userID, imageID)
	_, err := s.client.PutObject(ctx, s.cfg.BucketProfiles, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "image/jpeg",
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return PublicURL(s.cfg, key), nil
}

func PublicURL(cfg config.StorageConfig, objectKey string) string {
	base := cfg.PublicBaseURL
	if base == "" {
		base = cfg.Endpoint
		if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
			if cfg.UseSSL {
				base = "https://" + base
			} else {
				base = "http://" + base
			}
		}
		base = strings.TrimSuffix(base, "/") + "/" + cfg.BucketProfiles
	}
	return strings.TrimSuffix(base, "/") + "/" + objectKey
}

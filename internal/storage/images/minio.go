package images

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/magabrotheeeer/campus-market/internal/config"
	"github.com/magabrotheeeer/campus-market/internal/models"
)

// Minio хранит изображения в бакете S3-совместимого хранилища.
type Minio struct {
	client *minio.Client
	bucket string
}

// NewMinio подключается к MinIO и создаёт бакет, если его нет.
func NewMinio(ctx context.Context, cfg config.Images) (*Minio, error) {
	const op = "images.NewMinio"
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return &Minio{client: client, bucket: cfg.MinioBucket}, nil
}

// Save сохраняет изображение под случайным ключом.
func (m *Minio) Save(ctx context.Context, ownerID, contentType string, r io.Reader, size int64) (string, error) {
	const op = "images.Minio.Save"
	key := uuid.NewString()
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"owner-id": ownerID},
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return key, nil
}

// Open открывает изображение для чтения.
func (m *Minio) Open(ctx context.Context, id string) (*Image, error) {
	const op = "images.Minio.Open"
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	obj, err := m.client.GetObject(ctx, m.bucket, id, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapMinioErr(err))
	}
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, fmt.Errorf("%s: %w", op, mapMinioErr(err))
	}
	return &Image{Body: obj, ContentType: info.ContentType, Size: info.Size}, nil
}

// Delete удаляет изображение.
func (m *Minio) Delete(ctx context.Context, id string) error {
	const op = "images.Minio.Delete"
	if err := m.client.RemoveObject(ctx, m.bucket, id, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%s: %w", op, mapMinioErr(err))
	}
	return nil
}

func mapMinioErr(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey" {
		return models.ErrNotFound
	}
	return err
}

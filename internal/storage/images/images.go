// Package images хранит фотографии для верификации продавцов.
// Поддерживаются GridFS (по умолчанию) и MinIO.
package images

import (
	"context"
	"io"
)

// Image открытое для чтения изображение.
type Image struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Store сохраняет, отдаёт и удаляет изображения.
type Store interface {
	Save(ctx context.Context, ownerID, contentType string, r io.Reader, size int64) (string, error)
	Open(ctx context.Context, id string) (*Image, error)
	Delete(ctx context.Context, id string) error
}

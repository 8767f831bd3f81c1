package images

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/magabrotheeeer/campus-market/internal/models"
)

const gridFSBucket = "verificationImages"

// GridFS хранит изображения в бакете GridFS базы MongoDB.
type GridFS struct {
	db *mongo.Database
}

// NewGridFS создаёт хранилище поверх базы db.
func NewGridFS(db *mongo.Database) *GridFS {
	return &GridFS{db: db}
}

// bucket создаёт бакет на одну операцию: дедлайны бакета, его изменяемое состояние.
func (g *GridFS) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	b, err := gridfs.NewBucket(g.db, options.GridFSBucket().SetName(gridFSBucket))
	if err != nil {
		return nil, err
	}
	if dl, ok := ctx.Deadline(); ok {
		if err := b.SetReadDeadline(dl); err != nil {
			return nil, err
		}
		if err := b.SetWriteDeadline(dl); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Save сохраняет изображение и возвращает его идентификатор.
func (g *GridFS) Save(ctx context.Context, ownerID, contentType string, r io.Reader, _ int64) (string, error) {
	const op = "images.GridFS.Save"
	b, err := g.bucket(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	opts := options.GridFSUpload().SetMetadata(bson.M{
		"contentType": contentType,
		"ownerId":     ownerID,
	})
	id, err := b.UploadFromStream("verification-"+ownerID, r, opts)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id.Hex(), nil
}

// Open открывает изображение для чтения.
func (g *GridFS) Open(ctx context.Context, id string) (*Image, error) {
	const op = "images.GridFS.Open"
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	b, err := g.bucket(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	stream, err := b.OpenDownloadStream(oid)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	file := stream.GetFile()
	contentType := "application/octet-stream"
	if file.Metadata != nil {
		if ct, ok := file.Metadata.Lookup("contentType").StringValueOK(); ok && ct != "" {
			contentType = ct
		}
	}
	return &Image{Body: stream, ContentType: contentType, Size: file.Length}, nil
}

// Delete удаляет изображение.
func (g *GridFS) Delete(ctx context.Context, id string) error {
	const op = "images.GridFS.Delete"
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	b, err := g.bucket(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := b.DeleteContext(ctx, oid); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

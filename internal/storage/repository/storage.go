// Package repository реализует хранилище данных маркетплейса на MongoDB:
// пользователи, товары, заявки на реактивацию и верификацию, сообщения.
// Изменения, затрагивающие несколько документов, выполняются в транзакциях.
package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/magabrotheeeer/campus-market/internal/config"
	"github.com/magabrotheeeer/campus-market/internal/models"
)

// Имена коллекций.
const (
	usersCollection         = "users"
	productsCollection      = "products"
	reactivationsCollection = "reactivationrequests"
	verificationsCollection = "verificationrequests"
	messagesCollection      = "messages"
)

// Storage инкапсулирует подключение к MongoDB.
type Storage struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// New подключается к MongoDB и проверяет соединение с primary.
func New(ctx context.Context, cfg config.Mongo) (*Storage, error) {
	const op = "storage.New"

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		Client: client,
		DB:     client.Database(cfg.DBName),
	}, nil
}

// Close закрывает соединение с MongoDB.
func (s *Storage) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

// Ping проверяет доступность базы.
func (s *Storage) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx, readpref.Primary())
}

func (s *Storage) users() *mongo.Collection         { return s.DB.Collection(usersCollection) }
func (s *Storage) products() *mongo.Collection      { return s.DB.Collection(productsCollection) }
func (s *Storage) reactivations() *mongo.Collection { return s.DB.Collection(reactivationsCollection) }
func (s *Storage) verifications() *mongo.Collection { return s.DB.Collection(verificationsCollection) }
func (s *Storage) messages() *mongo.Collection      { return s.DB.Collection(messagesCollection) }

// objectID разбирает идентификатор. Некорректный идентификатор означает,
// что документа с ним не существует.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, models.ErrNotFound
	}
	return oid, nil
}

// mapErr переводит ошибки драйвера в доменные.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %w", models.ErrConflict, err)
	default:
		return err
	}
}

// hexOrEmpty возвращает строковое представление ObjectID или пустую строку для нулевого.
func hexOrEmpty(id primitive.ObjectID) string {
	if id.IsZero() {
		return ""
	}
	return id.Hex()
}

// containsRegex строит регистронезависимое регулярное выражение для поиска подстроки.
func containsRegex(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func skipLimit(p models.Page) *options.FindOptions {
	return options.Find().SetSkip(p.Skip()).SetLimit(int64(p.Limit))
}

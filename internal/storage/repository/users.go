package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/magabrotheeeer/campus-market/internal/models"
)

type userDoc struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty"`
	Name                  string             `bson:"name"`
	Email                 string             `bson:"email"`
	PasswordHash          string             `bson:"passwordHash"`
	Type                  string             `bson:"type"`
	Campus                string             `bson:"campus"`
	WhatsApp              string             `bson:"whatsapp"`
	Subscribed            bool               `bson:"subscribed"`
	SubscriptionStatus    string             `bson:"subscriptionStatus,omitempty"`
	SubscriptionStartDate *time.Time         `bson:"subscriptionStartDate,omitempty"`
	SubscriptionEndDate   *time.Time         `bson:"subscriptionEndDate,omitempty"`
	Verified              bool               `bson:"verified"`
	VerifiedAt            *time.Time         `bson:"verifiedAt,omitempty"`
	CreatedAt             time.Time          `bson:"createdAt"`
	UpdatedAt             time.Time          `bson:"updatedAt"`
}

func (d *userDoc) toModel() *models.User {
	return &models.User{
		ID:                    d.ID.Hex(),
		Name:                  d.Name,
		Email:                 d.Email,
		PasswordHash:          d.PasswordHash,
		Type:                  d.Type,
		Campus:                d.Campus,
		WhatsApp:              d.WhatsApp,
		Subscribed:            d.Subscribed,
		SubscriptionStatus:    d.SubscriptionStatus,
		SubscriptionStartDate: d.SubscriptionStartDate,
		SubscriptionEndDate:   d.SubscriptionEndDate,
		Verified:              d.Verified,
		VerifiedAt:            d.VerifiedAt,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
}

func fromUser(u *models.User) userDoc {
	return userDoc{
		Name:                  u.Name,
		Email:                 u.Email,
		PasswordHash:          u.PasswordHash,
		Type:                  u.Type,
		Campus:                u.Campus,
		WhatsApp:              u.WhatsApp,
		Subscribed:            u.Subscribed,
		SubscriptionStatus:    u.SubscriptionStatus,
		SubscriptionStartDate: u.SubscriptionStartDate,
		SubscriptionEndDate:   u.SubscriptionEndDate,
		Verified:              u.Verified,
		VerifiedAt:            u.VerifiedAt,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
}

// patchSet переводит UserPatch в содержимое оператора $set.
func patchSet(p models.UserPatch, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Campus != nil {
		set["campus"] = *p.Campus
	}
	if p.WhatsApp != nil {
		set["whatsapp"] = *p.WhatsApp
	}
	if p.Type != nil {
		set["type"] = *p.Type
	}
	if p.Subscribed != nil {
		set["subscribed"] = *p.Subscribed
	}
	if p.SubscriptionStatus != nil {
		set["subscriptionStatus"] = *p.SubscriptionStatus
	}
	if p.SubscriptionStartDate != nil {
		set["subscriptionStartDate"] = *p.SubscriptionStartDate
	}
	if p.SubscriptionEndDate != nil {
		set["subscriptionEndDate"] = *p.SubscriptionEndDate
	}
	if p.Verified != nil {
		set["verified"] = *p.Verified
	}
	if p.VerifiedAt != nil {
		set["verifiedAt"] = *p.VerifiedAt
	}
	return set
}

// CreateUser сохраняет нового пользователя. Занятый email возвращает models.ErrEmailTaken.
func (s *Storage) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	const op = "storage.CreateUser"

	now := time.Now().UTC()
	doc := fromUser(u)
	doc.CreatedAt = now
	doc.UpdatedAt = now

	res, err := s.users().InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrEmailTaken)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toModel(), nil
}

// GetUser возвращает пользователя по идентификатору.
func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUser"
	oid, err := objectID(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var doc userDoc
	if err := s.users().FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return doc.toModel(), nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	var doc userDoc
	if err := s.users().FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return doc.toModel(), nil
}

// UpdateUser применяет патч и возвращает обновлённого пользователя.
func (s *Storage) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	const op = "storage.UpdateUser"
	oid, err := objectID(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var doc userDoc
	err = s.users().FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": patchSet(patch, time.Now().UTC())},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return doc.toModel(), nil
}

// DemoteSeller применяет патч понижения только к продавцу, чья подписка на момент now
// всё ещё не действует. Возвращает false, если пользователя уже понизил другой запрос
// или подписку успели продлить после чтения.
func (s *Storage) DemoteSeller(ctx context.Context, id string, now time.Time, patch models.UserPatch) (bool, error) {
	const op = "storage.DemoteSeller"
	oid, err := objectID(id)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	filter := lapsedSellerFilter(now)
	filter["_id"] = oid
	res, err := s.users().UpdateOne(ctx,
		filter,
		bson.M{"$set": patchSet(patch, time.Now().UTC())},
	)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return res.ModifiedCount == 1, nil
}

// FindLapsedSellers возвращает продавцов, чья подписка больше не действует на момент now.
func (s *Storage) FindLapsedSellers(ctx context.Context, now time.Time) ([]*models.User, error) {
	const op = "storage.FindLapsedSellers"
	users, err := s.findUsers(ctx, lapsedSellerFilter(now), options.Find())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// lapsedSellerFilter выбирает продавцов с истёкшей подпиской, как policy.NeedsDemotion.
func lapsedSellerFilter(now time.Time) bson.M {
	return bson.M{
		"type": models.UserTypeSeller,
		"$or": bson.A{
			bson.M{"subscriptionEndDate": bson.M{"$lt": now}},
			bson.M{"subscribed": false, "subscriptionEndDate": bson.M{"$ne": nil}},
		},
	}
}

// FindSellersExpiringBetween возвращает активных продавцов, чья подписка заканчивается в [from, to).
func (s *Storage) FindSellersExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.User, error) {
	const op = "storage.FindSellersExpiringBetween"
	filter := bson.M{
		"type":                models.UserTypeSeller,
		"subscribed":          true,
		"subscriptionEndDate": bson.M{"$gte": from, "$lt": to},
	}
	users, err := s.findUsers(ctx, filter, options.Find())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// ListUsers возвращает страницу пользователей и их общее количество.
func (s *Storage) ListUsers(ctx context.Context, f models.UserFilter) ([]*models.User, int64, error) {
	const op = "storage.ListUsers"
	filter := bson.M{}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	total, err := s.users().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	users, err := s.findUsers(ctx, filter, skipLimit(f.Page).SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return users, total, nil
}

// DeleteUser удаляет пользователя вместе с его товарами и заявками.
func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	const op = "storage.DeleteUser"
	oid, err := objectID(id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	err = s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := s.users().DeleteOne(sc, bson.M{"_id": oid})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return models.ErrNotFound
		}
		if _, err := s.products().DeleteMany(sc, bson.M{"sellerId": oid}); err != nil {
			return err
		}
		if _, err := s.reactivations().DeleteMany(sc, bson.M{"userId": oid}); err != nil {
			return err
		}
		_, err = s.verifications().DeleteMany(sc, bson.M{"userId": oid})
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) findUsers(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.User, error) {
	cursor, err := s.users().Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	users := make([]*models.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toModel())
	}
	return users, nil
}

// withTransaction выполняет fn в транзакции MongoDB.
func (s *Storage) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := s.Client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return mapErr(err)
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/magabrotheeeer/campus-market/internal/models"
)

// requestDoc общий документ заявок на реактивацию и верификацию.
type requestDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	UserID           primitive.ObjectID `bson:"userId"`
	Note             string             `bson:"note,omitempty"`
	ImageID          string             `bson:"imageId,omitempty"`
	Status           string             `bson:"status"`
	SubscriptionType string             `bson:"subscriptionType,omitempty"`
	RequestedAt      time.Time          `bson:"requestedAt"`
	ProcessedAt      *time.Time         `bson:"processedAt,omitempty"`
	AdminID          primitive.ObjectID `bson:"adminId,omitempty"`
	AdminNote        string             `bson:"adminNote,omitempty"`
	Requester        *userDoc           `bson:"requester,omitempty"`
}

func (d *requestDoc) requester() *models.PublicProfile {
	if d.Requester == nil {
		return nil
	}
	p := d.Requester.toModel().Public()
	return &p
}

func (d *requestDoc) toReactivation() *models.ReactivationRequest {
	return &models.ReactivationRequest{
		ID:               d.ID.Hex(),
		UserID:           d.UserID.Hex(),
		Note:             d.Note,
		Status:           d.Status,
		SubscriptionType: d.SubscriptionType,
		RequestedAt:      d.RequestedAt,
		ProcessedAt:      d.ProcessedAt,
		AdminID:          hexOrEmpty(d.AdminID),
		AdminNote:        d.AdminNote,
		Requester:        d.requester(),
	}
}

func (d *requestDoc) toVerification() *models.VerificationRequest {
	return &models.VerificationRequest{
		ID:          d.ID.Hex(),
		UserID:      d.UserID.Hex(),
		ImageID:     d.ImageID,
		Status:      d.Status,
		RequestedAt: d.RequestedAt,
		ProcessedAt: d.ProcessedAt,
		AdminID:     hexOrEmpty(d.AdminID),
		AdminNote:   d.AdminNote,
		Requester:   d.requester(),
	}
}

func (s *Storage) requestCollection(kind string) (*mongo.Collection, error) {
	switch kind {
	case models.RequestKindReactivation:
		return s.reactivations(), nil
	case models.RequestKindVerification:
		return s.verifications(), nil
	default:
		return nil, fmt.Errorf("%w: unknown request kind %q", models.ErrInvalidInput, kind)
	}
}

// CreateReactivationRequest сохраняет заявку на реактивацию в статусе pending.
// Вторая ожидающая заявка того же пользователя возвращает models.ErrPendingExists.
func (s *Storage) CreateReactivationRequest(ctx context.Context, r *models.ReactivationRequest) (*models.ReactivationRequest, error) {
	const op = "storage.CreateReactivationRequest"
	userID, err := objectID(r.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	doc := requestDoc{
		UserID:      userID,
		Note:        r.Note,
		Status:      models.RequestPending,
		RequestedAt: time.Now().UTC(),
	}
	if err := s.insertRequest(ctx, s.reactivations(), &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return doc.toReactivation(), nil
}

// CreateVerificationRequest сохраняет заявку на верификацию в статусе pending.
func (s *Storage) CreateVerificationRequest(ctx context.Context, r *models.VerificationRequest) (*models.VerificationRequest, error) {
	const op = "storage.CreateVerificationRequest"
	userID, err := objectID(r.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	doc := requestDoc{
		UserID:      userID,
		ImageID:     r.ImageID,
		Status:      models.RequestPending,
		RequestedAt: time.Now().UTC(),
	}
	if err := s.insertRequest(ctx, s.verifications(), &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return doc.toVerification(), nil
}

func (s *Storage) insertRequest(ctx context.Context, coll *mongo.Collection, doc *requestDoc) error {
	res, err := coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrPendingExists
		}
		return err
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// HasPendingRequest сообщает, есть ли у пользователя ожидающая заявка указанного вида.
func (s *Storage) HasPendingRequest(ctx context.Context, kind, userID string) (bool, error) {
	const op = "storage.HasPendingRequest"
	coll, err := s.requestCollection(kind)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	oid, err := objectID(userID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := coll.CountDocuments(ctx, bson.M{"userId": oid, "status": models.RequestPending}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

// GetReactivationRequest возвращает заявку на реактивацию.
func (s *Storage) GetReactivationRequest(ctx context.Context, id string) (*models.ReactivationRequest, error) {
	const op = "storage.GetReactivationRequest"
	doc, err := s.getRequest(ctx, s.reactivations(), id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return doc.toReactivation(), nil
}

// GetVerificationRequest возвращает заявку на верификацию.
func (s *Storage) GetVerificationRequest(ctx context.Context, id string) (*models.VerificationRequest, error) {
	const op = "storage.GetVerificationRequest"
	doc, err := s.getRequest(ctx, s.verifications(), id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return doc.toVerification(), nil
}

func (s *Storage) getRequest(ctx context.Context, coll *mongo.Collection, id string) (*requestDoc, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc requestDoc
	if err := coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapErr(err)
	}
	return &doc, nil
}

// LatestVerificationRequest возвращает последнюю заявку пользователя на верификацию.
func (s *Storage) LatestVerificationRequest(ctx context.Context, userID string) (*models.VerificationRequest, error) {
	const op = "storage.LatestVerificationRequest"
	oid, err := objectID(userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var doc requestDoc
	err = s.verifications().FindOne(ctx,
		bson.M{"userId": oid},
		options.FindOne().SetSort(bson.D{{Key: "requestedAt", Value: -1}}),
	).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return doc.toVerification(), nil
}

// FindVerificationByImage возвращает заявку, к которой приложено изображение.
func (s *Storage) FindVerificationByImage(ctx context.Context, imageID string) (*models.VerificationRequest, error) {
	const op = "storage.FindVerificationByImage"
	var doc requestDoc
	if err := s.verifications().FindOne(ctx, bson.M{"imageId": imageID}).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return doc.toVerification(), nil
}

// ListUserReactivationRequests возвращает заявки пользователя на реактивацию, новые первыми.
func (s *Storage) ListUserReactivationRequests(ctx context.Context, userID string) ([]*models.ReactivationRequest, error) {
	const op = "storage.ListUserReactivationRequests"
	oid, err := objectID(userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	cursor, err := s.reactivations().Find(ctx,
		bson.M{"userId": oid},
		options.Find().SetSort(bson.D{{Key: "requestedAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var docs []requestDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]*models.ReactivationRequest, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toReactivation())
	}
	return out, nil
}

// ListReactivationRequests возвращает страницу заявок с профилем заявителя
// и количество заявок по статусам.
func (s *Storage) ListReactivationRequests(ctx context.Context, f models.RequestFilter) ([]*models.ReactivationRequest, models.RequestCounts, error) {
	const op = "storage.ListReactivationRequests"
	docs, counts, err := s.listRequests(ctx, s.reactivations(), f)
	if err != nil {
		return nil, models.RequestCounts{}, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]*models.ReactivationRequest, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toReactivation())
	}
	return out, counts, nil
}

// ListVerificationRequests возвращает страницу заявок на верификацию и количество по статусам.
func (s *Storage) ListVerificationRequests(ctx context.Context, f models.RequestFilter) ([]*models.VerificationRequest, models.RequestCounts, error) {
	const op = "storage.ListVerificationRequests"
	docs, counts, err := s.listRequests(ctx, s.verifications(), f)
	if err != nil {
		return nil, models.RequestCounts{}, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]*models.VerificationRequest, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toVerification())
	}
	return out, counts, nil
}

func (s *Storage) listRequests(ctx context.Context, coll *mongo.Collection, f models.RequestFilter) ([]requestDoc, models.RequestCounts, error) {
	match := bson.M{}
	if f.Status != "" {
		match["status"] = f.Status
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "requestedAt", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$skip", Value: f.Page.Skip()}},
		{{Key: "$limit", Value: f.Page.Limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersCollection,
			"localField":   "userId",
			"foreignField": "_id",
			"as":           "requester",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$requester", "preserveNullAndEmptyArrays": true}}},
	}
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, models.RequestCounts{}, err
	}
	var docs []requestDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, models.RequestCounts{}, err
	}

	counts, err := countRequests(ctx, coll)
	if err != nil {
		return nil, models.RequestCounts{}, err
	}
	return docs, counts, nil
}

func countRequests(ctx context.Context, coll *mongo.Collection) (models.RequestCounts, error) {
	cursor, err := coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return models.RequestCounts{}, err
	}
	var groups []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return models.RequestCounts{}, err
	}

	var counts models.RequestCounts
	for _, g := range groups {
		switch g.Status {
		case models.RequestPending:
			counts.Pending = g.Count
		case models.RequestApproved:
			counts.Approved = g.Count
		case models.RequestRejected:
			counts.Rejected = g.Count
		}
		counts.Total += g.Count
	}
	return counts, nil
}

// ProcessReactivationRequest применяет решение по заявке на реактивацию.
func (s *Storage) ProcessReactivationRequest(ctx context.Context, d models.RequestDecision) (*models.ReactivationRequest, *models.User, error) {
	const op = "storage.ProcessReactivationRequest"
	doc, user, err := s.processRequest(ctx, s.reactivations(), d)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return doc.toReactivation(), user, nil
}

// ProcessVerificationRequest применяет решение по заявке на верификацию.
func (s *Storage) ProcessVerificationRequest(ctx context.Context, d models.RequestDecision) (*models.VerificationRequest, *models.User, error) {
	const op = "storage.ProcessVerificationRequest"
	doc, user, err := s.processRequest(ctx, s.verifications(), d)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return doc.toVerification(), user, nil
}

// processRequest единственная точка фиксации решения по заявке. Изменение заявки
// выполняется только из статуса pending, изменение пользователя, в той же транзакции.
func (s *Storage) processRequest(ctx context.Context, coll *mongo.Collection, d models.RequestDecision) (*requestDoc, *models.User, error) {
	requestID, err := objectID(d.RequestID)
	if err != nil {
		return nil, nil, err
	}
	adminID, err := objectID(d.AdminID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid admin id", models.ErrInvalidInput)
	}
	processedAt := d.ProcessedAt.UTC()

	var (
		reqDoc requestDoc
		user   *models.User
	)
	err = s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		set := bson.M{
			"status":      d.Status,
			"processedAt": processedAt,
			"adminId":     adminID,
			"adminNote":   d.AdminNote,
		}
		if d.SubscriptionType != "" {
			set["subscriptionType"] = d.SubscriptionType
		}
		err := coll.FindOneAndUpdate(sc,
			bson.M{"_id": requestID, "status": models.RequestPending},
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&reqDoc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			n, countErr := coll.CountDocuments(sc, bson.M{"_id": requestID})
			if countErr != nil {
				return countErr
			}
			if n == 0 {
				return models.ErrNotFound
			}
			return models.ErrAlreadyProcessed
		}
		if err != nil {
			return err
		}

		if d.UserPatch.IsEmpty() {
			return nil
		}
		var u userDoc
		err = s.users().FindOneAndUpdate(sc,
			bson.M{"_id": reqDoc.UserID},
			bson.M{"$set": patchSet(d.UserPatch, processedAt)},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&u)
		if err != nil {
			return mapErr(err)
		}
		user = u.toModel()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &reqDoc, user, nil
}

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

type messageDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	SenderID       primitive.ObjectID `bson:"senderId"`
	ReceiverID     primitive.ObjectID `bson:"receiverId"`
	ConversationID string             `bson:"conversationId"`
	Text           string             `bson:"text"`
	Read           bool               `bson:"read"`
	CreatedAt      time.Time          `bson:"createdAt"`
}

func (d *messageDoc) toModel() *models.Message {
	return &models.Message{
		ID:             d.ID.Hex(),
		SenderID:       d.SenderID.Hex(),
		ReceiverID:     d.ReceiverID.Hex(),
		ConversationID: d.ConversationID,
		Text:           d.Text,
		Read:           d.Read,
		CreatedAt:      d.CreatedAt,
	}
}

// CreateMessage сохраняет сообщение.
func (s *Storage) CreateMessage(ctx context.Context, m *models.Message) (*models.Message, error) {
	const op = "storage.CreateMessage"
	senderID, err := objectID(m.SenderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	receiverID, err := objectID(m.ReceiverID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	doc := messageDoc{
		SenderID:       senderID,
		ReceiverID:     receiverID,
		ConversationID: m.ConversationID,
		Text:           m.Text,
		CreatedAt:      time.Now().UTC(),
	}
	res, err := s.messages().InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toModel(), nil
}

// ListConversations возвращает диалоги пользователя: последнее сообщение,
// число непрочитанных и профиль собеседника. Новые диалоги первыми.
func (s *Storage) ListConversations(ctx context.Context, userID string) ([]*models.Conversation, error) {
	const op = "storage.ListConversations"
	uid, err := objectID(userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$or": bson.A{
			bson.M{"senderId": uid},
			bson.M{"receiverId": uid},
		}}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$group", Value: bson.M{
			"_id":         "$conversationId",
			"lastMessage": bson.M{"$first": "$$ROOT"},
			"unreadCount": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$and": bson.A{
					bson.M{"$eq": bson.A{"$receiverId", uid}},
					bson.M{"$eq": bson.A{"$read", false}},
				}},
				1,
				0,
			}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "lastMessage.createdAt", Value: -1}}}},
	}
	cursor, err := s.messages().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var groups []struct {
		ConversationID string     `bson:"_id"`
		LastMessage    messageDoc `bson:"lastMessage"`
		UnreadCount    int64      `bson:"unreadCount"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	otherIDs := make([]primitive.ObjectID, 0, len(groups))
	for _, g := range groups {
		other := g.LastMessage.SenderID
		if other == uid {
			other = g.LastMessage.ReceiverID
		}
		otherIDs = append(otherIDs, other)
	}
	profiles, err := s.publicProfiles(ctx, otherIDs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]*models.Conversation, 0, len(groups))
	for i := range groups {
		c := &models.Conversation{
			ConversationID: groups[i].ConversationID,
			LastMessage:    groups[i].LastMessage.toModel(),
			UnreadCount:    groups[i].UnreadCount,
		}
		if p, ok := profiles[otherIDs[i]]; ok {
			c.Participant = p
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Storage) publicProfiles(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.PublicProfile, error) {
	out := make(map[primitive.ObjectID]*models.PublicProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := s.users().Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	for i := range docs {
		p := docs[i].toModel().Public()
		out[docs[i].ID] = &p
	}
	return out, nil
}

// ListThread возвращает страницу сообщений диалога в хронологическом порядке.
// Первая страница содержит самые новые сообщения.
func (s *Storage) ListThread(ctx context.Context, conversationID string, page models.Page) ([]*models.Message, int64, error) {
	const op = "storage.ListThread"
	filter := bson.M{"conversationId": conversationID}
	total, err := s.messages().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	cursor, err := s.messages().Find(ctx, filter,
		skipLimit(page).SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	var docs []messageDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]*models.Message, len(docs))
	for i := range docs {
		out[len(docs)-1-i] = docs[i].toModel()
	}
	return out, total, nil
}

// MarkConversationRead отмечает прочитанными сообщения диалога, адресованные пользователю.
func (s *Storage) MarkConversationRead(ctx context.Context, conversationID, userID string) (int64, error) {
	const op = "storage.MarkConversationRead"
	uid, err := objectID(userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	res, err := s.messages().UpdateMany(ctx,
		bson.M{"conversationId": conversationID, "receiverId": uid, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return res.ModifiedCount, nil
}

// CountUnread возвращает число непрочитанных сообщений пользователя.
func (s *Storage) CountUnread(ctx context.Context, userID string) (int64, error) {
	const op = "storage.CountUnread"
	uid, err := objectID(userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := s.messages().CountDocuments(ctx, bson.M{"receiverId": uid, "read": false}, options.Count())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

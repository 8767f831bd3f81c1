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

type productDoc struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	Title             string             `bson:"title"`
	Description       string             `bson:"description"`
	Price             float64            `bson:"price"`
	Category          string             `bson:"category"`
	Type              string             `bson:"type"`
	SellerID          primitive.ObjectID `bson:"sellerId"`
	SellerName        string             `bson:"sellerName"`
	SellerCampus      string             `bson:"sellerCampus"`
	SellerWhatsApp    string             `bson:"sellerWhatsapp"`
	Status            string             `bson:"status"`
	Views             int64              `bson:"views"`
	WhatsAppRedirects int64              `bson:"whatsappRedirects"`
	CreatedAt         time.Time          `bson:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt"`
}

func (d *productDoc) toModel() *models.Product {
	return &models.Product{
		ID:                d.ID.Hex(),
		Title:             d.Title,
		Description:       d.Description,
		Price:             d.Price,
		Category:          d.Category,
		Type:              d.Type,
		SellerID:          hexOrEmpty(d.SellerID),
		SellerName:        d.SellerName,
		SellerCampus:      d.SellerCampus,
		SellerWhatsApp:    d.SellerWhatsApp,
		Status:            d.Status,
		Views:             d.Views,
		WhatsAppRedirects: d.WhatsAppRedirects,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// CreateProduct сохраняет товар.
func (s *Storage) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	const op = "storage.CreateProduct"
	sellerID, err := objectID(p.SellerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := time.Now().UTC()
	doc := productDoc{
		Title:          p.Title,
		Description:    p.Description,
		Price:          p.Price,
		Category:       p.Category,
		Type:           p.Type,
		SellerID:       sellerID,
		SellerName:     p.SellerName,
		SellerCampus:   p.SellerCampus,
		SellerWhatsApp: p.SellerWhatsApp,
		Status:         p.Status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if doc.Status == "" {
		doc.Status = models.ProductActive
	}
	res, err := s.products().InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toModel(), nil
}

// GetProduct возвращает товар независимо от его видимости.
func (s *Storage) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	const op = "storage.GetProduct"
	oid, err := objectID(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var doc productDoc
	if err := s.products().FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return doc.toModel(), nil
}

// GetVisibleProduct возвращает товар, только если он виден в публичной выдаче на момент now.
func (s *Storage) GetVisibleProduct(ctx context.Context, id string, now time.Time) (*models.Product, error) {
	const op = "storage.GetVisibleProduct"
	oid, err := objectID(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	products, _, err := s.aggregateProducts(ctx, bson.M{"_id": oid, "status": models.ProductActive}, true, now, models.NewPage(1, 1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return products[0], nil
}

// ListProducts возвращает страницу видимых товаров: активных и принадлежащих
// продавцам с действующей на момент now подпиской.
func (s *Storage) ListProducts(ctx context.Context, f models.ProductFilter, now time.Time) ([]*models.Product, int64, error) {
	const op = "storage.ListProducts"
	match := bson.M{"status": models.ProductActive}
	if f.Category != "" {
		match["category"] = f.Category
	}
	if f.Campus != "" {
		match["sellerCampus"] = f.Campus
	}
	if f.Search != "" {
		re := containsRegex(f.Search)
		match["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
		}
	}
	products, total, err := s.aggregateProducts(ctx, match, true, now, f.Page)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return products, total, nil
}

// ListSellerProducts возвращает товары продавца. При visibleOnly возвращаются
// только товары, видимые в публичной выдаче.
func (s *Storage) ListSellerProducts(ctx context.Context, sellerID string, visibleOnly bool, now time.Time, page models.Page) ([]*models.Product, int64, error) {
	const op = "storage.ListSellerProducts"
	oid, err := objectID(sellerID)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	match := bson.M{"sellerId": oid}
	if visibleOnly {
		match["status"] = models.ProductActive
	}
	products, total, err := s.aggregateProducts(ctx, match, visibleOnly, now, page)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return products, total, nil
}

// aggregateProducts выполняет выборку товаров с соединением по продавцу.
// Видимость вычисляется в момент запроса и нигде не хранится.
func (s *Storage) aggregateProducts(ctx context.Context, match bson.M, visibleOnly bool, now time.Time, page models.Page) ([]*models.Product, int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
	}
	if visibleOnly {
		pipeline = append(pipeline,
			bson.D{{Key: "$lookup", Value: bson.M{
				"from":         usersCollection,
				"localField":   "sellerId",
				"foreignField": "_id",
				"as":           "seller",
			}}},
			bson.D{{Key: "$unwind", Value: "$seller"}},
			bson.D{{Key: "$match", Value: bson.M{
				"seller.subscribed":          true,
				"seller.subscriptionEndDate": bson.M{"$gte": now},
			}}},
			bson.D{{Key: "$project", Value: bson.M{"seller": 0}}},
		)
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		bson.D{{Key: "$facet", Value: bson.M{
			"items": bson.A{
				bson.M{"$skip": page.Skip()},
				bson.M{"$limit": page.Limit},
			},
			"total": bson.A{
				bson.M{"$count": "count"},
			},
		}}},
	)

	cursor, err := s.products().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	var result []struct {
		Items []productDoc `bson:"items"`
		Total []struct {
			Count int64 `bson:"count"`
		} `bson:"total"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, 0, err
	}
	if len(result) == 0 {
		return []*models.Product{}, 0, nil
	}

	products := make([]*models.Product, 0, len(result[0].Items))
	for i := range result[0].Items {
		products = append(products, result[0].Items[i].toModel())
	}
	var total int64
	if len(result[0].Total) > 0 {
		total = result[0].Total[0].Count
	}
	return products, total, nil
}

// UpdateProduct заменяет редактируемые поля товара.
func (s *Storage) UpdateProduct(ctx context.Context, id string, in models.ProductInput) (*models.Product, error) {
	const op = "storage.UpdateProduct"
	set := bson.M{
		"title":       in.Title,
		"description": in.Description,
		"price":       in.Price,
		"category":    in.Category,
		"type":        in.Type,
	}
	p, err := s.updateProduct(ctx, id, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// SetProductStatus меняет статус товара.
func (s *Storage) SetProductStatus(ctx context.Context, id, status string) (*models.Product, error) {
	const op = "storage.SetProductStatus"
	p, err := s.updateProduct(ctx, id, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// IncrementProductCounter атомарно увеличивает счётчик товара.
func (s *Storage) IncrementProductCounter(ctx context.Context, id, counter string) (*models.Product, error) {
	const op = "storage.IncrementProductCounter"
	if counter != models.CounterViews && counter != models.CounterWhatsApp {
		return nil, fmt.Errorf("%s: %w: unknown counter %q", op, models.ErrInvalidInput, counter)
	}
	oid, err := objectID(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var doc productDoc
	err = s.products().FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$inc": bson.M{counter: 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return doc.toModel(), nil
}

// DeleteProduct удаляет товар.
func (s *Storage) DeleteProduct(ctx context.Context, id string) error {
	const op = "storage.DeleteProduct"
	oid, err := objectID(id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	res, err := s.products().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// RefreshSellerSnapshot обновляет снимок профиля продавца во всех его товарах.
func (s *Storage) RefreshSellerSnapshot(ctx context.Context, u *models.User) error {
	const op = "storage.RefreshSellerSnapshot"
	oid, err := objectID(u.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = s.products().UpdateMany(ctx,
		bson.M{"sellerId": oid},
		bson.M{"$set": bson.M{
			"sellerName":     u.Name,
			"sellerCampus":   u.Campus,
			"sellerWhatsapp": u.WhatsApp,
		}},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) updateProduct(ctx context.Context, id string, update bson.M) (*models.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	if set, ok := update["$set"].(bson.M); ok {
		set["updatedAt"] = time.Now().UTC()
	}
	var doc productDoc
	err = s.products().FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, mapErr(err)
	}
	return doc.toModel(), nil
}

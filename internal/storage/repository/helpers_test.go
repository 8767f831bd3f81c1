package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/campus-market/internal/config"
	"github.com/magabrotheeeer/campus-market/internal/migrations"
	"github.com/magabrotheeeer/campus-market/internal/models"
	"github.com/magabrotheeeer/campus-market/internal/storage/storagetest"
)

// setupTestStorage поднимает MongoDB, применяет миграции и возвращает хранилище
// на отдельной базе.
func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	ctx := context.Background()

	uri, cleanup := storagetest.MongoURI(ctx, t)
	t.Cleanup(cleanup)

	// ждём primary до подключения хранилища
	storagetest.Connect(ctx, t, uri)

	dbName := storagetest.DBName()
	s, err := New(ctx, config.Mongo{MongoURI: uri, DBName: dbName, ConnectTimeout: 30 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.DB.Drop(context.Background())
		_ = s.Close(context.Background())
	})

	require.NoError(t, migrations.Run(s.Client, dbName, storagetest.MigrationsSource(t)))
	return s
}

// testDataFactory создаёт тестовые документы.
type testDataFactory struct {
	t       *testing.T
	storage *Storage
	seq     int
}

func newTestDataFactory(t *testing.T, s *Storage) *testDataFactory {
	return &testDataFactory{t: t, storage: s}
}

func (f *testDataFactory) nextEmail() string {
	f.seq++
	return fmt.Sprintf("user%d-%d@campus.test", time.Now().UnixNano(), f.seq)
}

// buyer создаёт покупателя.
func (f *testDataFactory) buyer() *models.User {
	f.t.Helper()
	u, err := f.storage.CreateUser(context.Background(), &models.User{
		Name:         "Buyer",
		Email:        f.nextEmail(),
		PasswordHash: "hash",
		Type:         models.UserTypeBuyer,
		Campus:       "North",
		WhatsApp:     "+7 900 000-00-00",
	})
	require.NoError(f.t, err)
	return u
}

// seller создаёт продавца с подпиской, заканчивающейся в end.
func (f *testDataFactory) seller(end time.Time) *models.User {
	f.t.Helper()
	start := end.AddDate(0, 0, -30)
	u, err := f.storage.CreateUser(context.Background(), &models.User{
		Name:                  "Seller",
		Email:                 f.nextEmail(),
		PasswordHash:          "hash",
		Type:                  models.UserTypeSeller,
		Campus:                "North",
		WhatsApp:              "+7 900 111-11-11",
		Subscribed:            true,
		SubscriptionStatus:    models.SubscriptionActive,
		SubscriptionStartDate: &start,
		SubscriptionEndDate:   &end,
	})
	require.NoError(f.t, err)
	return u
}

// admin создаёт администратора.
func (f *testDataFactory) admin() *models.User {
	f.t.Helper()
	u, err := f.storage.CreateUser(context.Background(), &models.User{
		Name:         "Admin",
		Email:        f.nextEmail(),
		PasswordHash: "hash",
		Type:         models.UserTypeAdmin,
		Campus:       "Main",
	})
	require.NoError(f.t, err)
	return u
}

// product создаёт активный товар продавца.
func (f *testDataFactory) product(seller *models.User, title, category string) *models.Product {
	f.t.Helper()
	p, err := f.storage.CreateProduct(context.Background(), &models.Product{
		Title:          title,
		Description:    "description of " + title,
		Price:          100,
		Category:       category,
		SellerID:       seller.ID,
		SellerName:     seller.Name,
		SellerCampus:   seller.Campus,
		SellerWhatsApp: seller.WhatsApp,
	})
	require.NoError(f.t, err)
	return p
}

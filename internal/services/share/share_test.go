package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/campus-market/internal/cache"
	"github.com/magabrotheeeer/campus-market/internal/models"
)

type SourceMock struct {
	mock.Mock
}

func (m *SourceMock) GetVisibleProduct(ctx context.Context, id string, now time.Time) (*models.Product, error) {
	args := m.Called(ctx, id, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	return &cache.Cache{Db: redis.NewClient(&redis.Options{Addr: mr.Addr()})}, mr
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestShareService_ProductPage(t *testing.T) {
	c, mr := newTestCache(t)
	src := new(SourceMock)
	src.On("GetVisibleProduct", mock.Anything, "p1", fixedNow).Return(&models.Product{
		ID:          "p1",
		Title:       `Lamp <script>alert(1)</script>`,
		Description: "Warm light",
		Price:       1500,
	}, nil).Once()

	svc := NewShareService(src, c, "https://market.test/", newNoopLogger())
	svc.now = func() time.Time { return fixedNow }

	page, err := svc.ProductPage(context.Background(), "p1")
	require.NoError(t, err)
	assert.Contains(t, page, `property="og:description" content="Warm light"`)
	assert.Contains(t, page, `content="1500"`)
	assert.Contains(t, page, "https://market.test/?product=p1")
	assert.NotContains(t, page, "<script>alert(1)</script>")

	ttl := mr.TTL(cache.ProductPageKey("p1"))
	assert.Equal(t, PageTTL, ttl)

	again, err := svc.ProductPage(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, page, again)
	src.AssertNumberOfCalls(t, "GetVisibleProduct", 1)
}

func TestShareService_TruncatesDescription(t *testing.T) {
	c, _ := newTestCache(t)
	src := new(SourceMock)
	src.On("GetVisibleProduct", mock.Anything, "p1", mock.Anything).Return(&models.Product{
		ID:          "p1",
		Title:       "Book",
		Description: strings.Repeat("я", 500),
	}, nil).Once()

	page, err := NewShareService(src, c, "https://market.test", newNoopLogger()).ProductPage(context.Background(), "p1")
	require.NoError(t, err)
	assert.Contains(t, page, strings.Repeat("я", descriptionLimit)+"…")
	assert.NotContains(t, page, strings.Repeat("я", descriptionLimit+1))
}

func TestShareService_HiddenProduct(t *testing.T) {
	c, _ := newTestCache(t)
	src := new(SourceMock)
	src.On("GetVisibleProduct", mock.Anything, "p1", mock.Anything).Return(nil, models.ErrNotFound).Once()

	_, err := NewShareService(src, c, "https://market.test", newNoopLogger()).ProductPage(context.Background(), "p1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestShareService_CacheDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.SetError("redis down")
	src := new(SourceMock)
	src.On("GetVisibleProduct", mock.Anything, "p1", mock.Anything).Return(&models.Product{ID: "p1", Title: "Chair"}, nil).Once()

	page, err := NewShareService(src, c, "https://market.test", newNoopLogger()).ProductPage(context.Background(), "p1")
	require.NoError(t, err)
	assert.Contains(t, page, "Chair")
}

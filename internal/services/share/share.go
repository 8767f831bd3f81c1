// Package services рендерит страницы товаров для превью в мессенджерах:
// HTML с Open Graph разметкой, который сразу перенаправляет на фронтенд.
package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/campus-market/internal/cache"
	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
	"github.com/magabrotheeeer/campus-market/internal/models"
)

// PageTTL время жизни отрендеренной страницы в кэше.
const PageTTL = 10 * time.Minute

const descriptionLimit = 200

var pageTemplate = template.Must(template.New("product").Parse(`<!DOCTYPE html>
<html lang="ru">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta name="description" content="{{.Description}}">
<meta property="og:type" content="product">
<meta property="og:title" content="{{.Title}}">
<meta property="og:description" content="{{.Description}}">
<meta property="og:url" content="{{.URL}}">
<meta property="product:price:amount" content="{{.Price}}">
<meta property="product:price:currency" content="RUB">
<meta http-equiv="refresh" content="0; url={{.URL}}">
</head>
<body>
<p><a href="{{.URL}}">{{.Title}}</a></p>
<script>window.location.replace({{.URL}});</script>
</body>
</html>
`))

type pageData struct {
	Title       string
	Description string
	Price       string
	URL         string
}

// ProductSource возвращает товары, видимые в публичной выдаче.
type ProductSource interface {
	GetVisibleProduct(ctx context.Context, id string, now time.Time) (*models.Product, error)
}

// PageCache кэш отрендеренных страниц.
type PageCache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// ShareService рендерит и кэширует страницы товаров.
type ShareService struct {
	products    ProductSource
	cache       PageCache
	frontendURL string
	log         *slog.Logger
	now         func() time.Time
}

// NewShareService создает новый экземпляр ShareService.
func NewShareService(products ProductSource, c PageCache, frontendURL string, log *slog.Logger) *ShareService {
	return &ShareService{
		products:    products,
		cache:       c,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		log:         log,
		now:         time.Now,
	}
}

// RedirectURL возвращает адрес товара во фронтенде.
func (s *ShareService) RedirectURL(productID string) string {
	return s.frontendURL + "/?product=" + url.QueryEscape(productID)
}

// ProductPage возвращает HTML страницы товара. Ошибки кэша не мешают рендеру.
func (s *ShareService) ProductPage(ctx context.Context, productID string) (string, error) {
	const op = "services.ShareService.ProductPage"
	log := s.log.With(slog.String("op", op), slog.String("product_id", productID))
	key := cache.ProductPageKey(productID)

	var cached string
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Warn("failed to read page cache", sl.Err(err))
	}
	if found {
		return cached, nil
	}

	p, err := s.products.GetVisibleProduct(ctx, productID, s.now().UTC())
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	page, err := s.render(p)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, key, page, PageTTL); err != nil {
		log.Warn("failed to cache page", sl.Err(err))
	}
	return page, nil
}

func (s *ShareService) render(p *models.Product) (string, error) {
	desc := strings.TrimSpace(p.Description)
	if r := []rune(desc); len(r) > descriptionLimit {
		desc = string(r[:descriptionLimit]) + "…"
	}
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, pageData{
		Title:       p.Title,
		Description: desc,
		Price:       strconv.FormatFloat(p.Price, 'f', -1, 64),
		URL:         s.RedirectURL(p.ID),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

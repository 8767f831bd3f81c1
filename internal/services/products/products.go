// Package services реализует каталог товаров: публичную выдачу, создание
// и изменение товаров продавцами и переход в WhatsApp продавца.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/magabrotheeeer/campus-market/internal/cache"
	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
	"github.com/magabrotheeeer/campus-market/internal/models"
	"github.com/magabrotheeeer/campus-market/internal/policy"
)

// ProductRepository определяет методы хранилища товаров.
type ProductRepository interface {
	CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetVisibleProduct(ctx context.Context, id string, now time.Time) (*models.Product, error)
	ListProducts(ctx context.Context, f models.ProductFilter, now time.Time) ([]*models.Product, int64, error)
	ListSellerProducts(ctx context.Context, sellerID string, visibleOnly bool, now time.Time, page models.Page) ([]*models.Product, int64, error)
	UpdateProduct(ctx context.Context, id string, in models.ProductInput) (*models.Product, error)
	SetProductStatus(ctx context.Context, id, status string) (*models.Product, error)
	IncrementProductCounter(ctx context.Context, id, counter string) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// PageCache хранит отрендеренные страницы товаров.
type PageCache interface {
	Invalidate(ctx context.Context, key string) error
}

// ProductsService реализует операции с товарами.
type ProductsService struct {
	repo  ProductRepository
	pages PageCache
	log   *slog.Logger
	now   func() time.Time
}

// NewProductsService создает новый экземпляр ProductsService.
func NewProductsService(repo ProductRepository, pages PageCache, log *slog.Logger) *ProductsService {
	return &ProductsService{
		repo:  repo,
		pages: pages,
		log:   log,
		now:   time.Now,
	}
}

// List возвращает страницу видимых товаров.
func (s *ProductsService) List(ctx context.Context, f models.ProductFilter) (*models.ProductPage, error) {
	const op = "services.ProductsService.List"
	f.Search = strings.TrimSpace(f.Search)
	products, total, err := s.repo.ListProducts(ctx, f, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.ProductPage{
		Products:   products,
		Pagination: models.NewPagination(f.Page, total),
	}, nil
}

// Get возвращает видимый товар и учитывает просмотр.
func (s *ProductsService) Get(ctx context.Context, id string) (*models.Product, error) {
	const op = "services.ProductsService.Get"
	if _, err := s.repo.GetVisibleProduct(ctx, id, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p, err := s.repo.IncrementProductCounter(ctx, id, models.CounterViews)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// Create публикует товар от имени продавца, прошедшего проверку подписки.
// В товар записывается снимок профиля продавца.
func (s *ProductsService) Create(ctx context.Context, seller *models.User, in models.ProductInput) (*models.Product, error) {
	const op = "services.ProductsService.Create"
	p, err := s.repo.CreateProduct(ctx, &models.Product{
		Title:          strings.TrimSpace(in.Title),
		Description:    strings.TrimSpace(in.Description),
		Price:          in.Price,
		Category:       in.Category,
		Type:           in.Type,
		SellerID:       seller.ID,
		SellerName:     seller.Name,
		SellerCampus:   seller.Campus,
		SellerWhatsApp: seller.WhatsApp,
		Status:         models.ProductActive,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("product created", slog.String("op", op), slog.String("product_id", p.ID), slog.String("seller_id", seller.ID))
	return p, nil
}

// owned загружает товар и проверяет, что вызывающий, его владелец или администратор.
func (s *ProductsService) owned(ctx context.Context, caller models.Caller, id string) (*models.Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanActOn(p.SellerID, caller.ID, caller.Type) {
		return nil, models.ErrForbidden
	}
	return p, nil
}

// Update изменяет товар.
func (s *ProductsService) Update(ctx context.Context, caller models.Caller, id string, in models.ProductInput) (*models.Product, error) {
	const op = "services.ProductsService.Update"
	if _, err := s.owned(ctx, caller, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	p, err := s.repo.UpdateProduct(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidatePage(ctx, id)
	return p, nil
}

// SetStatus меняет статус товара: снятие с публикации или отметка о продаже.
func (s *ProductsService) SetStatus(ctx context.Context, caller models.Caller, id, status string) (*models.Product, error) {
	const op = "services.ProductsService.SetStatus"
	if _, err := s.owned(ctx, caller, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p, err := s.repo.SetProductStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidatePage(ctx, id)
	return p, nil
}

// Delete удаляет товар.
func (s *ProductsService) Delete(ctx context.Context, caller models.Caller, id string) error {
	const op = "services.ProductsService.Delete"
	if _, err := s.owned(ctx, caller, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidatePage(ctx, id)
	s.log.Info("product deleted", slog.String("op", op), slog.String("product_id", id), slog.String("by", caller.ID))
	return nil
}

func (s *ProductsService) invalidatePage(ctx context.Context, id string) {
	if err := s.pages.Invalidate(ctx, cache.ProductPageKey(id)); err != nil {
		s.log.Warn("failed to invalidate product page", slog.String("product_id", id), sl.Err(err))
	}
}

// WhatsApp учитывает переход к продавцу и возвращает ссылку wa.me с текстом о товаре.
func (s *ProductsService) WhatsApp(ctx context.Context, id string) (string, error) {
	const op = "services.ProductsService.WhatsApp"
	p, err := s.repo.GetVisibleProduct(ctx, id, s.now().UTC())
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	link, ok := WhatsAppURL(p.SellerWhatsApp, fmt.Sprintf("Здравствуйте! Меня интересует «%s».", p.Title))
	if !ok {
		return "", fmt.Errorf("%s: %w: seller has no whatsapp number", op, models.ErrNotFound)
	}
	if _, err := s.repo.IncrementProductCounter(ctx, id, models.CounterWhatsApp); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return link, nil
}

// WhatsAppURL собирает ссылку https://wa.me/<цифры номера>?text=<текст>.
func WhatsAppURL(phone, text string) (string, bool) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if digits == "" {
		return "", false
	}
	link := "https://wa.me/" + digits
	if text != "" {
		link += "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	}
	return link, true
}

// SellerProducts возвращает товары продавца. Владелец и администратор видят все
// товары, остальные, только видимые в публичной выдаче.
func (s *ProductsService) SellerProducts(ctx context.Context, caller models.Caller, sellerID string, page models.Page) (*models.ProductPage, error) {
	const op = "services.ProductsService.SellerProducts"
	visibleOnly := !policy.CanActOn(sellerID, caller.ID, caller.Type)
	products, total, err := s.repo.ListSellerProducts(ctx, sellerID, visibleOnly, s.now().UTC(), page)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.ProductPage{
		Products:   products,
		Pagination: models.NewPagination(page, total),
	}, nil
}

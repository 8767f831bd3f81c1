package models

import "time"

// Статусы товара.
const (
	ProductActive   = "active"
	ProductInactive = "inactive"
	ProductSold     = "sold"
)

// Счётчики товара, совпадают с именами полей документа.
const (
	CounterViews    = "views"
	CounterWhatsApp = "whatsappRedirects"
)

// Product объявление продавца.
// Поля SellerName, SellerCampus и SellerWhatsApp, снимок профиля продавца на момент публикации.
type Product struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Price             float64   `json:"price"`
	Category          string    `json:"category"`
	Type              string    `json:"type"`
	SellerID          string    `json:"sellerId"`
	SellerName        string    `json:"sellerName"`
	SellerCampus      string    `json:"sellerCampus"`
	SellerWhatsApp    string    `json:"sellerWhatsapp"`
	Status            string    `json:"status"`
	Views             int64     `json:"views"`
	WhatsAppRedirects int64     `json:"whatsappRedirects"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ProductInput данные товара из JSON-запроса на создание или изменение.
type ProductInput struct {
	Title       string  `json:"title" validate:"required,min=3,max=120"`
	Description string  `json:"description" validate:"required,max=2000"`
	Price       float64 `json:"price" validate:"gte=0"`
	Category    string  `json:"category" validate:"required"`
	Type        string  `json:"type" validate:"omitempty,max=40"`
}

// ProductStatusInput смена статуса товара (мягкое удаление или отметка о продаже).
type ProductStatusInput struct {
	Status string `json:"status" validate:"required,oneof=active inactive sold"`
}

// ProductFilter параметры публичной выдачи товаров.
type ProductFilter struct {
	Category string
	Campus   string
	Search   string
	Page     Page
}

// ProductPage страница выдачи товаров.
type ProductPage struct {
	Products   []*Product `json:"products"`
	Pagination Pagination `json:"pagination"`
}

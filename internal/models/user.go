// Package models содержит доменные структуры маркетплейса: пользователей,
// товары, заявки на реактивацию и верификацию, сообщения и уведомления.
// Структуры используются в бизнес‑логике, хранилище и HTTP‑слое.
package models

import "time"

// Типы пользователей.
const (
	UserTypeBuyer    = "buyer"    // Покупатель
	UserTypeCustomer = "customer" // Бывший продавец, у которого истекла подписка
	UserTypeSeller   = "seller"   // Продавец с подпиской
	UserTypeAdmin    = "admin"    // Администратор
)

// Статусы подписки продавца.
const (
	SubscriptionActive  = "active"
	SubscriptionExpired = "expired"
)

// Типы подписки.
const (
	SubscriptionMonthly = "monthly"
	SubscriptionYearly  = "yearly"
)

// User представляет зарегистрированного пользователя маркетплейса.
type User struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	Email                 string     `json:"email"`
	PasswordHash          string     `json:"-"`
	Type                  string     `json:"type"`
	Campus                string     `json:"campus"`
	WhatsApp              string     `json:"whatsapp"`
	Subscribed            bool       `json:"subscribed"`
	SubscriptionStatus    string     `json:"subscriptionStatus,omitempty"`
	SubscriptionStartDate *time.Time `json:"subscriptionStartDate,omitempty"`
	SubscriptionEndDate   *time.Time `json:"subscriptionEndDate,omitempty"`
	Verified              bool       `json:"verified"`
	VerifiedAt            *time.Time `json:"verifiedAt,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// PublicProfile безопасный для выдачи другим пользователям срез профиля.
type PublicProfile struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Campus     string     `json:"campus"`
	WhatsApp   string     `json:"whatsapp,omitempty"`
	Subscribed bool       `json:"subscribed"`
	Verified   bool       `json:"verified"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
}

// Public возвращает публичный профиль пользователя.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:         u.ID,
		Name:       u.Name,
		Type:       u.Type,
		Campus:     u.Campus,
		WhatsApp:   u.WhatsApp,
		Subscribed: u.Subscribed,
		Verified:   u.Verified,
		VerifiedAt: u.VerifiedAt,
	}
}

// UserPatch описывает частичное изменение документа пользователя.
// nil-поля не изменяются.
type UserPatch struct {
	Name                  *string
	Campus                *string
	WhatsApp              *string
	Type                  *string
	Subscribed            *bool
	SubscriptionStatus    *string
	SubscriptionStartDate *time.Time
	SubscriptionEndDate   *time.Time
	Verified              *bool
	VerifiedAt            *time.Time
}

// IsEmpty сообщает, что патч ничего не меняет.
func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Campus == nil && p.WhatsApp == nil && p.Type == nil &&
		p.Subscribed == nil && p.SubscriptionStatus == nil && p.SubscriptionStartDate == nil &&
		p.SubscriptionEndDate == nil && p.Verified == nil && p.VerifiedAt == nil
}

// Apply применяет патч к копии пользователя в памяти.
func (p UserPatch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Campus != nil {
		u.Campus = *p.Campus
	}
	if p.WhatsApp != nil {
		u.WhatsApp = *p.WhatsApp
	}
	if p.Type != nil {
		u.Type = *p.Type
	}
	if p.Subscribed != nil {
		u.Subscribed = *p.Subscribed
	}
	if p.SubscriptionStatus != nil {
		u.SubscriptionStatus = *p.SubscriptionStatus
	}
	if p.SubscriptionStartDate != nil {
		t := *p.SubscriptionStartDate
		u.SubscriptionStartDate = &t
	}
	if p.SubscriptionEndDate != nil {
		t := *p.SubscriptionEndDate
		u.SubscriptionEndDate = &t
	}
	if p.Verified != nil {
		u.Verified = *p.Verified
	}
	if p.VerifiedAt != nil {
		t := *p.VerifiedAt
		u.VerifiedAt = &t
	}
	return u
}

// Caller аутентифицированный пользователь текущего запроса, восстановленный из токена.
type Caller struct {
	ID    string
	Email string
	Type  string
}

// IsAdmin сообщает, что запрос выполняет администратор.
func (c Caller) IsAdmin() bool {
	return c.Type == UserTypeAdmin
}

// LoginRequest данные входа из JSON-запроса.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult ответ на регистрацию и вход.
type AuthResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// UpgradeRequest тело запроса на оформление подписки.
type UpgradeRequest struct {
	SubscriptionType string `json:"subscriptionType" validate:"omitempty,oneof=monthly yearly"`
}

// RegisterRequest данные регистрации из JSON-запроса.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Campus   string `json:"campus" validate:"required"`
	WhatsApp string `json:"whatsapp" validate:"required,min=7,max=20"`
	Type     string `json:"type,omitempty" validate:"omitempty,oneof=buyer seller"`
}

// AdminUserUpdate изменения профиля пользователя, вносимые администратором.
type AdminUserUpdate struct {
	Name                *string    `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Campus              *string    `json:"campus,omitempty"`
	WhatsApp            *string    `json:"whatsapp,omitempty" validate:"omitempty,min=7,max=20"`
	Type                *string    `json:"type,omitempty" validate:"omitempty,oneof=buyer customer seller admin"`
	Verified            *bool      `json:"verified,omitempty"`
	Subscribed          *bool      `json:"subscribed,omitempty"`
	SubscriptionEndDate *time.Time `json:"subscriptionEndDate,omitempty"`
}

// UserFilter параметры выборки пользователей для администратора.
type UserFilter struct {
	Type string
	Page Page
}

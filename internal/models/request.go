package models

import "time"

// Статусы заявок на реактивацию и верификацию.
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

// Действия администратора над заявкой.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// ReactivationRequest заявка пользователя на восстановление статуса продавца.
type ReactivationRequest struct {
	ID               string         `json:"id"`
	UserID           string         `json:"userId"`
	Note             string         `json:"note,omitempty"`
	Status           string         `json:"status"`
	SubscriptionType string         `json:"subscriptionType,omitempty"`
	RequestedAt      time.Time      `json:"requestedAt"`
	ProcessedAt      *time.Time     `json:"processedAt,omitempty"`
	AdminID          string         `json:"adminId,omitempty"`
	AdminNote        string         `json:"adminNote,omitempty"`
	Requester        *PublicProfile `json:"requester,omitempty"`
}

// VerificationRequest заявка продавца на подтверждение личности по фото.
type VerificationRequest struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	ImageID     string         `json:"imageId"`
	Status      string         `json:"status"`
	RequestedAt time.Time      `json:"requestedAt"`
	ProcessedAt *time.Time     `json:"processedAt,omitempty"`
	AdminID     string         `json:"adminId,omitempty"`
	AdminNote   string         `json:"adminNote,omitempty"`
	Requester   *PublicProfile `json:"requester,omitempty"`
}

// RequestCounts количество заявок по статусам.
type RequestCounts struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Total    int64 `json:"total"`
}

// RequestFilter фильтр выборки заявок для администратора.
type RequestFilter struct {
	Status string
	Page   Page
}

// ReactivationInput тело запроса на создание заявки на реактивацию.
type ReactivationInput struct {
	Note string `json:"note" validate:"max=1000"`
}

// ProcessInput решение администратора по заявке.
type ProcessInput struct {
	Action           string `json:"action" validate:"required,oneof=approve reject"`
	AdminNote        string `json:"adminNote" validate:"max=1000"`
	SubscriptionType string `json:"subscriptionType,omitempty" validate:"omitempty,oneof=monthly yearly"`
}

// RequestDecision итоговое решение по заявке, применяемое хранилищем атомарно
// вместе с изменением пользователя.
type RequestDecision struct {
	RequestID   string
	UserID      string
	AdminID     string
	Status      string
	AdminNote   string
	ProcessedAt time.Time
	// SubscriptionType сохраняется только для заявок на реактивацию.
	SubscriptionType string
	// UserPatch применяется к пользователю в той же транзакции; пустой патч пропускается.
	UserPatch UserPatch
}

package models

import "time"

// Виды уведомлений.
const (
	NotificationSubscriptionExpired  = "subscription.expired"
	NotificationSubscriptionExpiring = "subscription.expiring"
	NotificationRequestProcessed     = "request.processed"
)

// Виды заявок в уведомлениях и метриках.
const (
	RequestKindReactivation = "reactivation"
	RequestKindVerification = "verification"
)

// Notification сообщение, публикуемое в очередь уведомлений и отправляемое пользователю по почте.
type Notification struct {
	Kind        string     `json:"kind"`
	UserID      string     `json:"user_id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	RequestKind string     `json:"request_kind,omitempty"`
	Status      string     `json:"status,omitempty"`
	AdminNote   string     `json:"admin_note,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

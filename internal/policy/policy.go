// Package policy собирает в одном месте правила доступа маркетплейса:
// проверку подписки продавца, переходы заявок на реактивацию и верификацию
// и предикаты владения. Все функции чистые и не обращаются к хранилищу.
package policy

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/magabrotheeeer/campus-market/internal/models"
)

// Длительность окна подписки по её типу.
const (
	MonthlyPeriod = 30 * 24 * time.Hour
	YearlyPeriod  = 365 * 24 * time.Hour
)

// Decision результат проверки подписки.
type Decision int

const (
	// Allow доступ разрешён.
	Allow Decision = iota
	// Required у пользователя никогда не было подписки продавца.
	Required
	// Expired подписка была, но больше не действует.
	Expired
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Required:
		return "required"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// IsAdmin сообщает, является ли тип пользователя администраторским.
func IsAdmin(userType string) bool {
	return userType == models.UserTypeAdmin
}

// IsOwner сравнивает владельца ресурса с вызывающим пользователем.
func IsOwner(ownerID, callerID string) bool {
	return ownerID != "" && ownerID == callerID
}

// CanActOn разрешает действие владельцу ресурса или администратору.
func CanActOn(ownerID, callerID, callerType string) bool {
	return IsAdmin(callerType) || IsOwner(ownerID, callerID)
}

// HasActiveSubscription сообщает, действует ли подписка продавца на момент now.
func HasActiveSubscription(u *models.User, now time.Time) bool {
	if u == nil || u.Type != models.UserTypeSeller || !u.Subscribed || u.SubscriptionEndDate == nil {
		return false
	}
	return !now.After(*u.SubscriptionEndDate)
}

// CheckSubscription решает, может ли пользователь выполнить действие,
// требующее активной подписки продавца.
func CheckSubscription(u *models.User, now time.Time) Decision {
	if u == nil {
		return Required
	}
	switch u.Type {
	case models.UserTypeAdmin:
		return Allow
	case models.UserTypeSeller:
		if HasActiveSubscription(u, now) {
			return Allow
		}
		if u.SubscriptionEndDate == nil {
			return Required
		}
		return Expired
	case models.UserTypeCustomer:
		return Expired
	default:
		return Required
	}
}

// NeedsDemotion сообщает, что продавца нужно перевести в покупатели:
// подписка истекла, а документ всё ещё помечен как seller.
func NeedsDemotion(u *models.User, now time.Time) bool {
	return u != nil && u.Type == models.UserTypeSeller && CheckSubscription(u, now) == Expired
}

// Demotion возвращает изменения пользователя при истечении подписки.
func Demotion() models.UserPatch {
	subscribed := false
	userType := models.UserTypeCustomer
	status := models.SubscriptionExpired
	return models.UserPatch{
		Subscribed:         &subscribed,
		Type:               &userType,
		SubscriptionStatus: &status,
	}
}

// SubscriptionWindow вычисляет окно подписки, начинающееся в now.
func SubscriptionWindow(kind string, now time.Time) (time.Time, time.Time, error) {
	switch kind {
	case models.SubscriptionMonthly, "":
		return now, now.Add(MonthlyPeriod), nil
	case models.SubscriptionYearly:
		return now, now.Add(YearlyPeriod), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: unknown subscription type %q", models.ErrInvalidInput, kind)
	}
}

// ApplyApproval возвращает изменения пользователя при одобрении подписки
// (одобрение реактивации или апгрейд).
func ApplyApproval(kind string, now time.Time) (models.UserPatch, error) {
	start, end, err := SubscriptionWindow(kind, now)
	if err != nil {
		return models.UserPatch{}, err
	}
	subscribed := true
	userType := models.UserTypeSeller
	status := models.SubscriptionActive
	return models.UserPatch{
		Type:                  &userType,
		Subscribed:            &subscribed,
		SubscriptionStatus:    &status,
		SubscriptionStartDate: &start,
		SubscriptionEndDate:   &end,
	}, nil
}

// ApplyVerification возвращает изменения пользователя при одобрении верификации.
func ApplyVerification(now time.Time) models.UserPatch {
	verified := true
	return models.UserPatch{
		Verified:   &verified,
		VerifiedAt: &now,
	}
}

// CanProcessRequest разрешает обработку только заявок в статусе pending.
// Конечные статусы неизменяемы.
func CanProcessRequest(status string) error {
	if status != models.RequestPending {
		return models.ErrAlreadyProcessed
	}
	return nil
}

// DecisionStatus переводит действие администратора в итоговый статус заявки.
func DecisionStatus(action string) (string, error) {
	switch action {
	case models.ActionApprove:
		return models.RequestApproved, nil
	case models.ActionReject:
		return models.RequestRejected, nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", models.ErrInvalidInput, action)
	}
}

// CanRequestReactivation запрещает заявку при действующей подписке.
func CanRequestReactivation(u *models.User, now time.Time) error {
	if HasActiveSubscription(u, now) {
		return models.ErrActiveSubscription
	}
	return nil
}

// CanRequestVerification запрещает повторную верификацию и заявки не от продавцов.
func CanRequestVerification(u *models.User) error {
	if u.Verified {
		return models.ErrAlreadyVerified
	}
	if u.Type != models.UserTypeSeller && u.Type != models.UserTypeCustomer && !IsAdmin(u.Type) {
		return fmt.Errorf("%w: only sellers can be verified", models.ErrForbidden)
	}
	return nil
}

// CanUpgrade разрешает самостоятельный апгрейд только пользователю, у которого
// подписки ещё не было. Администратор может выдать подписку всегда.
func CanUpgrade(subject *models.User, callerIsAdmin bool, now time.Time) error {
	if callerIsAdmin {
		return nil
	}
	if HasActiveSubscription(subject, now) {
		return models.ErrActiveSubscription
	}
	if subject.SubscriptionEndDate != nil {
		return models.ErrUpgradeUnavailable
	}
	return nil
}

// ConversationID строит идентификатор диалога из пары пользователей.
func ConversationID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return ids[0] + "_" + ids[1]
}

// Participants разбирает идентификатор диалога обратно на пару пользователей.
func Participants(conversationID string) (string, string, bool) {
	a, b, ok := strings.Cut(conversationID, "_")
	if !ok || a == "" || b == "" {
		return "", "", false
	}
	return a, b, true
}

// IsParticipant сообщает, участвует ли пользователь в диалоге.
func IsParticipant(conversationID, userID string) bool {
	a, b, ok := Participants(conversationID)
	return ok && (a == userID || b == userID)
}

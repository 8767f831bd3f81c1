package models

import (
	"errors"
	"fmt"
)

// Доменные ошибки. Сервисы оборачивают их через fmt.Errorf("%s: %w", op, err),
// HTTP-слой сопоставляет их со статусами и кодами ответа.
var (
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidInput         = errors.New("invalid input")
	ErrSubscriptionRequired = errors.New("active subscription required")
	ErrSubscriptionExpired  = errors.New("subscription expired")
	ErrTokenInvalid         = errors.New("invalid or expired token")
	ErrPayloadTooLarge      = errors.New("payload too large")
)

// Частные случаи конфликта: errors.Is(err, ErrConflict) для них истинно.
var (
	ErrAlreadyProcessed   = fmt.Errorf("%w: request already processed", ErrConflict)
	ErrPendingExists      = fmt.Errorf("%w: pending request already exists", ErrConflict)
	ErrActiveSubscription = fmt.Errorf("%w: subscription is already active", ErrConflict)
	ErrAlreadyVerified    = fmt.Errorf("%w: user is already verified", ErrConflict)
	ErrEmailTaken         = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrUpgradeUnavailable = fmt.Errorf("%w: subscription was used before, send a reactivation request", ErrConflict)
)

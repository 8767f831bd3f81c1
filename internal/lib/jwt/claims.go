// Package jwt реализует выпуск и проверку JWT токенов маркетплейса.
//
// Maker определяет интерфейс для создания и проверки токенов. MakerImpl
// реализует его на HS256 с секретным ключом и временем жизни токена.
package jwt

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	// GenerateToken выпускает токен для пользователя с указанными id, email и типом.
	GenerateToken(userID, email, userType string) (string, error)
	// ParseToken проверяет подпись и срок действия и возвращает claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни токена.
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}

// TTL возвращает время жизни выпускаемых токенов.
func (j *MakerImpl) TTL() time.Duration {
	return j.tokenTTL
}

// ParseTTL разбирает время жизни токена в форматах time.ParseDuration
// и дополнительно в днях ("7d").
func ParseTTL(s string) (time.Duration, error) {
	const op = "jwt.ParseTTL"
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("%s: invalid duration %q", op, s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: non-positive duration %q", op, s)
	}
	return d, nil
}

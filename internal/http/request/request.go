// Package request содержит разбор общих параметров HTTP-запросов:
// JSON-тела, пагинации и фильтра по статусу заявок.
package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/magabrotheeeer/campus-market/internal/models"
)

// ErrEmptyBody возвращается DecodeJSON, когда тело запроса пустое.
var ErrEmptyBody = errors.New("empty request body")

// DecodeJSON декодирует JSON-тело запроса в dst.
// Неизвестные поля игнорируются, как и у render.DecodeJSON.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}
	return nil
}

// DecodeOptionalJSON ведёт себя как DecodeJSON, но допускает пустое тело.
func DecodeOptionalJSON(r *http.Request, dst any) error {
	if err := DecodeJSON(r, dst); err != nil && !errors.Is(err, ErrEmptyBody) {
		return err
	}
	return nil
}

// Page читает page и limit из строки запроса. Некорректные значения заменяются значениями по умолчанию.
func Page(r *http.Request) models.Page {
	number, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return models.NewPage(number, limit)
}

// RequestFilter читает фильтр заявок: status (pending, approved, rejected или пусто) и пагинацию.
func RequestFilter(r *http.Request) (models.RequestFilter, error) {
	status := r.URL.Query().Get("status")
	switch status {
	case "", models.RequestPending, models.RequestApproved, models.RequestRejected:
	default:
		return models.RequestFilter{}, fmt.Errorf("%w: unknown status %q", models.ErrInvalidInput, status)
	}
	return models.RequestFilter{Status: status, Page: Page(r)}, nil
}

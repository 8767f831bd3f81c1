// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Пакет упрощает возврат
// успешных ответов, ошибок и сообщений валидации в едином формате.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/campus-market/internal/models"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status, статус запроса ("OK" или "Error").
// Поле Data, данные ответа.
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse тело ответа с ошибкой. Code, стабильный машинно-читаемый код.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
	Code   string `json:"code" example:"VALIDATION_ERROR"`
}

const (
	// StatusOK значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// Коды ошибок API.
const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeTokenRequired        = "TOKEN_REQUIRED"
	CodeTokenInvalid         = "TOKEN_INVALID"
	CodeForbidden            = "FORBIDDEN"
	CodeSubscriptionRequired = "SUBSCRIPTION_REQUIRED"
	CodeSubscriptionExpired  = "SUBSCRIPTION_EXPIRED"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodePayloadTooLarge      = "PAYLOAD_TOO_LARGE"
	CodeRateLimited          = "RATE_LIMITED"
	CodeInternal             = "INTERNAL_ERROR"
)

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает ErrorResponse с кодом и сообщением.
func Error(code, msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
		Code:   code,
	}
}

type mapping struct {
	target error
	status int
	code   string
	msg    string
}

// Порядок важен: частные случаи раньше общих.
var mappings = []mapping{
	{models.ErrInvalidCredentials, http.StatusBadRequest, CodeInvalidCredentials, "invalid email or password"},
	{models.ErrInvalidInput, http.StatusBadRequest, CodeValidation, ""},
	{models.ErrTokenInvalid, http.StatusForbidden, CodeTokenInvalid, "invalid or expired token"},
	{models.ErrSubscriptionExpired, http.StatusForbidden, CodeSubscriptionExpired, "seller subscription has expired"},
	{models.ErrSubscriptionRequired, http.StatusForbidden, CodeSubscriptionRequired, "active seller subscription required"},
	{models.ErrForbidden, http.StatusForbidden, CodeForbidden, "access denied"},
	{models.ErrNotFound, http.StatusNotFound, CodeNotFound, "resource not found"},
	{models.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "file is too large"},
}

var conflicts = []error{
	models.ErrAlreadyProcessed,
	models.ErrPendingExists,
	models.ErrActiveSubscription,
	models.ErrAlreadyVerified,
	models.ErrEmailTaken,
	models.ErrUpgradeUnavailable,
}

// FromError сопоставляет доменную ошибку HTTP-статусу и телу ответа.
// Текст внутренних ошибок клиенту не передаётся.
func FromError(err error) (int, ErrorResponse) {
	for _, c := range conflicts {
		if errors.Is(err, c) {
			return http.StatusConflict, Error(CodeConflict, strings.TrimPrefix(c.Error(), models.ErrConflict.Error()+": "))
		}
	}
	if errors.Is(err, models.ErrConflict) {
		return http.StatusConflict, Error(CodeConflict, "conflict")
	}
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			msg := m.msg
			if msg == "" {
				msg = detail(err, m.target)
			}
			return m.status, Error(m.code, msg)
		}
	}
	return http.StatusInternalServerError, Error(CodeInternal, "internal server error")
}

// detail возвращает пояснение, добавленное к ErrInvalidInput, без префиксов op.
func detail(err, target error) string {
	s := err.Error()
	if i := strings.LastIndex(s, target.Error()); i >= 0 {
		s = strings.TrimPrefix(s[i+len(target.Error()):], ": ")
	}
	if s == "" {
		return target.Error()
	}
	return s
}

// RenderError пишет ответ с ошибкой, соответствующей err.
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := FromError(err)
	Fail(w, r, status, body)
}

// Fail пишет ответ с ошибкой и указанным статусом.
func Fail(w http.ResponseWriter, r *http.Request, status int, body ErrorResponse) {
	render.Status(r, status)
	render.JSON(w, r, body)
}

// OK пишет успешный ответ с указанным статусом.
func OK(w http.ResponseWriter, r *http.Request, status int, data any) {
	render.Status(r, status)
	render.JSON(w, r, StatusOKWithData(data))
}

// ValidationError формирует ErrorResponse на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min", "max", "len":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must satisfy %s=%s", err.Field(), err.ActualTag(), err.Param()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of [%s]", err.Field(), err.Param()))
		case "hexadecimal":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid id", err.Field()))
		case "gte":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}
	return Error(CodeValidation, strings.Join(errsMsgs, ", "))
}

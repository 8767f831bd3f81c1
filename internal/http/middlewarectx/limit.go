package middlewarectx

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/campus-market/internal/http/response"
	"github.com/magabrotheeeer/campus-market/internal/lib/ratelimit"
)

// RateLimitRecorder учитывает отклонённые запросы.
type RateLimitRecorder interface {
	IncRateLimited(scope string)
}

// RateLimitMiddleware ограничивает частоту запросов. Ключ, IP клиента, а для
// аутентифицированных запросов, IP и идентификатор пользователя.
// scope различает лимиты разных групп маршрутов.
func RateLimitMiddleware(limiter ratelimit.Limiter, scope string, metrics RateLimitRecorder, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := scope + ":" + clientIP(r)
			if caller, ok := CallerFrom(r.Context()); ok {
				key += ":" + caller.ID
			}
			if !limiter.TryAcquire(r.Context(), key) {
				log.Warn("too many requests",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("key", key))
				metrics.IncRateLimited(scope)
				response.Fail(w, r, http.StatusTooManyRequests,
					response.Error(response.CodeRateLimited, "too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP возвращает IP из RemoteAddr. middleware.RealIP, если включён, уже
// подставил туда X-Forwarded-For.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

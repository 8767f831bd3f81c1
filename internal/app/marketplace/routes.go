// Package marketplace собирает HTTP-приложение маркетплейса: маршруты, сервисы и сервер.
package marketplace

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/campus-market/internal/http/handlers/admin/userlist"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/admin/userremove"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/admin/userupdate"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/health"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/messages/conversationlist"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/messages/conversationthread"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/messages/messagesend"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/messages/unreadcount"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/products/productcreate"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/products/productget"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/products/productlist"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/products/productremove"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/products/productstatus"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/products/productupdate"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/products/productwhatsapp"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/reactivation/reactivationcreate"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/reactivation/reactivationlist"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/reactivation/reactivationown"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/reactivation/reactivationprocess"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/share/sharepage"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/users/me"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/users/profile"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/users/upgrade"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/users/userproducts"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/verification/verificationcreate"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/verification/verificationimage"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/verification/verificationlist"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/verification/verificationprocess"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/verification/verificationstatus"
	"github.com/magabrotheeeer/campus-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/campus-market/internal/lib/ratelimit"
	"github.com/magabrotheeeer/campus-market/internal/metrics"
	authservice "github.com/magabrotheeeer/campus-market/internal/services/auth"
	messagesservice "github.com/magabrotheeeer/campus-market/internal/services/messages"
	productsservice "github.com/magabrotheeeer/campus-market/internal/services/products"
	reactivationservice "github.com/magabrotheeeer/campus-market/internal/services/reactivation"
	shareservice "github.com/magabrotheeeer/campus-market/internal/services/share"
	subscriptionservice "github.com/magabrotheeeer/campus-market/internal/services/subscription"
	usersservice "github.com/magabrotheeeer/campus-market/internal/services/users"
	verificationservice "github.com/magabrotheeeer/campus-market/internal/services/verification"
)

// Области ограничения частоты запросов.
const (
	scopeAuth     = "auth"
	scopeMessages = "messages"
)

// Services сервисы, которые обслуживают маршруты.
type Services struct {
	Auth         *authservice.AuthService
	Subscription *subscriptionservice.SubscriptionService
	Users        *usersservice.UsersService
	Products     *productsservice.ProductsService
	Reactivation *reactivationservice.ReactivationService
	Verification *verificationservice.VerificationService
	Messages     *messagesservice.MessagesService
	Share        *shareservice.ShareService
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(
	r chi.Router,
	logger *slog.Logger,
	s Services,
	limiter ratelimit.Limiter,
	m *metrics.Metrics,
	checks map[string]health.Pinger,
) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		middlewarectx.Metrics(m),
	)

	requireAuth := middlewarectx.JWTMiddleware(s.Auth, logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RateLimitMiddleware(limiter, scopeAuth, m, logger))
				r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
				r.Post("/login", login.New(logger, s.Auth).ServeHTTP)
			})
			r.With(requireAuth).Post("/logout", logout.New(logger, s.Auth).ServeHTTP)
		})

		// Открытые конечные точки
		r.Get("/products", productlist.New(logger, s.Products).ServeHTTP)
		r.Get("/products/{id}", productget.New(logger, s.Products).ServeHTTP)
		r.Post("/products/{id}/whatsapp", productwhatsapp.New(logger, s.Products).ServeHTTP)
		r.Get("/users/{id}", profile.New(logger, s.Users).ServeHTTP)
		r.With(middlewarectx.OptionalJWTMiddleware(s.Auth, logger)).
			Get("/users/{id}/products", userproducts.New(logger, s.Products).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/users/me", me.New(logger, s.Users).ServeHTTP)
			r.Post("/users/{id}/upgrade", upgrade.New(logger, s.Users).ServeHTTP)
			r.Post("/users/{id}/reactivate-request", reactivationcreate.New(logger, s.Reactivation).ServeHTTP)
			r.Get("/users/{id}/reactivation-requests", reactivationown.New(logger, s.Reactivation).ServeHTTP)

			r.Post("/verification/{userId}", verificationcreate.New(logger, s.Verification).ServeHTTP)
			r.Get("/verification/{userId}/status", verificationstatus.New(logger, s.Verification).ServeHTTP)
			r.Get("/verification/image/{imageId}", verificationimage.New(logger, s.Verification).ServeHTTP)

			r.Patch("/products/{id}/status", productstatus.New(logger, s.Products).ServeHTTP)
			r.Delete("/products/{id}", productremove.New(logger, s.Products).ServeHTTP)

			// Публикация и изменение товаров доступны только продавцам с действующей подпиской.
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.SubscriptionGate(s.Subscription, logger))
				r.Post("/products", productcreate.New(logger, s.Products).ServeHTTP)
				r.Put("/products/{id}", productupdate.New(logger, s.Products).ServeHTTP)
			})

			r.Route("/messages", func(r chi.Router) {
				r.With(middlewarectx.RateLimitMiddleware(limiter, scopeMessages, m, logger)).
					Post("/", messagesend.New(logger, s.Messages).ServeHTTP)
				r.Get("/conversations", conversationlist.New(logger, s.Messages).ServeHTTP)
				r.Get("/conversations/{conversationId}", conversationthread.New(logger, s.Messages).ServeHTTP)
				r.Get("/unread-count", unreadcount.New(logger, s.Messages).ServeHTTP)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewarectx.AdminOnly(logger))
				r.Get("/users", userlist.New(logger, s.Users).ServeHTTP)
				r.Put("/users/{id}", userupdate.New(logger, s.Users).ServeHTTP)
				r.Delete("/users/{id}", userremove.New(logger, s.Users).ServeHTTP)
				r.Get("/reactivation-requests", reactivationlist.New(logger, s.Reactivation).ServeHTTP)
				r.Post("/reactivation-requests/{id}/process", reactivationprocess.New(logger, s.Reactivation).ServeHTTP)
				r.Get("/verification-requests", verificationlist.New(logger, s.Verification).ServeHTTP)
				r.Post("/verification-requests/{id}/process", verificationprocess.New(logger, s.Verification).ServeHTTP)
			})
		})
	})

	r.Get("/p/{id}", sharepage.New(logger, s.Share).ServeHTTP)
	r.Get("/health", health.New(logger, checks).ServeHTTP)
	r.Handle("/metrics", m.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

package marketplace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/campus-market/internal/cache"
	"github.com/magabrotheeeer/campus-market/internal/config"
	"github.com/magabrotheeeer/campus-market/internal/http/handlers/health"
	"github.com/magabrotheeeer/campus-market/internal/lib/jwt"
	"github.com/magabrotheeeer/campus-market/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/campus-market/internal/lib/ratelimit"
	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
	"github.com/magabrotheeeer/campus-market/internal/metrics"
	"github.com/magabrotheeeer/campus-market/internal/migrations"
	authservice "github.com/magabrotheeeer/campus-market/internal/services/auth"
	messagesservice "github.com/magabrotheeeer/campus-market/internal/services/messages"
	notifierservice "github.com/magabrotheeeer/campus-market/internal/services/notifier"
	productsservice "github.com/magabrotheeeer/campus-market/internal/services/products"
	reactivationservice "github.com/magabrotheeeer/campus-market/internal/services/reactivation"
	shareservice "github.com/magabrotheeeer/campus-market/internal/services/share"
	subscriptionservice "github.com/magabrotheeeer/campus-market/internal/services/subscription"
	usersservice "github.com/magabrotheeeer/campus-market/internal/services/users"
	verificationservice "github.com/magabrotheeeer/campus-market/internal/services/verification"
	"github.com/magabrotheeeer/campus-market/internal/storage/images"
	"github.com/magabrotheeeer/campus-market/internal/storage/repository"
)

const (
	shutdownTimeout = 15 * time.Second

	// Окно фиксированного ограничителя в Redis.
	rateLimitWindow = time.Minute
	// Сколько хранить неактивных посетителей в памяти.
	rateLimitIdle = 10 * time.Minute
)

// App представляет HTTP-приложение маркетплейса.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New подключает хранилища, применяет миграции и собирает сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(ctx, cfg.Mongo)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	app := &App{logger: logger, db: db}

	if err = migrations.Run(db.Client, cfg.DBName, cfg.MigrationsPath); err != nil {
		app.closeResources()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		app.closeResources()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}
	app.cache = cacheRedis

	// Без брокера уведомления только пишутся в лог.
	var publisher notifierservice.Publisher
	if cfg.RabbitMQURL != "" {
		app.conn, err = rabbitmq.Connect(ctx, logger, cfg.RabbitMQURL, rabbitmq.DefaultRetry)
		if err != nil {
			app.closeResources()
			return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
		}
		app.ch, err = rabbitmq.SetupChannel(app.conn, rabbitmq.NotificationTopology())
		if err != nil {
			app.closeResources()
			return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
		}
		publisher = rabbitmq.NewPublisher(app.ch)
	} else {
		logger.Warn("RABBITMQ_URL is empty, notifications will only be logged")
	}

	store, err := newImageStore(ctx, cfg.Images, db)
	if err != nil {
		app.closeResources()
		return nil, err
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimitBackend == config.RateLimitRedis {
		limiter = ratelimit.NewRedis(cacheRedis.Db, logger, int64(cfg.RPS*rateLimitWindow.Seconds()), rateLimitWindow)
	} else {
		limiter = ratelimit.NewMemory(ctx, cfg.RPS, cfg.Burst, rateLimitIdle)
	}

	m := metrics.New()
	notifier := notifierservice.NewNotifier(publisher, logger)
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL())

	subscriptionService := subscriptionservice.NewSubscriptionService(db, notifier, m, logger)
	productsService := productsservice.NewProductsService(db, cacheRedis, logger)
	services := Services{
		Auth:         authservice.NewAuthService(db, subscriptionService, jwtMaker, cacheRedis, cfg.BcryptRounds, logger),
		Subscription: subscriptionService,
		Users:        usersservice.NewUsersService(db, subscriptionService, logger),
		Products:     productsService,
		Reactivation: reactivationservice.NewReactivationService(db, notifier, m, logger),
		Verification: verificationservice.NewVerificationService(db, store, notifier, m, logger),
		Messages:     messagesservice.NewMessagesService(db, logger),
		Share:        shareservice.NewShareService(db, cacheRedis, cfg.FrontendURL, logger),
	}

	checks := map[string]health.Pinger{
		"mongodb": db,
		"redis": health.PingFunc(func(ctx context.Context) error {
			return cacheRedis.Db.Ping(ctx).Err()
		}),
	}
	if app.conn != nil {
		conn := app.conn
		checks["rabbitmq"] = health.PingFunc(func(context.Context) error {
			if conn.IsClosed() {
				return amqp.ErrClosed
			}
			return nil
		})
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, services, limiter, m, checks)

	app.server = &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

func newImageStore(ctx context.Context, cfg config.Images, db *repository.Storage) (images.Store, error) {
	if cfg.ImageBackend == config.ImageBackendMinio {
		store, err := images.NewMinio(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to init minio image store: %w", err)
		}
		return store, nil
	}
	return images.NewGridFS(db.DB), nil
}

// Run запускает HTTP-сервер и корректно останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.closeResources()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.closeResources()
		return err
	}
}

func (a *App) closeResources() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if a.db != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.db.Close(ctx); err != nil {
			a.logger.Error("failed to close mongodb", sl.Err(err))
		}
	}
}

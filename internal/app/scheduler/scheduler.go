// Package scheduler собирает фоновый процесс: понижение продавцов с истёкшей
// подпиской и напоминания о скором окончании подписки.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/campus-market/internal/config"
	"github.com/magabrotheeeer/campus-market/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
	"github.com/magabrotheeeer/campus-market/internal/metrics"
	notifierservice "github.com/magabrotheeeer/campus-market/internal/services/notifier"
	schedulerservice "github.com/magabrotheeeer/campus-market/internal/services/scheduler"
	subscriptionservice "github.com/magabrotheeeer/campus-market/internal/services/subscription"
	"github.com/magabrotheeeer/campus-market/internal/storage/repository"
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.SchedulerService
	interval         time.Duration
	db               *repository.Storage
	conn             *amqp.Connection
	ch               *amqp.Channel
	logger           *slog.Logger
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(ctx, cfg.Mongo)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	app := &App{
		interval: cfg.SchedulerTick,
		db:       db,
		logger:   logger,
	}

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
	}

	notifier := notifierservice.NewNotifier(publisher, logger)
	subscriptionService := subscriptionservice.NewSubscriptionService(db, notifier, metrics.New(), logger)
	app.schedulerService = schedulerservice.NewSchedulerService(db, subscriptionService, notifier, logger)

	return app, nil
}

// Run запускает задачи планировщика и ждёт их завершения после отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("scheduler started", slog.Duration("interval", a.interval))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.schedulerService.RunSweep(ctx, a.interval)
	}()
	go func() {
		defer wg.Done()
		a.schedulerService.RunReminders(ctx, schedulerservice.ReminderInterval)
	}()

	<-ctx.Done()
	a.logger.Info("shutting down scheduler service")
	wg.Wait()
	a.closeResources()
	return nil
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
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.db.Close(ctx); err != nil {
		a.logger.Error("failed to close mongodb", sl.Err(err))
	}
}

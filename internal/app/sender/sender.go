// Package sender собирает процесс отправки писем по уведомлениям из RabbitMQ.
package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/campus-market/internal/config"
	"github.com/magabrotheeeer/campus-market/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
	"github.com/magabrotheeeer/campus-market/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/campus-market/internal/services/sender"
)

// App представляет приложение отправки писем.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New подключается к RabbitMQ и создаёт сервис отправки писем.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg.RabbitMQURL == "" {
		return nil, errors.New("RABBITMQ_URL is required for sender")
	}
	conn, err := rabbitmq.Connect(ctx, logger, cfg.RabbitMQURL, rabbitmq.DefaultRetry)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.NotificationTopology())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	senderService := senderservice.NewSenderService(transport, cfg.FrontendURL, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run запускает потребителей обеих очередей и ждёт отмены ctx.
func (a *App) Run(ctx context.Context) error {
	consumers := []struct {
		queue   string
		handler func(context.Context, []byte) error
	}{
		{queue: rabbitmq.SubscriptionQueue, handler: a.senderService.HandleSubscription},
		{queue: rabbitmq.RequestsQueue, handler: a.senderService.HandleRequests},
	}

	var running []*sync.WaitGroup
	for _, c := range consumers {
		wg, err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, c.queue, c.handler)
		if err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", c.queue), sl.Err(err))
			a.close()
			return err
		}
		running = append(running, wg)
	}

	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")
	for _, wg := range running {
		wg.Wait()
	}
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}

package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
)

// Retry задаёт повторные попытки подключения: пауза удваивается после
// каждой неудачи, но не превышает MaxDelay.
type Retry struct {
	Attempts int
	Delay    time.Duration
	MaxDelay time.Duration
}

// DefaultRetry ждёт брокер около минуты, пока он поднимается вместе с сервисом.
var DefaultRetry = Retry{Attempts: 10, Delay: time.Second, MaxDelay: 10 * time.Second}

func (r Retry) next(d time.Duration) time.Duration {
	d *= 2
	if r.MaxDelay > 0 && d > r.MaxDelay {
		return r.MaxDelay
	}
	return d
}

// Connect подключается к брокеру по url. Ожидание между попытками
// прерывается отменой ctx.
func Connect(ctx context.Context, log *slog.Logger, url string, retry Retry) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	attempts := max(retry.Attempts, 1)
	delay := retry.Delay

	var err error
	for attempt := 1; ; attempt++ {
		var conn *amqp.Connection
		conn, err = amqp.Dial(url)
		if err == nil {
			if attempt > 1 {
				log.Info("connected to RabbitMQ", slog.Int("attempt", attempt))
			}
			return conn, nil
		}
		if attempt == attempts {
			break
		}
		log.Warn("RabbitMQ is not reachable, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			sl.Err(err))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(delay):
		}
		delay = retry.next(delay)
	}
	return nil, fmt.Errorf("%s: giving up after %d attempts: %w", op, attempts, err)
}

// SetupChannel открывает канал и объявляет топологию уведомлений: обменник,
// рабочие очереди и очередь недоставленных сообщений, куда брокер
// перекладывает сообщения, отклонённые без возврата в очередь.
func SetupChannel(conn *amqp.Connection, t Topology) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := declare(ch, t); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ch, nil
}

func declare(ch *amqp.Channel, t Topology) error {
	if err := ch.Qos(t.Prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	var queueArgs amqp.Table
	if t.DeadLetterExchange != "" {
		if err := ch.ExchangeDeclare(t.DeadLetterExchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare exchange %s: %w", t.DeadLetterExchange, err)
		}
		if _, err := ch.QueueDeclare(t.DeadLetterQueue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", t.DeadLetterQueue, err)
		}
		if err := ch.QueueBind(t.DeadLetterQueue, "", t.DeadLetterExchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s: %w", t.DeadLetterQueue, err)
		}
		queueArgs = amqp.Table{"x-dead-letter-exchange": t.DeadLetterExchange}
	}

	if err := ch.ExchangeDeclare(t.Exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", t.Exchange, err)
	}
	for _, q := range t.Queues {
		if _, err := ch.QueueDeclare(q.QueueName, true, false, false, false, queueArgs); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", q.QueueName, err)
		}
		if err := ch.QueueBind(q.QueueName, q.RoutingKey, t.Exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s with routing key %s: %w", q.QueueName, q.RoutingKey, err)
		}
	}
	return nil
}

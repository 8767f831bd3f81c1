package rabbitmq

// Имя обменника уведомлений и ключи маршрутизации.
const (
	NotificationsExchange = "notifications"

	RoutingKeySubscription = "subscription"
	RoutingKeyRequests     = "requests"
)

// Очереди уведомлений.
const (
	SubscriptionQueue = "notifications.subscription"
	RequestsQueue     = "notifications.requests"

	// DeadLetterQueue копит уведомления, которые не удалось отправить и со второй попытки.
	DeadLetterQueue    = "notifications.dead"
	deadLetterExchange = "notifications.dlx"
)

// QueueConfig описывает очередь и её ключ привязки к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Topology обменник с очередями и необязательная пара обменник/очередь
// для недоставленных сообщений.
type Topology struct {
	Exchange           string
	Queues             []QueueConfig
	DeadLetterExchange string
	DeadLetterQueue    string
	Prefetch           int
}

// GetNotificationQueues возвращает очереди, которые слушает сервис отправки писем.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: SubscriptionQueue, RoutingKey: RoutingKeySubscription},
		{QueueName: RequestsQueue, RoutingKey: RoutingKeyRequests},
	}
}

// NotificationTopology топология, общая для публикующих сервисов и отправителя писем.
func NotificationTopology() Topology {
	return Topology{
		Exchange:           NotificationsExchange,
		Queues:             GetNotificationQueues(),
		DeadLetterExchange: deadLetterExchange,
		DeadLetterQueue:    DeadLetterQueue,
		Prefetch:           MaxInFlight,
	}
}

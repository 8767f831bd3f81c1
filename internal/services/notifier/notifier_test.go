package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/campus-market/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/campus-market/internal/models"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, message any) error {
	args := m.Called(ctx, routingKey, message)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRoutingKey(t *testing.T) {
	tests := []struct {
		kind    string
		want    string
		wantErr bool
	}{
		{kind: models.NotificationSubscriptionExpired, want: rabbitmq.RoutingKeySubscription},
		{kind: models.NotificationSubscriptionExpiring, want: rabbitmq.RoutingKeySubscription},
		{kind: models.NotificationRequestProcessed, want: rabbitmq.RoutingKeyRequests},
		{kind: "unknown", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			got, err := RoutingKey(tt.kind)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNotifier_Notify(t *testing.T) {
	msg := models.Notification{
		Kind:      models.NotificationRequestProcessed,
		UserID:    "u1",
		Email:     "u1@campus.test",
		CreatedAt: time.Now(),
	}

	t.Run("publishes to routing key", func(t *testing.T) {
		pub := new(MockPublisher)
		pub.On("Publish", mock.Anything, rabbitmq.RoutingKeyRequests, msg).Return(nil).Once()

		err := NewNotifier(pub, newNoopLogger()).Notify(context.Background(), msg)
		require.NoError(t, err)
		pub.AssertExpectations(t)
	})

	t.Run("publish error is returned", func(t *testing.T) {
		pub := new(MockPublisher)
		pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("channel closed")).Once()

		err := NewNotifier(pub, newNoopLogger()).Notify(context.Background(), msg)
		assert.ErrorContains(t, err, "channel closed")
	})

	t.Run("log only without broker", func(t *testing.T) {
		err := NewNotifier(nil, newNoopLogger()).Notify(context.Background(), msg)
		assert.NoError(t, err)
	})

	t.Run("unknown kind", func(t *testing.T) {
		pub := new(MockPublisher)
		err := NewNotifier(pub, newNoopLogger()).Notify(context.Background(), models.Notification{Kind: "other"})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})
}

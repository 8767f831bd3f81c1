package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/campus-market/internal/models"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func encode(t *testing.T, n models.Notification) []byte {
	t.Helper()
	b, err := json.Marshal(n)
	require.NoError(t, err)
	return b
}

func TestSenderService_HandleSubscription(t *testing.T) {
	end := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		body        func(t *testing.T) []byte
		wantSubject string
		wantInBody  string
		wantErr     bool
	}{
		{
			name: "expiring",
			body: func(t *testing.T) []byte {
				return encode(t, models.Notification{Kind: models.NotificationSubscriptionExpiring, Email: "a@campus.test", Name: "Ann", EndDate: &end})
			},
			wantSubject: "Подписка продавца скоро закончится",
			wantInBody:  "02.04.2025",
		},
		{
			name: "expired",
			body: func(t *testing.T) []byte {
				return encode(t, models.Notification{Kind: models.NotificationSubscriptionExpired, Email: "a@campus.test", Name: "Ann", EndDate: &end})
			},
			wantSubject: "Подписка продавца закончилась",
			wantInBody:  "https://market.test",
		},
		{
			name:    "malformed",
			body:    func(_ *testing.T) []byte { return []byte("{not json") },
			wantErr: true,
		},
		{
			name: "wrong queue",
			body: func(t *testing.T) []byte {
				return encode(t, models.Notification{Kind: models.NotificationRequestProcessed, Email: "a@campus.test"})
			},
			wantErr: true,
		},
		{
			name: "no recipient",
			body: func(t *testing.T) []byte {
				return encode(t, models.Notification{Kind: models.NotificationSubscriptionExpired})
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := new(MockMailer)
			if !tt.wantErr {
				mailer.On("Send", mock.Anything, "a@campus.test", tt.wantSubject, mock.MatchedBy(func(body string) bool {
					return strings.Contains(body, tt.wantInBody)
				})).Return(nil).Once()
			}

			err := NewSenderService(mailer, "https://market.test/", newNoopLogger()).HandleSubscription(context.Background(), tt.body(t))
			if tt.wantErr {
				assert.Error(t, err)
				mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			mailer.AssertExpectations(t)
		})
	}
}

func TestSenderService_HandleRequests(t *testing.T) {
	end := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		n           models.Notification
		wantSubject string
		wantInBody  []string
	}{
		{
			name: "reactivation approved",
			n: models.Notification{Kind: models.NotificationRequestProcessed, Email: "a@campus.test", Name: "Ann",
				RequestKind: models.RequestKindReactivation, Status: models.RequestApproved, EndDate: &end},
			wantSubject: "Заявка одобрена",
			wantInBody:  []string{"реактивацию подписки", "02.04.2025"},
		},
		{
			name: "verification rejected with note",
			n: models.Notification{Kind: models.NotificationRequestProcessed, Email: "a@campus.test", Name: "Ann",
				RequestKind: models.RequestKindVerification, Status: models.RequestRejected, AdminNote: "blurry photo"},
			wantSubject: "Заявка отклонена",
			wantInBody:  []string{"верификацию", "blurry photo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := new(MockMailer)
			var sent string
			mailer.On("Send", mock.Anything, "a@campus.test", tt.wantSubject, mock.Anything).
				Run(func(args mock.Arguments) { sent = args.String(3) }).
				Return(nil).Once()

			err := NewSenderService(mailer, "", newNoopLogger()).HandleRequests(context.Background(), encode(t, tt.n))
			require.NoError(t, err)
			for _, s := range tt.wantInBody {
				assert.Contains(t, sent, s)
			}
		})
	}
}

func TestSenderService_MailerFailure(t *testing.T) {
	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

	body, _ := json.Marshal(models.Notification{Kind: models.NotificationRequestProcessed, Email: "a@campus.test", Status: models.RequestApproved})
	err := NewSenderService(mailer, "", newNoopLogger()).HandleRequests(context.Background(), body)
	assert.Error(t, err)
}

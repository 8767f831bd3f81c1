package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/campus-market/internal/models"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) GetUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *RepoMock) ListConversations(ctx context.Context, userID string) ([]*models.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Conversation), args.Error(1)
}

func (m *RepoMock) ListThread(ctx context.Context, conversationID string, page models.Page) ([]*models.Message, int64, error) {
	args := m.Called(ctx, conversationID, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Message), args.Get(1).(int64), args.Error(2)
}

func (m *RepoMock) MarkConversationRead(ctx context.Context, conversationID, userID string) (int64, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RepoMock) CountUnread(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestMessagesService_Send(t *testing.T) {
	alice := models.Caller{ID: "bbb", Type: models.UserTypeBuyer}

	tests := []struct {
		name       string
		in         models.MessageInput
		setupMocks func(repo *RepoMock)
		wantErr    error
	}{
		{
			name: "conversation id is order independent",
			in:   models.MessageInput{ReceiverID: "aaa", Text: " hi "},
			setupMocks: func(repo *RepoMock) {
				repo.On("GetUser", mock.Anything, "aaa").Return(&models.User{ID: "aaa"}, nil).Once()
				repo.On("CreateMessage", mock.Anything, mock.MatchedBy(func(m *models.Message) bool {
					return m.ConversationID == "aaa_bbb" && m.Text == "hi" && m.SenderID == "bbb"
				})).Return(&models.Message{ID: "m1", ConversationID: "aaa_bbb"}, nil).Once()
			},
		},
		{
			name:       "to yourself",
			in:         models.MessageInput{ReceiverID: "bbb", Text: "hi"},
			setupMocks: func(_ *RepoMock) {},
			wantErr:    models.ErrInvalidInput,
		},
		{
			name:       "blank text",
			in:         models.MessageInput{ReceiverID: "aaa", Text: "   "},
			setupMocks: func(_ *RepoMock) {},
			wantErr:    models.ErrInvalidInput,
		},
		{
			name: "unknown receiver",
			in:   models.MessageInput{ReceiverID: "zzz", Text: "hi"},
			setupMocks: func(repo *RepoMock) {
				repo.On("GetUser", mock.Anything, "zzz").Return(nil, models.ErrNotFound).Once()
			},
			wantErr: models.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)

			msg, err := NewMessagesService(repo, newNoopLogger()).Send(context.Background(), alice, tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "m1", msg.ID)
		})
	}
}

func TestMessagesService_Thread(t *testing.T) {
	page := models.NewPage(1, 50)

	t.Run("participant reads and marks", func(t *testing.T) {
		repo := new(RepoMock)
		msgs := []*models.Message{
			{ID: "m1", SenderID: "aaa", ReceiverID: "bbb"},
			{ID: "m2", SenderID: "bbb", ReceiverID: "aaa"},
		}
		repo.On("ListThread", mock.Anything, "aaa_bbb", page).Return(msgs, int64(2), nil).Once()
		repo.On("MarkConversationRead", mock.Anything, "aaa_bbb", "bbb").Return(int64(1), nil).Once()

		got, err := NewMessagesService(repo, newNoopLogger()).Thread(context.Background(), models.Caller{ID: "bbb"}, "aaa_bbb", page)
		require.NoError(t, err)
		require.Len(t, got.Messages, 2)
		assert.True(t, got.Messages[0].Read)
		assert.False(t, got.Messages[1].Read)
		assert.Equal(t, int64(2), got.Pagination.Total)
	})

	t.Run("outsider is forbidden", func(t *testing.T) {
		repo := new(RepoMock)
		_, err := NewMessagesService(repo, newNoopLogger()).Thread(context.Background(), models.Caller{ID: "ccc"}, "aaa_bbb", page)
		assert.ErrorIs(t, err, models.ErrForbidden)
		repo.AssertNotCalled(t, "ListThread", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("mark failure still returns thread", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("ListThread", mock.Anything, "aaa_bbb", page).Return([]*models.Message{}, int64(0), nil).Once()
		repo.On("MarkConversationRead", mock.Anything, "aaa_bbb", "aaa").Return(int64(0), errors.New("db down")).Once()

		_, err := NewMessagesService(repo, newNoopLogger()).Thread(context.Background(), models.Caller{ID: "aaa"}, "aaa_bbb", page)
		require.NoError(t, err)
	})
}

func TestMessagesService_UnreadCount(t *testing.T) {
	repo := new(RepoMock)
	repo.On("CountUnread", mock.Anything, "aaa").Return(int64(4), nil).Once()

	n, err := NewMessagesService(repo, newNoopLogger()).UnreadCount(context.Background(), models.Caller{ID: "aaa"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

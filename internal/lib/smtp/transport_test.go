package smtp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type MockDialer struct {
	mock.Mock
}

func (m *MockDialer) DialAndSend(msgs ...*gomail.Message) error {
	args := m.Called(msgs)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestTransport_Send(t *testing.T) {
	d := new(MockDialer)
	var sent []*gomail.Message
	d.On("DialAndSend", mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(0).([]*gomail.Message)
	}).Return(nil).Once()

	tr := NewTransportWithDialer(d, "noreply@campus.edu", newNoopLogger())
	err := tr.Send(context.Background(), "seller@campus.edu", "Подписка истекла", "Здравствуйте!")
	require.NoError(t, err)
	d.AssertExpectations(t)

	require.Len(t, sent, 1)
	assert.Equal(t, []string{"noreply@campus.edu"}, sent[0].GetHeader("From"))
	assert.Equal(t, []string{"seller@campus.edu"}, sent[0].GetHeader("To"))

	var buf bytes.Buffer
	_, err = sent[0].WriteTo(&buf)
	require.NoError(t, err)
	assert.True(t, strings.Contains(buf.String(), "text/plain"))
}

func TestTransport_SendErrors(t *testing.T) {
	t.Run("empty recipient", func(t *testing.T) {
		d := new(MockDialer)
		tr := NewTransportWithDialer(d, "noreply@campus.edu", newNoopLogger())
		assert.Error(t, tr.Send(context.Background(), "", "s", "b"))
		d.AssertNotCalled(t, "DialAndSend", mock.Anything)
	})

	t.Run("dial failure", func(t *testing.T) {
		d := new(MockDialer)
		d.On("DialAndSend", mock.Anything).Return(errors.New("connection refused")).Once()
		tr := NewTransportWithDialer(d, "noreply@campus.edu", newNoopLogger())
		err := tr.Send(context.Background(), "a@b.c", "s", "b")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("canceled context", func(t *testing.T) {
		d := new(MockDialer)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		tr := NewTransportWithDialer(d, "noreply@campus.edu", newNoopLogger())
		assert.ErrorIs(t, tr.Send(ctx, "a@b.c", "s", "b"), context.Canceled)
	})
}

package conversationthread

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/campus-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/campus-market/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Thread(ctx context.Context, caller models.Caller, conversationID string, page models.Page) (*models.MessagePage, error) {
	args := m.Called(ctx, caller, conversationID, page)
	p, _ := args.Get(0).(*models.MessagePage)
	return p, args.Error(1)
}

func TestThreadHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	caller := models.Caller{ID: "a", Type: models.UserTypeBuyer}
	page := models.NewPage(1, 0)

	tests := []struct {
		name       string
		convID     string
		res        *models.MessagePage
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:   "participant",
			convID: "a_b",
			res: &models.MessagePage{
				Messages:   []*models.Message{{ID: "m1", SenderID: "b", ReceiverID: "a", Read: true}},
				Pagination: models.NewPagination(page, 1),
			},
			wantStatus: http.StatusOK,
			wantBody:   `"read":true`,
		},
		{
			name:       "outsider",
			convID:     "b_c",
			err:        models.ErrForbidden,
			wantStatus: http.StatusForbidden,
			wantBody:   `"code":"FORBIDDEN"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Thread", mock.Anything, caller, tt.convID, page).Return(tt.res, tt.err).Once()

			req := httptest.NewRequest(http.MethodGet, "/api/messages/conversations/"+tt.convID, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("conversationId", tt.convID)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithCaller(ctx, caller))

			w := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.wantBody),
				"response body should contain %s, got %s", tt.wantBody, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

package reactivationlist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/campus-market/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) List(ctx context.Context, f models.RequestFilter) ([]*models.ReactivationRequest, models.RequestCounts, error) {
	args := m.Called(ctx, f)
	res, _ := args.Get(0).([]*models.ReactivationRequest)
	return res, args.Get(1).(models.RequestCounts), args.Error(2)
}

func TestListHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		url        string
		setupMock  func(*MockService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "pending with counts",
			url:  "/api/admin/reactivation-requests?status=pending",
			setupMock: func(m *MockService) {
				f := models.RequestFilter{Status: models.RequestPending, Page: models.NewPage(1, 0)}
				m.On("List", mock.Anything, f).Return(
					[]*models.ReactivationRequest{{ID: "r1", Status: models.RequestPending, Requester: &models.PublicProfile{Name: "Aida"}}},
					models.RequestCounts{Pending: 1, Approved: 2, Total: 3}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"counts":{"pending":1,"approved":2,"rejected":0,"total":3}`,
		},
		{
			name:       "unknown status",
			url:        "/api/admin/reactivation-requests?status=done",
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `unknown status`,
		},
		{
			name: "storage error",
			url:  "/api/admin/reactivation-requests",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, mock.Anything).Return(nil, models.RequestCounts{}, errors.New("boom"))
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `"code":"INTERNAL_ERROR"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			w := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.wantBody),
				"response body should contain %s, got %s", tt.wantBody, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

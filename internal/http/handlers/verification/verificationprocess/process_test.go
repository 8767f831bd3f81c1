package verificationprocess

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

func (m *MockService) Process(ctx context.Context, admin models.Caller, requestID string, in models.ProcessInput) (*models.VerificationRequest, error) {
	args := m.Called(ctx, admin, requestID, in)
	r, _ := args.Get(0).(*models.VerificationRequest)
	return r, args.Error(1)
}

func TestProcessHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	admin := models.Caller{ID: "a1", Type: models.UserTypeAdmin}

	tests := []struct {
		name       string
		body       string
		setupMock  func(*MockService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "approve with note",
			body: `{"action":"approve","adminNote":"ok"}`,
			setupMock: func(m *MockService) {
				in := models.ProcessInput{Action: models.ActionApprove, AdminNote: "ok"}
				m.On("Process", mock.Anything, admin, "v1", in).
					Return(&models.VerificationRequest{ID: "v1", Status: models.RequestApproved, AdminNote: "ok"}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"adminNote":"ok"`,
		},
		{
			name: "missing request",
			body: `{"action":"reject"}`,
			setupMock: func(m *MockService) {
				m.On("Process", mock.Anything, admin, "v1", models.ProcessInput{Action: models.ActionReject}).
					Return(nil, models.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantBody:   `"code":"NOT_FOUND"`,
		},
		{
			name: "already processed",
			body: `{"action":"approve"}`,
			setupMock: func(m *MockService) {
				m.On("Process", mock.Anything, admin, "v1", models.ProcessInput{Action: models.ActionApprove}).
					Return(nil, models.ErrAlreadyProcessed)
			},
			wantStatus: http.StatusConflict,
			wantBody:   `"code":"CONFLICT"`,
		},
		{
			name:       "missing action",
			body:       `{"adminNote":"?"}`,
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `field Action is a required field`,
		},
		{
			name:       "malformed json",
			body:       `{"action":`,
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `"error":"invalid request body"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/admin/verification-requests/v1/process", strings.NewReader(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "v1")
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithCaller(ctx, admin))

			w := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.wantBody),
				"response body should contain %s, got %s", tt.wantBody, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

package register

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/campus-market/internal/models"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*models.AuthResult)
	return res, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	valid := models.RegisterRequest{
		Name:     "Aida",
		Email:    "aida@campus.test",
		Password: "secret123",
		Campus:   "North",
		WhatsApp: "+7 900 000-00-00",
		Type:     models.UserTypeSeller,
	}

	tests := []struct {
		name        string
		requestBody any
		mockResp    *models.AuthResult
		mockErr     error
		wantStatus  int
		wantCode    string
		wantError   string
	}{
		{
			name:        "registered",
			requestBody: valid,
			mockResp: &models.AuthResult{
				User:  &models.User{ID: "u1", Email: valid.Email, Type: models.UserTypeSeller},
				Token: "tok",
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:        "invalid json body",
			requestBody: "not a json",
			wantStatus:  http.StatusBadRequest,
			wantCode:    "VALIDATION_ERROR",
			wantError:   "invalid request body",
		},
		{
			name:        "missing password",
			requestBody: models.RegisterRequest{Name: "Aida", Email: "aida@campus.test", Campus: "North", WhatsApp: "+79000000000"},
			wantStatus:  http.StatusBadRequest,
			wantCode:    "VALIDATION_ERROR",
			wantError:   "field Password is a required field",
		},
		{
			name:        "admin type is not allowed",
			requestBody: models.RegisterRequest{Name: "Aida", Email: "aida@campus.test", Password: "secret123", Campus: "North", WhatsApp: "+79000000000", Type: models.UserTypeAdmin},
			wantStatus:  http.StatusBadRequest,
			wantCode:    "VALIDATION_ERROR",
			wantError:   "field Type must be one of [buyer seller]",
		},
		{
			name:        "email taken",
			requestBody: valid,
			mockErr:     models.ErrEmailTaken,
			wantStatus:  http.StatusConflict,
			wantCode:    "CONFLICT",
			wantError:   "email already registered",
		},
		{
			name:        "storage failure is not leaked",
			requestBody: valid,
			mockErr:     errors.New("mongo: connection refused"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "INTERNAL_ERROR",
			wantError:   "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(AuthServiceMock)
			if tt.mockResp != nil || tt.mockErr != nil {
				svc.On("Register", mock.Anything, tt.requestBody.(models.RegisterRequest)).Return(tt.mockResp, tt.mockErr).Once()
			}

			var body []byte
			switch v := tt.requestBody.(type) {
			case string:
				body = []byte(v)
			default:
				var err error
				body, err = json.Marshal(v)
				if err != nil {
					t.Fatal(err)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			New(newNoopLogger(), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp map[string]any
			assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			if tt.wantCode == "" {
				assert.Equal(t, "OK", resp["status"])
				data := resp["data"].(map[string]any)
				assert.Equal(t, "tok", data["token"])
			} else {
				assert.Equal(t, tt.wantCode, resp["code"])
				assert.Equal(t, tt.wantError, resp["error"])
			}
			svc.AssertExpectations(t)
		})
	}
}

package verificationcreate

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/campus-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/campus-market/internal/models"
	services "github.com/magabrotheeeer/campus-market/internal/services/verification"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, caller models.Caller, subjectID string, up services.Upload) (*models.VerificationRequest, error) {
	args := m.Called(ctx, caller, subjectID, up.ContentType, up.Size)
	r, _ := args.Get(0).(*models.VerificationRequest)
	return r, args.Error(1)
}

func multipartBody(t *testing.T, field, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="id.jpg"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestCreateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	caller := models.Caller{ID: "u1", Type: models.UserTypeSeller}
	jpeg := []byte("\xff\xd8\xff\xe0fakejpeg")

	tests := []struct {
		name       string
		field      string
		payload    []byte
		setupMock  func(*MockService)
		wantStatus int
		wantBody   string
	}{
		{
			name:    "created",
			field:   FormField,
			payload: jpeg,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, caller, "u1", "image/jpeg", int64(len(jpeg))).
					Return(&models.VerificationRequest{ID: "v1"}, nil)
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"requestId":"v1"`,
		},
		{
			name:       "wrong field",
			field:      "photo",
			payload:    jpeg,
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `field image is required`,
		},
		{
			name:       "body over limit",
			field:      FormField,
			payload:    bytes.Repeat([]byte("a"), services.MaxImageSize+multipartOverhead+1),
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantBody:   `"code":"PAYLOAD_TOO_LARGE"`,
		},
		{
			name:    "already verified",
			field:   FormField,
			payload: jpeg,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, caller, "u1", "image/jpeg", int64(len(jpeg))).
					Return(nil, models.ErrAlreadyVerified)
			},
			wantStatus: http.StatusConflict,
			wantBody:   `user is already verified`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			body, ct := multipartBody(t, tt.field, "image/jpeg", tt.payload)
			req := httptest.NewRequest(http.MethodPost, "/api/verification/u1", body)
			req.Header.Set("Content-Type", ct)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("userId", "u1")
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

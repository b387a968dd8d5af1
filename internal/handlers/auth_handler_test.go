package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/journeymate/backend/internal/middleware"
	"github.com/journeymate/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockAuthService is a mock implementation of AuthService
type mockAuthService struct {
	resp  *models.LoginResponse
	err   error
	calls int
}

func (m *mockAuthService) Login(ctx context.Context, userID, password string) (*models.LoginResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func setupAuthRouter(svc AuthService) chi.Router {
	logger, _ := zap.NewDevelopment()
	r := chi.NewRouter()
	NewAuthHandler(svc, logger).RegisterRoutes(r)
	return r
}

func formRequest(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name           string
		form           url.Values
		service        *mockAuthService
		expectedStatus int
		expectedBody   map[string]string
		expectCall     bool
	}{
		{
			name: "user login",
			form: url.Values{"userId": {"alice"}, "password": {"secret"}},
			service: &mockAuthService{
				resp: &models.LoginResponse{UserType: "user", UserLevel: "level1", UserID: "alice"},
			},
			expectedStatus: http.StatusOK,
			expectedBody:   map[string]string{"userType": "user", "userLevel": "level1", "userId": "alice"},
			expectCall:     true,
		},
		{
			name: "admin login",
			form: url.Values{"userId": {"root"}, "password": {"secret"}},
			service: &mockAuthService{
				resp: &models.LoginResponse{UserType: "admin", UserLevel: "level2", UserID: "root"},
			},
			expectedStatus: http.StatusOK,
			expectedBody:   map[string]string{"userType": "admin", "userLevel": "level2", "userId": "root"},
			expectCall:     true,
		},
		{
			name:           "missing password",
			form:           url.Values{"userId": {"alice"}},
			service:        &mockAuthService{},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   map[string]string{"error": "Missing userId or password"},
		},
		{
			name:           "missing user id",
			form:           url.Values{"password": {"secret"}},
			service:        &mockAuthService{},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   map[string]string{"error": "Missing userId or password"},
		},
		{
			name:           "empty password",
			form:           url.Values{"userId": {"alice"}, "password": {""}},
			service:        &mockAuthService{},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   map[string]string{"error": "Missing userId or password"},
		},
		{
			name:           "no fields",
			form:           url.Values{},
			service:        &mockAuthService{},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   map[string]string{"error": "Missing userId or password"},
		},
		{
			name:           "empty user id",
			form:           url.Values{"userId": {""}, "password": {"secret"}},
			service:        &mockAuthService{},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   map[string]string{"error": "Missing userId or password"},
		},
		{
			name:           "invalid credentials",
			form:           url.Values{"userId": {"alice"}, "password": {"wrong"}},
			service:        &mockAuthService{err: models.ErrInvalidCredentials},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   map[string]string{"error": "Invalid credentials"},
			expectCall:     true,
		},
		{
			name:           "store failure",
			form:           url.Values{"userId": {"alice"}, "password": {"secret"}},
			service:        &mockAuthService{err: errors.New("connection refused")},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   map[string]string{"error": "Internal server error"},
			expectCall:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupAuthRouter(tt.service)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, formRequest("/bin/login", tt.form))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedBody, body)

			if tt.expectCall {
				assert.Equal(t, 1, tt.service.calls)
			} else {
				assert.Zero(t, tt.service.calls)
			}
		})
	}
}

func TestAuthHandler_Login_QueryParameters(t *testing.T) {
	svc := &mockAuthService{resp: &models.LoginResponse{UserType: "user", UserLevel: "level1", UserID: "alice"}}
	router := setupAuthRouter(svc)
	w := httptest.NewRecorder()

	req := httptest.NewRequest(http.MethodPost, "/bin/login?userId=alice&password=secret", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.calls)
}

func TestAuthHandler_Login_MethodNotAllowed(t *testing.T) {
	router := setupAuthRouter(&mockAuthService{})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bin/login", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestAuthHandler_Login_BodyTooLarge(t *testing.T) {
	svc := &mockAuthService{}
	logger, _ := zap.NewDevelopment()
	r := chi.NewRouter()
	r.Use(middleware.RequestSizeLimitMiddleware(64))
	NewAuthHandler(svc, logger).RegisterRoutes(r)

	form := url.Values{"userId": {"alice"}, "password": {strings.Repeat("x", 128)}}.Encode()

	tests := []struct {
		name string
		body io.Reader
	}{
		{name: "declared length", body: strings.NewReader(form)},
		{name: "chunked", body: io.MultiReader(strings.NewReader(form))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/bin/login", tt.body)
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
			assert.JSONEq(t, `{"error":"Request body too large"}`, w.Body.String())
			assert.Zero(t, svc.calls)
		})
	}
}

package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/journeymate/backend/internal/handlers"
	"github.com/journeymate/backend/internal/models"
	"github.com/journeymate/backend/internal/repositories"
	"github.com/journeymate/backend/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupTestRouter wires the real services on a Redis store backed by miniredis
func setupTestRouter(t *testing.T, roots ...string) (chi.Router, *mr.Miniredis) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { client.Close() })

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	store := repositories.NewRedisResourceStore(client, "it:", logger)
	require.NoError(t, store.EnsureRoots(context.Background(), roots...))

	admin := services.NewAdminBootstrapService(store, logger)
	if len(roots) == 3 {
		require.NoError(t, admin.EnsureAdmin(context.Background(), "root", "RootPass1!"))
	}

	r := chi.NewRouter()
	handlers.NewAuthHandler(services.NewAuthService(store, logger), logger).RegisterRoutes(r)
	handlers.NewRegistrationHandler(services.NewRegistrationService(store, nil, logger), logger, false).RegisterRoutes(r)
	handlers.NewHealthHandler(store, logger).RegisterRoutes(r)

	return r, m
}

func register(t *testing.T, router chi.Router, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/bin/sample", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, router chi.Router, userID, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"userId": {userID}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/bin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIntegration_RegisterThenLogin(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	router, m := setupTestRouter(t, models.ContentRoot, models.UserRoot, models.AdminRoot)

	w := register(t, router, `{"username":"carol","email":"carol@example.com","password":"CarolPass1!","mobile":"+15550100"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"User registered successfully"}`, w.Body.String())

	// the stored record carries a hash, never the clear text password
	stored, err := m.Get("it:res:/content/user/carol")
	require.NoError(t, err)
	assert.NotContains(t, stored, "CarolPass1!")
	assert.Contains(t, stored, "$argon2id$")
	assert.NotContains(t, stored, models.PropFirstName)

	w = login(t, router, "carol", "CarolPass1!")
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.LoginResponse{UserType: "user", UserLevel: "level1", UserID: "carol"}, resp)

	w = login(t, router, "root", "RootPass1!")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userType":"admin","userLevel":"level2","userId":"root"}`, w.Body.String())
}

func TestIntegration_RegisterThenLogin_NonASCIIUsernames(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	router, m := setupTestRouter(t, models.ContentRoot, models.UserRoot, models.AdminRoot)

	tests := []struct {
		name     string
		username string
		email    string
	}{
		{name: "accented", username: "josé", email: "jose@example.com"},
		{name: "space", username: "john smith", email: "john@example.com"},
		{name: "apostrophe", username: "o'brien", email: "obrien@example.com"},
		{name: "cjk", username: "李", email: "li@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(map[string]string{"username": tt.username, "email": tt.email, "password": "Passw0rd!"})
			require.NoError(t, err)

			w := register(t, router, string(body))
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.True(t, m.Exists("it:res:/content/user/"+tt.username))

			w = login(t, router, tt.username, "Passw0rd!")
			require.Equal(t, http.StatusOK, w.Code)
			var resp models.LoginResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, models.LoginResponse{UserType: "user", UserLevel: "level1", UserID: tt.username}, resp)
		})
	}
}

func TestIntegration_LoginFailuresAreIndistinguishable(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	router, _ := setupTestRouter(t, models.ContentRoot, models.UserRoot, models.AdminRoot)
	require.Equal(t, http.StatusOK, register(t, router, `{"username":"carol","email":"carol@example.com","password":"CarolPass1!"}`).Code)

	wrongPassword := login(t, router, "carol", "nope")
	unknownUser := login(t, router, "nobody", "nope")
	traversal := login(t, router, "../admin/root", "RootPass1!")

	for _, w := range []*httptest.ResponseRecorder{wrongPassword, unknownUser, traversal} {
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, wrongPassword.Body.String(), w.Body.String())
	}
}

func TestIntegration_DuplicateRegistration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	router, m := setupTestRouter(t, models.ContentRoot, models.UserRoot, models.AdminRoot)
	require.Equal(t, http.StatusOK, register(t, router, `{"username":"carol","email":"carol@example.com","password":"CarolPass1!"}`).Code)
	before, err := m.Get("it:res:/content/user/carol")
	require.NoError(t, err)

	tests := []struct {
		name string
		body string
	}{
		{name: "same username", body: `{"username":"carol","email":"other@example.com","password":"x"}`},
		{name: "same email", body: `{"username":"dave","email":"carol@example.com","password":"x"}`},
		{name: "repeated", body: `{"username":"carol","email":"carol@example.com","password":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := register(t, router, tt.body)
			assert.Equal(t, http.StatusConflict, w.Code)
			assert.JSONEq(t, `{"error":"User with this username or email already exists"}`, w.Body.String())
		})
	}

	after, err := m.Get("it:res:/content/user/carol")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.False(t, m.Exists("it:res:/content/user/dave"))

	// the original password still works
	assert.Equal(t, http.StatusOK, login(t, router, "carol", "CarolPass1!").Code)
}

func TestIntegration_UserStorageMissing(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	router, m := setupTestRouter(t, models.ContentRoot)

	w := register(t, router, `{"username":"carol","email":"carol@example.com","password":"CarolPass1!"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"User storage location does not exist"}`, w.Body.String())
	assert.False(t, m.Exists("it:res:/content/user/carol"))
}

func TestIntegration_Health(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	router, m := setupTestRouter(t, models.ContentRoot, models.UserRoot, models.AdminRoot)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	m.Close()
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

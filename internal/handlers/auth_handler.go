package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/journeymate/backend/internal/metrics"
	"github.com/journeymate/backend/internal/middleware"
	"github.com/journeymate/backend/internal/models"
	"go.uber.org/zap"
)

const (
	msgMissingCredentials = "Missing userId or password"
	msgInvalidCredentials = "Invalid credentials"
	msgInvalidForm        = "Invalid request format"
)

// maxFormMemory bounds the in-memory part of multipart login forms
const maxFormMemory = 1 << 20

// AuthService is the interface that wraps methods for authentication business logic.
type AuthService interface {
	// Method Login verifies a user identifier and password and returns the role tier of the matching record.
	//
	// Records under the user subtree are checked before records under the admin subtree.
	// If both parameters are not provided, models.ErrMissingFields is returned.
	// If no record matches, models.ErrInvalidCredentials is returned regardless of whether the identifier exists.
	// Any other error means the store could not be queried.
	Login(ctx context.Context, userID, password string) (*models.LoginResponse, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: BaseHandler{Logger: logger},
		authService: authService,
	}
}

// RegisterRoutes registers all auth handler routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/bin/login", h.Login)
}

// Login handles POST /bin/login
// @Summary Login user
// @Description Verify userId and password against user and admin records and return the user tier.
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param userId formData string true "User identifier"
// @Param password formData string true "Password"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} models.ErrorResponse "Missing userId or password"
// @Failure 401 {object} models.ErrorResponse "Invalid credentials"
// @Failure 413 {object} models.ErrorResponse "Request body too large"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /bin/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		metrics.LoginAttempts.WithLabelValues(metrics.OutcomeBadRequest).Inc()
		if isBodyTooLarge(err) {
			h.RespondError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		h.RespondError(w, http.StatusBadRequest, msgInvalidForm)
		return
	}

	userID := r.Form.Get("userId")
	password := r.Form.Get("password")
	if userID == "" || password == "" {
		metrics.LoginAttempts.WithLabelValues(metrics.OutcomeBadRequest).Inc()
		h.RespondError(w, http.StatusBadRequest, msgMissingCredentials)
		return
	}

	resp, err := h.authService.Login(r.Context(), userID, password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrMissingFields):
			metrics.LoginAttempts.WithLabelValues(metrics.OutcomeBadRequest).Inc()
			h.RespondError(w, http.StatusBadRequest, msgMissingCredentials)
		case errors.Is(err, models.ErrInvalidCredentials):
			metrics.LoginAttempts.WithLabelValues(metrics.OutcomeUnauthorized).Inc()
			h.RespondError(w, http.StatusUnauthorized, msgInvalidCredentials)
		default:
			metrics.LoginAttempts.WithLabelValues(metrics.OutcomeError).Inc()
			h.Logger.Error("error occurred while accessing user data",
				zap.String("request_id", middleware.GetRequestID(r.Context())),
				zap.Error(err),
			)
			h.RespondError(w, http.StatusInternalServerError, msgInternalError)
		}
		return
	}

	metrics.LoginAttempts.WithLabelValues(metrics.OutcomeSuccess).Inc()
	metrics.LoginsByTier.WithLabelValues(resp.UserType).Inc()
	h.RespondJSON(w, http.StatusOK, resp)
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/journeymate/backend/internal/metrics"
	"github.com/journeymate/backend/internal/middleware"
	"github.com/journeymate/backend/internal/models"
	"go.uber.org/zap"
)

const (
	msgInvalidRequest    = "Invalid request format"
	msgInvalidJSON       = "Invalid JSON format"
	msgMissingFields     = "Missing required fields"
	msgInvalidUsername   = "Invalid username"
	msgInvalidEmail      = "Invalid email"
	msgUserExists        = "User with this username or email already exists"
	msgStorageMissing    = "User storage location does not exist"
	msgRegisteredSuccess = "User registered successfully"
)

// RegistrationService is the interface that wraps methods for user registration business logic.
type RegistrationService interface {
	// Method Register validates the request and persists a new user record.
	//
	// "req" parameter holds the decoded payload, absent fields are nil.
	//
	// Returns models.ErrMissingFields, models.ErrInvalidUsername, models.ErrInvalidEmail, models.ErrUserExists or
	// models.ErrStorageMisconfigured for the expected failures. Any other error is a store failure.
	Register(ctx context.Context, req *models.RegisterRequest) error
}

// RegistrationHandler handles user registration HTTP requests
type RegistrationHandler struct {
	BaseHandler
	registrationService RegistrationService
	conflictStatus      int
}

// NewRegistrationHandler creates a new registration handler.
//
// With "legacyConflictStatus" set, duplicate registrations are answered with 200 instead of 409.
func NewRegistrationHandler(registrationService RegistrationService, logger *zap.Logger, legacyConflictStatus bool) *RegistrationHandler {
	conflictStatus := http.StatusConflict
	if legacyConflictStatus {
		conflictStatus = http.StatusOK
	}
	return &RegistrationHandler{
		BaseHandler:         BaseHandler{Logger: logger},
		registrationService: registrationService,
		conflictStatus:      conflictStatus,
	}
}

// RegisterRoutes registers all registration handler routes
func (h *RegistrationHandler) RegisterRoutes(r chi.Router) {
	r.Post("/bin/sample", h.Register)
}

// Register handles POST /bin/sample
// @Summary Register a new user
// @Description Create a user record from a JSON profile. Username, email and password are required.
// @Tags registration
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "User profile"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse "Invalid request, JSON, username, email or missing fields"
// @Failure 409 {object} models.ErrorResponse "User with this username or email already exists"
// @Failure 413 {object} models.ErrorResponse "Request body too large"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /bin/sample [post]
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil && isBodyTooLarge(err) {
		metrics.Registrations.WithLabelValues(metrics.OutcomeBadRequest).Inc()
		h.RespondError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
		return
	}
	if err != nil {
		h.Logger.Warn("error reading request body", zap.Error(err))
		metrics.Registrations.WithLabelValues(metrics.OutcomeBadRequest).Inc()
		h.RespondError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	req, err := decodeRegisterRequest(body)
	if err != nil {
		h.Logger.Debug("error parsing JSON", zap.Error(err))
		metrics.Registrations.WithLabelValues(metrics.OutcomeBadRequest).Inc()
		h.RespondError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	err = h.registrationService.Register(r.Context(), req)
	switch {
	case err == nil:
		metrics.Registrations.WithLabelValues(metrics.OutcomeSuccess).Inc()
		h.RespondJSON(w, http.StatusOK, models.MessageResponse{Message: msgRegisteredSuccess})
	case errors.Is(err, models.ErrMissingFields):
		metrics.Registrations.WithLabelValues(metrics.OutcomeBadRequest).Inc()
		h.RespondError(w, http.StatusBadRequest, msgMissingFields)
	case errors.Is(err, models.ErrInvalidUsername):
		metrics.Registrations.WithLabelValues(metrics.OutcomeBadRequest).Inc()
		h.RespondError(w, http.StatusBadRequest, msgInvalidUsername)
	case errors.Is(err, models.ErrInvalidEmail):
		metrics.Registrations.WithLabelValues(metrics.OutcomeBadRequest).Inc()
		h.RespondError(w, http.StatusBadRequest, msgInvalidEmail)
	case errors.Is(err, models.ErrUserExists):
		metrics.Registrations.WithLabelValues(metrics.OutcomeConflict).Inc()
		h.RespondError(w, h.conflictStatus, msgUserExists)
	case errors.Is(err, models.ErrStorageMisconfigured):
		metrics.Registrations.WithLabelValues(metrics.OutcomeError).Inc()
		h.Logger.Error("user storage location does not exist", zap.String("path", models.UserRoot))
		h.RespondError(w, http.StatusInternalServerError, msgStorageMissing)
	default:
		metrics.Registrations.WithLabelValues(metrics.OutcomeError).Inc()
		h.Logger.Error("error occurred during user registration",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err),
		)
		h.RespondError(w, http.StatusInternalServerError, msgInternalError)
	}
}

// decodeRegisterRequest parses a JSON object into a RegisterRequest.
//
// String, number and boolean values are accepted as text, null counts as absent,
// objects and arrays are rejected. Unknown fields are ignored.
func decodeRegisterRequest(body []byte) (*models.RegisterRequest, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var fields map[string]any
	if err := decoder.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("root is not an object")
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON object")
	}

	req := &models.RegisterRequest{}
	targets := map[string]**string{
		models.PropUsername:  &req.Username,
		models.PropEmail:     &req.Email,
		models.PropFirstName: &req.FirstName,
		models.PropLastName:  &req.LastName,
		models.PropMobile:    &req.Mobile,
		"password":           &req.Password,
	}
	for key, target := range targets {
		value, ok := fields[key]
		if !ok {
			continue
		}
		text, present, err := jsonText(value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		if present {
			*target = &text
		}
	}

	return req, nil
}

// jsonText converts a decoded JSON scalar to its text form
func jsonText(value any) (string, bool, error) {
	switch v := value.(type) {
	case nil:
		return "", false, nil
	case string:
		return v, true, nil
	case json.Number:
		return v.String(), true, nil
	case bool:
		return strconv.FormatBool(v), true, nil
	default:
		return "", false, fmt.Errorf("expected a scalar value, got %T", value)
	}
}

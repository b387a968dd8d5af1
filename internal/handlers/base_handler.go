package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/journeymate/backend/internal/models"
	"go.uber.org/zap"
)

// Client facing error messages
const (
	msgInternalError = "Internal server error"
	msgBodyTooLarge  = "Request body too large"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, models.ErrorResponse{Error: message})
}

// isBodyTooLarge reports whether err comes from a body cut off by http.MaxBytesReader.
// Bodies without a declared length only hit the limit while being read.
func isBodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

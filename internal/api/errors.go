package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/plant-shop/internal/domain/domainerr"
	"go.uber.org/zap"
)

var errBadBody = domainerr.Validation("Invalid request body")

// statusFor maps a domain error kind to an HTTP status
func statusFor(err error) int {
	switch {
	case domainerr.IsValidation(err):
		return http.StatusBadRequest
	case domainerr.IsNotFound(err):
		return http.StatusNotFound
	case domainerr.IsUnauthorized(err):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"message": ...}. Unclassified errors are logged
// and reported as a generic server error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		respondMessage(w, status, "Server error")
		return
	}

	var derr *domainerr.Error
	if errors.As(err, &derr) {
		respondMessage(w, status, derr.Error())
		return
	}
	respondMessage(w, status, err.Error())
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

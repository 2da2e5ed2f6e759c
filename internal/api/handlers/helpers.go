package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"eco-route-engine/internal/api/dto"
	"eco-route-engine/internal/domain"

	"github.com/sirupsen/logrus"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"err":    err,
		}).Error("encode failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, kind domain.ErrorKind, msg string) {
	writeJSON(w, r, status, dto.ErrorResponse{Error: dto.ErrorBody{
		Kind:    string(kind),
		Message: msg,
	}})
}

// writeDomainError maps the engine's error taxonomy onto HTTP statuses.
// Kinds stay machine-readable end to end so the relay and the UI can
// present differentiated messages.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)

	body := dto.ErrorBody{Kind: string(kind), Message: err.Error()}
	var de *domain.Error
	if errors.As(err, &de) {
		body.Message = de.Message
		body.Field = de.Field
	}
	if kind == domain.KindInternal {
		// Internal details stay in the logs.
		body.Message = "internal server error"
	}
	if kind == domain.KindTimeout {
		body.Message = "request exceeded its time budget"
	}

	writeJSON(w, r, statusForKind(kind), dto.ErrorResponse{Error: body})
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation, domain.KindTooManyStops:
		return http.StatusBadRequest
	case domain.KindOracleRejected:
		return http.StatusUnprocessableEntity
	case domain.KindOracleUnavailable:
		return http.StatusServiceUnavailable
	case domain.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medagenda/clinic-scheduling/internal/scheduling"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses,
// keeping the stable machine code so the UI can render a specific message.
func writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch scheduling.KindOf(err) {
	case scheduling.KindUnauthenticated:
		status = http.StatusUnauthorized
	case scheduling.KindPermissionDenied:
		status = http.StatusForbidden
	case scheduling.KindInvalidArgument:
		status = http.StatusBadRequest
	case scheduling.KindFailedPrecondition:
		status = http.StatusPreconditionFailed
	case scheduling.KindAlreadyExists:
		status = http.StatusConflict
	case scheduling.KindNotFound:
		status = http.StatusNotFound
	}

	code := "internal_error"
	var domainErr *scheduling.Error
	if errors.As(err, &domainErr) {
		code = domainErr.Code
	}

	writeError(w, status, code, err.Error())
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/stb-lab/websettings/session"
	"github.com/stb-lab/websettings/settings"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidSession),
		errors.Is(err, session.ErrSessionRemoved):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrFutureRevision):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrSuperseded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrDuplicateName),
		errors.Is(err, settings.ErrInvalidItem),
		errors.Is(err, settings.ErrBadValue):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

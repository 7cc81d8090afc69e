package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/stb-lab/websettings/session"
	"github.com/stb-lab/websettings/settings"
)

// maxSchemaBodySize caps the registration payload; a set-top-box schema is a
// handful of items, never megabytes.
const maxSchemaBodySize = 256 << 10

// NewSession handles POST /stb/new-session.
// The body is a JSON array of configuration items; the response carries the
// one-time access key for the operator and the session secret for the device.
func (a *API) NewSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSchemaBodySize)

	var items []settings.Item
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		writeError(w, http.StatusBadRequest, "invalid configuration schema: "+err.Error())
		return
	}

	key, secret, err := a.engine.Register(items)
	if err != nil {
		mapError(w, err)
		return
	}

	a.logger.Info("session registered",
		slog.Int("items", len(items)),
		slog.String("remote_addr", r.RemoteAddr))
	writeJSON(w, http.StatusOK, NewSessionResponse{Key: key, Secret: string(secret)})
}

// EndSession handles GET /stb/del-session?sid=.
func (a *API) EndSession(w http.ResponseWriter, r *http.Request) {
	sid := r.URL.Query().Get("sid")
	if sid == "" {
		writeError(w, http.StatusBadRequest, "sid is required")
		return
	}

	if err := a.engine.Remove(session.Secret(sid)); err != nil {
		mapError(w, err)
		return
	}

	a.logger.Info("session removed", slog.String("remote_addr", r.RemoteAddr))
	w.WriteHeader(http.StatusOK)
}

// Poll handles GET /stb/poll?sid=&revision=.
// The request is held open until the session advances past the given
// revision, the operator logs in, or the poll window elapses (204 — the
// device should immediately re-poll at the same revision).
func (a *API) Poll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sid := q.Get("sid")
	if sid == "" {
		writeError(w, http.StatusBadRequest, "sid is required")
		return
	}
	revision, err := strconv.ParseUint(q.Get("revision"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "revision must be an unsigned integer")
		return
	}

	ctx := r.Context()
	if a.pollTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.pollTimeout)
		defer cancel()
	}

	values, err := a.engine.Values(ctx, session.Secret(sid), revision)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, values)
	case errors.Is(err, context.DeadlineExceeded):
		// Nothing newer within the window; the device re-polls.
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, context.Canceled):
		// The device went away; there is nobody left to answer.
	default:
		mapError(w, err)
	}
}

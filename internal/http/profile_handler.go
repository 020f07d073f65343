package http

import (
	"log/slog"
	"net/http"

	"doorman/internal/audit"
)

// ProfileHandler serves endpoints about the authenticated caller.
type ProfileHandler struct {
	recorder *audit.Recorder
	logger   *slog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(recorder *audit.Recorder, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{recorder: recorder, logger: logger}
}

// Me returns the Discord user embedded in the session.
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := IdentityFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, user.Discord)
}

// Logins returns the caller's recent login and logout events.
func (h *ProfileHandler) Logins(w http.ResponseWriter, r *http.Request) {
	user := IdentityFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	events, err := h.recorder.Recent(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("list login events failed", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

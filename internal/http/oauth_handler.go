package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"doorman/internal/audit"
	"doorman/internal/auth"
)

type loginService interface {
	authenticator
	BeginLogin(ctx context.Context) (string, error)
	CompleteLogin(ctx context.Context, code, state string) (*auth.LoginResult, error)
}

// SessionCookie describes how the session credential is carried to the browser.
type SessionCookie struct {
	Name   string
	MaxAge int
	Secure bool
}

func (c SessionCookie) issue(value string) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   c.MaxAge,
		Expires:  time.Now().Add(time.Duration(c.MaxAge) * time.Second),
	}
}

func (c SessionCookie) clear() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	}
}

// OAuthHandler serves the Discord login, callback and logout endpoints.
type OAuthHandler struct {
	logins   loginService
	recorder *audit.Recorder
	cookie   SessionCookie
	logger   *slog.Logger
}

// NewOAuthHandler creates a new OAuthHandler.
func NewOAuthHandler(logins loginService, recorder *audit.Recorder, cookie SessionCookie, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{
		logins:   logins,
		recorder: recorder,
		cookie:   cookie,
		logger:   logger,
	}
}

// Login handles GET /login by redirecting to Discord's consent screen.
func (h *OAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	target, err := h.logins.BeginLogin(r.Context())
	if err != nil {
		h.logger.Error("oauth login: state issue failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// Callback handles GET /callback?code=&state= and sets the session cookie.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	result, err := h.logins.CompleteLogin(r.Context(), query.Get("code"), query.Get("state"))
	if err != nil {
		h.callbackFailed(w, err)
		return
	}

	http.SetCookie(w, h.cookie.issue(result.Token))

	h.logger.Info("user logged in",
		"user_id", result.User.ID,
		"tag", result.User.Tag(),
		"stage", auth.StageSessionIssued,
		"expires_at", result.ExpiresAt,
	)
	h.recorder.Record(r.Context(), result.User.ID, audit.KindLogin, clientIPFromRequest(r), r.UserAgent())

	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *OAuthHandler) callbackFailed(w http.ResponseWriter, err error) {
	stage := auth.StageStarted
	var loginErr *auth.LoginError
	if errors.As(err, &loginErr) {
		stage = loginErr.Stage
	}

	switch {
	case errors.Is(err, auth.ErrMalformedCallback):
		h.logger.Warn("oauth callback: malformed request", "stage", stage)
		writeError(w, http.StatusNotAcceptable, "not acceptable")
	case errors.Is(err, auth.ErrInvalidState):
		h.logger.Warn("oauth callback: invalid state", "stage", stage, "error", err)
		writeError(w, http.StatusNotAcceptable, auth.ErrInvalidState.Error())
	default:
		h.logger.Error("oauth callback failed", "stage", stage, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// Logout handles GET /logout. The cookie is cleared whether or not it was valid.
func (h *OAuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if user, err := identityFromRequest(h.logins, h.cookie.Name, r); err == nil {
		h.recorder.Record(r.Context(), user.ID, audit.KindLogout, clientIPFromRequest(r), r.UserAgent())
		h.logger.Info("user logged out", "user_id", user.ID, "tag", user.Discord.Tag())
	}

	http.SetCookie(w, h.cookie.clear())
	http.Redirect(w, r, "/", http.StatusFound)
}

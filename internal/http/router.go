package http

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"doorman/internal/audit"
	"doorman/internal/auth"
	"doorman/internal/config"
)

// NewRouter wires application routes and middleware using chi.
func NewRouter(cfg config.Config, svc *auth.Service, recorder *audit.Recorder, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(newSecurityHeadersMiddleware(cfg.Environment))
	r.Use(newSlogMiddleware(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"environment": cfg.Environment,
		})
	})

	cookie := SessionCookie{
		Name:   cfg.SessionName,
		MaxAge: cfg.SessionMaxAge(),
		Secure: cfg.SessionSecure,
	}
	oauthHandler := NewOAuthHandler(svc, recorder, cookie, logger)
	profileHandler := NewProfileHandler(recorder, logger)
	pages := NewStaticPages(cfg.StaticDir)

	r.Get("/", pages.Index)
	r.Get("/login", oauthHandler.Login)
	r.Get("/callback", oauthHandler.Callback)
	r.Get("/logout", oauthHandler.Logout)

	r.Group(func(r chi.Router) {
		r.Use(newIdentityMiddleware(svc, cfg.SessionName, logger))
		r.Get("/@me", profileHandler.Me)
		r.Get("/@me/logins", profileHandler.Logins)
	})

	r.NotFound(pages.NotFound)

	return r
}

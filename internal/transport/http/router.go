package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"readwatch/internal/handler"
	"readwatch/internal/httputil"
	"readwatch/internal/logger"
	"readwatch/internal/metrics"
	authmw "readwatch/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	ItemHandler   *handler.ItemHandler
	UserHandler   *handler.UserHandler
	FollowHandler *handler.FollowHandler
	FeedHandler   *handler.FeedHandler
	ExportHandler *handler.ExportHandler
	JWTSecret     string
	Logger        logger.Logger

	// Ping backs /health when set.
	Ping func(ctx context.Context) error
}

// NewRouter creates and configures a new Chi router with all route groups.
// No request-timeout middleware: POST /items is bounded by the summarizer budget.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(authmw.Log(cfg.Logger))
	r.Use(authmw.Metrics)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Ping != nil {
			if err := cfg.Ping(r.Context()); err != nil {
				httputil.WriteServiceUnavailable(w, "database unavailable")
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	optional := authmw.OptionalAuthMiddleware(cfg.JWTSecret)

	// Public routes
	r.Post("/users", cfg.UserHandler.Register)
	r.With(optional).Post("/items", cfg.ItemHandler.Create)

	r.Route("/user/{username}", func(r chi.Router) {
		r.With(optional).Get("/", cfg.UserHandler.GetProfile)
		r.Get("/items", cfg.ItemHandler.ListByUser)
		r.Get("/stats", cfg.ItemHandler.Stats)
		r.Get("/followers", cfg.FollowHandler.GetFollowers)
		r.Get("/following", cfg.FollowHandler.GetFollowing)
		r.Get("/export", cfg.ExportHandler.Download)
	})

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		r.Delete("/item/{id}", cfg.ItemHandler.Delete)

		r.Post("/follow/{username}", cfg.FollowHandler.Follow)
		r.Post("/unfollow/{username}", cfg.FollowHandler.Unfollow)

		r.Get("/feed", cfg.FeedHandler.GetFeed)

		r.Post("/me/export", cfg.ExportHandler.Publish)
	})

	return r
}

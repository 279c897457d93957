package handler

import (
	"net/http"
	"strconv"

	"readwatch/internal/httputil"
	"readwatch/internal/logger"
	"readwatch/internal/service"
	"readwatch/internal/transport/http/middleware"
)

type FeedHandler struct {
	feedService *service.FeedService
	log         logger.Logger
}

func NewFeedHandler(feedService *service.FeedService, log logger.Logger) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
		log:         log,
	}
}

// GetFeed handles GET /feed
// Returns the newest items of followed users for the authenticated user.
//
// Query params:
//   - limit: optional, at most 50; zero, negative or larger values mean 50
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	limit := service.FeedMaxLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil {
			httputil.WriteBadRequest(w, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	feed, err := h.feedService.AssembleFeed(r.Context(), userID, limit)
	if err != nil {
		internalError(w, r, h.log, "assemble feed", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, feed)
}

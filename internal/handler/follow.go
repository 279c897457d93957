package handler

import (
	"context"
	"errors"
	"net/http"

	"readwatch/internal/httputil"
	"readwatch/internal/logger"
	"readwatch/internal/model"
	"readwatch/internal/service"
	"readwatch/internal/transport/http/middleware"
)

type FollowHandler struct {
	followService *service.FollowService
	userService   *service.UserService
	log           logger.Logger
}

func NewFollowHandler(followService *service.FollowService, userService *service.UserService, log logger.Logger) *FollowHandler {
	return &FollowHandler{
		followService: followService,
		userService:   userService,
		log:           log,
	}
}

// Follow handles POST /follow/{username}
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "follow", h.followService.Follow, "Successfully followed user")
}

// Unfollow handles POST /unfollow/{username}
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "unfollow", h.followService.Unfollow, "Successfully unfollowed user")
}

func (h *FollowHandler) mutate(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	apply func(ctx context.Context, followerID, followeeID int64) error,
	okMessage string,
) {
	followerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	target, err := h.userService.GetByUsername(r.Context(), usernameParam(r))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, err.Error())
			return
		}
		internalError(w, r, h.log, op, err)
		return
	}

	if err := apply(r.Context(), followerID, target.ID); err != nil {
		switch {
		case errors.Is(err, model.ErrCannotFollowSelf),
			errors.Is(err, model.ErrAlreadyFollowing),
			errors.Is(err, model.ErrNotFollowing):
			httputil.WriteBadRequest(w, err.Error())
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, err.Error())
		default:
			internalError(w, r, h.log, op, err)
		}
		return
	}

	httputil.WriteMessage(w, http.StatusOK, okMessage)
}

// GetFollowers handles GET /user/{username}/followers
func (h *FollowHandler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "list followers", h.followService.FollowerUsernames)
}

// GetFollowing handles GET /user/{username}/following
func (h *FollowHandler) GetFollowing(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "list following", h.followService.FollowingUsernames)
}

func (h *FollowHandler) list(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	fetch func(ctx context.Context, userID int64) (*model.FollowListResponse, error),
) {
	user, err := h.userService.GetByUsername(r.Context(), usernameParam(r))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, err.Error())
			return
		}
		internalError(w, r, h.log, op, err)
		return
	}

	result, err := fetch(r.Context(), user.ID)
	if err != nil {
		internalError(w, r, h.log, op, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

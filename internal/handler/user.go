package handler

import (
	"errors"
	"net/http"

	"readwatch/internal/httputil"
	"readwatch/internal/logger"
	"readwatch/internal/model"
	"readwatch/internal/service"
	"readwatch/internal/transport/http/middleware"
)

type UserHandler struct {
	userService *service.UserService
	log         logger.Logger
}

func NewUserHandler(userService *service.UserService, log logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		log:         log,
	}
}

// Register handles POST /users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUsernameRequired), errors.Is(err, model.ErrInvalidUsername):
			httputil.WriteBadRequest(w, err.Error())
		case errors.Is(err, model.ErrUsernameExists):
			httputil.WriteConflict(w, err.Error())
		default:
			internalError(w, r, h.log, "register user", err)
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, user)
}

// GetProfile handles GET /user/{username}
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	var viewerID *int64
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		viewerID = &id
	}

	profile, err := h.userService.GetProfile(r.Context(), usernameParam(r), viewerID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		internalError(w, r, h.log, "get profile", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}

package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"readwatch/internal/httputil"
	"readwatch/internal/logger"
	"readwatch/internal/model"
	"readwatch/internal/service"
	"readwatch/internal/transport/http/middleware"
)

type ItemHandler struct {
	ingestService *service.IngestService
	itemService   *service.ItemService
	userService   *service.UserService
	requireAuth   bool
	log           logger.Logger
}

// NewItemHandler builds the bookmark endpoints. With requireAuth set, POST
// /items rejects anonymous submissions.
func NewItemHandler(
	ingestService *service.IngestService,
	itemService *service.ItemService,
	userService *service.UserService,
	requireAuth bool,
	log logger.Logger,
) *ItemHandler {
	return &ItemHandler{
		ingestService: ingestService,
		itemService:   itemService,
		userService:   userService,
		requireAuth:   requireAuth,
		log:           log,
	}
}

type alreadyTrackedResponse struct {
	Message string      `json:"message"`
	Item    *model.Item `json:"item"`
}

// Create handles POST /items
// 201 with the new item, or 200 {"message":"already tracked","item":...} on a duplicate.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		httputil.WriteBadRequest(w, model.ErrUsernameRequired.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		httputil.WriteBadRequest(w, model.ErrTitleRequired.Error())
		return
	}

	viewerID, authenticated := middleware.GetUserIDFromContext(r.Context())
	if h.requireAuth && !authenticated {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	owner, err := h.userService.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, err.Error())
			return
		}
		internalError(w, r, h.log, "resolve item owner", err)
		return
	}

	if authenticated && viewerID != owner.ID {
		httputil.WriteForbidden(w, "Cannot add items for another user")
		return
	}

	result, err := h.ingestService.Ingest(r.Context(), service.IngestRequest{
		OwnerID: owner.ID,
		Title:   req.Title,
		URL:     req.URL,
		Type:    req.Type,
	})
	if err != nil {
		switch {
		case errors.Is(err, model.ErrTitleRequired),
			errors.Is(err, model.ErrTitleTooLong),
			errors.Is(err, model.ErrInvalidItemType):
			httputil.WriteBadRequest(w, err.Error())
		default:
			internalError(w, r, h.log, "ingest item", err)
		}
		return
	}

	if result.Item.OwnerUsername == "" {
		result.Item.OwnerUsername = owner.Username
	}

	if result.Status == service.IngestAlreadyTracked {
		httputil.WriteJSON(w, http.StatusOK, alreadyTrackedResponse{Message: "already tracked", Item: result.Item})
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result.Item)
}

// Delete handles DELETE /item/{id}
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	itemID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid item ID")
		return
	}

	if err := h.itemService.Delete(r.Context(), userID, itemID); err != nil {
		switch {
		case errors.Is(err, model.ErrItemNotFound):
			httputil.WriteNotFound(w, err.Error())
		case errors.Is(err, model.ErrNotItemOwner):
			httputil.WriteForbidden(w, err.Error())
		default:
			internalError(w, r, h.log, "delete item", err)
		}
		return
	}

	httputil.WriteMessage(w, http.StatusOK, "Item deleted")
}

// ListByUser handles GET /user/{username}/items
// Unknown users yield an empty list, not a 404.
func (h *ItemHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	items, err := h.itemService.ListByUsername(r.Context(), usernameParam(r))
	if err != nil {
		internalError(w, r, h.log, "list items", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

// Stats handles GET /user/{username}/stats
func (h *ItemHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.itemService.Stats(r.Context(), usernameParam(r))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, err.Error())
			return
		}
		internalError(w, r, h.log, "item stats", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

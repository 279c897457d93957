package handler

import (
	"errors"
	"fmt"
	"net/http"

	"readwatch/internal/httputil"
	"readwatch/internal/logger"
	"readwatch/internal/model"
	"readwatch/internal/service"
	"readwatch/internal/transport/http/middleware"
)

type ExportHandler struct {
	exportService *service.ExportService
	log           logger.Logger
}

func NewExportHandler(exportService *service.ExportService, log logger.Logger) *ExportHandler {
	return &ExportHandler{exportService: exportService, log: log}
}

// Download handles GET /user/{username}/export
// Serves the reading list as a JSON attachment.
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	username := usernameParam(r)
	doc, err := h.exportService.Export(r.Context(), username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, err.Error())
			return
		}
		internalError(w, r, h.log, "export reading list", err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-reading-list.json"`, doc.Username))
	httputil.WriteJSON(w, http.StatusOK, doc)
}

// Publish handles POST /me/export
// Uploads the caller's reading list to object storage and returns its URL.
func (h *ExportHandler) Publish(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	res, err := h.exportService.Publish(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrExportDisabled):
			httputil.WriteServiceUnavailable(w, err.Error())
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, err.Error())
		default:
			internalError(w, r, h.log, "publish export", err)
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"url": res.URL})
}

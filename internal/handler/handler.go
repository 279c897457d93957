// Package handler adapts HTTP requests to the services and maps domain
// errors onto the JSON error envelope.
package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"readwatch/internal/httputil"
	"readwatch/internal/logger"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}

func usernameParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "username"))
}

// internalError logs err with the route context and writes a generic 500.
func internalError(w http.ResponseWriter, r *http.Request, log logger.Logger, op string, err error) {
	log.Error(op+" failed",
		logger.String("method", r.Method),
		logger.String("path", r.URL.Path),
		logger.Error(err),
	)
	httputil.WriteInternalError(w, "Internal server error")
}

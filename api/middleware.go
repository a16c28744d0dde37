package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"ragbackend/config"
)

const (
	corsAllowMethods = "GET,HEAD,PUT,PATCH,POST,DELETE"
	corsAnyOrigin    = "*"
)

// corsMiddleware adds CORS headers. CORS_ORIGIN selects the allowed origin;
// when it is empty any origin is allowed. OPTIONS requests are answered
// here as preflights and never reach the router.
func (a *API) corsMiddleware(next http.Handler) http.Handler {
	origin := a.config.CORS.Origin
	if origin == "" {
		origin = corsAnyOrigin
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		if origin != corsAnyOrigin {
			h.Add("Vary", "Origin")
		}

		if r.Method != http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		h.Set("Access-Control-Allow-Methods", corsAllowMethods)
		if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
			h.Set("Access-Control-Allow-Headers", requested)
			h.Add("Vary", "Access-Control-Request-Headers")
		}
		h.Set("Content-Length", "0")
		w.WriteHeader(http.StatusNoContent)
	})
}

// jsonBodyMiddleware parses JSON request bodies up to the configured limit.
// Only top-level objects and arrays are accepted. The parsed value is
// available through JSONBody, and r.Body is rewound for handlers that want
// the raw bytes.
func (a *API) jsonBodyMiddleware(next http.Handler) http.Handler {
	limit := a.config.JSONBodyLimit
	if limit <= 0 {
		limit = config.DefaultJSONBodyLimit
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || r.Body == http.NoBody || !isJSONContentType(r.Header.Get("Content-Type")) {
			next.ServeHTTP(w, r)
			return
		}

		if r.ContentLength > limit {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large", nil, a.logger)
			return
		}

		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				writeError(w, http.StatusRequestEntityTooLarge, "Request body too large", err, a.logger)
				return
			}
			writeError(w, http.StatusBadRequest, "Failed to read request body", err, a.logger)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(data))

		trimmed := bytes.TrimSpace(data)
		if len(trimmed) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		if trimmed[0] != '{' && trimmed[0] != '[' {
			writeError(w, http.StatusBadRequest, "Invalid JSON body: expected an object or array", nil, a.logger)
			return
		}

		var body interface{}
		if err := json.Unmarshal(trimmed, &body); err != nil {
			var syntaxError *json.SyntaxError
			if errors.As(err, &syntaxError) {
				writeError(w, http.StatusBadRequest,
					fmt.Sprintf("Invalid JSON syntax at position %d: %v", syntaxError.Offset, syntaxError), err, a.logger)
				return
			}
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON body: %v", err), err, a.logger)
			return
		}

		next.ServeHTTP(w, r.WithContext(withJSONBody(r.Context(), body)))
	})
}

// isJSONContentType matches application/json and any +json media type
func isJSONContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

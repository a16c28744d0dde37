package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// RootMessage is returned by the liveness route
const RootMessage = "RAG Backend is running"

type messageResponse struct {
	Message string `json:"message"`
}

// respondJSON writes data as a compact JSON body with an explicit length
func (a *API) respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	body, err := json.Marshal(data)
	if err != nil {
		a.logger.Errorw("Failed to encode JSON response",
			"error", err,
			"data_type", fmt.Sprintf("%T", data))
		writeError(w, http.StatusInternalServerError, "Internal server error", err, a.logger)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(statusCode)

	if _, err := w.Write(body); err != nil {
		a.logger.Debugw("Failed to write response body", "error", err)
	}
}

// getRoot reports liveness. It does not touch the database, so it answers
// the same way before, during and after the MongoDB connect.
func (a *API) getRoot(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, messageResponse{Message: RootMessage}, http.StatusOK)
}

// notFound answers unmatched routes the way Express does
func (a *API) notFound(w http.ResponseWriter, r *http.Request) {
	http.Error(w, fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path), http.StatusNotFound)
}

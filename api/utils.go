package api

import (
	"net/http"

	"go.uber.org/zap"
)

// maxErrorMessageLength bounds error text sent to clients
const maxErrorMessageLength = 500

// truncateErrorMessage caps client-facing error text. Messages may embed
// parser output derived from the request body.
func truncateErrorMessage(message string) string {
	if len(message) > maxErrorMessageLength {
		message = message[:maxErrorMessageLength-3] + "..."
	}
	return message
}

// writeError logs the full error and sends the truncated message to the
// client. Client errors are logged at warn level, server errors at error.
func writeError(w http.ResponseWriter, statusCode int, message string, err error, logger *zap.SugaredLogger) {
	if logger != nil {
		log := logger.Warnw
		if statusCode >= http.StatusInternalServerError {
			log = logger.Errorw
		}

		if err != nil {
			log(message, "error", err.Error(), "status_code", statusCode)
		} else {
			log(message, "status_code", statusCode)
		}
	}

	http.Error(w, truncateErrorMessage(message), statusCode)
}

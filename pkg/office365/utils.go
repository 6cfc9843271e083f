package office365

import (
	"io"
)

// closeBodySafely closes an HTTP response body and logs any error.
// Intended for defer statements where error handling is not critical.
func closeBodySafely(body io.Closer, logger Logger, operation string) {
	if err := body.Close(); err != nil {
		logger.Warnf("Failed to close %s body: %v", operation, err)
	}
}

// readErrorBody reads and returns the error body from an HTTP response.
func readErrorBody(body io.Reader) string {
	if body == nil {
		return ""
	}
	errorBody, _ := io.ReadAll(body)
	return string(errorBody)
}

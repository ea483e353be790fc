package adapter

import (
	"errors"
	"net/http"

	"github.com/akolanti/StudyRAG/internal/domain/ragErrors"
)

// StatusForError maps an error kind to the HTTP status reported to clients.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, ragErrors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ragErrors.ErrExtraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ragErrors.ErrEmbeddingService), errors.Is(err, ragErrors.ErrCompletionService):
		if ragErrors.IsTimeout(err) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.Is(err, ragErrors.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsRetryable is true for failures of a dependency rather than of the input.
func IsRetryable(err error) bool {
	switch StatusForError(err) {
	case http.StatusBadGateway, http.StatusGatewayTimeout, http.StatusServiceUnavailable:
		return true
	}
	return false
}

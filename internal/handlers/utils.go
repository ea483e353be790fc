package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/akolanti/StudyRAG/internal/adapter"
	"github.com/akolanti/StudyRAG/internal/api"
	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/domain/jobModel"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logRH.Error("Error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJsonResponse(w, statusCode, api.ErrorResponse{Error: message})
}

// writeServiceError reports err with the status its kind maps to.
func writeServiceError(w http.ResponseWriter, ctx context.Context, err error) {
	status := adapter.StatusForError(err)
	logRH.WithTrace(ctx).Error("Request failed", "status", status, "error", err)
	writeError(w, status, err.Error())
}

func validateId(id string, traceId string) (result jobModel.Job, isFound bool) {
	if id == "" {
		logRH.Warn("Empty Job ID")
		return jobModel.Job{}, false
	}
	return GetJobStatus(id, traceId)
}

func traceOf(ctx context.Context) string {
	trace, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	return trace
}

func validateContext(ctx context.Context) bool {
	if ctx.Err() != nil {
		logRH.WithTrace(ctx).Warn("context error", "error", ctx.Err())
		return false
	}

	select {
	case <-ctx.Done():
		logRH.WithTrace(ctx).Warn("context cancelled")
		return false
	default:
		return true
	}
}

// WriteErrorResponse writes the job shaped error the status and ingest endpoints use.
func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, error string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, error, httpCode))
}

func getTargetDirectory() (string, string) {
	if err := os.MkdirAll(uploadDir, 0750); err != nil {
		return "", "Storage Error"
	}
	return uploadDir, ""
}

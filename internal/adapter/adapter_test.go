package adapter

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/domain/jobModel"
	"github.com/akolanti/StudyRAG/internal/domain/ragErrors"
	"github.com/stretchr/testify/assert"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		want  int
		retry bool
	}{
		{"invalid input", ragErrors.Newf(ragErrors.ErrInvalidInput, "op", "bad"), http.StatusBadRequest, false},
		{"extraction", ragErrors.Newf(ragErrors.ErrExtraction, "op", "no text"), http.StatusUnprocessableEntity, false},
		{"embedding", ragErrors.New(ragErrors.ErrEmbeddingService, "op", errors.New("503")), http.StatusBadGateway, true},
		{"completion timeout", ragErrors.New(ragErrors.ErrCompletionService, "op", context.DeadlineExceeded), http.StatusGatewayTimeout, true},
		{"storage unavailable", ragErrors.New(ragErrors.ErrStorageUnavailable, "op", errors.New("refused")), http.StatusServiceUnavailable, true},
		{"storage write", ragErrors.New(ragErrors.ErrStorageWrite, "op", errors.New("dup")), http.StatusInternalServerError, false},
		{"ingestion wrapping embedding", ragErrors.New(ragErrors.ErrIngestion, "ingest", ragErrors.New(ragErrors.ErrEmbeddingService, "embed", errors.New("x"))), http.StatusBadGateway, true},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusForError(tt.err))
			assert.Equal(t, tt.retry, IsRetryable(tt.err))
		})
	}
}

func TestToAPIResponse(t *testing.T) {
	job := jobModel.Job{
		Id:          "j1",
		Status:      jobModel.JobStatusComplete,
		CurrentStep: jobModel.Complete,
		Result:      &commonModels.IngestResult{Filename: "a.pdf", TotalChunks: 4},
	}
	res := ToAPIResponse(job)
	assert.Equal(t, "j1", res.Id)
	assert.Nil(t, res.Error)
	assert.Equal(t, "COMPLETE", res.Result.Status)
	assert.Equal(t, 4, res.Result.IngestResult.TotalChunks)

	job.Error = jobModel.JobError{Code: 422, Message: "no text"}
	res = ToAPIResponse(job)
	if assert.NotNil(t, res.Error) {
		assert.Equal(t, 422, res.Error.Code)
	}
}

func TestToQueryResponse_NeverNullSources(t *testing.T) {
	res := ToQueryResponse(commonModels.AnswerResult{Answer: "a", NoData: true})
	assert.NotNil(t, res.Sources)
	assert.True(t, res.NoData)
	assert.Equal(t, "/api/status/x", ToInitJobResponse("x").StatusURL)
}

package api

import (
	"time"

	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
)

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type Result struct {
	Status       string                     `json:"status"`
	CurrentStep  string                     `json:"current_step,omitempty"`
	IngestResult *commonModels.IngestResult `json:"ingest_result,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type ErrorResponse struct {
	Error string `json:"error" example:"質問が空です"`
}

type QueryResponse struct {
	Answer   string                `json:"answer"`
	Sources  []commonModels.Source `json:"sources"`
	NoData   bool                  `json:"no_data,omitempty"`
	NotFound bool                  `json:"not_found,omitempty"`
}

type ResetResponse struct {
	Success bool `json:"success"`
	Existed bool `json:"existed"`
}

type PdfListResponse struct {
	PdfList []commonModels.Document `json:"pdf_list"`
}

type InitResponse struct {
	Stats        commonModels.Stats      `json:"stats"`
	PdfList      []commonModels.Document `json:"pdf_list"`
	DatabaseType string                  `json:"database_type"`
}

type ImagesResponse struct {
	Filename string               `json:"filename"`
	Page     int                  `json:"page"`
	Images   []commonModels.Image `json:"images"`
}

// requests---------------------

type QueryRequest struct {
	Question  string `json:"question" validate:"required"`
	SessionID string `json:"session_id,omitempty"`
}

type ResetRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

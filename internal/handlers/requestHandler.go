package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/akolanti/StudyRAG/internal/adapter"
	"github.com/akolanti/StudyRAG/internal/adapter/utils"
	"github.com/akolanti/StudyRAG/internal/api"
	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/rag"
	"github.com/akolanti/StudyRAG/internal/rag/ingest"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

const emptyQuestionMessage = "質問が空です"

var (
	logRH      = logger_i.NewLogger("RequestHandler")
	ragService rag.Service
	uploadDir  = config.DefaultUploadDir
)

// newJobData is what an upload hands to the job handler.
type newJobData struct {
	id             string
	traceId        string
	documentName   string
	documentSource string
}

// InitRequestHandler sets the service every request handler answers from and
// the directory uploads are staged in.
func InitRequestHandler(service rag.Service, stagingDir string) {
	logRH = logger_i.NewLogger("RequestHandler")
	ragService = service
	if stagingDir != "" {
		uploadDir = stagingDir
	}
}

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// QueryHandler godoc
// @Summary      Ask a question
// @Description  Answers a question from the ingested material and continues the session's conversation.
// @Tags         Query
// @Accept       json
// @Produce      json
// @Param        request  body      api.QueryRequest    true  "Question and optional session id"
// @Success      200      {object}  api.QueryResponse   "Answer with its sources"
// @Failure      400      {object}  api.ErrorResponse   "Empty question"
// @Failure      502      {object}  api.ErrorResponse   "Embedding or completion service failed"
// @Failure      503      {object}  api.ErrorResponse   "Vector store unavailable"
// @Router       /api/query [post]
func QueryHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("Invalid Context by request", "remote", r.RemoteAddr)
		return
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logRH.Error("Couldn't close the query handler reader", "error", err)
		}
	}(r.Body)

	var requestData api.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil {
		logRH.WithTrace(r.Context()).Warn("Bad query request", "error", err)
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(requestData.Question) == "" {
		writeError(w, http.StatusBadRequest, emptyQuestionMessage)
		return
	}

	result, err := ragService.Answer(r.Context(), requestData.Question, requestData.SessionID)
	if err != nil {
		writeServiceError(w, r.Context(), err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToQueryResponse(result))
}

// ResetHandler godoc
// @Summary      Reset a conversation
// @Description  Drops the transcript of a session. Without a body the default session is reset.
// @Tags         Query
// @Accept       json
// @Produce      json
// @Param        request  body      api.ResetRequest   false  "Session to reset"
// @Success      200      {object}  api.ResetResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /api/reset [post]
func ResetHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	var requestData api.ResetRequest
	if r.Body != nil {
		defer r.Body.Close()
		// an empty body resets the default session
		if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil && err != io.EOF {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	existed, err := ragService.ResetSession(r.Context(), requestData.SessionID)
	if err != nil {
		writeServiceError(w, r.Context(), err)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.ResetResponse{Success: true, Existed: existed})
}

// StatsHandler godoc
// @Summary      Store statistics
// @Tags         Library
// @Produce      json
// @Success      200  {object}  commonModels.Stats
// @Failure      503  {object}  api.ErrorResponse
// @Router       /api/stats [get]
func StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	stats, err := ragService.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r.Context(), err)
		return
	}
	writeJsonResponse(w, http.StatusOK, stats)
}

// PdfListHandler godoc
// @Summary      List ingested documents
// @Tags         Library
// @Produce      json
// @Success      200  {object}  api.PdfListResponse
// @Failure      503  {object}  api.ErrorResponse
// @Router       /api/pdf-list [get]
func PdfListHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	docs, err := ragService.ListDocuments(r.Context())
	if err != nil {
		writeServiceError(w, r.Context(), err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToPdfList(docs))
}

// InitHandler godoc
// @Summary      Initial page state
// @Description  Statistics, the document list and the active backend in one call.
// @Tags         Library
// @Produce      json
// @Success      200  {object}  api.InitResponse
// @Failure      503  {object}  api.ErrorResponse
// @Router       /api/init [get]
func InitHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	stats, err := ragService.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r.Context(), err)
		return
	}
	docs, err := ragService.ListDocuments(r.Context())
	if err != nil {
		writeServiceError(w, r.Context(), err)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.InitResponse{
		Stats:        stats,
		PdfList:      adapter.ToPdfList(docs).PdfList,
		DatabaseType: ragService.Backend(),
	})
}

// HealthHandler godoc
// @Summary      Health check
// @Tags         Health
// @Produce      json
// @Success      200  {object}  commonModels.Health
// @Failure      500  {object}  commonModels.Health
// @Router       /api/health [get]
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	health := ragService.Health(r.Context())
	status := http.StatusOK
	if health.Status != "ok" {
		status = http.StatusInternalServerError
	}
	writeJsonResponse(w, status, health)
}

// ImagesHandler godoc
// @Summary      Images on a page
// @Tags         Library
// @Produce      json
// @Param        filename  path      string  true  "Document filename"
// @Param        page      path      int     true  "1-based page number"
// @Success      200       {object}  api.ImagesResponse
// @Failure      400       {object}  api.ErrorResponse
// @Router       /api/images/{filename}/{page} [get]
func ImagesHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	filename := utils.GetChiURLParam(r, "filename")
	page, err := strconv.Atoi(utils.GetChiURLParam(r, "page"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "page must be a number")
		return
	}

	images, err := ragService.ImagesForPage(r.Context(), filename, page)
	if err != nil {
		writeServiceError(w, r.Context(), err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToImagesResponse(filename, page, images))
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status of an ingestion job using its ID.
// @Tags         Ingestion
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse   "Successful retrieval of job status"
// @Failure      404  {object}  api.JobResponse   "Job not found (returns Error object within JobResponse)"
// @Router       /api/status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	idString := utils.GetChiURLParam(r, "id")
	logRH.Debug("Get Status Request", "URL path", r.URL.Path)

	result, isFound := validateId(idString, traceOf(r.Context()))
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

// PostIngestHandler handles the uploading of documents for ingestion.
// @Summary      Upload a document for ingestion
// @Description  Receives a file via multipart/form-data, stages it on disk, and queues an ingestion job.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        document_name  formData  string  false  "Name the document is stored under, defaults to the uploaded filename"
// @Param        document       formData  file    true   "The PDF, DOCX or TXT file to upload"
// @Success      202  {object}  api.InitJobResponse "Accepted - returns the job id"
// @Failure      400  {object}  api.JobResponse "Bad Request - Missing fields, unsupported type or file too large"
// @Failure      500  {object}  api.JobResponse "Internal Server Error - Storage or Write Error"
// @Router       /api/ingest [post]
func PostIngestHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("Invalid Context by request", "remote", r.RemoteAddr)
		return
	}

	targetDir, errString := getTargetDirectory()
	if errString != "" {
		logRH.Error("Couldn't get target directory", "err", errString)
		WriteErrorResponse(w, http.StatusInternalServerError, "", errString)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize)
	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "File too large or bad request")
		return
	}

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	docName := strings.TrimSpace(r.FormValue("document_name"))
	if docName == "" {
		docName = filepath.Base(fileMetadata.Filename)
	}
	if !ingest.Supported(fileMetadata.Filename) {
		WriteErrorResponse(w, http.StatusBadRequest, docName, "Unsupported file type")
		return
	}

	stagedName := fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(fileMetadata.Filename))
	tempFilePath := filepath.Join(targetDir, stagedName)
	destinationFileWriter, err := os.Create(tempFilePath)
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, docName, "Storage error")
		return
	}
	_, err = io.Copy(destinationFileWriter, fileReader)
	if closeErr := destinationFileWriter.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tempFilePath)
		WriteErrorResponse(w, http.StatusInternalServerError, docName, "Write error")
		return
	}

	newJob := newJobData{
		id:             utils.GetNewUUID(),
		traceId:        traceOf(r.Context()),
		documentName:   docName,
		documentSource: tempFilePath,
	}
	if err := CreateNewJob(r.Context(), newJob); err != nil {
		logRH.WithTrace(r.Context()).Warn("Could not queue upload", "document", docName, "error", err)
		_ = os.Remove(tempFilePath)
		WriteErrorResponse(w, http.StatusServiceUnavailable, docName, "Ingestion is not available")
		return
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
}

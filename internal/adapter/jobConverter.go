package adapter

import (
	"fmt"
	"time"

	"github.com/akolanti/StudyRAG/internal/api"
	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/domain/jobModel"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("/api/status/%s", id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {

	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	return api.JobResponse{
		Id:        job.Id,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result: api.Result{
			Status:       string(job.Status),
			CurrentStep:  string(job.CurrentStep),
			IngestResult: job.Result,
		},
	}
}

func ToQueryResponse(result commonModels.AnswerResult) api.QueryResponse {
	sources := result.Sources
	if sources == nil {
		sources = []commonModels.Source{}
	}
	return api.QueryResponse{
		Answer:   result.Answer,
		Sources:  sources,
		NoData:   result.NoData,
		NotFound: result.NotFound,
	}
}

func ToPdfList(docs []commonModels.Document) api.PdfListResponse {
	if docs == nil {
		docs = []commonModels.Document{}
	}
	return api.PdfListResponse{PdfList: docs}
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}

func ToImagesResponse(filename string, page int, images []commonModels.Image) api.ImagesResponse {
	if images == nil {
		images = []commonModels.Image{}
	}
	return api.ImagesResponse{Filename: filename, Page: page, Images: images}
}

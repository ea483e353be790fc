package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/akolanti/StudyRAG/internal/handlers"
	"github.com/akolanti/StudyRAG/internal/metrics"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

var GetHandler = Wrap(handlers.GetHandler)

var QueryHandler = Wrap(handlers.QueryHandler)
var ResetHandler = Wrap(handlers.ResetHandler)
var StatsHandler = Wrap(handlers.StatsHandler)
var PdfListHandler = Wrap(handlers.PdfListHandler)
var InitHandler = Wrap(handlers.InitHandler)
var HealthHandler = Wrap(handlers.HealthHandler)
var ImagesHandler = Wrap(handlers.ImagesHandler)
var GetStatusHandler = Wrap(handlers.GetStatusHandler)
var PostIngestHandler = Wrap(handlers.PostIngestHandler)

func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK} //metrics
		re := processRequest(requestResponseStruct{req: r, writer: rec})

		if re.badRequest.isBadRequest {
			handleBadRequest(re)
		} else {
			next(rec, re.req)
		}

		route := routeLabel(r)
		metrics.HttpRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.Status)).Inc() //metrics
		re.logger.Debug("Request finished", "route", route, "status", rec.Status, "duration", time.Since(start))
	}
}

// routeLabel is the chi pattern, so /api/status/{id} stays one series.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re = injectTrace(re)
	if re.badRequest.isBadRequest {
		return re
	}
	re.logger.Info("New request received", "method", re.req.Method, "path", re.req.URL.Path)
	return rateLimiter(re)
}

package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/akolanti/StudyRAG/internal/adapter/utils"
	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/middleware"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

var (
	server  *http.Server
	_logger = logger_i.NewLogger("Server")
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    context.CancelFunc
}

// CreateServer registers the routes and blocks serving on listenAddr.
// Extracted figures under imageDir are served read-only at /images/.
func CreateServer(listenAddr string, imageDir string) {
	_logger = logger_i.NewLogger("Server")

	r := utils.GetRouter()

	r.Router.Get("/", middleware.GetHandler)
	if imageDir != "" {
		utils.MountStatic(r.Router, "/images", imageDir)
	}
	r.Router.Route("/api", func(api chi.Router) {
		api.Post("/query", middleware.QueryHandler)
		api.Post("/reset", middleware.ResetHandler)
		api.Get("/stats", middleware.StatsHandler)
		api.Get("/pdf-list", middleware.PdfListHandler)
		api.Get("/init", middleware.InitHandler)
		api.Get("/health", middleware.HealthHandler)
		api.Get("/images/{filename}/{page}", middleware.ImagesHandler)
		api.Post("/ingest", middleware.PostIngestHandler)
		api.Get("/status/{id}", middleware.GetStatusHandler)
	})
	server = &http.Server{
		Addr:         listenAddr,
		Handler:      r.Router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	_logger.Info("Server is listening at", "address", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error :", err.Error(), "addr", listenAddr)
	}
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	_logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		if server != nil {
			server.SetKeepAlivesEnabled(false)
			if err := server.Shutdown(ctx); err != nil {
				_logger.Error("Could not shutdown gracefully", "error", err)
			}
		}

		//close workers
		close(shutdownParams.WorkerStop)
		shutdownParams.Group.Wait()
		shutdownParams.CloseServices()
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Gracefully is shutting down")
	case <-ctx.Done():
		_logger.Info("Force Shut down")
		os.Exit(1)
	}
}

// @title           StudyRAG API
// @version         1.0
// @description     Question answering over ingested study material, with asynchronous document ingestion.
// @termsOfService  http://swagger.io/terms/

// @contact.name    StudyRAG maintainers

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:5000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akolanti/StudyRAG/internal/adapter/utils"
	"github.com/akolanti/StudyRAG/internal/app"
	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/data/store"
	jobmodel "github.com/akolanti/StudyRAG/internal/domain/jobModel"
	"github.com/akolanti/StudyRAG/internal/handlers"
	"github.com/akolanti/StudyRAG/internal/job"
	"github.com/akolanti/StudyRAG/internal/middleware"
	"github.com/akolanti/StudyRAG/internal/server"
	"github.com/akolanti/StudyRAG/internal/worker"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

var (
	listenAddr        string
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger_i.NewLogger("main").Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logger_i.Init(cfg.Log)
	var logger = logger_i.NewLogger("main")

	flag.StringVar(&listenAddr, "listen-addr", cfg.ListenAddr(), "server listen address")
	flag.Parse()

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	engine, err := app.Build(serviceContext, cfg)
	if err != nil {
		logger.Error("Engine failed to initialize. Shutting down.", "error", err)
		return
	}
	defer engine.Close()

	//init job service and job store
	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		DispatcherChannel: dispatcherChannel,
	}
	jobStore, err := store.GetRedisJobStore(serviceContext, cfg.Redis)
	if err != nil {
		logger.Error("Redis job store is offline, keeping jobs in memory", "error", err)
		serviceConfig.JobStore = store.InitInMemoryJobStore()
	} else {
		serviceConfig.JobStore = jobStore
	}
	logger.Info("Starting job service")
	service := job.InitJobService(serviceConfig)

	handlers.InitJobHandler(service)
	handlers.InitRequestHandler(engine.Service, cfg.Files.UploadDir)
	middleware.InitRateLimiter(cfg.RateLimit)

	//init worker pool
	worker.InitServices(service, engine.Service)
	worker.SetLimits(cfg.Workers)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	utils.ConfigureRouter(utils.RouterOptions{AllowedOrigins: cfg.CORSOrigins})
	go server.CreateServer(listenAddr, cfg.Files.ImageDir)

	<-stopExecution
	logger.Info("Server stopped")
}

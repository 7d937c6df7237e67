package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/booklib/server/internal/auth"
	"github.com/booklib/server/internal/config"
	"github.com/booklib/server/internal/database"
	"github.com/booklib/server/internal/database/analytics"
	"github.com/booklib/server/internal/database/catalog"
	"github.com/booklib/server/internal/database/counters"
	"github.com/booklib/server/internal/database/ledger"
	"github.com/booklib/server/internal/downloads"
	"github.com/booklib/server/internal/filestore"
	http_controllers "github.com/booklib/server/internal/http"
	"github.com/booklib/server/internal/metrics"
	"github.com/booklib/server/internal/scheduler"
	"github.com/booklib/server/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown: wait for interrupt signal, then drain with a
	// timeout. Large file streams in flight get the same grace period as
	// everything else.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting booklib server v%s", version)

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Initialize the book file store
	files, err := filestore.NewLocal(cfg.Files.Dir)
	if err != nil {
		log.Fatalf("Failed to initialize file store: %v", err)
	}
	log.Printf("File store initialized at %s", files.BaseDir())

	// Create repositories
	ledgerRepo := ledger.NewRepository(db.DB)
	countersRepo := counters.NewRepository(db.DB)
	analyticsRepo := analytics.NewRepository(db.DB)
	catalogRepo := catalog.NewRepository(db.DB)

	// Core download pipeline
	policy := downloads.NewEligibilityPolicy(ledgerRepo)
	propagator := downloads.NewCounterPropagator(ledgerRepo, countersRepo)

	// Initialize task queue if enabled; counter propagation runs through
	// it when available and synchronously otherwise.
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var dispatcher downloads.Dispatcher = propagator
	var reconcileDispatcher scheduler.ReconcileEnqueuer
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		// Register task queues
		taskClient.Register(
			tasks.NewPropagateCountersQueue(propagator),
			tasks.NewReconcileCountersQueue(countersRepo),
		)

		dispatcher = tasks.NewQueueDispatcher(taskClient)
		reconcileDispatcher = tasks.NewReconcileDispatcher(taskClient)

		// Start task workers in background
		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	downloadService := downloads.NewService(catalogRepo, files, ledgerRepo, policy, dispatcher)

	// Counter maintenance jobs
	counterScheduler := scheduler.NewCounterScheduler(countersRepo, reconcileDispatcher, cfg.Counters)
	if err := counterScheduler.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start counter scheduler: %v", err)
	}

	// Metrics
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// Authentication: API bearer tokens resolved against the user table
	authMiddleware := auth.NewMiddleware(catalogRepo)

	// Build router configuration with all dependencies
	routerCfg := http_controllers.RouterConfig{
		Database:        db,
		DownloadService: downloadService,
		DownloadLister:  ledgerRepo,
		HistoryStore:    countersRepo,
		AnalyticsRepo:   analyticsRepo,
		AuthMiddleware:  authMiddleware,
		Metrics:         m,
		Version:         version,
	}

	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		counterScheduler.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}

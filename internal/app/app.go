// Package app wires configuration, the directory and the services into a
// runnable server.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-ledger-api/api/swagger"
	"github.com/noah-isme/campus-ledger-api/internal/handler"
	"github.com/noah-isme/campus-ledger-api/internal/middleware"
	"github.com/noah-isme/campus-ledger-api/internal/repository"
	"github.com/noah-isme/campus-ledger-api/internal/seed"
	"github.com/noah-isme/campus-ledger-api/internal/service"
	"github.com/noah-isme/campus-ledger-api/pkg/config"
	"github.com/noah-isme/campus-ledger-api/pkg/jobs"
	"github.com/noah-isme/campus-ledger-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-ledger-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-ledger-api/pkg/middleware/requestid"
	"github.com/noah-isme/campus-ledger-api/pkg/storage"
)

// App holds the process-wide state.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Directory *repository.Directory
	Services  handler.Services

	exportQueue *jobs.Queue
}

// New builds an empty directory, the services over it and the export worker
// pool. Workers are not running until StartWorkers.
func New(cfg *config.Config, logr *zap.Logger) (*App, error) {
	if logr == nil {
		logr = zap.NewNop()
	}
	dir := repository.NewDirectory()
	validate := validator.New()

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	store, err := storage.NewLocalStorage(cfg.Export.Dir)
	if err != nil {
		return nil, fmt.Errorf("init export storage: %w", err)
	}
	reports := service.NewReportService(dir, logr)
	exports := service.NewExportService(reports, store, storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Export.ResultTTL), service.ExportConfig{
		APIPrefix:       cfg.APIPrefix,
		ResultTTL:       cfg.Export.ResultTTL,
		CleanupInterval: cfg.Export.CleanupInterval,
	}, logr)
	queue := jobs.NewQueue("report-exports", exports.Handle, jobs.QueueConfig{
		Workers:    cfg.Export.Workers,
		MaxRetries: cfg.Export.MaxRetries,
		OnGiveUp:   exports.GiveUp,
		Logger:     logr,
	})
	exports.UseQueue(queue)

	return &App{
		Config:      cfg,
		Logger:      logr,
		Directory:   dir,
		exportQueue: queue,
		Services: handler.Services{
			Directory: dir,
			Auth: service.NewAuthService(dir, validate, logr, service.AuthConfig{
				AccessTokenSecret: cfg.JWT.Secret,
				AccessTokenExpiry: cfg.JWT.Expiration,
				Issuer:            cfg.JWT.Issuer,
			}),
			Accounts:    service.NewAccountService(dir, validate, logr).WithMetrics(metrics),
			Catalog:     service.NewCatalogService(dir, validate, logr),
			Ledger:      service.NewEnrollmentService(dir, cfg.Ledger, metrics, validate, logr),
			Grades:      service.NewGradeService(dir, cfg.Ledger, logr),
			Assignments: service.NewAssignmentService(dir, validate, logr),
			Reports:     reports,
			Exports:     exports,
			Metrics:     metrics,
		},
	}, nil
}

// StartWorkers runs the export queue and the expired-export sweeper until ctx
// is done. Pair it with StopWorkers.
func (a *App) StartWorkers(ctx context.Context) {
	a.exportQueue.Start(ctx)
	a.Services.Exports.StartCleanup(ctx)
}

// StopWorkers drains the export queue.
func (a *App) StopWorkers() {
	a.exportQueue.Stop()
}

// Seed loads the YAML fixture at path. An empty path is a no-op.
func (a *App) Seed(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	fx, err := seed.LoadFile(path)
	if err != nil {
		return err
	}
	loader := seed.NewLoader(a.Services.Accounts, a.Services.Catalog, a.Services.Ledger, a.Logger)
	if _, err := loader.Apply(ctx, fx); err != nil {
		return fmt.Errorf("apply seed %s: %w", path, err)
	}
	return nil
}

// Router builds the gin engine with the ambient middleware chain.
func (a *App) Router() *gin.Engine {
	if a.Config.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(a.Logger))
	r.Use(corsmiddleware.New(a.Config.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(a.Services.Metrics, a.Config.Metrics.Path, "/health", "/ready"))

	metrics := handler.NewMetricsHandler(a.Services.Metrics, a.Directory)
	r.GET("/health", metrics.Health)
	r.GET("/ready", metrics.Ready)
	if a.Config.Metrics.Enabled {
		r.GET(a.Config.Metrics.Path, metrics.Prometheus)
	}
	if a.Config.Docs.Enabled && a.Config.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(a.Config.APIPrefix), a.Services)
	return r
}

// Serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.Config.Port),
		Handler: a.Router(),
	}

	a.StartWorkers(ctx)
	defer a.StopWorkers()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Sugar().Infow("server starting", "addr", srv.Addr, "env", a.Config.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
	defer cancel()
	a.Logger.Info("server shutting down")
	return srv.Shutdown(shutdownCtx)
}

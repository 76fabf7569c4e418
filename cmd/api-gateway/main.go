package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/shiftwise/shiftwise-api/internal/handler"
	internalmiddleware "github.com/shiftwise/shiftwise-api/internal/middleware"
	"github.com/shiftwise/shiftwise-api/internal/repository"
	"github.com/shiftwise/shiftwise-api/internal/service"
	"github.com/shiftwise/shiftwise-api/pkg/aischeduler"
	"github.com/shiftwise/shiftwise-api/pkg/cache"
	"github.com/shiftwise/shiftwise-api/pkg/config"
	"github.com/shiftwise/shiftwise-api/pkg/database"
	"github.com/shiftwise/shiftwise-api/pkg/logger"
	corsmiddleware "github.com/shiftwise/shiftwise-api/pkg/middleware/cors"
	reqidmiddleware "github.com/shiftwise/shiftwise-api/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var scheduleCache *repository.ScheduleCache
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, latest-schedule cache disabled", "error", err)
	} else {
		defer redisClient.Close() //nolint:errcheck
		scheduleCache = repository.NewScheduleCache(redisClient, cfg.Scheduler.CacheTTL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	departmentRepo := repository.NewDepartmentRepository(db)
	preferenceRepo := repository.NewPreferenceRepository(db)
	absenceRepo := repository.NewAbsenceRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)

	metricsSvc := service.NewMetricsService()
	remote := aischeduler.New(cfg.Remote, logr)

	persistSvc := service.NewPersistService(scheduleRepo, scheduleCache, cfg.Persist, logr)
	persistSvc.Start(ctx)
	defer persistSvc.Stop()

	generationSvc := service.NewGenerationService(service.GenerationDeps{
		Departments: departmentRepo,
		Preferences: preferenceRepo,
		Absences:    absenceRepo,
		Schedules:   scheduleRepo,
		Cache:       scheduleCache,
		Remote:      remote,
		Persister:   persistSvc,
		Metrics:     metricsSvc,
	}, validator.New(), logr)

	scheduleHandler := handler.NewScheduleHandler(generationSvc)
	exportHandler := handler.NewExportHandler(generationSvc, service.NewExportService(logr))
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/schedules/generate", scheduleHandler.Generate)
		api.GET("/businesses/:businessId/schedules", scheduleHandler.ListCurrent)
		api.GET("/businesses/:businessId/schedules/latest", scheduleHandler.Latest)
		api.GET("/businesses/:businessId/schedules/latest/export", exportHandler.ExportLatest)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}

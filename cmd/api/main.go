package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campusops/submission-restrict-api/api/swagger"
	"github.com/campusops/submission-restrict-api/internal/handler"
	"github.com/campusops/submission-restrict-api/internal/middleware"
	"github.com/campusops/submission-restrict-api/internal/mod"
	"github.com/campusops/submission-restrict-api/internal/models"
	"github.com/campusops/submission-restrict-api/internal/repository"
	"github.com/campusops/submission-restrict-api/internal/service"
	"github.com/campusops/submission-restrict-api/pkg/cache"
	"github.com/campusops/submission-restrict-api/pkg/config"
	"github.com/campusops/submission-restrict-api/pkg/database"
	"github.com/campusops/submission-restrict-api/pkg/jobs"
	"github.com/campusops/submission-restrict-api/pkg/logger"
	corsmiddleware "github.com/campusops/submission-restrict-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusops/submission-restrict-api/pkg/middleware/requestid"
	"github.com/campusops/submission-restrict-api/pkg/storage"
)

// @title Submission Restrict API
// @version 1.0.0
// @description Due-date restriction service for course activities
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, settings cache disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	location := time.Local
	if cfg.Restrictions.Timezone != "" {
		location, err = time.LoadLocation(cfg.Restrictions.Timezone)
		if err != nil {
			logr.Sugar().Fatalw("invalid restrictions timezone", "timezone", cfg.Restrictions.Timezone, "error", err)
		}
	}

	restrictionRepo := repository.NewRestrictionRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	userRepo := repository.NewUserRepository(db)

	metricsSvc := service.NewMetricsService()

	settingsSvc := service.NewSettingsService(settingRepo, userRepo, redisClient, cfg.Restrictions.SettingsCacheTTL, logr)
	settingsSvc.AttachMetrics(metricsSvc)

	calendarSvc := service.NewCalendarService(calendarRepo, assignmentRepo, logr)
	queue := jobs.NewQueue("calendar", func(ctx context.Context, job jobs.Job) error {
		err := calendarSvc.HandleJob(ctx, job)
		metricsSvc.ObserveCalendarJob(err == nil)
		return err
	}, jobs.QueueConfig{
		Workers:    cfg.Calendar.Workers,
		BufferSize: cfg.Calendar.BufferSize,
		MaxRetries: cfg.Calendar.MaxRetries,
		RetryDelay: cfg.Calendar.RetryDelay,
		Logger:     logr,
	})
	calendarSvc.AttachQueue(queue)

	assignAdapter := mod.NewAssign(restrictionRepo, assignmentRepo, calendarSvc, settingsSvc, location, logr)
	registry := mod.NewRegistry(assignAdapter)
	for _, adapter := range registry.All() {
		settingsSvc.RegisterAdapter(adapter.Name(), adapter.SettingNames())
	}

	authSvc := service.NewAuthService(userRepo, userRepo, cfg.JWT, logr)
	restrictSvc := service.NewRestrictService(registry, restrictionRepo, userRepo, logr)
	restoreSvc := service.NewRestoreService(registry, settingsSvc, cfg.Restore.Enabled, userRepo, logr)
	reportSvc := service.NewReportService(restrictionRepo, cfg.Reports, location)
	archiveStore, err := storage.NewArchiveStore(cfg.Reports.ExportDir)
	if err != nil {
		logr.Sugar().Warnw("export archive unavailable", "dir", cfg.Reports.ExportDir, "error", err)
	} else {
		reportSvc.AttachArchive(archiveStore, storage.NewSigner(cfg.JWT.Secret, cfg.Reports.ExportTTL))
	}
	privacySvc := service.NewPrivacyService(restrictionRepo, userRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	activityHandler := handler.NewActivityHandler(restrictSvc)
	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	eventHandler := handler.NewEventHandler(restoreSvc)
	privacyHandler := handler.NewPrivacyHandler(privacySvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.GET("/mods", activityHandler.ListMods)
	protected.GET("/activities/:id/form", activityHandler.GetForm)
	protected.POST("/activities/:id/form", activityHandler.SubmitForm)
	protected.DELETE("/activities/:id/restriction",
		middleware.RequireRoles(models.RoleAdmin, models.RoleManager), activityHandler.DeleteRestriction)
	protected.DELETE("/courses/:id/restrictions",
		middleware.RequireRoles(models.RoleAdmin, models.RoleManager), activityHandler.DeleteCourseRestrictions)

	protected.GET("/settings", middleware.RequireRoles(models.RoleAdmin), settingsHandler.List)
	protected.PUT("/settings/:key", middleware.RequireRoles(models.RoleAdmin), settingsHandler.Update)

	protected.GET("/report", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), reportHandler.List)
	protected.GET("/report/export", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), reportHandler.Export)
	protected.POST("/report/archive", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), reportHandler.Archive)

	// The signed token carried in the query string authorizes the download.
	api.GET("/report/download", reportHandler.Download)

	protected.POST("/events/grade-item-created", middleware.RequireRoles(models.RoleAdmin), eventHandler.GradeItemCreated)

	protected.GET("/privacy/users/:id/restrictions", middleware.RBAC("ADMIN", "SELF"), privacyHandler.ExportRestrictions)
	protected.POST("/privacy/users/:id/anonymize", middleware.RequireRoles(models.RoleAdmin), privacyHandler.Anonymize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue.Start(ctx)
	defer queue.Stop()

	if archiveStore != nil {
		go func() {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if n, err := archiveStore.CleanupOlderThan(cfg.Reports.ExportTTL); err != nil {
						logr.Sugar().Warnw("export cleanup failed", "error", err)
					} else if n > 0 {
						logr.Sugar().Infow("expired exports removed", "count", n)
					}
				}
			}
		}()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

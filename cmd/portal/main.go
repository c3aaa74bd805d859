package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/tms-portal-api/api/swagger"
	"github.com/noah-isme/tms-portal-api/internal/gateway"
	"github.com/noah-isme/tms-portal-api/internal/handler"
	"github.com/noah-isme/tms-portal-api/internal/middleware"
	"github.com/noah-isme/tms-portal-api/internal/models"
	"github.com/noah-isme/tms-portal-api/internal/repository"
	"github.com/noah-isme/tms-portal-api/internal/service"
	"github.com/noah-isme/tms-portal-api/internal/store"
	"github.com/noah-isme/tms-portal-api/pkg/cache"
	"github.com/noah-isme/tms-portal-api/pkg/config"
	"github.com/noah-isme/tms-portal-api/pkg/database"
	"github.com/noah-isme/tms-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/tms-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tms-portal-api/pkg/middleware/requestid"

	"github.com/go-playground/validator/v10"
)

// @title TMS Portal API
// @version 0.1.0
// @description Portal backend for the training management system
// @BasePath /api/v1
// @schemes http

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

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect redis", "error", err)
		}
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close() //nolint:errcheck
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, true)
	}

	var (
		auditSvc *service.AuditService
		auditor  service.AuditRecorder
	)
	if cfg.Audit.Enabled {
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect database", "error", err)
		}
		defer db.Close() //nolint:errcheck
		auditSvc = service.NewAuditService(repository.NewAuditRepository(db), cfg.Audit, logr)
		auditSvc.Start(context.Background())
		defer auditSvc.Stop()
		auditor = auditSvc
	}

	gw := gateway.NewClient(cfg.Upstream, logr, metricsSvc)
	graph := store.NewResourceGraph()

	provisioningSvc := service.NewProvisioningService(gw, graph, auditor, cacheSvc, validate, logr)
	hierarchySvc := service.NewHierarchyService(gw, auditor, validate, logr)
	reconcileSvc := service.NewReconcileService(gw, cacheSvc, auditor, logr)
	feedbackSvc := service.NewFeedbackService(gw, validate, logr)
	exportSvc := service.NewExportService(hierarchySvc, reconcileSvc, logr)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret)

	provisioningH := handler.NewProvisioningHandler(provisioningSvc)
	userH := handler.NewUserHandler(hierarchySvc)
	dashboardH := handler.NewDashboardHandler(reconcileSvc)
	feedbackH := handler.NewFeedbackHandler(feedbackSvc)
	exportH := handler.NewExportHandler(exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenSvc))

	admin := api.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdministrator))
	{
		admin.GET("/courses", provisioningH.ListCourses)
		admin.POST("/courses", provisioningH.CreateCourse)
		admin.POST("/courses/:courseId/calendar-form", provisioningH.ToggleCalendarForm)
		admin.POST("/courses/:courseId/calendars", provisioningH.SubmitCalendar)
		admin.POST("/courses/:courseId/batch-form", provisioningH.ToggleBatchForm)
		admin.POST("/courses/:courseId/batches", provisioningH.SubmitBatch)
		admin.GET("/courses/:courseId/state", provisioningH.State)

		admin.GET("/users/roster", userH.Roster)
		admin.GET("/users/managers", userH.ListManagers)
		admin.POST("/users/managers", userH.CreateManager)
		admin.POST("/users/managers/:managerId/employee-form", userH.ToggleEmployeeForm)
		admin.POST("/users/managers/:managerId/employee-form/cancel", userH.CancelEmployeeForm)
		admin.POST("/users/managers/:managerId/employees", userH.CreateEmployee)
		admin.GET("/users/managers/:managerId/state", userH.ManagerState)
		admin.DELETE("/users/:id", userH.DeleteUser)

		admin.GET("/batches/overview", dashboardH.Overview)
		admin.PUT("/batches/:batchId", provisioningH.UpdateBatch)
		admin.DELETE("/batches/:batchId", provisioningH.DeleteBatch)
		admin.GET("/feedback/batch/:batchId", feedbackH.ListForBatch)

		if auditSvc != nil {
			admin.GET("/audit", handler.NewAuditHandler(auditSvc).Recent)
		}
		if cfg.Exports.Enabled {
			admin.GET("/exports/roster", exportH.Roster)
		}
	}

	api.GET("/dashboard", dashboardH.Dashboard)
	api.POST("/enrollments/:batchId/request", dashboardH.RequestEnrollment)
	api.POST("/feedback/:batchId", feedbackH.Submit)
	if cfg.Exports.Enabled {
		api.GET("/exports/dashboard", exportH.Dashboard)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("portal starting", "addr", addr, "env", cfg.Env, "upstream", cfg.Upstream.BaseURL)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("portal failed", "error", err)
	}
}

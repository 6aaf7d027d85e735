package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sma-presensi-api/api/swagger"
	"github.com/noah-isme/sma-presensi-api/internal/handler"
	"github.com/noah-isme/sma-presensi-api/internal/middleware"
	"github.com/noah-isme/sma-presensi-api/internal/models"
	"github.com/noah-isme/sma-presensi-api/internal/repository"
	"github.com/noah-isme/sma-presensi-api/internal/service"
	"github.com/noah-isme/sma-presensi-api/pkg/cache"
	"github.com/noah-isme/sma-presensi-api/pkg/config"
	"github.com/noah-isme/sma-presensi-api/pkg/database"
	"github.com/noah-isme/sma-presensi-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-presensi-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-presensi-api/pkg/middleware/requestid"
)

// @title SMA Presensi API
// @version 0.1.0
// @description Attendance recording and reconciliation engine
// @BasePath /
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	scheduleRepo := repository.NewScheduleRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	requestRepo := repository.NewRequestRepository(db)

	tokenSvc := service.NewTokenService(tokenRepo, scheduleRepo, validate, logr, cfg.Attendance)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, scheduleRepo, tokenSvc, metricsSvc, validate, logr, cfg.Attendance)
	workflowSvc := service.NewWorkflowService(requestRepo, validate, logr)
	slotSvc := service.NewSlotService(scheduleRepo, attendanceRepo, redisClient, logr, cfg.Attendance, cfg.Reporting)
	summarySvc := service.NewSummaryService(attendanceRepo, logr)

	tokenHandler := handler.NewTokenHandler(tokenSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	workflowHandler := handler.NewWorkflowHandler(workflowSvc)
	reportHandler := handler.NewReportHandler(slotSvc, summarySvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

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
		if err := db.Ping(); err != nil {
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
	api.Use(middleware.JWT(cfg.JWT.Secret))

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher, models.RoleHomeroom)

	api.POST("/tokens", staff, tokenHandler.Issue)
	api.DELETE("/tokens/:id", staff, tokenHandler.Invalidate)

	api.POST("/attendance/scan", attendanceHandler.Scan)
	api.POST("/attendance", staff, attendanceHandler.Manual)
	api.POST("/attendance/bulk", staff, attendanceHandler.Bulk)
	api.GET("/attendance/slots", reportHandler.SlotVector)
	api.GET("/attendance/summary", reportHandler.Summary)

	api.POST("/absence-requests", workflowHandler.SubmitAbsence)
	api.GET("/absence-requests", workflowHandler.ListAbsences)
	api.POST("/absence-requests/:id/approve", staff, workflowHandler.ApproveAbsence)
	api.POST("/absence-requests/:id/reject", staff, workflowHandler.RejectAbsence)

	api.POST("/leave-permissions", workflowHandler.SubmitLeave)
	api.GET("/leave-permissions", workflowHandler.ListLeaves)
	api.POST("/leave-permissions/:id/return", staff, workflowHandler.CloseLeave(models.LeaveReturned))
	api.POST("/leave-permissions/:id/absent", staff, workflowHandler.CloseLeave(models.LeaveAbsent))
	api.POST("/leave-permissions/:id/cancel", staff, workflowHandler.CloseLeave(models.LeaveCancelled))

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

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

	_ "github.com/noah-isme/campus-drive-api/api/swagger"
	"github.com/noah-isme/campus-drive-api/internal/handler"
	"github.com/noah-isme/campus-drive-api/internal/integration"
	"github.com/noah-isme/campus-drive-api/internal/middleware"
	"github.com/noah-isme/campus-drive-api/internal/models"
	"github.com/noah-isme/campus-drive-api/internal/repository"
	"github.com/noah-isme/campus-drive-api/internal/service"
	"github.com/noah-isme/campus-drive-api/pkg/cache"
	"github.com/noah-isme/campus-drive-api/pkg/config"
	"github.com/noah-isme/campus-drive-api/pkg/database"
	"github.com/noah-isme/campus-drive-api/pkg/export"
	"github.com/noah-isme/campus-drive-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-drive-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-drive-api/pkg/middleware/requestid"
	"github.com/noah-isme/campus-drive-api/pkg/storage"
)

// @title Campus Drive API
// @version 1.0.0
// @description Hierarchical document storage with trash, sharing, shared class/department repositories and a signing workflow
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	store, err := storage.NewLocalStorage(cfg.Storage.UploadsDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)

	itemRepo := repository.NewDriveItemRepository(db)
	shareRepo := repository.NewShareRepository(db)
	userRepo := repository.NewUserRepository(db)
	signingRepo := repository.NewSigningRepository(db)

	// The permission cache is an optimization; the service runs without it.
	var cacheRepo *repository.CacheRepository
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, permission caching disabled", "error", err)
	} else {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close() //nolint:errcheck
	}

	sysClient := integration.NewSystemManagementClient(cfg.SystemManagement, logr)
	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(cfg.JWT.Secret, userRepo, logr)

	var accessSvc *service.AccessService
	if cacheRepo != nil {
		accessSvc = service.NewAccessService(shareRepo, sysClient, cacheRepo, cfg.SystemManagement.PermissionCacheTTL, logr)
	} else {
		accessSvc = service.NewAccessService(shareRepo, sysClient, nil, cfg.SystemManagement.PermissionCacheTTL, logr)
	}
	accessSvc.SetMetrics(metricsSvc)

	notifySvc := service.NewNotificationService(sysClient, cfg.Notifications, logr)
	notifySvc.Start(context.Background())
	defer notifySvc.Stop()

	driveSvc := service.NewDriveService(itemRepo, shareRepo, accessSvc, store, signer, cfg.Storage.MaxFileSizeBytes, logr)
	driveSvc.SetMetrics(metricsSvc)

	trashSvc := service.NewTrashService(itemRepo, accessSvc, store, logr)
	trashSvc.SetMetrics(metricsSvc)

	provisionSvc := service.NewProvisionService(itemRepo, sysClient, accessSvc, logr)

	storageSvc := service.NewRepositoryStorageService(itemRepo, accessSvc, store, notifySvc, cfg.Storage.MaxFileSizeBytes, logr)
	storageSvc.SetMetrics(metricsSvc)

	signingSvc := service.NewSigningService(signingRepo, itemRepo, export.NewApprovalPDFExporter(), store, notifySvc, cfg.Signing.StampDir, logr)

	catalogSvc := service.NewCatalogService(sysClient, logr)

	driveHandler := handler.NewDriveHandler(driveSvc)
	trashHandler := handler.NewTrashHandler(trashSvc)
	classHandler := handler.NewClassStorageHandler(storageSvc, provisionSvc, catalogSvc)
	departmentHandler := handler.NewDepartmentStorageHandler(storageSvc, provisionSvc, catalogSvc)
	signingHandler := handler.NewSigningHandler(signingSvc)
	adminHandler := handler.NewAdminHandler(itemRepo, userRepo, trashSvc, metricsSvc)

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

	// Download resolves its own signed token, so it skips the JWT gate.
	api.GET("/drive/download", driveHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		drive := authed.Group("/drive")
		drive.POST("/folders", driveHandler.CreateFolder)
		drive.POST("/files", driveHandler.Upload)
		drive.GET("/items", driveHandler.List)
		drive.GET("/items/:id", driveHandler.Get)
		drive.PATCH("/items/:id", driveHandler.Update)
		drive.PUT("/items/:id/content", driveHandler.ReplaceContent)
		drive.POST("/items/:id/shares", driveHandler.Share)
		drive.GET("/items/:id/shares", driveHandler.ListShares)
		drive.DELETE("/items/:id/shares/:userId", driveHandler.Unshare)
		drive.GET("/items/:id/download-link", driveHandler.DownloadLink)
		drive.GET("/shared-with-me", driveHandler.SharedWithMe)
		drive.GET("/search", driveHandler.Search)

		drive.POST("/items/:id/trash", trashHandler.Trash)
		drive.GET("/trash", trashHandler.List)
		drive.DELETE("/trash", trashHandler.Empty)
		drive.POST("/trash/:id/restore", trashHandler.Restore)
		drive.DELETE("/trash/:id", trashHandler.Purge)

		class := authed.Group("/storage/class/:classId")
		class.GET("/items", classHandler.List)
		class.POST("/files", classHandler.Upload)
		class.POST("/provision", middleware.RequireRoles(models.RoleAdmin, models.RoleLecturer), classHandler.Provision)

		department := authed.Group("/storage/department/:departmentId")
		department.GET("/items", departmentHandler.List)
		department.POST("/files", departmentHandler.Upload)
		department.POST("/provision", middleware.RequireRoles(models.RoleAdmin, models.RoleLecturer), departmentHandler.Provision)

		authed.GET("/storage/my-classes", classHandler.MyClasses)
		authed.GET("/storage/my-department", departmentHandler.MyDepartment)

		signing := authed.Group("/signing/requests")
		signing.POST("", signingHandler.Create)
		signing.GET("", signingHandler.ListMine)
		signing.GET("/pending", middleware.RequireRoles(models.RoleAdmin), signingHandler.ListPending)
		signing.GET("/:id", signingHandler.Get)
		signing.POST("/:id/submit", signingHandler.Submit)
		signing.POST("/:id/approve", middleware.RequireRoles(models.RoleAdmin), signingHandler.Approve)
		signing.POST("/:id/reject", middleware.RequireRoles(models.RoleAdmin), signingHandler.Reject)

		admin := authed.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
		admin.GET("/items", adminHandler.ListItems)
		admin.DELETE("/items/:id", adminHandler.DeleteItem)
		admin.GET("/users", adminHandler.ListUsers)
		admin.GET("/users/:id", adminHandler.GetUser)
		admin.GET("/users/:id/items", adminHandler.GetUserItems)
		admin.GET("/stats", adminHandler.Stats)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
}

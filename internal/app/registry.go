package app

import (
	"database/sql"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"go-reqflow/internal/audit"
	"go-reqflow/internal/messaging/kafka"
	"go-reqflow/internal/middleware"
	"go-reqflow/internal/notification"
	"go-reqflow/internal/rbac"
	"go-reqflow/internal/rbac/infra"
	"go-reqflow/internal/rbac/rbac_http"
	"go-reqflow/internal/request"
	"go-reqflow/internal/user"

	"go.uber.org/zap"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	rbacRepo := rbac.NewRepository(gormDB)
	auditRepo := audit.NewRepository(gormDB, db)
	notificationRepo := notification.NewRepository(gormDB, db)
	outboxRepo := kafka.NewOutboxRepository(db)
	requestRepo := request.NewRepository(gormDB, db)
	userRepo := user.NewRepository(gormDB)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer(filepath.Join("internal", "rbac", "infra", "model.conf"))
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer)

	// --- Services ---
	auditService := audit.NewService(auditRepo)
	notificationService := notification.NewService(notificationRepo, rdb)
	requestService := request.NewServiceWithOutbox(db, requestRepo, userRepo, auditRepo, notificationRepo, outboxRepo)
	userService := user.NewService(userRepo, rdb)

	// --- Handlers ---
	auditHandler := audit.NewHandler(auditService)
	notificationHandler := notification.NewHandler(notificationService)
	requestHandler := request.NewHandlerWithRedis(requestService, auditService, rdb)
	userHandler := user.NewHandler(userService)
	rbacHandler := rbac.NewHandler(rbacService)

	router.Use(middleware.RequestID())
	router.Use(middleware.ContextLogger(zap.L()))

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		audit.RegisterRoutes(api, auditHandler, rbacService)
		notification.RegisterRoutes(api, notificationHandler, rbacService)
		request.RegisterRoutes(api, requestHandler, rbacService, rdb)
		user.RegisterRoutes(api, userHandler, rbacService, rdb)
		rbac_http.RegisterRoutes(api, rbacHandler, rbacService)
	}

	return nil
}

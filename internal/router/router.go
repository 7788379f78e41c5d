package router

import (
	"net/http"
	"time"

	"coursecms/config"
	"coursecms/internal/domain"
	"coursecms/internal/handler"
	"coursecms/internal/middleware"
	"coursecms/internal/repository"
	"coursecms/internal/service"
	"coursecms/internal/ws"
	"coursecms/pkg/cloudinary"
	"coursecms/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the external collaborators built in main.
type Deps struct {
	Gateway payment.Gateway
	Cloud   cloudinary.Client // nil disables image upload
	Hub     *ws.Hub
	// Done stops background work started by Setup when closed.
	Done <-chan struct{}
}

func Setup(cfg *config.Config, db *gorm.DB, deps Deps) (*gin.Engine, *service.Reconciler) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler.RegisterValidators()
	r := gin.New()
	r.Use(gin.Recovery())
	// Skip gin.Logger() to reduce log noise; use gin.Default() if you need request logging

	hub := deps.Hub
	if hub == nil {
		hub = ws.NewHub()
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo, auditRepo)
	authz := service.NewAuthorizer(db)
	catalog := service.NewCatalogService(db, authz, deps.Cloud, cfg.Cloudinary.Folder)
	notifSvc := service.NewNotificationService(notificationRepo, hub)
	enrollSvc := service.NewEnrollmentService(db, deps.Gateway, &cfg.Payment, notifSvc)
	progressSvc := service.NewProgressService(db)
	reconciler := service.NewReconciler(enrollSvc)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	courseHandler := handler.NewCourseHandler(catalog)
	orderHandler := handler.NewOrderHandler(enrollSvc, progressSvc)
	callbackHandler := handler.NewPaymentCallbackHandler(enrollSvc, cfg.Payment.RedirectURL)
	notificationHandler := handler.NewNotificationHandler(notifSvc)
	adminHandler := handler.NewAdminHandler(adminRepo, authSvc, catalog, reconciler)

	authMw := middleware.AuthRequired(&cfg.JWT)
	studentOnly := middleware.RequireRole(domain.RoleStudent)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws/orders", ws.UpgradeOrdersWS(&cfg.JWT, hub))

	api := r.Group("/api/v1")
	if cfg.Server.RateLimit > 0 {
		limiter := middleware.NewIPRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)
		if deps.Done != nil {
			go limiter.Cleanup(time.Minute, deps.Done)
		}
		api.Use(middleware.RateLimit(limiter))
	}
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		api.GET("/courses", courseHandler.List)
		api.GET("/courses/:id", middleware.OptionalAuth(&cfg.JWT), courseHandler.Get)

		// Gateway-invoked; authenticated by checksum, not by session.
		api.POST("/orders/verify", callbackHandler.Verify)

		orders := api.Group("/orders")
		orders.Use(authMw, studentOnly)
		{
			orders.POST("/pay", orderHandler.Pay)
			orders.POST("/progress", orderHandler.Progress)
			orders.GET("", orderHandler.List)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("", authHandler.Me)
			me.PUT("", authHandler.UpdateProfile)
			me.PUT("/password", authHandler.ChangePassword)
			me.GET("/enrollments", studentOnly, orderHandler.Enrollments)
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.Dashboard)
			admin.GET("/payments", adminHandler.Payments)
			admin.GET("/revenue", adminHandler.Revenue)
			admin.POST("/reconcile", adminHandler.Reconcile)

			admin.GET("/students", adminHandler.ListStudents)
			admin.POST("/students", adminHandler.CreateStudent)
			admin.PUT("/students/:id", adminHandler.UpdateStudent)

			admin.GET("/courses", adminHandler.ListCourses)
			admin.POST("/courses", adminHandler.CreateCourse)
			admin.PUT("/courses/:id", adminHandler.UpdateCourse)
			admin.DELETE("/courses/:id", adminHandler.DeleteCourse)
			admin.POST("/courses/:id/image", adminHandler.UploadCourseImage)
			admin.GET("/courses/:id/lessons", adminHandler.ListLessons)
			admin.POST("/courses/:id/lessons", adminHandler.CreateLesson)
			admin.PUT("/lessons/:id", adminHandler.UpdateLesson)
			admin.DELETE("/lessons/:id", adminHandler.DeleteLesson)
		}
	}
	return r, reconciler
}

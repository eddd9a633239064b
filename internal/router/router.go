package router

import (
	"github.com/gin-gonic/gin"

	"github.com/brandlift/w9-backend/config"
	"github.com/brandlift/w9-backend/internal/app/controller"
	"github.com/brandlift/w9-backend/internal/app/model"
	"github.com/brandlift/w9-backend/internal/middleware"
)

type Router struct {
	authController         *controller.AuthController
	formController         *controller.W9FormController
	adminController        *controller.AdminController
	notificationController *controller.NotificationController
	authMiddleware         *middleware.AuthMiddleware
	config                 *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	formController *controller.W9FormController,
	adminController *controller.AdminController,
	notificationController *controller.NotificationController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:         authController,
		formController:         formController,
		adminController:        adminController,
		notificationController: notificationController,
		authMiddleware:         authMiddleware,
		config:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "W9 compliance API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/refresh", r.authController.Refresh)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.Me)
		}

		w9 := v1.Group("/w9", r.authMiddleware.Authenticate())
		{
			w9.POST("/forms", r.formController.Create)
			w9.GET("/forms", r.formController.List)
			w9.GET("/forms/:id", r.formController.Get)
			w9.PUT("/forms/:id", r.formController.Update)
			w9.POST("/forms/:id/validate", r.formController.Validate)
			w9.POST("/forms/:id/submit", r.formController.Submit)
			w9.POST("/forms/:id/document", r.formController.RenderDocument)
			w9.POST("/forms/signature-upload-url", r.formController.SignatureUploadURL)

			w9.GET("/requirement", r.formController.CheckRequirement)
			w9.GET("/submissions", r.formController.ListSubmissions)
		}

		notifications := v1.Group("/notifications", r.authMiddleware.Authenticate())
		{
			notifications.GET("", r.notificationController.List)
			notifications.PUT("/:id/read", r.notificationController.MarkRead)
			notifications.GET("/settings", r.notificationController.GetSettings)
			notifications.PUT("/settings", r.notificationController.UpdateSettings)
			notifications.GET("/ws", r.notificationController.Connect)
		}

		admin := v1.Group("/admin/w9",
			r.authMiddleware.Authenticate(),
			r.authMiddleware.RequireRole(model.RoleAdmin),
		)
		{
			admin.GET("/forms", r.adminController.ListForms)
			admin.GET("/forms/:id", r.adminController.GetForm)
			admin.POST("/forms/:id/review", r.adminController.Review)
			admin.POST("/forms/:id/verify", r.adminController.VerifyTIN)
			admin.POST("/forms/:id/document", r.adminController.RenderDocument)
			admin.POST("/submissions", r.adminController.CreateSubmission)
			admin.GET("/payout-gate", r.adminController.PayoutGate)
			admin.POST("/1099/:year/generate", r.adminController.Generate1099)
			admin.GET("/1099/:year/export", r.adminController.Export1099)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

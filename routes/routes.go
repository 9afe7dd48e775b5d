package routes

import (
	"net/http"
	"strings"
	"time"

	"blogapi/config"
	"blogapi/database"
	"blogapi/handlers"
	"blogapi/middleware"
	"blogapi/models"
	"blogapi/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func SetupRouter(cfg *config.Config, log *logrus.Logger, db *database.DB) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestLogger(log),
		gin.Recovery(),
		middleware.ErrorHandler(),
		middleware.SecurityHeaders(),
	)

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "X-Total-Count", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			log.WithError(err).Warn("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})

	opts := services.Options{Logger: log, Timeout: cfg.StoreTimeout}
	posts := handlers.NewPostHandler(services.NewPostService(db.Posts, db.Comments, opts))
	comments := handlers.NewCommentHandler(services.NewCommentService(db.Comments, db.Posts, opts))
	userService := services.NewUserService(db.Users, opts)
	auth := handlers.NewAuthHandler(userService, cfg.JWTSecret, cfg.TokenTTL)
	users := handlers.NewUserHandler(userService)

	v1 := router.Group("/v1")
	v1.Use(middleware.RateLimit(cfg.RateLimitPerMinute, cfg.RateLimitBurst))

	v1.GET("/status", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	// Public routes (no auth required)
	v1.POST("/auth/register", auth.Signup)
	v1.POST("/auth/login", auth.Login)

	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(cfg.JWTSecret))

	protected.GET("/users/me", users.Me)
	protected.GET("/users", middleware.RequireRole(userService, models.RoleAdmin), users.List)

	protected.GET("/posts", posts.List)
	protected.GET("/posts/:postId", posts.Get)
	protected.POST("/posts", posts.Create)
	protected.PUT("/posts/:postId", posts.Replace)
	protected.PATCH("/posts/:postId", posts.Update)
	protected.DELETE("/posts/:postId", posts.Remove)

	protected.GET("/posts/:postId/comments", comments.ListForPost)
	protected.POST("/posts/:postId/comments", comments.CreateForPost)
	protected.GET("/comments/:commentId", comments.Get)
	protected.PUT("/comments/:commentId", comments.Replace)
	protected.PATCH("/comments/:commentId", comments.Update)
	protected.DELETE("/comments/:commentId", comments.Remove)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/v1") {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "NotFound",
				"message": "Endpoint not found",
			})
			return
		}
		c.String(http.StatusNotFound, "404 page not found")
	})

	return router
}

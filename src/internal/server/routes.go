package server

import (
	"time"

	"forumhub-activity-svc/src/internal/dependency"
	"forumhub-activity-svc/src/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(deps *dependency.Manager) {
	router := deps.Router
	router.Use(enableCORS)

	setupHealthEndpoint(deps)
	setupPublicRoutes(router, deps)
	setupActivityRoutes(router, deps)
	setupAdminRoutes(router, deps)
}

func setupHealthEndpoint(deps *dependency.Manager) {
	router := deps.Router
	mongodb := deps.Mongodb
	redisClient := deps.Redis
	cfg := deps.Config

	router.GET("/health", func(c *gin.Context) {
		mongoStatus := "ok"
		if err := mongodb.Client.Ping(c.Request.Context(), nil); err != nil {
			mongoStatus = "error: " + err.Error()
		}

		redisStatus := "ok"
		if err := redisClient.Client.Ping(c.Request.Context()).Err(); err != nil {
			redisStatus = "error: " + err.Error()
		}

		c.JSON(200, gin.H{
			"status":    "ok",
			"service":   cfg.App.Name,
			"version":   cfg.App.Version,
			"mongodb":   mongoStatus,
			"redis":     redisStatus,
			"publisher": deps.Publisher.State().String(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
}

func setupPublicRoutes(router *gin.Engine, deps *dependency.Manager) {
	router.GET("/api/v1/status", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"api_version": "v1",
			"status":      "operational",
			"service":     deps.Config.App.Name,
		})
	})
}

func setupActivityRoutes(router *gin.Engine, deps *dependency.Manager) {
	authMiddleware := newAuthMiddleware(deps)
	handler := deps.ActivityHandler

	api := router.Group("/api/v1")
	{
		api.GET("/activity/me",
			setRouteName("getMyActivities"),
			authMiddleware.RequireAuth(),
			handler.GetMyActivities)
	}
}

func setupAdminRoutes(router *gin.Engine, deps *dependency.Manager) {
	authMiddleware := newAuthMiddleware(deps)
	activityHandler := deps.ActivityHandler
	userHandler := deps.UserHandler

	admin := router.Group("/api/v1/admin")
	admin.Use(authMiddleware.RequireAuth(), authMiddleware.RequireAdminRights())
	{
		admin.GET("/activity",
			setRouteName("getAllActivities"),
			activityHandler.GetAllActivities)

		admin.DELETE("/activity/:id",
			setRouteName("clearUserLogs"),
			activityHandler.ClearUserLog)

		admin.GET("/users",
			setRouteName("getUsersList"),
			userHandler.GetAllUsers)

		admin.PATCH("/users/:id/activate",
			setRouteName("activateUser"),
			userHandler.ActivateUser)

		admin.PATCH("/users/:id/suspend",
			setRouteName("suspendUser"),
			userHandler.SuspendUser)

		admin.PATCH("/users/:id/ban",
			setRouteName("banUser"),
			userHandler.BanUser)

		admin.DELETE("/users/:id",
			setRouteName("deleteUser"),
			userHandler.DeleteUser)
	}
}

func newAuthMiddleware(deps *dependency.Manager) *middleware.AuthMiddleware {
	return middleware.NewAuthMiddleware(
		deps.Config.Security.JwtKey,
		deps.CacheService,
		deps.SessionRepo,
	)
}

func setRouteName(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("route_name", name)
		c.Next()
	}
}

func enableCORS(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-Latitude, X-User-Longitude")

	if c.Request.Method == "OPTIONS" {
		c.AbortWithStatus(204)
		return
	}

	c.Next()
}

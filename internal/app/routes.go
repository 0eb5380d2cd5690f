package app

import (
	"time"

	"github.com/tmdahr/impulse-ultra/internal/auth"
	"github.com/tmdahr/impulse-ultra/internal/cache"
	"github.com/tmdahr/impulse-ultra/internal/config"
	"github.com/tmdahr/impulse-ultra/internal/handlers"
	"github.com/tmdahr/impulse-ultra/internal/measure"
	"github.com/tmdahr/impulse-ultra/internal/repo"
	"github.com/tmdahr/impulse-ultra/internal/service"
	"github.com/tmdahr/impulse-ultra/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, db *pgxpool.Pool, rdb *redis.Client, session *measure.Session) {
	r.GET("/", rootHandler(cfg))
	r.GET("/health", healthHandler(cfg))
	r.GET("/version", versionHandler(cfg))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(302, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
		ginSwagger.PersistAuthorization(true),
	))

	// Streaming ingestion lives outside the API group: the sensor
	// firmware connects straight to /ws.
	r.GET("/ws", gin.WrapH(ws.NewIngest(session)))

	api := r.Group("/api/v1")

	sessionStore := auth.NewStore(rdb, 24*time.Hour)
	userRepo := repo.NewPGUserRepo(db)
	userSvc := service.NewUserService(userRepo)
	authHandler := handlers.NewAuthHandler(sessionStore, userSvc)
	registerAuthRoutes(api, authHandler)

	measureHandler := handlers.NewMeasureHandler(session)
	registerMeasureRoutes(api, measureHandler)

	scoreRepo := repo.NewPGScoreRepo(db)
	lbCache := cache.NewLeaderboardCache(rdb, cfg.Redis.DefaultTTL.Duration())
	scoreSvc := service.NewScoreService(scoreRepo, lbCache)

	lbHandler := handlers.NewLeaderboardHandler(scoreSvc)
	api.GET("/rankings", lbHandler.Rankings)
	api.GET("/stats", lbHandler.Stats)

	protected := api.Group("", auth.RequireSession(sessionStore))
	scoreHandler := handlers.NewScoreHandler(scoreSvc)
	registerScoreRoutes(protected, scoreHandler)
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "Impulse API",
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"docs":    "/swagger/index.html",
			"spec":    "/swagger-doc.json",
			"health":  "/health",
			"api":     "/api/v1",
		})
	}
}

func healthHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true, "env": cfg.App.Env})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.Data(200, "application/json; charset=utf-8", []byte(doc))
	}
}

func registerMeasureRoutes(api *gin.RouterGroup, h *handlers.MeasureHandler) {
	api.GET("/reset", h.Reset)
	api.GET("/score", h.Score)
	api.POST("/sensor", h.Sensor)
}

func registerScoreRoutes(api *gin.RouterGroup, h *handlers.ScoreHandler) {
	api.POST("/scores", h.Save)
	api.GET("/scores/best", h.Best)
	api.GET("/scores/history", h.History)
}

func registerAuthRoutes(api *gin.RouterGroup, h *handlers.AuthHandler) {
	api.POST("/auth/login", h.Login)
	api.POST("/auth/register", h.Register)
	api.POST("/auth/logout", h.Logout)
}

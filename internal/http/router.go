package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pathfinder-llm/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas de conversacion.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	convH *ConversationHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	conv := r.Group("/conversations", RequireUser(jwtSvc, logger))
	conv.POST("", convH.Start)
	conv.GET("", convH.List)
	conv.GET("/:id", convH.Get)
	conv.POST("/:id/messages", convH.PostMessage)
	conv.POST("/:id/pause", convH.Pause)
	conv.POST("/:id/resume", convH.Resume)
	conv.POST("/:id/abandon", convH.Abandon)
	conv.POST("/:id/recommendations/:occupationID/reaction", convH.React)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}

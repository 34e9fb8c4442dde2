package webserver

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig shapes the HTTP surface.
type RouterConfig struct {
	JWTSecret    []byte
	AllowOrigins []string
	RateLimit    int
	RateWindow   time.Duration
}

// NewRouter builds the gin engine serving the verification actions.
func NewRouter(cfg RouterConfig, actions Actions, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))
	attachRoutes(r, cfg, actions)
	return r
}

func attachRoutes(r *gin.Engine, cfg RouterConfig, actions Actions) {
	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	rate := cfg.RateLimit
	if rate <= 0 {
		rate = 30
	}
	window := cfg.RateWindow
	if window <= 0 {
		window = time.Minute
	}

	h := handlers{actions: actions}
	v1 := r.Group("/v1")
	v1.Use(JWTMiddleware(cfg.JWTSecret), RateLimitMiddleware(NewRateLimiter(rate, window)))
	{
		v1.POST("/verify", h.Verify)
		v1.GET("/verify/:taskId", h.Status)
		v1.GET("/status", h.Status)
		v1.GET("/tasks", h.Tasks)
		v1.POST("/validate", h.Validate)
		v1.POST("/campaigns", h.CreateCampaign)
		v1.PUT("/campaigns/:id", h.UpdateCampaign)
		v1.GET("/campaigns/:id", h.GetCampaign)
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}

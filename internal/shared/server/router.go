package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/shared/config"
	"recruit-backend/internal/shared/metrics"
	"recruit-backend/internal/shared/server/middleware"
	"recruit-backend/internal/shared/server/respond"
)

// Rate limit groups.
const (
	GroupGenerate = "GENERATE"
	GroupEvaluate = "EVALUATE"
	GroupBackfill = "BACKFILL"
	GroupLLM      = "LLM"
)

// RouteRegistrar is implemented by every feature handler.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps carries the feature handlers mounted under /api/v1.
type RouterDeps struct {
	Config   config.Config
	Handlers []RouteRegistrar
	// Limiter is shared across router instances when set; tests inject one
	// with a fake clock.
	Limiter *middleware.RateLimiter
}

// DefaultRateLimits are per-caller token buckets for the model-backed routes.
var DefaultRateLimits = map[string]middleware.RateLimitRule{
	GroupGenerate: {Rate: 0.1, Burst: 3},
	GroupEvaluate: {Rate: 1, Burst: 10},
	GroupBackfill: {Rate: 0.05, Burst: 2},
	GroupLLM:      {Rate: 1, Burst: 10},
}

var rateLimitedRoutes = map[string]string{
	"POST /api/v1/generate":             GroupGenerate,
	"POST /api/v1/evaluate":             GroupEvaluate,
	"POST /api/v1/resumes/:id/backfill": GroupBackfill,
	"POST /api/v1/jobs/:id/backfill":    GroupBackfill,
	"POST /api/v1/llm/complete":         GroupLLM,
}

// userRoutes call the LLM or write on behalf of the caller and need an
// identity.
var userRoutes = map[string]bool{
	"POST /api/v1/generate":             true,
	"POST /api/v1/evaluate":             true,
	"POST /api/v1/calculate":            true,
	"POST /api/v1/resumes/:id/backfill": true,
	"POST /api/v1/jobs/:id/backfill":    true,
	"POST /api/v1/llm/complete":         true,
	"PUT /api/v1/resumes/:id/avatar":    true,
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.JWTSecret),
		middleware.RequireUserOn(userRoutes),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    DefaultRateLimits,
			GroupFor: middleware.GroupByRoute(rateLimitedRoutes),
			Limiter:  deps.Limiter,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	registerMeRoutes(api)
	for _, h := range deps.Handlers {
		if h != nil {
			h.RegisterRoutes(api)
		}
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}

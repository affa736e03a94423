package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"interview-backend/internal/interviews"
	"interview-backend/internal/reviewers"
	"interview-backend/internal/shared/auth"
	"interview-backend/internal/shared/config"
	"interview-backend/internal/shared/metrics"
	"interview-backend/internal/shared/server/middleware"
	"interview-backend/internal/shared/server/respond"
)

// Handlers are the route groups mounted under /api/v1.
type Handlers struct {
	Interviews *interviews.Handler
	Reviewers  *reviewers.Handler
	Verifier   middleware.TokenVerifier
}

// Rate limit groups.
const (
	groupDefault = "DEFAULT"
	groupOracle  = "ORACLE"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config, h Handlers) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	limited := api.Group("", middleware.RateLimit(middleware.RateLimitConfig{
		DefaultGroup: groupDefault,
		GroupFor:     rateGroup,
		Rules:        rateRules(cfg),
	}))
	if h.Interviews != nil {
		h.Interviews.RegisterRoutes(limited)
	}
	if h.Reviewers != nil && h.Verifier != nil {
		reviewer := limited.Group("/reviewer", middleware.RequireRole(h.Verifier, auth.RoleReviewer))
		h.Reviewers.RegisterRoutes(reviewer)
	}
	return r
}

// rateGroup puts the routes that call the oracle on a tighter budget.
func rateGroup(c *gin.Context) string {
	if c.Request.Method != http.MethodPost {
		return groupDefault
	}
	switch c.FullPath() {
	case "/api/v1/candidates", "/api/v1/candidates/:id/questions", "/api/v1/candidates/:id/finalize":
		return groupOracle
	}
	return groupDefault
}

func rateRules(cfg config.Config) map[string]middleware.RateLimitRule {
	rules := map[string]middleware.RateLimitRule{}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return rules
	}
	rules[groupDefault] = middleware.RateLimitRule{Rate: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst}
	oracleBurst := cfg.RateLimitBurst / 4
	if oracleBurst < 1 {
		oracleBurst = 1
	}
	rules[groupOracle] = middleware.RateLimitRule{Rate: cfg.RateLimitRPS / 5, Burst: oracleBurst}
	return rules
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

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lex-technology/workwise-backend/internal/analyses"
	"github.com/lex-technology/workwise-backend/internal/applications"
	googleauth "github.com/lex-technology/workwise-backend/internal/auth"
	"github.com/lex-technology/workwise-backend/internal/credits"
	"github.com/lex-technology/workwise-backend/internal/ingest"
	"github.com/lex-technology/workwise-backend/internal/parsedresumes"
	"github.com/lex-technology/workwise-backend/internal/services/health"
	"github.com/lex-technology/workwise-backend/internal/shared/config"
	"github.com/lex-technology/workwise-backend/internal/shared/metrics"
	"github.com/lex-technology/workwise-backend/internal/shared/server/middleware"
	"github.com/lex-technology/workwise-backend/internal/shared/server/respond"
	"github.com/lex-technology/workwise-backend/internal/users"
)

// RouterDeps carries the pre-built handlers the router mounts. Construction
// lives in bootstrap; the router only wires middleware and routes.
type RouterDeps struct {
	Config        config.Config
	Health        *health.Service
	Ingest        *ingest.Handler
	Applications  *applications.Handler
	ParsedResumes *parsedresumes.Handler
	Analyses      *analyses.Handler
	Credits       *credits.Handler
	Users         *users.Handler
	GoogleAuth    *googleauth.GoogleService

	// RateCounter shares the rate limit window across replicas. Nil keeps
	// the per-process token bucket.
	RateCounter middleware.CounterStore
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	api := r.Group("/api")

	// Health, metrics, and the OAuth redirect flow are reachable without a
	// bearer token.
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, deps.Health.Status())
	})
	api.GET("/metrics", metrics.Handler())
	deps.GoogleAuth.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(
		middleware.Auth(),
		middleware.RateLimit(rateLimitConfig(deps.RateCounter)),
	)

	deps.Ingest.RegisterRoutes(protected)
	deps.Applications.RegisterRoutes(protected)
	deps.ParsedResumes.RegisterRoutes(protected)
	deps.Analyses.RegisterRoutes(protected)
	deps.Credits.RegisterRoutes(protected)
	deps.Users.RegisterRoutes(protected)

	return r
}

// rateLimitConfig groups routes by cost. Uploads and provider-backed
// analyses burn real money per call; the polling endpoint is hit on a
// timer by the UI while a queued run completes.
func rateLimitConfig(counter middleware.CounterStore) middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		DefaultGroup: "DEFAULT",
		Counter:      counter,
		Rules: map[string]middleware.RateLimitRule{
			"DEFAULT": {Rate: 10, Burst: 40},
			"POLLING": {Rate: 10, Burst: 60},
			"UPLOAD":  {Rate: 1, Burst: 10},
			"ANALYZE": {Rate: 1, Burst: 15},
		},
		GroupFor: func(c *gin.Context) string {
			path := c.FullPath()
			switch {
			case c.Request.Method == http.MethodGet && path == "/api/check-analysis/:id":
				return "POLLING"
			case c.Request.Method == http.MethodPost && path == "/api/parse-resume":
				return "UPLOAD"
			case c.Request.Method == http.MethodPost && isAnalysisPath(path):
				return "ANALYZE"
			default:
				return "DEFAULT"
			}
		},
	}
}

func isAnalysisPath(path string) bool {
	switch path {
	case "/api/analyze-jd/:id",
		"/api/resume/analyze-skills",
		"/api/resume/analyze-executive-summary",
		"/api/resume/analyze-experience",
		"/api/generate-cover-letter":
		return true
	}
	return false
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

package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ircsession/internal/auth"
	"github.com/vovakirdan/ircsession/internal/config"
	"github.com/vovakirdan/ircsession/internal/core"
	"github.com/vovakirdan/ircsession/internal/feed"
	"github.com/vovakirdan/ircsession/internal/metrics"
	"github.com/vovakirdan/ircsession/internal/store"
)

// Deps are the session components exposed over HTTP.
type Deps struct {
	Session *core.Session
	Encoder *core.Encoder
	Hub     *feed.Hub
	Entries store.EntryStore // nil when the transcript is disabled
	Auth    *auth.Service
	Metrics *metrics.Metrics
}

// NewServer builds the HTTP server with the API, metrics and event feed routes.
func NewServer(deps Deps, cfg *config.HTTPConfig, logger *zerolog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	api := NewAPIHandlers(deps, logger)
	router.POST("/api/login", api.Login)

	authed := AuthMiddleware(deps.Auth, logger)
	protected := router.Group("/api", authed)
	{
		protected.GET("/self", api.Self)
		protected.GET("/channels", api.ListChannels)
		protected.GET("/channels/:name", api.GetChannel)
		protected.GET("/channels/:name/history", api.History)
		protected.GET("/users/:nick", api.GetUser)
		protected.GET("/targets", api.ListTargets)

		commands := protected.Group("", RateLimitMiddleware(newRateLimiter(cfg.SayPerMinute), logger))
		commands.POST("/say", api.Say)
		commands.POST("/join", api.Join)
		commands.POST("/part", api.Part)
		commands.POST("/topic", api.Topic)
		commands.POST("/nick", api.Nick)
		commands.POST("/names", api.Names)
		commands.POST("/ping", api.Ping)
		commands.POST("/raw", api.Raw)
	}

	router.GET("/ws", authed, gin.WrapH(NewWSHandler(deps.Session, deps.Hub, logger)))

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

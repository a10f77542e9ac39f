package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/PolycarpusTack/Alexandria-sub001/internal/auth"
	"github.com/PolycarpusTack/Alexandria-sub001/internal/broker"
	"github.com/PolycarpusTack/Alexandria-sub001/internal/config"
)

// NewServer builds the HTTP server: token issuance endpoints, the
// admin query surface behind JWT auth, and the WebSocket upgrade.
func NewServer(b *broker.Broker, authService *auth.Service, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/ws", gin.WrapH(NewWSHandler(b, logger)))

	apiHandlers := NewAPIHandlers(authService, logger)
	adminHandlers := NewAdminHandlers(b, logger)

	api := router.Group("/api")
	api.POST("/register", apiHandlers.Register)
	api.POST("/login", apiHandlers.Login)
	api.POST("/guest", apiHandlers.Guest)

	admin := api.Group("", AuthMiddleware(authService, logger))
	admin.GET("/clients/count", adminHandlers.ClientsCount)
	admin.GET("/clients", adminHandlers.Clients)
	admin.GET("/clients/:id/rooms", adminHandlers.ClientRooms)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

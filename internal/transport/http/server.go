package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chatweb/chatweb-server/internal/auth"
	"github.com/chatweb/chatweb-server/internal/config"
	"github.com/chatweb/chatweb-server/internal/core"
	chatservice "github.com/chatweb/chatweb-server/internal/service/chat"
	usersservice "github.com/chatweb/chatweb-server/internal/service/users"
	"github.com/chatweb/chatweb-server/internal/store"
)

// NewServer builds the HTTP server: REST API plus the WebSocket endpoint.
func NewServer(hub *core.Hub, authService *auth.Service, st store.Store, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	apiHandlers := NewAPIHandlers(authService, logger)
	userHandlers := NewUserHandlers(usersservice.New(st), logger)
	chatHandlers := NewChatHandlers(chatservice.New(st), logger)

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	api := router.Group("/api")
	{
		api.POST("/auth/register", apiHandlers.Register)
		api.POST("/auth/login", apiHandlers.Login)

		authed := api.Group("")
		authed.Use(AuthMiddleware(authService, logger))
		{
			authed.GET("/users/online", userHandlers.Online)
			authed.GET("/users/all", userHandlers.Search)
			authed.GET("/users/profile", userHandlers.Profile)
			authed.GET("/chat/messages/:userId", chatHandlers.Messages)
			authed.GET("/chat/conversations", chatHandlers.Conversations)
		}
	}

	router.GET("/ws", gin.WrapH(NewWSHandler(hub, authService, cfg.AllowedOrigin, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

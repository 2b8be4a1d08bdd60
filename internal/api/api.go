package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	api_utils "github.com/ethanbaker/api/pkg/utils"
	"github.com/ethanbaker/civicchat/internal/config"
	"github.com/ethanbaker/civicchat/internal/stores/session"
	"github.com/ethanbaker/civicchat/pkg/sdk"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	chat_module "github.com/ethanbaker/civicchat/internal/api/modules/chat"
	health_module "github.com/ethanbaker/civicchat/internal/api/modules/health"
	sessions_module "github.com/ethanbaker/civicchat/internal/api/modules/sessions"
)

const shutdownTimeout = 10 * time.Second

// Dependencies are the collaborators the gateway routes are built from
type Dependencies struct {
	Config   *config.Config
	Turns    chat_module.TurnHandler
	Sessions *session.Store // nil disables the sessions module and chatId support
	Logger   *zap.Logger
}

// NewEngine builds the gin engine with every module registered under /api
func NewEngine(deps Dependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if deps.Config.API.GinMode != "" {
		gin.SetMode(deps.Config.API.GinMode)
	}

	// Add app level settings/routes
	engine := gin.New()
	engine.Use(requestLogger(logger), recovery(logger))
	engine.NoRoute(api_utils.NoRouteHandler)

	// Add trusted proxies
	engine.SetTrustedProxies(nil)

	// Add CORS using gin-contrib/cors (https://github.com/gin-contrib/cors for documentation)
	engine.Use(cors.New(corsConfig(deps.Config.API.CORSAllowedOrigins)))

	// Base group '/api' for all API routes
	baseGroup := engine.Group("/api")

	health_module.RegisterRoutes(baseGroup, deps.Config.Credentials())
	chat_module.RegisterRoutes(baseGroup, deps.Turns, deps.Sessions, logger.With(zap.String("module", "chat")))
	if deps.Sessions != nil {
		sessions_module.RegisterRoutes(baseGroup, deps.Sessions)
	}

	return engine
}

// Serve runs the gateway until ctx is cancelled, then shuts it down gracefully
func Serve(ctx context.Context, deps Dependencies) error {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := &http.Server{
		Addr:              ":" + deps.Config.API.Port,
		Handler:           NewEngine(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("gateway shutting down")
	return srv.Shutdown(shutdownCtx)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"OPTIONS", "GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}

	return cfg
}

// requestLogger logs one line per request
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

// recovery turns panics into the apologetic chat reply on /api/chat and an error envelope elsewhere
func recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("recovered from panic", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))

		if strings.HasPrefix(c.Request.URL.Path, "/api/chat") {
			c.AbortWithStatusJSON(http.StatusInternalServerError, sdk.ChatResponse{Reply: chat_module.ReplyFailure})
			return
		}
		c.AbortWithStatusJSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Internal server error", nil).AsGinResponse())
	})
}

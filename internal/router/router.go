// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups, mapping
// specific paths to their corresponding handlers.
package router

import (
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/deppfellow/testtable-service/internal/handler"
	"github.com/deppfellow/testtable-service/internal/middleware"
	"github.com/deppfellow/testtable-service/internal/server"
)

// maxBodySize caps request bodies before they are decoded.
const maxBodySize = "1M"

// NewRouter builds the Echo instance with the global middleware chain and
// every route registered.
//
// Order matters: the request id must exist before the request logger is
// built, and the New Relic transaction before EnhanceTracing reads it.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Pre(echoMiddleware.RemoveTrailingSlash())

	router.Use(
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
		middlewares.RateLimit.Limit(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		echoMiddleware.BodyLimit(maxBodySize),
	)

	registerSystemRoutes(router, h)

	api := router.Group("/api")
	registerTestTableRoutes(api, h)

	return router
}

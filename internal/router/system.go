package router

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/testtable-service/internal/handler"
)

// registerSystemRoutes registers endpoints that are not part of the resource
// API: health, the docs UI and the static files it loads.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)

	// openapi.json and openapi.html.
	r.Static("/static", handler.StaticDir)

	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
}

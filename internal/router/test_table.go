package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/testtable-service/internal/handler"
)

func registerTestTableRoutes(api *echo.Group, h *handler.Handlers) {
	t := h.TestTable
	g := api.Group("/test-tables")

	g.GET("", handler.Handle(t.Handler, t.List, http.StatusOK))
	g.POST("", handler.Handle(t.Handler, t.Create, http.StatusCreated))
	g.GET("/:id", handler.Handle(t.Handler, t.Get, http.StatusOK))
	g.HEAD("/:id", handler.HandleNoContent(t.Handler, t.Head, http.StatusOK))
	g.PUT("/:id", handler.Handle(t.Handler, t.Update, http.StatusOK))
	g.DELETE("/:id", handler.HandleNoContent(t.Handler, t.Delete, http.StatusNoContent))
}

package handler

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"
	pkgerrors "github.com/pkg/errors"

	"github.com/deppfellow/testtable-service/internal/errs"
	"github.com/deppfellow/testtable-service/internal/server"
)

// StaticDir holds openapi.json and the docs UI page, relative to the
// working directory.
const StaticDir = "static"

const docsPage = "openapi.html"

// OpenAPIHandler serves the docs UI. The page loads its JS from a CDN and
// reads /static/openapi.json.
type OpenAPIHandler struct {
	Handler
	dir string
}

func NewOpenAPIHandler(s *server.Server) *OpenAPIHandler {
	return &OpenAPIHandler{
		Handler: NewHandler(s),
		dir:     StaticDir,
	}
}

// ServeOpenAPIUI reads the page on every request and marks it uncached, so
// edits to the docs show up without a restart. A binary started outside the
// repository root answers 404.
func (h *OpenAPIHandler) ServeOpenAPIUI(c echo.Context) error {
	page, err := os.ReadFile(filepath.Join(h.dir, docsPage))
	if errors.Is(err, fs.ErrNotExist) {
		return errs.NewNotFoundError("API docs are not available", false, nil)
	}
	if err != nil {
		return pkgerrors.Wrap(err, "read docs page")
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	return c.HTMLBlob(http.StatusOK, page)
}

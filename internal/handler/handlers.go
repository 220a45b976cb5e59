// Package handler is the HTTP layer, the first entry point after the router.
//
// It decodes requests, validates them with the validation package and calls
// the service layer. Errors are returned untouched for the global error
// handler to translate.
package handler

import (
	"github.com/deppfellow/testtable-service/internal/server"
	"github.com/deppfellow/testtable-service/internal/service"
)

// Handlers groups all HTTP handlers so the router receives a single value.
type Handlers struct {
	Health    *HealthHandler
	OpenAPI   *OpenAPIHandler
	TestTable *TestTableHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	h := NewHandler(s)

	return &Handlers{
		Health:    NewHealthHandler(s),
		OpenAPI:   NewOpenAPIHandler(s),
		TestTable: NewTestTableHandler(h, services.TestTable),
	}
}

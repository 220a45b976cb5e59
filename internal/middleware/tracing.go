package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrecho-v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/deppfellow/testtable-service/internal/server"
)

// TracingMiddleware wires requests into New Relic. Both of its middlewares
// pass requests straight through when no application is configured.
type TracingMiddleware struct {
	env   string
	nrApp *newrelic.Application
}

func NewTracingMiddleware(s *server.Server, nrApp *newrelic.Application) *TracingMiddleware {
	return &TracingMiddleware{
		env:   s.Config.Primary.Env,
		nrApp: nrApp,
	}
}

// NewRelicMiddleware starts a transaction per request and stores it in the
// request context.
func (tm *TracingMiddleware) NewRelicMiddleware() echo.MiddlewareFunc {
	if tm.nrApp == nil {
		return passThrough
	}
	return nrecho.Middleware(tm.nrApp)
}

// EnhanceTracing annotates the transaction with request attributes and the
// final status. Only server-side failures are noticed as errors; a 404 for
// a missing test table is an answer, not a fault.
//
// It must run after NewRelicMiddleware.
func (tm *TracingMiddleware) EnhanceTracing() echo.MiddlewareFunc {
	if tm.nrApp == nil {
		return passThrough
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			txn := newrelic.FromContext(c.Request().Context())
			if txn == nil {
				return next(c)
			}

			for key, value := range tm.requestAttributes(c) {
				txn.AddAttribute(key, value)
			}

			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = statusOf(err)
				if status >= http.StatusInternalServerError {
					txn.NoticeError(nrpkgerrors.Wrap(err))
				}
			}
			txn.AddAttribute("http.status_code", status)

			return err
		}
	}
}

func (tm *TracingMiddleware) requestAttributes(c echo.Context) map[string]any {
	attrs := map[string]any{
		"http.real_ip":        c.RealIP(),
		"http.user_agent":     c.Request().UserAgent(),
		"service.environment": tm.env,
	}
	if requestID := GetRequestID(c); requestID != "" {
		attrs["request.id"] = requestID
	}
	if id := c.Param("id"); id != "" {
		attrs["test_table.id"] = id
	}
	return attrs
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc {
	return next
}

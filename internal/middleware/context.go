package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/deppfellow/testtable-service/internal/logger"
	"github.com/deppfellow/testtable-service/internal/server"
)

const loggerKey = "logger"

// ContextEnhancer gives every request its own logger.
type ContextEnhancer struct {
	server *server.Server
}

func NewContextEnhancer(s *server.Server) *ContextEnhancer {
	return &ContextEnhancer{server: s}
}

// EnhanceContext stores the request logger in the Echo context and in the
// request's context.Context, where services find it with zerolog.Ctx.
//
// It must run after RequestID and the New Relic middleware.
func (ce *ContextEnhancer) EnhanceContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestLogger := ce.requestLogger(c)
			c.Set(loggerKey, &requestLogger)

			req := c.Request()
			c.SetRequest(req.WithContext(requestLogger.WithContext(req.Context())))

			return next(c)
		}
	}
}

func (ce *ContextEnhancer) requestLogger(c echo.Context) zerolog.Logger {
	// Unmatched routes have no template; fall back to the raw path.
	path := c.Path()
	if path == "" {
		path = c.Request().URL.Path
	}

	fields := ce.server.Logger.With().
		Str("request_id", GetRequestID(c)).
		Str("method", c.Request().Method).
		Str("path", path).
		Str("ip", c.RealIP())

	if id := c.Param("id"); id != "" {
		fields = fields.Str("test_table_id", id)
	}

	l := fields.Logger()
	if txn := newrelic.FromContext(c.Request().Context()); txn != nil {
		l = logger.WithTraceContext(l, txn)
	}
	return l
}

// GetLogger returns the request logger, or a no-op logger when
// EnhanceContext did not run.
func GetLogger(c echo.Context) *zerolog.Logger {
	if l, ok := c.Get(loggerKey).(*zerolog.Logger); ok {
		return l
	}

	nop := zerolog.Nop()
	return &nop
}

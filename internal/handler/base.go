package handler

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/deppfellow/testtable-service/internal/middleware"
	"github.com/deppfellow/testtable-service/internal/model/testtable"
	"github.com/deppfellow/testtable-service/internal/server"
	"github.com/deppfellow/testtable-service/internal/validation"
)

// Handler is the base handler type that holds shared application dependencies.
type Handler struct {
	server *server.Server
}

func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// HandlerFunc is a typed endpoint that receives a decoded, validated request.
type HandlerFunc[Req validation.Validatable, Res any] func(c echo.Context, req Req) (Res, error)

// HandlerFuncNoContent is a typed endpoint for routes without a response body.
type HandlerFuncNoContent[Req validation.Validatable] func(c echo.Context, req Req) error

// request constrains Req to a pointer to T so every call gets its own zero T.
type request[T any] interface {
	*T
	validation.Validatable
}

// responder writes a successful result.
type responder struct {
	status int
	body   bool
}

func (r responder) write(c echo.Context, result any) error {
	if !r.body {
		return c.NoContent(r.status)
	}
	return c.JSON(r.status, result)
}

func (r responder) operation() string {
	if r.body {
		return "handler"
	}
	return "handler_no_content"
}

// phase reports the outcome of one pipeline step to the transaction.
// Errors themselves are noticed once, by EnhanceTracing.
func phase(txn *newrelic.Transaction, name string, d time.Duration, err error) {
	if txn == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	txn.AddAttribute(name+".status", status)
	txn.AddAttribute(name+".duration_ms", d.Milliseconds())
}

// handleRequest decodes and validates req, runs handler and writes the
// result. Failures are returned untouched to the global error handler, which
// also logs them at the level their status deserves.
func handleRequest[Req validation.Validatable](
	c echo.Context,
	req Req,
	handler func(c echo.Context, req Req) (any, error),
	out responder,
) error {
	start := time.Now()
	route := c.Path()

	txn := newrelic.FromContext(c.Request().Context())
	if txn != nil {
		txn.AddAttribute("handler.name", route)
	}

	logger := middleware.GetLogger(c).With().
		Str("operation", out.operation()).
		Str("route", route).
		Logger()

	decodeStart := time.Now()
	err := validation.BindAndValidate(c, req)
	decodeDuration := time.Since(decodeStart)
	phase(txn, "validation", decodeDuration, err)
	if err != nil {
		logger.Debug().Err(err).Dur("validation_duration", decodeDuration).Msg("request rejected")
		return err
	}

	handlerStart := time.Now()
	result, err := handler(c, req)
	handlerDuration := time.Since(handlerStart)
	phase(txn, "handler", handlerDuration, err)
	if err != nil {
		logger.Debug().Err(err).Dur("handler_duration", handlerDuration).Msg("handler returned error")
		return err
	}

	totalDuration := time.Since(start)
	if txn != nil {
		txn.AddAttribute("total.duration_ms", totalDuration.Milliseconds())
	}

	event := logger.Info().
		Dur("validation_duration", decodeDuration).
		Dur("handler_duration", handlerDuration).
		Dur("total_duration", totalDuration)
	withResultSize(event, txn, result).Msg("request completed")

	return out.write(c, result)
}

// withResultSize records how many records a list endpoint returned.
func withResultSize(event *zerolog.Event, txn *newrelic.Transaction, result any) *zerolog.Event {
	items, ok := result.([]*testtable.Response)
	if !ok {
		return event
	}
	if txn != nil {
		txn.AddAttribute("response.items", len(items))
	}
	return event.Int("items", len(items))
}

// Handle wraps a typed handler with decoding, validation, logging and
// tracing. A fresh T is allocated for every request.
//
//	group.POST("", handler.Handle(h.Handler, h.Create, http.StatusCreated))
func Handle[T any, Req request[T], Res any](
	h Handler,
	handler HandlerFunc[Req, Res],
	status int,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(c, Req(new(T)), func(c echo.Context, req Req) (any, error) {
			return handler(c, req)
		}, responder{status: status, body: true})
	}
}

// HandleNoContent is Handle for endpoints that answer with a bare status,
// e.g. DELETE with 204 or HEAD with 200.
func HandleNoContent[T any, Req request[T]](
	h Handler,
	handler HandlerFuncNoContent[Req],
	status int,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(c, Req(new(T)), func(c echo.Context, req Req) (any, error) {
			return nil, handler(c, req)
		}, responder{status: status})
	}
}

package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestIDHeader carries the correlation id in both directions.
const RequestIDHeader = echo.HeaderXRequestID

const (
	requestIDKey       = "request_id"
	maxRequestIDLength = 128
)

// RequestID reuses the caller's X-Request-ID when it is safe to log as is,
// otherwise it generates a UUID. The id is echoed on every response,
// including errors.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(RequestIDHeader)
			if !acceptableRequestID(requestID) {
				requestID = uuid.NewString()
			}

			c.Set(requestIDKey, requestID)
			c.Response().Header().Set(RequestIDHeader, requestID)

			return next(c)
		}
	}
}

// acceptableRequestID allows non-empty printable ASCII up to
// maxRequestIDLength bytes.
func acceptableRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// GetRequestID returns the request ID, or "" if RequestID did not run.
func GetRequestID(c echo.Context) string {
	requestID, _ := c.Get(requestIDKey).(string)
	return requestID
}

// Package response renders the JSON envelopes every endpoint returns:
// {statusCode, data, message, success:true} on success and
// {statusCode, message, success:false} on failure.
package response

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Error is a handler error carrying the status and client-facing message.
type Error struct {
	Status  int
	Message string
	Err     error // underlying cause, logged for 5xx, never rendered
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, msg string) *Error { return &Error{Status: status, Message: msg} }

// BadRequest covers validation failures and missing resources.
func BadRequest(msg string) *Error { return New(http.StatusBadRequest, msg) }

func Forbidden(msg string) *Error { return New(http.StatusForbidden, msg) }

// Internal hides err from the client.
func Internal(msg string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: msg, Err: err}
}

// Envelope is the success body.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// ErrorBody is the failure body.
type ErrorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// JSON writes a success envelope.  A nil data is rendered as {}.
func JSON(c echo.Context, status int, data any, msg string) error {
	if data == nil {
		data = struct{}{}
	}
	return c.JSON(status, Envelope{StatusCode: status, Data: data, Message: msg, Success: true})
}

// ErrorHandler is echo's HTTPErrorHandler.  It renders *Error, *echo.HTTPError
// and anything else (as 500) into ErrorBody.
func ErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, msg := http.StatusInternalServerError, "internal server error"

		var re *Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &re):
			status, msg = re.Status, re.Message
		case errors.As(err, &he):
			status = he.Code
			if s, ok := he.Message.(string); ok {
				msg = s
			} else {
				msg = http.StatusText(he.Code)
			}
		}

		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"status", status,
				"err", err)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, ErrorBody{StatusCode: status, Message: msg, Success: false})
	}
}

package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Body is the JSON error envelope every failed request returns.
type Body struct {
	StatusCode int               `json:"statusCode"`
	Message    string            `json:"message"`
	Error      string            `json:"error"`
	Details    map[string]string `json:"details,omitempty"`
}

// HTTPErrorHandler replaces echo's default handler. Application errors map
// to their status, echo.HTTPError keeps its code, and anything else is
// logged and reported as 500 without leaking the cause.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		body := toBody(err)
		if body.StatusCode >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("unhandled error")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(body.StatusCode)
		} else {
			writeErr = c.JSON(body.StatusCode, body)
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("write error response")
		}
	}
}

func toBody(err error) Body {
	var appErr *Error
	if errors.As(err, &appErr) {
		status := appErr.Kind.Status()
		msg := appErr.Message
		if appErr.Kind == KindInternal {
			msg = http.StatusText(status)
		}
		return Body{
			StatusCode: status,
			Message:    msg,
			Error:      http.StatusText(status),
			Details:    appErr.Fields,
		}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		return Body{StatusCode: he.Code, Message: msg, Error: http.StatusText(he.Code)}
	}

	return Body{
		StatusCode: http.StatusInternalServerError,
		Message:    "internal server error",
		Error:      http.StatusText(http.StatusInternalServerError),
	}
}

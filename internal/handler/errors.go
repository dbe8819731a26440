package handler

import (
	"errors"   // errors unwraps echo.HTTPError
	"net/http" // HTTP status codes and texts

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing
)

// ErrorHandler renders errors that reach echo (unknown routes, wrong
// methods, oversized bodies, recovered panics) in the same JSON shape as the
// handlers' own error responses.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := "internal server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(status)
		}
	}
	if status >= http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
		msg = http.StatusText(status)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = errorJSON(c, status, msg)
	}
	if err != nil {
		c.Logger().Error(err)
	}
}

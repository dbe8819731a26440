package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// TargetFunc picks the email a request is acting on, e.g. a query parameter.
type TargetFunc func(c echo.Context) string

// QueryTarget reads the target email from query parameter name.
func QueryTarget(name string) TargetFunc {
	return func(c echo.Context) string { return c.QueryParam(name) }
}

// RequireOwner admits the request only when the authenticated identity is
// the target it acts on.  An empty target passes through so the handler can
// answer with an empty result.  It must run after JWTAuth.
func RequireOwner(target TargetFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return reject(c, http.StatusUnauthorized, MsgUnauthorized)
			}
			if t := target(c); t != "" && t != id.Email {
				return reject(c, http.StatusForbidden, MsgForbiddenToken)
			}
			return next(c)
		}
	}
}
